package card

// CardList is a typed slice of Card used for deck, hole-card, and
// community-card fields across the room state; it marshals to/from JSON as
// an array of short card strings via Card's MarshalJSON/UnmarshalJSON.
type CardList []Card
