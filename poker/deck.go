package poker

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"time"

	"holdemroom/card"
)

// Deck is a draw pile with burn-card tracking: one card is burned before
// the flop, turn, and river, and never shown in any snapshot.
type Deck struct {
	cards []card.Card
	burnt []card.Card
}

// NewDeck builds a fresh, shuffled 52-card deck. A non-zero seed makes the
// shuffle reproducible; a zero seed draws entropy from crypto/rand the way
// production play must. An override, when set, is dealt verbatim in order
// and never shuffled, for deterministic scenario tests.
func NewDeck(seed int64, override []card.Card) *Deck {
	if len(override) > 0 {
		cards := make([]card.Card, len(override))
		copy(cards, override)
		return &Deck{cards: cards}
	}

	cards := make([]card.Card, len(StandardDeck))
	copy(cards, StandardDeck)

	r := deckRand(seed)
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

func deckRand(seed int64) *mrand.Rand {
	if seed != 0 {
		return mrand.New(mrand.NewSource(seed))
	}
	max := big.NewInt(1 << 62)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand failing is a platform-level emergency; fall back to a
		// time-varying source rather than dealing an unshuffled deck.
		return mrand.New(mrand.NewSource(time.Now().UnixNano()))
	}
	return mrand.New(mrand.NewSource(n.Int64()))
}

// Remaining reports how many undealt, unburnt cards are left.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Deal removes and returns the top card, or card.CardInvalid if empty.
func (d *Deck) Deal() card.Card {
	if len(d.cards) == 0 {
		return card.CardInvalid
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c
}

// Burn removes the top card into the burn pile without exposing it.
func (d *Deck) Burn() {
	if len(d.cards) == 0 {
		return
	}
	d.burnt = append(d.burnt, d.cards[0])
	d.cards = d.cards[1:]
}
