package poker

import (
	"fmt"
	"time"

	"holdemroom/card"
)

// Config holds the per-room constants a room is started with.
type Config struct {
	MaxPlayers int

	SmallBlind    int64
	BigBlind      int64
	StartingTiles int64

	TurnTimeout      time.Duration
	RevealDelay      time.Duration
	DisconnectGrace  time.Duration

	// Seed pins the shuffle RNG (0 => crypto/rand sourced). Tests use a
	// non-zero seed for determinism; production leaves it at 0.
	Seed int64

	// DeckOverride pins the full 52-card deal order for deterministic
	// tests, consumed from index 0 upward.
	DeckOverride []card.Card
}

// DefaultConfig returns the documented production defaults.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:      9,
		SmallBlind:      10,
		BigBlind:        20,
		StartingTiles:   1000,
		TurnTimeout:     30 * time.Second,
		RevealDelay:     5 * time.Second,
		DisconnectGrace: 60 * time.Second,
	}
}

func (c Config) validate() error {
	if c.MaxPlayers <= 1 {
		return fmt.Errorf("MaxPlayers must be > 1")
	}
	if c.SmallBlind < 0 || c.BigBlind <= 0 || c.SmallBlind > c.BigBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", c.SmallBlind, c.BigBlind)
	}
	if c.StartingTiles < 0 {
		return fmt.Errorf("StartingTiles must be >= 0")
	}
	if c.TurnTimeout < 0 || c.RevealDelay < 0 || c.DisconnectGrace < 0 {
		return fmt.Errorf("durations must be >= 0")
	}
	return validateDeckOverride(c.DeckOverride)
}

func validateDeckOverride(deck []card.Card) error {
	if len(deck) == 0 {
		return nil
	}
	if len(deck) != len(StandardDeck) {
		return fmt.Errorf("deck override must contain %d cards, got %d", len(StandardDeck), len(deck))
	}
	valid := make(map[card.Card]struct{}, len(StandardDeck))
	for _, c := range StandardDeck {
		valid[c] = struct{}{}
	}
	seen := make(map[card.Card]struct{}, len(deck))
	for i, c := range deck {
		if _, ok := valid[c]; !ok {
			return fmt.Errorf("deck override contains invalid card at index %d: %v", i, c)
		}
		if _, ok := seen[c]; ok {
			return fmt.Errorf("deck override contains duplicate card at index %d: %v", i, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
