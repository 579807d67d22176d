package poker

import (
	"math/rand"
	"testing"

	"holdemroom/card"
)

func mustCards(t *testing.T, strs ...string) card.CardList {
	t.Helper()
	out := make(card.CardList, len(strs))
	for i, s := range strs {
		c, err := card.ParseCard(s)
		if err != nil {
			t.Fatalf("bad card %q: %v", s, err)
		}
		out[i] = c
	}
	return out
}

func TestEvalCards_WheelStraight(t *testing.T) {
	hand := mustCards(t, "As", "2h", "3c", "4d", "5s")
	r := EvalCards(hand)
	if r.Category != Straight {
		t.Fatalf("expected STRAIGHT, got %s", r.Category)
	}
	if r.Tuple[0] != 5 {
		t.Fatalf("expected wheel top card 5, got %d", r.Tuple[0])
	}
}

func TestEvalCards_AceHighStraight(t *testing.T) {
	hand := mustCards(t, "Ts", "Jh", "Qc", "Kd", "As")
	r := EvalCards(hand)
	if r.Category != Straight {
		t.Fatalf("expected STRAIGHT, got %s", r.Category)
	}
	if r.Tuple[0] != 14 {
		t.Fatalf("expected ace-high top card 14, got %d", r.Tuple[0])
	}
}

func TestEvalCards_SixCardPicksAceHighOverWheel(t *testing.T) {
	hand := mustCards(t, "9s", "Th", "Jc", "Qd", "Ks", "As")
	r := EvalCards(hand)
	if r.Category != Straight {
		t.Fatalf("expected STRAIGHT, got %s", r.Category)
	}
	if r.Tuple[0] != 14 {
		t.Fatalf("expected ace-high (10-J-Q-K-A) over the wheel, got top=%d", r.Tuple[0])
	}
}

func TestEvalCards_RoyalFlushBeatsLowerStraightFlush(t *testing.T) {
	royal := EvalCards(mustCards(t, "Ts", "Js", "Qs", "Ks", "As"))
	lower := EvalCards(mustCards(t, "4h", "5h", "6h", "7h", "8h"))

	if royal.Category != RoyalFlush {
		t.Fatalf("expected ROYAL_FLUSH, got %s", royal.Category)
	}
	if lower.Category != StraightFlush {
		t.Fatalf("expected STRAIGHT_FLUSH, got %s", lower.Category)
	}
	if !lower.Less(royal) {
		t.Fatalf("expected royal flush to outrank a lower straight flush")
	}
}

func TestEvalCards_FullHouseOverFlush(t *testing.T) {
	fullHouse := EvalCards(mustCards(t, "3s", "3h", "3c", "9d", "9s"))
	flush := EvalCards(mustCards(t, "2h", "5h", "8h", "Jh", "Kh"))
	if fullHouse.Category != FullHouse {
		t.Fatalf("expected FULL_HOUSE, got %s", fullHouse.Category)
	}
	if flush.Category != Flush {
		t.Fatalf("expected FLUSH, got %s", flush.Category)
	}
	if !flush.Less(fullHouse) {
		t.Fatalf("expected full house to outrank flush")
	}
}

// TestEvalCards_TotalOrder checks reflexivity/antisymmetry/transitivity of
// Less/Equal over random 7-card hands.
func TestEvalCards_TotalOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const samples = 10000

	hands := make([]HandResult, samples)
	for i := 0; i < samples; i++ {
		hands[i] = EvalCards(randomSevenCards(rng))
	}

	for i, a := range hands {
		if a.Less(a) {
			t.Fatalf("hand %d compares less than itself", i)
		}
	}
	for i := 0; i < 200; i++ {
		a, b, c := hands[i], hands[(i+7)%samples], hands[(i+13)%samples]
		if a.Less(b) && b.Less(c) && !a.Less(c) {
			t.Fatalf("transitivity violated: a<b<c but !(a<c)\na=%+v b=%+v c=%+v", a, b, c)
		}
		if a.Less(b) && b.Less(a) {
			t.Fatalf("antisymmetry violated for %+v and %+v", a, b)
		}
	}
}

func randomSevenCards(rng *rand.Rand) card.CardList {
	deck := make([]card.Card, len(StandardDeck))
	copy(deck, StandardDeck)
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return card.CardList(deck[:7])
}
