package poker

import (
	"testing"

	"holdemroom/card"
)

// pinnedDeck returns a DeckOverride whose first cards are exactly head, in
// order, followed by the remaining standard-deck cards (any order) so the
// result still passes validateDeckOverride's "same 52 cards" check.
func pinnedDeck(t *testing.T, head ...card.Card) []card.Card {
	t.Helper()
	used := make(map[card.Card]bool, len(head))
	for _, c := range head {
		used[c] = true
	}
	out := append([]card.Card{}, head...)
	for _, c := range StandardDeck {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

func newTestRoom(t *testing.T, cfg Config) *RoomState {
	t.Helper()
	r, err := NewRoomState("test-room", cfg)
	if err != nil {
		t.Fatalf("NewRoomState: %v", err)
	}
	return r
}

// S1 — All fold to BB pre-flop. The scenario's invariant (the other two
// players each lose exactly their posted blind, the BB wins the pot
// uncontested) holds regardless of which seat the button starts on, so the
// test discovers SB/BB/UTG from the dealt state rather than hardcoding seats.
func TestScenario_AllFoldToBB(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 3
	r := newTestRoom(t, cfg)

	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := r.Join(id, id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if r.Phase != PhasePreFlop {
		t.Fatalf("expected PRE_FLOP, got %s", r.Phase)
	}

	sbID, bbID, utgID := r.Players[(r.DealerIndex+1)%3].ID, r.Players[(r.DealerIndex+2)%3].ID, r.Players[r.DealerIndex].ID

	if err := r.Act(utgID, ActionFold, 0); err != nil {
		t.Fatalf("utg fold: %v", err)
	}
	if err := r.Act(sbID, ActionFold, 0); err != nil {
		t.Fatalf("sb fold: %v", err)
	}

	if r.Phase != PhaseReveal {
		t.Fatalf("expected REVEAL after all-fold-to-BB, got %s", r.Phase)
	}
	settle := r.LastSettlement()
	if settle == nil || len(settle.Winners) != 1 || settle.Winners[0] != bbID {
		t.Fatalf("expected %s (BB) to win uncontested, got %+v", bbID, settle)
	}
	if settle.Pot != 30 {
		t.Fatalf("expected pot=30, got %d", settle.Pot)
	}

	tiles := map[string]int64{}
	for _, p := range r.Players {
		tiles[p.ID] = p.Tiles
	}
	if tiles[sbID] != 990 || tiles[bbID] != 1010 || tiles[utgID] != 1000 {
		t.Fatalf("expected sb=990 bb=1010 utg=1000, got sb=%d bb=%d utg=%d", tiles[sbID], tiles[bbID], tiles[utgID])
	}
}

// S2 — Call-through to showdown, clear winner, with a pinned deck.
func TestScenario_CallThroughToShowdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2

	sa, _ := card.ParseCard("As")
	c2, _ := card.ParseCard("2c")
	ha, _ := card.ParseCard("Ah")
	d7, _ := card.ParseCard("7d")
	burn1, _ := card.ParseCard("2d")
	da, _ := card.ParseCard("Ad")
	c4, _ := card.ParseCard("4c")
	s9, _ := card.ParseCard("9s")
	burn2, _ := card.ParseCard("3d")
	h3, _ := card.ParseCard("3h")
	burn3, _ := card.ParseCard("4d")
	kd, _ := card.ParseCard("Kd")

	cfg.DeckOverride = pinnedDeck(t, sa, c2, ha, d7, burn1, da, c4, s9, burn2, h3, burn3, kd)

	r := newTestRoom(t, cfg)
	if _, err := r.Join("p1", "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Join("p2", "p2"); err != nil {
		t.Fatal(err)
	}
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	// Heads-up: dealer (p1) posts SB and acts first pre-flop.
	if err := r.Act("p1", ActionCommit, 10); err != nil {
		t.Fatalf("p1 commit: %v", err)
	}
	if err := r.Act("p2", ActionCheck, 0); err != nil {
		t.Fatalf("p2 check: %v", err)
	}
	if r.Phase != PhaseFlop {
		t.Fatalf("expected FLOP, got %s", r.Phase)
	}
	for _, street := range []Phase{PhaseFlop, PhaseTurn, PhaseRiver} {
		_ = street
		first := r.Players[r.ActivePlayerIndex].ID
		second := r.Players[(r.ActivePlayerIndex+1)%len(r.Players)].ID
		if err := r.Act(first, ActionCheck, 0); err != nil {
			t.Fatalf("check 1: %v", err)
		}
		if r.Phase == PhaseReveal {
			break
		}
		if err := r.Act(second, ActionCheck, 0); err != nil {
			t.Fatalf("check 2: %v", err)
		}
	}

	if r.Phase != PhaseReveal {
		t.Fatalf("expected REVEAL, got %s", r.Phase)
	}
	settle := r.LastSettlement()
	if settle == nil || len(settle.Winners) != 1 || settle.Winners[0] != "p1" {
		t.Fatalf("expected p1 to win with three aces, got %+v", settle)
	}
	if settle.Pot != 40 {
		t.Fatalf("expected pot=40, got %d", settle.Pot)
	}

	var p1, p2 *Player
	for _, p := range r.Players {
		if p.ID == "p1" {
			p1 = p
		} else {
			p2 = p
		}
	}
	if p1.Tiles != 1020 || p2.Tiles != 980 {
		t.Fatalf("expected balances (1020,980), got (%d,%d)", p1.Tiles, p2.Tiles)
	}
}

// S3 — A raise resets the actor set: previously-matched players must act
// again before the round can close.
func TestScenario_RaiseResetsActedSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 3
	r := newTestRoom(t, cfg)
	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := r.Join(id, id); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	sbID, bbID, utgID := r.Players[(r.DealerIndex+1)%3].ID, r.Players[(r.DealerIndex+2)%3].ID, r.Players[r.DealerIndex].ID

	// UTG calls to 20.
	if err := r.Act(utgID, ActionCommit, 20); err != nil {
		t.Fatalf("utg commit: %v", err)
	}
	// SB calls to 20 (already posted 10, commits 10 more).
	if err := r.Act(sbID, ActionCommit, 10); err != nil {
		t.Fatalf("sb commit: %v", err)
	}
	// BB raises to 60 (already posted 20, commits 40 more).
	if err := r.Act(bbID, ActionCommit, 40); err != nil {
		t.Fatalf("bb commit: %v", err)
	}

	if r.Phase != PhasePreFlop {
		t.Fatalf("round should not be complete after a raise, got phase %s", r.Phase)
	}
	if r.CurrentCommitment != 60 {
		t.Fatalf("expected currentCommitment=60, got %d", r.CurrentCommitment)
	}
	if len(r.PlayersWhoActed) != 1 || !r.PlayersWhoActed[bbID] {
		t.Fatalf("expected playersWhoActed={bb}, got %+v", r.PlayersWhoActed)
	}
}

// Turn timeout auto-folds the active player (S5).
func TestApplyTimeout_ForcesFold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 3
	r := newTestRoom(t, cfg)
	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := r.Join(id, id); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	active := r.Players[r.ActivePlayerIndex].ID
	if err := r.ApplyTimeout(active); err != nil {
		t.Fatalf("ApplyTimeout: %v", err)
	}
	for _, p := range r.Players {
		if p.ID == active && !p.IsFolded {
			t.Fatalf("expected %s to be folded after timeout", active)
		}
	}
	if r.Players[r.ActivePlayerIndex].ID == active {
		t.Fatalf("expected turn to advance past the folded player")
	}
}

// S6 — Both heads-up players shove pre-flop. With every non-folded player
// all-in, resetStreetBetting finds no one left who can act; the hand must
// cascade straight through to REVEAL rather than stall mid-street with
// ActivePlayerIndex stuck at InvalidSeat.
func TestScenario_AllInCascadesToReveal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	r := newTestRoom(t, cfg)
	if _, err := r.Join("p1", "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Join("p2", "p2"); err != nil {
		t.Fatal(err)
	}
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	firstID := r.Players[r.ActivePlayerIndex].ID
	var firstTiles int64
	for _, p := range r.Players {
		if p.ID == firstID {
			firstTiles = p.Tiles
		}
	}
	if err := r.Act(firstID, ActionCommit, firstTiles); err != nil {
		t.Fatalf("%s shoves: %v", firstID, err)
	}

	secondID := r.Players[r.ActivePlayerIndex].ID
	var secondTiles int64
	for _, p := range r.Players {
		if p.ID == secondID {
			secondTiles = p.Tiles
		}
	}
	if err := r.Act(secondID, ActionCommit, secondTiles); err != nil {
		t.Fatalf("%s calls all-in: %v", secondID, err)
	}

	if r.Phase != PhaseReveal {
		t.Fatalf("expected REVEAL once both players are all-in, got %s", r.Phase)
	}
	if r.ActivePlayerIndex != InvalidSeat {
		t.Fatalf("expected no active player once the hand reaches REVEAL, got index %d", r.ActivePlayerIndex)
	}
	if len(r.CommunityCards) != 5 {
		t.Fatalf("expected all 5 community cards dealt, got %d", len(r.CommunityCards))
	}
	settle := r.LastSettlement()
	if settle == nil || len(settle.Winners) == 0 {
		t.Fatalf("expected the pot to be settled, got %+v", settle)
	}
}

func TestJoin_RejectsOverfullRoom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	r := newTestRoom(t, cfg)
	if _, err := r.Join("p1", "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Join("p2", "p2"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Join("p3", "p3"); err != ErrSeatTaken {
		t.Fatalf("expected ErrSeatTaken, got %v", err)
	}
}
