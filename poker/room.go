package poker

import (
	"fmt"
	"sync"
	"time"

	"holdemroom/card"
)

// RoomState is the machine's context: one table, its seated players in
// rotation order, and the current hand's betting state. All mutation
// happens through the exported methods below, which the Room Actor calls
// one at a time off its event queue. The mutex still matters: reads such
// as Snapshot can arrive from other goroutines (the lobby's idle sweep
// reads one through Actor.PlayerCount) while the actor is mutating.
type RoomState struct {
	mu sync.Mutex

	cfg Config

	RoomID  string
	Players []*Player

	// nextPosition is the seat index handed to the next joiner; it only
	// ever increases, so a departed player's seat index is never reused
	// and never reassigned to whoever remains.
	nextPosition int

	Deck           *Deck
	CommunityCards card.CardList

	Pot               int64
	CurrentCommitment int64
	RoundBets         map[string]int64
	PlayersWhoActed   map[string]bool

	ActivePlayerIndex int
	DealerIndex       int
	Phase             Phase

	History []string

	round          int
	lastSettlement *Settlement
}

// NewRoomState creates an empty LOBBY-phase room.
func NewRoomState(roomID string, cfg Config) (*RoomState, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &RoomState{
		cfg:               cfg,
		RoomID:            roomID,
		Phase:             PhaseLobby,
		RoundBets:         map[string]int64{},
		PlayersWhoActed:   map[string]bool{},
		ActivePlayerIndex: InvalidSeat,
		DealerIndex:       InvalidSeat,
	}, nil
}

// Join seats a new player, or rehydrates an existing one. Reattach semantics
// are handled by the gateway; Join itself just adds a fresh seat for an id
// it has not seen before.
func (r *RoomState) Join(id, displayName string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.Players {
		if p.ID == id {
			return p, nil
		}
	}
	if len(r.Players) >= r.cfg.MaxPlayers {
		return nil, ErrSeatTaken
	}
	p := &Player{
		ID:          id,
		DisplayName: displayName,
		Tiles:       r.cfg.StartingTiles,
		Position:    r.nextPosition,
		online:      true,
	}
	r.nextPosition++
	r.Players = append(r.Players, p)
	r.appendHistory(fmt.Sprintf("%s joined at seat %d", id, p.Position))
	return p, nil
}

// Leave removes a player entirely, typically fired on disconnect-grace
// expiry. Chips they had already committed this street stay in the pot —
// they forfeit their stake rather than getting it refunded.
func (r *RoomState) Leave(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return ErrUnknownPlayer
	}

	wasActive := r.ActivePlayerIndex == idx && r.Phase.isBettingPhase()
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	delete(r.RoundBets, id)
	delete(r.PlayersWhoActed, id)
	r.appendHistory(fmt.Sprintf("%s left", id))

	if r.Phase.isBettingPhase() {
		if r.countActable() <= 1 {
			r.jumpToReveal()
		} else if wasActive {
			r.ActivePlayerIndex = r.nextActiveIndex(idx - 1)
		} else if r.ActivePlayerIndex > idx {
			r.ActivePlayerIndex--
		}
	}
	return nil
}

func (r *RoomState) indexOf(id string) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (p Phase) isBettingPhase() bool {
	switch p {
	case PhasePreFlop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}

// StartGame begins a new hand from LOBBY. Any seated player may request it;
// at least two non-spectators with tiles are required.
func (r *RoomState) StartGame(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase != PhaseLobby {
		return ErrHandInProgress
	}
	if r.indexOf(requesterID) < 0 {
		return ErrUnknownPlayer
	}
	if r.countEligible() < 2 {
		return ErrNotEnoughPlayers
	}
	r.startHandLocked()
	return nil
}

func (r *RoomState) countEligible() int {
	n := 0
	for _, p := range r.Players {
		if !p.IsSpectator && p.Tiles > 0 {
			n++
		}
	}
	return n
}

// countActable counts non-folded non-spectator players still in the hand
// (used to short-circuit a hand to REVEAL once only one remains).
func (r *RoomState) countActable() int {
	n := 0
	for _, p := range r.Players {
		if !p.IsSpectator && !p.IsFolded {
			n++
		}
	}
	return n
}

func (r *RoomState) startHandLocked() {
	r.round++
	r.CommunityCards = nil
	r.Pot = 0
	r.CurrentCommitment = 0
	r.RoundBets = map[string]int64{}
	r.PlayersWhoActed = map[string]bool{}
	r.lastSettlement = nil

	for _, p := range r.Players {
		if p.IsSpectator {
			continue
		}
		p.resetForNewHand()
	}

	r.Deck = NewDeck(r.cfg.Seed, r.cfg.DeckOverride)
	r.Phase = PhaseDealing
	r.advanceDealer()
	r.dealHoleCards()
	r.postBlinds()

	r.Phase = PhasePreFlop
	r.appendHistory("hand started")

	if r.countActable() <= 1 {
		r.jumpToReveal()
	}
}

// advanceDealer rotates the button to the next eligible seat.
func (r *RoomState) advanceDealer() {
	if len(r.Players) == 0 {
		r.DealerIndex = InvalidSeat
		return
	}
	if r.DealerIndex < 0 {
		r.DealerIndex = 0
		return
	}
	r.DealerIndex = r.nextEligibleIndex(r.DealerIndex)
}

func (r *RoomState) nextEligibleIndex(from int) int {
	n := len(r.Players)
	for k := 1; k <= n; k++ {
		idx := (from + k) % n
		if !r.Players[idx].IsSpectator && r.Players[idx].Tiles > 0 {
			return idx
		}
	}
	return from
}

func (r *RoomState) dealHoleCards() {
	for i := 0; i < 2; i++ {
		for _, p := range r.Players {
			if p.IsSpectator || p.Tiles <= 0 {
				continue
			}
			p.HoleCards = append(p.HoleCards, r.Deck.Deal())
		}
	}
}

func (r *RoomState) postBlinds() {
	n := len(r.Players)
	if n == 0 {
		return
	}
	sbIdx := r.nextEligibleIndex(r.DealerIndex)
	var bbIdx, firstToAct int
	if r.countEligible() == 2 {
		// heads-up: dealer posts SB and acts first pre-flop.
		sbIdx = r.DealerIndex
		bbIdx = r.nextEligibleIndex(sbIdx)
		firstToAct = sbIdx
	} else {
		bbIdx = r.nextEligibleIndex(sbIdx)
		firstToAct = r.nextEligibleIndex(bbIdx)
	}

	r.commitBlind(sbIdx, min64(r.cfg.SmallBlind, r.Players[sbIdx].Tiles))
	r.commitBlind(bbIdx, min64(r.cfg.BigBlind, r.Players[bbIdx].Tiles))
	r.CurrentCommitment = r.RoundBets[r.Players[bbIdx].ID]
	r.ActivePlayerIndex = firstToAct
	// Blinds are not voluntary actions: playersWhoActed starts empty so the
	// BB retains the option to act last pre-flop.
}

func (r *RoomState) commitBlind(idx int, amount int64) {
	p := r.Players[idx]
	p.Tiles -= amount
	r.RoundBets[p.ID] += amount
	r.Pot += amount
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Act applies a voluntary intent from playerID. Illegal intents are
// rejected with an error and produce no context change.
func (r *RoomState) Act(playerID string, action ActionType, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.Phase.isBettingPhase() {
		return ErrIllegalAction
	}
	idx := r.indexOf(playerID)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	if idx != r.ActivePlayerIndex {
		return ErrOutOfTurn
	}
	p := r.Players[idx]
	if !p.canAct() {
		return ErrIllegalAction
	}

	switch action {
	case ActionCheck:
		if r.RoundBets[p.ID] != r.CurrentCommitment {
			return ErrIllegalAction
		}
		p.LastAction = ActionCheck
		r.PlayersWhoActed[p.ID] = true

	case ActionCommit:
		if amount < 0 || amount > p.Tiles {
			return ErrIllegalAction
		}
		p.Tiles -= amount
		r.RoundBets[p.ID] += amount
		r.Pot += amount
		p.LastAction = ActionCommit

		newTotal := r.RoundBets[p.ID]
		if newTotal > r.CurrentCommitment {
			r.CurrentCommitment = newTotal
			r.PlayersWhoActed = map[string]bool{p.ID: true}
		} else {
			r.PlayersWhoActed[p.ID] = true
		}

	case ActionFold:
		p.IsFolded = true
		p.LastAction = ActionFold
		r.PlayersWhoActed[p.ID] = true

	default:
		return ErrIllegalAction
	}

	r.appendHistory(fmt.Sprintf("%s %s", playerID, action))

	if r.countActable() <= 1 {
		r.jumpToReveal()
		return nil
	}

	r.ActivePlayerIndex = r.nextActiveIndex(idx)
	if r.bettingRoundComplete() {
		r.advanceStreet()
	}
	return nil
}

// nextActiveIndex finds the next player to act: the smallest k such that
// players[(from+k) mod N] is non-spectator, non-folded, tiles>0.
func (r *RoomState) nextActiveIndex(from int) int {
	n := len(r.Players)
	if n == 0 {
		return InvalidSeat
	}
	for k := 1; k <= n; k++ {
		idx := (from + k) % n
		if r.Players[idx].canAct() {
			return idx
		}
	}
	return InvalidSeat
}

// bettingRoundComplete checks the completion predicate over A = active
// non-folded non-spectator players with tiles>0 or roundBet>0: the round
// ends once every player in A has either matched the current commitment or
// is all-in, and every such player has acted since the last raise.
func (r *RoomState) bettingRoundComplete() bool {
	for _, p := range r.Players {
		if p.IsSpectator || p.IsFolded {
			continue
		}
		if p.Tiles == 0 && r.RoundBets[p.ID] == 0 {
			continue
		}
		matched := r.RoundBets[p.ID] == r.CurrentCommitment || p.Tiles == 0
		if !matched || !r.PlayersWhoActed[p.ID] {
			return false
		}
	}
	return true
}

func (r *RoomState) advanceStreet() {
	switch r.Phase {
	case PhasePreFlop:
		r.Phase = PhaseFlop
		r.Deck.Burn()
		r.CommunityCards = append(r.CommunityCards, r.Deck.Deal(), r.Deck.Deal(), r.Deck.Deal())
	case PhaseFlop:
		r.Phase = PhaseTurn
		r.Deck.Burn()
		r.CommunityCards = append(r.CommunityCards, r.Deck.Deal())
	case PhaseTurn:
		r.Phase = PhaseRiver
		r.Deck.Burn()
		r.CommunityCards = append(r.CommunityCards, r.Deck.Deal())
	case PhaseRiver:
		r.jumpToReveal()
		return
	default:
		// advanceStreet is only ever called from Act() after a betting round
		// completes, which only happens during PRE_FLOP/FLOP/TURN/RIVER; any
		// other phase here means the machine reached a state it never should.
		panic(errInvalidState(fmt.Sprintf("advanceStreet called from phase %s", r.Phase)))
	}
	r.resetStreetBetting()
	if r.ActivePlayerIndex == InvalidSeat {
		// No remaining player can act (everyone left is all-in): deal out
		// the rest of the board and settle instead of stalling mid-street.
		r.jumpToReveal()
		return
	}
	r.appendHistory(fmt.Sprintf("phase -> %s", r.Phase))
}

func (r *RoomState) resetStreetBetting() {
	r.RoundBets = map[string]int64{}
	r.PlayersWhoActed = map[string]bool{}
	r.CurrentCommitment = 0
	for _, p := range r.Players {
		p.LastAction = ActionNone
	}
	// First to act post-flop is the first eligible seat after the dealer.
	r.ActivePlayerIndex = r.nextActiveIndex(r.DealerIndex)
}

// jumpToReveal deals out any remaining community cards, evaluates hands
// (or short-circuits if only one player is left), and awards the pot.
func (r *RoomState) jumpToReveal() {
	r.Phase = PhaseReveal
	r.ActivePlayerIndex = InvalidSeat
	for len(r.CommunityCards) < 5 && r.Deck != nil && r.Deck.Remaining() > 0 {
		r.Deck.Burn()
		r.CommunityCards = append(r.CommunityCards, r.Deck.Deal())
	}
	r.lastSettlement = r.settle()
	r.appendHistory("hand complete, pot awarded")
}

// Cleanup transitions REVEAL -> CLEANUP -> LOBBY/DEALING, called by the
// Room Actor after the fixed reveal delay elapses.
func (r *RoomState) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Phase = PhaseCleanup
	for _, p := range r.Players {
		p.HoleCards = nil
		if p.Tiles <= 0 {
			p.IsSpectator = true
		}
	}
	r.CommunityCards = nil
	r.Pot = 0
	r.appendHistory("cleanup")

	if r.countEligible() >= 2 {
		r.startHandLocked()
		return
	}
	r.Phase = PhaseLobby
	r.ActivePlayerIndex = InvalidSeat
}

// ApplyTimeout forces a fold for the player currently on the clock, called
// by the Room Actor when a turn timer fires.
func (r *RoomState) ApplyTimeout(playerID string) error {
	r.mu.Lock()
	idx := r.ActivePlayerIndex
	unlock := true
	defer func() {
		if unlock {
			r.mu.Unlock()
		}
	}()

	if idx < 0 || idx >= len(r.Players) || r.Players[idx].ID != playerID {
		return ErrOutOfTurn
	}
	unlock = false
	r.mu.Unlock()
	return r.Act(playerID, ActionFold, 0)
}

func (r *RoomState) appendHistory(line string) {
	r.History = append(r.History, line)
}

// RevealDelay exposes the configured REVEAL->CLEANUP delay to the actor.
func (r *RoomState) RevealDelay() time.Duration { return r.cfg.RevealDelay }

// TurnTimeout exposes the configured per-turn timeout to the actor.
func (r *RoomState) TurnTimeout() time.Duration { return r.cfg.TurnTimeout }

// DisconnectGrace exposes the configured disconnect-grace window to the actor.
func (r *RoomState) DisconnectGrace() time.Duration { return r.cfg.DisconnectGrace }

// ActivePlayerID returns the id of the player on the clock, or "" if none.
func (r *RoomState) ActivePlayerID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ActivePlayerIndex < 0 || r.ActivePlayerIndex >= len(r.Players) {
		return ""
	}
	return r.Players[r.ActivePlayerIndex].ID
}
