package poker

import "holdemroom/card"

// PlayerSnapshot is one seat's persisted/internal view. The Store Adapter
// persists the full, non-redacted RoomState this way.
type PlayerSnapshot struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"displayName"`
	Tiles       int64         `json:"tiles"`
	HoleCards   card.CardList `json:"holeCards"`
	IsFolded    bool          `json:"isFolded"`
	IsSpectator bool          `json:"isSpectator"`
	Position    int           `json:"position"`
	LastAction  string        `json:"lastAction"`
}

// RoomSnapshot is the full, non-redacted room context. The Snapshot
// Redactor (internal/redact) derives each subscriber's view from one of
// these.
type RoomSnapshot struct {
	RoomID  string           `json:"roomId"`
	Phase   Phase            `json:"phase"`
	Players []PlayerSnapshot `json:"players"`

	Deck           card.CardList `json:"deck"`
	CommunityCards card.CardList `json:"communityCards"`

	Pot               int64           `json:"pot"`
	CurrentCommitment int64           `json:"currentCommitment"`
	RoundBets         map[string]int64 `json:"roundBets"`
	PlayersWhoActed   map[string]bool  `json:"playersWhoActed"`

	ActivePlayerIndex int `json:"activePlayerIndex"`
	DealerIndex       int `json:"dealerIndex"`

	History []string `json:"history"`
}

// Snapshot produces the full internal state. Never sent to clients directly
// — see internal/redact for the per-viewer client-facing projection.
func (r *RoomState) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := RoomSnapshot{
		RoomID:            r.RoomID,
		Phase:             r.Phase,
		CommunityCards:    append(card.CardList{}, r.CommunityCards...),
		Pot:               r.Pot,
		CurrentCommitment: r.CurrentCommitment,
		RoundBets:         copyInt64Map(r.RoundBets),
		PlayersWhoActed:   copyBoolMap(r.PlayersWhoActed),
		ActivePlayerIndex: r.ActivePlayerIndex,
		DealerIndex:       r.DealerIndex,
		History:           append([]string{}, r.History...),
	}
	if r.Deck != nil {
		s.Deck = append(card.CardList{}, r.Deck.cards...)
	}
	for _, p := range r.Players {
		s.Players = append(s.Players, PlayerSnapshot{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Tiles:       p.Tiles,
			HoleCards:   append(card.CardList{}, p.HoleCards...),
			IsFolded:    p.IsFolded,
			IsSpectator: p.IsSpectator,
			Position:    p.Position,
			LastAction:  p.LastAction.String(),
		})
	}
	return s
}

func copyInt64Map(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
