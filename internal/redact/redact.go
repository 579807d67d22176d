// Package redact implements the per-viewer snapshot projection: it never
// mutates the live room, it only ever reads a poker.RoomSnapshot and emits
// a deep copy with hole cards masked for everyone but the viewer.
package redact

import (
	"holdemroom/card"
	"holdemroom/poker"
)

// Player is one seat as a viewer is allowed to see it.
type Player struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"displayName"`
	Tiles       int64         `json:"tiles"`
	HoleCards   card.CardList `json:"holeCards"`
	IsFolded    bool          `json:"isFolded"`
	IsSpectator bool          `json:"isSpectator"`
	Position    int           `json:"position"`
	LastAction  string        `json:"lastAction"`
}

// View is the client-facing room state: no deck and no playersWhoActed
// bookkeeping, for every viewer regardless of seat.
type View struct {
	RoomID            string   `json:"roomId"`
	Phase             string   `json:"phase"`
	Players           []Player `json:"players"`
	CommunityCards    card.CardList `json:"communityCards"`
	Pot               int64    `json:"pot"`
	CurrentCommitment int64    `json:"currentCommitment"`
	ActivePlayerIndex int      `json:"activePlayerIndex"`
	DealerIndex       int      `json:"dealerIndex"`
	History           []string `json:"history"`
}

// ForViewer builds the snapshot a single subscriber socket should receive.
// viewerPlayerID == "" means a spectator: every hole card is masked until
// REVEAL, at which point non-folded players' cards become visible to all.
func ForViewer(s poker.RoomSnapshot, viewerPlayerID string) View {
	v := View{
		RoomID:            s.RoomID,
		Phase:             s.Phase.String(),
		CommunityCards:    append(card.CardList{}, s.CommunityCards...),
		Pot:               s.Pot,
		CurrentCommitment: s.CurrentCommitment,
		ActivePlayerIndex: s.ActivePlayerIndex,
		DealerIndex:       s.DealerIndex,
		History:           append([]string{}, s.History...),
	}

	revealed := s.Phase == poker.PhaseReveal || s.Phase == poker.PhaseCleanup

	for _, p := range s.Players {
		cp := Player{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Tiles:       p.Tiles,
			IsFolded:    p.IsFolded,
			IsSpectator: p.IsSpectator,
			Position:    p.Position,
			LastAction:  p.LastAction,
		}

		switch {
		case viewerPlayerID != "" && p.ID == viewerPlayerID:
			cp.HoleCards = append(card.CardList{}, p.HoleCards...)
		case revealed && !p.IsFolded:
			cp.HoleCards = append(card.CardList{}, p.HoleCards...)
		default:
			cp.HoleCards = card.CardList{}
		}
		v.Players = append(v.Players, cp)
	}
	return v
}
