package poker

import "holdemroom/card"

// PlayerResult is one player's showdown outcome.
type PlayerResult struct {
	PlayerID  string
	Hand      HandResult
	BestFive  card.CardList
	IsWinner  bool
	WinAmount int64
}

// Settlement is the outcome of one hand's showdown/award step.
type Settlement struct {
	Pot           int64
	PlayerResults []PlayerResult
	Winners       []string
}

// LastSettlement returns the most recent hand's award outcome, or nil if no
// hand has completed yet.
func (r *RoomState) LastSettlement() *Settlement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSettlement
}

// settle evaluates all non-folded non-spectator hands and awards the pot.
// Single-pot only: side-pot accounting for simultaneous all-ins is not
// modeled. Must be called with r.mu already held.
func (r *RoomState) settle() *Settlement {
	contenders := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsSpectator || p.IsFolded {
			continue
		}
		contenders = append(contenders, p)
	}

	pot := r.Pot
	out := &Settlement{Pot: pot}

	if len(contenders) == 0 {
		r.Pot = 0
		return out
	}

	if len(contenders) == 1 {
		w := contenders[0]
		w.Tiles += pot
		out.PlayerResults = append(out.PlayerResults, PlayerResult{
			PlayerID: w.ID, IsWinner: true, WinAmount: pot,
		})
		out.Winners = []string{w.ID}
		r.Pot = 0
		return out
	}

	evals := make(map[string]HandResult, len(contenders))
	bestFives := make(map[string]card.CardList, len(contenders))
	for _, p := range contenders {
		all := make(card.CardList, 0, 7)
		all = append(all, p.HoleCards...)
		all = append(all, r.CommunityCards...)
		hr, five := evalWithBestFive(all)
		evals[p.ID] = hr
		bestFives[p.ID] = five
		out.PlayerResults = append(out.PlayerResults, PlayerResult{PlayerID: p.ID, Hand: hr, BestFive: five})
	}

	var best HandResult
	first := true
	for _, hr := range evals {
		if first || best.Less(hr) {
			best = hr
			first = false
		}
	}

	var winners []*Player
	for _, p := range contenders {
		if evals[p.ID].Equal(best) {
			winners = append(winners, p)
		}
	}
	seatIndex := make(map[string]int, len(r.Players))
	for i, p := range r.Players {
		seatIndex[p.ID] = i
	}
	orderWinnersBySeatAfterDealer(winners, seatIndex, r.DealerIndex, len(r.Players))

	share := pot / int64(len(winners))
	remainder := pot % int64(len(winners))
	for i, w := range winners {
		amt := share
		if i == 0 {
			amt += remainder
		}
		w.Tiles += amt
		out.Winners = append(out.Winners, w.ID)
		for i := range out.PlayerResults {
			if out.PlayerResults[i].PlayerID == w.ID {
				out.PlayerResults[i].IsWinner = true
				out.PlayerResults[i].WinAmount = amt
			}
		}
	}
	r.Pot = 0
	return out
}

// orderWinnersBySeatAfterDealer sorts winners by current-table seat distance
// after the dealer, so the odd chip goes to winners[0]. seatIndex gives each
// player's index into the live, rotation-ordered Players slice — not their
// stable, never-renumbered Position label, which carries no rotation
// information once seats have been vacated.
func orderWinnersBySeatAfterDealer(winners []*Player, seatIndex map[string]int, dealerIndex, n int) {
	if n == 0 {
		return
	}
	dist := func(pos int) int {
		d := pos - dealerIndex
		if d <= 0 {
			d += n
		}
		return d
	}
	for i := 1; i < len(winners); i++ {
		j := i
		for j > 0 && dist(seatIndex[winners[j].ID]) < dist(seatIndex[winners[j-1].ID]) {
			winners[j], winners[j-1] = winners[j-1], winners[j]
			j--
		}
	}
}

// evalWithBestFive evaluates 2..7 cards and also returns the specific 5
// cards that produced the winning HandResult.
func evalWithBestFive(cards card.CardList) (HandResult, card.CardList) {
	n := len(cards)
	if n <= 5 {
		return evalExactly(cards), append(card.CardList{}, cards...)
	}

	var best HandResult
	var bestFive card.CardList
	first := true
	combinations(n, 5, func(idx []int) {
		sub := make(card.CardList, 5)
		for i, j := range idx {
			sub[i] = cards[j]
		}
		r := evalExactly(sub)
		if first || best.Less(r) {
			best = r
			bestFive = append(card.CardList{}, sub...)
			first = false
		}
	})
	return best, bestFive
}
