package engine

// BotCallThreshold is the joker-adjusted hand value at or below which the
// bot risks a call.
const BotCallThreshold = 5

// BotActionType is the kind of turn-start move a bot chose.
type BotActionType string

const (
	BotToss    BotActionType = "TOSS"
	BotDiscard BotActionType = "DISCARD"
	BotCall    BotActionType = "SHOW"
)

// BotAction is a bot's chosen move, shaped like a human action request.
type BotAction struct {
	Type    BotActionType `json:"type"`
	CardIDs []int         `json:"cardIds,omitempty"`
}

// Decide maps a hand and game context to one turn-start action. It is a
// pure function with no memory, evaluated fresh each turn. Priority, first
// match wins:
//
//  1. toss the first same-rank non-joker pair found in hand order,
//     if no toss happened yet this turn;
//  2. call when the joker-adjusted hand value is at most BotCallThreshold;
//  3. discard the highest joker-adjusted card (strict comparison, so the
//     earliest card wins ties).
//
// After a toss or discard the bot always draws from the draw pile; that
// follow-up is scheduled by the session, not decided here. A nil player or
// empty hand degrades to an empty discard rather than failing.
func Decide(p *Player, joker *Card, tossedThisTurn bool) BotAction {
	if p == nil || len(p.Hand) == 0 {
		return BotAction{Type: BotDiscard}
	}
	hand := p.Hand

	if !tossedThisTurn && len(hand) >= 2 {
		byRank := make(map[Rank][]Card)
		var order []Rank
		for _, c := range hand {
			if _, seen := byRank[c.Rank]; !seen {
				order = append(order, c.Rank)
			}
			byRank[c.Rank] = append(byRank[c.Rank], c)
		}
		for _, r := range order {
			group := byRank[r]
			if len(group) < 2 {
				continue
			}
			if joker != nil && r == joker.Rank {
				continue
			}
			return BotAction{Type: BotToss, CardIDs: []int{group[0].ID, group[1].ID}}
		}
	}

	if HandValue(hand, joker) <= BotCallThreshold {
		return BotAction{Type: BotCall}
	}

	highest := hand[0]
	highestVal := -1
	for _, c := range hand {
		v := c.Value
		if joker != nil && c.Rank == joker.Rank {
			v = 0
		}
		if v > highestVal {
			highestVal = v
			highest = c
		}
	}
	return BotAction{Type: BotDiscard, CardIDs: []int{highest.ID}}
}
