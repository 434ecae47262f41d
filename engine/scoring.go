package engine

// Caller payoffs under the call rule. The caller bets they hold the lowest
// hand: a sole lowest scores zero, a shared lowest costs 25, and losing the
// bet costs 50. Non-callers always score their raw hand value.
const (
	SharedCallPenalty = 25
	FailedCallPenalty = 50
)

// HandValue returns the joker-adjusted value of a hand: the sum of each
// card's base value, except cards sharing the round joker's rank, which
// contribute 0. A nil or empty hand yields 0; it never fails.
func HandValue(hand []Card, joker *Card) int {
	total := 0
	for _, c := range hand {
		if joker != nil && c.Rank == joker.Rank {
			continue
		}
		total += c.Value
	}
	return total
}

// RoundScore is one player's result for a round.
type RoundScore struct {
	PlayerID int `json:"playerId"`
	Score    int `json:"roundScore"`
}

// RoundScores computes the round's score distribution. Every non-caller
// scores their own hand value unconditionally; the caller's score depends on
// how their value compares to the table's lowest:
//
//	sole lowest      → 0
//	lowest, but tied → SharedCallPenalty
//	above the lowest → FailedCallPenalty
//
// Only the caller's own comparison matters; ties among non-callers carry no
// adjustment. An out-of-range callerIndex degrades to raw values for
// everyone rather than failing.
func RoundScores(players []Player, callerIndex int, joker *Card) []RoundScore {
	if len(players) == 0 {
		return nil
	}

	values := make([]int, len(players))
	for i, p := range players {
		values[i] = HandValue(p.Hand, joker)
	}

	out := make([]RoundScore, len(players))

	if callerIndex < 0 || callerIndex >= len(players) {
		for i, p := range players {
			out[i] = RoundScore{PlayerID: p.ID, Score: values[i]}
		}
		return out
	}

	lowest := values[0]
	for _, v := range values[1:] {
		if v < lowest {
			lowest = v
		}
	}
	tieCount := 0
	for _, v := range values {
		if v == lowest {
			tieCount++
		}
	}

	for i, p := range players {
		score := values[i]
		if i == callerIndex {
			switch {
			case values[i] == lowest && tieCount == 1:
				score = 0
			case values[i] == lowest:
				score = SharedCallPenalty
			default:
				score = FailedCallPenalty
			}
		}
		out[i] = RoundScore{PlayerID: p.ID, Score: score}
	}
	return out
}
