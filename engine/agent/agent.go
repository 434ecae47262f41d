// Package agent runs scripted playouts for policy evaluation. Every seat
// follows the built-in bot policy, so a batch of playouts measures how rule
// or threshold changes shift win rates and score distributions.
package agent

import (
	"fmt"

	"github.com/UParthsarathi/Tristack-S/engine"
)

// maxSteps bounds one match. A full match ends in far fewer actions; the
// cap only catches a policy that stops making progress.
const maxSteps = 10000

// Result is the outcome of one completed match.
type Result struct {
	Winners []int // Seat ids sharing the lowest total.
	Totals  []int // Final total score per seat.
	Rounds  int   // Rounds actually played.
	Steps   int   // Engine actions consumed.
}

// Stats aggregates a batch of playouts.
type Stats struct {
	Matches  int
	Wins     []int // Win count per seat; shared wins count for every winner.
	AvgTotal []float64
	AvgSteps float64
}

// Playout runs one full bot-vs-bot match to completion.
func Playout(seed uint64, seats, totalRounds int) (Result, error) {
	g := engine.NewMatch(seed)
	players := make([]engine.Player, seats)
	for i := range players {
		players[i] = engine.Player{ID: i, Name: fmt.Sprintf("Bot %d", i+1), IsBot: true}
	}
	if err := g.StartRound(1, players, engine.ModeSinglePlayer, totalRounds); err != nil {
		return Result{}, err
	}

	steps := 0
	for g.Phase != engine.PhaseMatchEnd {
		if steps++; steps > maxSteps {
			return Result{}, fmt.Errorf("playout exceeded %d steps in phase %s", maxSteps, g.Phase)
		}
		if err := step(g); err != nil {
			return Result{}, err
		}
	}

	res := Result{
		Winners: winnerIDs(g.Winners()),
		Totals:  make([]int, seats),
		Rounds:  g.RoundNumber,
		Steps:   steps,
	}
	for i, p := range g.Players {
		res.Totals[i] = p.TotalScore
	}
	return res, nil
}

// winnerIDs reduces the winning players to their seat ids.
func winnerIDs(winners []engine.Player) []int {
	ids := make([]int, len(winners))
	for i, p := range winners {
		ids[i] = p.ID
	}
	return ids
}

// step advances the match by exactly one engine action.
func step(g *engine.GameState) error {
	switch g.Phase {
	case engine.PhaseTurnStart:
		p := g.CurrentPlayer()
		decision := engine.Decide(p, g.RoundJoker, g.TossedThisTurn)
		switch decision.Type {
		case engine.BotToss:
			return g.Toss(decision.CardIDs[0], decision.CardIDs[1])
		case engine.BotCall:
			return g.Call()
		default:
			if len(decision.CardIDs) == 0 {
				return fmt.Errorf("bot produced no discard for seat %d", p.ID)
			}
			return g.Discard(decision.CardIDs[0])
		}
	case engine.PhaseTossingDraw, engine.PhaseDraw:
		return g.Draw(engine.DrawDeck)
	case engine.PhaseRoundEnd:
		return g.AdvanceRound()
	default:
		return fmt.Errorf("no scripted action for phase %s", g.Phase)
	}
}

// Simulate runs a batch of playouts with consecutive seeds.
func Simulate(baseSeed uint64, matches, seats, totalRounds int) (Stats, error) {
	if matches <= 0 {
		return Stats{}, fmt.Errorf("matches must be positive, got %d", matches)
	}
	stats := Stats{
		Matches:  matches,
		Wins:     make([]int, seats),
		AvgTotal: make([]float64, seats),
	}
	totalSteps := 0
	for m := 0; m < matches; m++ {
		res, err := Playout(baseSeed+uint64(m), seats, totalRounds)
		if err != nil {
			return Stats{}, fmt.Errorf("match %d: %w", m, err)
		}
		for _, w := range res.Winners {
			stats.Wins[w]++
		}
		for i, total := range res.Totals {
			stats.AvgTotal[i] += float64(total)
		}
		totalSteps += res.Steps
	}
	for i := range stats.AvgTotal {
		stats.AvgTotal[i] /= float64(matches)
	}
	stats.AvgSteps = float64(totalSteps) / float64(matches)
	return stats, nil
}
