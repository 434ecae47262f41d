// Command simulate runs batches of bot-vs-bot matches and prints aggregate
// outcomes. Useful when tuning the bot's call threshold or scoring rules.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/UParthsarathi/Tristack-S/engine/agent"
)

func main() {
	matches := flag.Int("matches", 1000, "number of matches to play")
	seats := flag.Int("seats", 3, "players per match")
	rounds := flag.Int("rounds", 5, "rounds per match")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "base seed, consecutive matches use seed+i")
	flag.Parse()

	stats, err := agent.Simulate(*seed, *matches, *seats, *rounds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("matches: %d  seats: %d  rounds: %d  avg actions/match: %.1f\n",
		stats.Matches, *seats, *rounds, stats.AvgSteps)
	for i := range stats.Wins {
		fmt.Printf("  seat %d: wins %5d (%5.1f%%)  avg total %6.1f\n",
			i, stats.Wins[i],
			100*float64(stats.Wins[i])/float64(stats.Matches),
			stats.AvgTotal[i])
	}
}
