package engine

import "fmt"

// StartRound deals a fresh round: new shuffled deck, a joker rank drawn for
// the round, three cards per seat, empty open pile. When existing players
// are passed (every round after the first), identities and total scores
// carry over, per-round fields reset, and whoever ended the previous round
// by calling leads this one. totalRounds ≤ 0 keeps the current setting.
//
// Validation happens before any mutation; on error the state is unchanged.
func (g *GameState) StartRound(roundNum int, existing []Player, mode Mode, totalRounds int) error {
	if roundNum < 1 {
		return fmt.Errorf("round number must be at least 1, got %d", roundNum)
	}
	if len(existing) < 2 {
		return fmt.Errorf("need at least 2 players, got %d", len(existing))
	}
	if len(existing) > MaxSeats {
		return fmt.Errorf("too many players: %d (max %d)", len(existing), MaxSeats)
	}
	if mode == "" {
		mode = g.Mode
	}
	if totalRounds <= 0 {
		totalRounds = g.TotalRounds
		if totalRounds <= 0 {
			totalRounds = DefaultTotalRounds
		}
	}

	deck := NewDeck(g.rand())

	// The joker is a rank designation, not a specific card: a copy of a
	// random deck card is kept and the card itself stays in play.
	joker := deck[g.rand().Intn(len(deck))]

	startingIndex := 0
	startLog := fmt.Sprintf("Round %d started! Joker is %s", roundNum, joker.Rank)
	for _, p := range existing {
		if p.WasCaller {
			startingIndex = p.ID
			startLog = fmt.Sprintf("Round %d started! %s called SHOW last round and will start this round.", roundNum, p.Name)
			break
		}
	}

	players := make([]Player, len(existing))
	for i, p := range existing {
		players[i] = Player{
			ID:         p.ID,
			Name:       p.Name,
			IsBot:      p.IsBot,
			TotalScore: p.TotalScore,
			LastAction: "Waiting...",
		}
	}

	// Deal from the top of the deck.
	for i := range players {
		players[i].Hand = append([]Card(nil), deck[:CardsPerHand]...)
		deck = deck[CardsPerHand:]
	}

	g.Mode = mode
	g.Deck = deck
	g.OpenDeck = nil
	g.Players = players
	g.CurrentPlayerIndex = startingIndex
	g.RoundJoker = &joker
	g.RoundNumber = roundNum
	g.TotalRounds = totalRounds
	g.Phase = PhaseTurnStart
	g.TurnLog = []string{startLog}
	g.LastDiscardedID = NoCard
	g.TossedThisTurn = false
	g.PendingDiscard = nil
	g.PendingToss = nil
	g.SelectedCardIDs = nil
	g.Transitioning = mode == ModeMultiplayer
	return nil
}

// Toss discards a same-rank pair without ending the turn's discard
// obligation. The pair is held aside until the follow-up draw completes.
// Legal only at turn start, once per turn, for two distinct hand cards of
// equal rank that is not the joker's rank.
func (g *GameState) Toss(cardA, cardB int) error {
	if g.Phase != PhaseTurnStart {
		return fmt.Errorf("cannot toss during %s", g.Phase)
	}
	if g.TossedThisTurn {
		return fmt.Errorf("already tossed this turn")
	}
	if cardA == cardB {
		return fmt.Errorf("toss requires two distinct cards")
	}
	p := g.CurrentPlayer()
	if p == nil {
		return fmt.Errorf("no acting player")
	}
	a := findCard(p.Hand, cardA)
	b := findCard(p.Hand, cardB)
	if a < 0 || b < 0 {
		return fmt.Errorf("selected cards are not in hand")
	}
	if p.Hand[a].Rank != p.Hand[b].Rank {
		return fmt.Errorf("must toss a pair of the same rank")
	}
	if g.RoundJoker != nil && p.Hand[a].Rank == g.RoundJoker.Rank {
		return fmt.Errorf("cannot toss the joker rank %s", g.RoundJoker.Rank)
	}

	pair := []Card{p.Hand[a], p.Hand[b]}
	hand := make([]Card, 0, len(p.Hand)-2)
	for i, c := range p.Hand {
		if i != a && i != b {
			hand = append(hand, c)
		}
	}
	p.Hand = hand
	p.LastAction = fmt.Sprintf("Tossed %ss", pair[0].Rank)

	g.PendingToss = pair
	g.TossedThisTurn = true
	g.Phase = PhaseTossingDraw
	g.SelectedCardIDs = nil
	g.logf("%s tossed a pair of %ss", p.Name, pair[0].Rank)
	return nil
}

// Discard removes exactly one card from the acting player's hand and holds
// it aside until the follow-up draw completes. Its id is remembered so the
// player cannot immediately reclaim it from the open pile.
func (g *GameState) Discard(cardID int) error {
	if g.Phase != PhaseTurnStart {
		return fmt.Errorf("cannot discard during %s", g.Phase)
	}
	p := g.CurrentPlayer()
	if p == nil {
		return fmt.Errorf("no acting player")
	}
	idx := findCard(p.Hand, cardID)
	if idx < 0 {
		return fmt.Errorf("card %d is not in hand", cardID)
	}

	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	p.LastAction = fmt.Sprintf("Discarded %s", card)

	g.PendingDiscard = &card
	g.LastDiscardedID = card.ID
	g.Phase = PhaseDraw
	g.SelectedCardIDs = nil
	g.logf("%s discarded %s", p.Name, card)
	return nil
}

// Draw completes a turn by taking one card from the chosen pile. Drawing the
// card just discarded this turn back off the open pile is rejected. Drawing
// from an exhausted draw pile recycles the open pile (keeping its top card
// in place); if nothing is recyclable the round ends as a forced call by the
// acting player — a defined transition, not an error.
func (g *GameState) Draw(source DrawSource) error {
	if g.Phase != PhaseTossingDraw && g.Phase != PhaseDraw {
		return fmt.Errorf("cannot draw during %s", g.Phase)
	}
	p := g.CurrentPlayer()
	if p == nil {
		return fmt.Errorf("no acting player")
	}

	var drawn Card
	switch source {
	case DrawOpen:
		top := g.OpenTop()
		if top == nil {
			return fmt.Errorf("open pile is empty")
		}
		if g.Phase == PhaseDraw && top.ID == g.LastDiscardedID {
			return fmt.Errorf("cannot pick up the card you just discarded")
		}
		drawn = *top
		g.OpenDeck = g.OpenDeck[:len(g.OpenDeck)-1]

	case DrawDeck:
		if len(g.Deck) == 0 {
			if len(g.OpenDeck) <= 1 {
				// Nothing recyclable: the round cannot continue. Forced call
				// by the acting player, exactly as if voluntary.
				g.logf("No cards left in Deck or Open Pile! Ending round.")
				g.endRound(g.CurrentPlayerIndex)
				return nil
			}
			top := g.OpenDeck[len(g.OpenDeck)-1]
			g.Deck = Shuffle(g.OpenDeck[:len(g.OpenDeck)-1], g.rand())
			g.OpenDeck = []Card{top}
		}
		drawn = g.Deck[0]
		g.Deck = g.Deck[1:]

	default:
		return fmt.Errorf("unknown draw source %q", source)
	}

	p.Hand = append(p.Hand, drawn)

	// Flush held cards onto the open pile: toss pair first, then a pending
	// discard. Only one of the two is ever populated per turn.
	g.OpenDeck = append(g.OpenDeck, g.PendingToss...)
	if g.PendingDiscard != nil {
		g.OpenDeck = append(g.OpenDeck, *g.PendingDiscard)
	}

	g.finishTurn(p, source)
	return nil
}

// finishTurn hands play to the next seat and clears per-turn bookkeeping.
func (g *GameState) finishTurn(p *Player, source DrawSource) {
	action := "Drew from Deck"
	if source == DrawOpen {
		action = "Drew from Open Pile"
	}
	p.LastAction = "Ended Turn"

	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	g.Phase = PhaseTurnStart
	g.LastDiscardedID = NoCard
	g.TossedThisTurn = false
	g.PendingDiscard = nil
	g.PendingToss = nil
	g.SelectedCardIDs = nil
	g.Transitioning = g.Mode == ModeMultiplayer
	g.logf("%s", action)
}

// Call ends the round immediately regardless of hand composition, subjecting
// the caller to the asymmetric round scoring. Legal only at turn start.
func (g *GameState) Call() error {
	if g.Phase != PhaseTurnStart {
		return fmt.Errorf("cannot call during %s", g.Phase)
	}
	if g.CurrentPlayer() == nil {
		return fmt.Errorf("no acting player")
	}
	g.endRound(g.CurrentPlayerIndex)
	return nil
}

// endRound scores the round with callerIndex as the caller and moves to
// ROUND_END. Reached via Call or via forced recycling failure.
func (g *GameState) endRound(callerIndex int) {
	results := RoundScores(g.Players, callerIndex, g.RoundJoker)

	for i := range g.Players {
		p := &g.Players[i]
		score := 0
		for _, r := range results {
			if r.PlayerID == p.ID {
				score = r.Score
				break
			}
		}
		p.Score = score
		p.TotalScore += score
		p.WasCaller = i == callerIndex
		if i == callerIndex {
			p.LastAction = "CALLED SHOW!"
		} else {
			p.LastAction = "Revealed"
		}
	}

	g.logf("%s called SHOW! Round Ended.", g.Players[callerIndex].Name)
	g.Phase = PhaseRoundEnd
	g.Transitioning = false
	g.SelectedCardIDs = nil
}

// AdvanceRound moves on from ROUND_END: a new round when rounds remain,
// otherwise the terminal MATCH_END. The caller of the just-ended round leads
// the next one.
func (g *GameState) AdvanceRound() error {
	if g.Phase != PhaseRoundEnd {
		return fmt.Errorf("cannot advance round during %s", g.Phase)
	}
	if g.RoundNumber < g.TotalRounds {
		return g.StartRound(g.RoundNumber+1, g.Players, g.Mode, g.TotalRounds)
	}
	g.Phase = PhaseMatchEnd
	g.logf("Match over after %d rounds.", g.RoundNumber)
	return nil
}

// ResetMatch discards all state unconditionally and returns to SETUP. This
// is the only cancellation primitive.
func (g *GameState) ResetMatch() {
	rng := g.rng
	*g = GameState{
		Phase:           PhaseSetup,
		TotalRounds:     DefaultTotalRounds,
		LastDiscardedID: NoCard,
		rng:             rng,
	}
}

// findCard returns the index of the card with the given id, or -1.
func findCard(hand []Card, id int) int {
	for i, c := range hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (g *GameState) logf(format string, args ...any) {
	g.TurnLog = append(g.TurnLog, fmt.Sprintf(format, args...))
}
