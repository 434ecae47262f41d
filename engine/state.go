package engine

// Phase identifies where the turn state machine currently sits.
type Phase string

const (
	PhaseSetup       Phase = "SETUP"
	PhaseTurnStart   Phase = "PLAYER_TURN_START"   // may Toss, Call, or Discard
	PhaseTossingDraw Phase = "PLAYER_TOSSING_DRAW" // must draw after a toss
	PhaseDraw        Phase = "PLAYER_DRAW"         // must draw after a discard
	PhaseRoundEnd    Phase = "ROUND_END"
	PhaseMatchEnd    Phase = "MATCH_END" // terminal
)

// Mode selects how a match is driven and whether state is replicated.
type Mode string

const (
	ModeSinglePlayer Mode = "SINGLE_PLAYER"
	ModeMultiplayer  Mode = "MULTIPLAYER" // shared-device, pass-and-play
	ModeOnlineHost   Mode = "ONLINE_HOST"
	ModeOnlineClient Mode = "ONLINE_CLIENT"
)

// Online reports whether the mode replicates state to a shared room record.
func (m Mode) Online() bool { return m == ModeOnlineHost || m == ModeOnlineClient }

// DrawSource selects which pile a draw takes from.
type DrawSource string

const (
	DrawDeck DrawSource = "DECK"
	DrawOpen DrawSource = "OPEN"
)

const (
	// DefaultTotalRounds is the match length when the caller does not choose one.
	DefaultTotalRounds = 5
	// CardsPerHand is dealt to each player at round start.
	CardsPerHand = 3
	// MaxSeats caps the number of players in a match.
	MaxSeats = 10
	// NoCard is the LastDiscardedID sentinel when no discard is in flight.
	NoCard = -1
)

// Player is one seat in the match. ID doubles as the seat index and stays
// stable for the life of the match; hand and scores are rewritten each
// round, TotalScore accumulates across rounds.
type Player struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	IsBot      bool   `json:"isBot"`
	Hand       []Card `json:"hand"`
	Score      int    `json:"score"`
	TotalScore int    `json:"totalScore"`
	LastAction string `json:"lastAction"`
	WasCaller  bool   `json:"wasCaller"`
}

// GameState is the single authoritative aggregate for a match. It is owned
// by the session controller; the UI, bots, and the synchronization bridge
// only read it. JSON tags define the snapshot schema embedded in a room
// record's game_state field.
type GameState struct {
	Mode               Mode     `json:"gameMode"`
	Deck               []Card   `json:"deck"`
	OpenDeck           []Card   `json:"openDeck"`
	Players            []Player `json:"players"`
	CurrentPlayerIndex int      `json:"currentPlayerIndex"`
	RoundJoker         *Card    `json:"roundJoker"`
	RoundNumber        int      `json:"roundNumber"`
	TotalRounds        int      `json:"totalRounds"`
	Phase              Phase    `json:"phase"`
	TurnLog            []string `json:"turnLog"`

	// Per-turn bookkeeping. Pending cards sit outside both the hand and the
	// open pile until the turn's draw completes.
	LastDiscardedID int    `json:"lastDiscardedId"`
	TossedThisTurn  bool   `json:"tossedThisTurn"`
	PendingDiscard  *Card  `json:"pendingDiscard"`
	PendingToss     []Card `json:"pendingToss"`

	// Transitioning asks the UI layer to gate on a device hand-off between
	// turns in pass-and-play mode. Pure UI concern; the state machine only
	// raises the flag.
	Transitioning bool `json:"isTransitioning"`

	// SelectedCardIDs is UI selection bookkeeping, never part of a snapshot.
	SelectedCardIDs []int `json:"-"`

	rng *Rand
}

// NewMatch returns a fresh match in SETUP with a seeded generator.
func NewMatch(seed uint64) *GameState {
	return &GameState{
		Phase:           PhaseSetup,
		TotalRounds:     DefaultTotalRounds,
		LastDiscardedID: NoCard,
		rng:             NewRand(seed),
	}
}

// Reseed replaces the generator, e.g. after an inbound snapshot replaced the
// state wholesale (snapshots do not carry the generator).
func (g *GameState) Reseed(seed uint64) { g.rng = NewRand(seed) }

// rand returns the generator, lazily seeding one so a deserialized snapshot
// stays usable even if the owner forgot to Reseed.
func (g *GameState) rand() *Rand {
	if g.rng == nil {
		g.rng = NewRand(1)
	}
	return g.rng
}

// CurrentPlayer returns the acting player, or nil while no round is live.
func (g *GameState) CurrentPlayer() *Player {
	if g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return nil
	}
	return &g.Players[g.CurrentPlayerIndex]
}

// PlayerByID returns the player with the given seat id, or nil.
func (g *GameState) PlayerByID(id int) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// OpenTop returns the top card of the open pile, or nil if it is empty.
func (g *GameState) OpenTop() *Card {
	if len(g.OpenDeck) == 0 {
		return nil
	}
	return &g.OpenDeck[len(g.OpenDeck)-1]
}

// CardCount sums every zone a card can occupy mid-round: draw pile, open
// pile, all hands, and cards held pending a draw. It equals DeckSize from
// deal to round end — no cards are created or destroyed inside a round.
func (g *GameState) CardCount() int {
	n := len(g.Deck) + len(g.OpenDeck) + len(g.PendingToss)
	if g.PendingDiscard != nil {
		n++
	}
	for i := range g.Players {
		n += len(g.Players[i].Hand)
	}
	return n
}

// Winners returns the set of players holding the minimum total score.
// Resolving a multi-way tie is left to the display layer.
func (g *GameState) Winners() []Player {
	if len(g.Players) == 0 {
		return nil
	}
	lowest := g.Players[0].TotalScore
	for _, p := range g.Players[1:] {
		if p.TotalScore < lowest {
			lowest = p.TotalScore
		}
	}
	var winners []Player
	for _, p := range g.Players {
		if p.TotalScore == lowest {
			winners = append(winners, p)
		}
	}
	return winners
}

// Clone returns a deep copy of the state, safe to hand to another goroutine
// for serialization while the original keeps mutating.
func (g *GameState) Clone() GameState {
	out := *g
	out.Deck = append([]Card(nil), g.Deck...)
	out.OpenDeck = append([]Card(nil), g.OpenDeck...)
	out.TurnLog = append([]string(nil), g.TurnLog...)
	out.PendingToss = append([]Card(nil), g.PendingToss...)
	out.SelectedCardIDs = append([]int(nil), g.SelectedCardIDs...)
	if g.PendingDiscard != nil {
		pd := *g.PendingDiscard
		out.PendingDiscard = &pd
	}
	if g.RoundJoker != nil {
		j := *g.RoundJoker
		out.RoundJoker = &j
	}
	out.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		p.Hand = append([]Card(nil), p.Hand...)
		out.Players[i] = p
	}
	out.rng = nil
	return out
}

// ---------------------------------------------------------------------------
// Selection bookkeeping — not itself a game action
// ---------------------------------------------------------------------------

// ToggleSelect adds or removes a card id from the UI selection. Selection is
// only meaningful while the acting player chooses a toss or discard, so it
// is ignored outside PLAYER_TURN_START. At most two cards stay selected; a
// third pick evicts the oldest.
func (g *GameState) ToggleSelect(cardID int) {
	if g.Phase != PhaseTurnStart {
		return
	}
	for i, id := range g.SelectedCardIDs {
		if id == cardID {
			g.SelectedCardIDs = append(g.SelectedCardIDs[:i], g.SelectedCardIDs[i+1:]...)
			return
		}
	}
	if len(g.SelectedCardIDs) >= 2 {
		g.SelectedCardIDs = []int{g.SelectedCardIDs[1], cardID}
		return
	}
	g.SelectedCardIDs = append(g.SelectedCardIDs, cardID)
}

// ClearSelection drops any selected cards.
func (g *GameState) ClearSelection() { g.SelectedCardIDs = nil }
