package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UParthsarathi/Tristack-S/engine"
	"github.com/UParthsarathi/Tristack-S/internal/models"
)

// mockBroadcaster records every event fired by a session.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []Event
}

func (m *mockBroadcaster) fn() func(Event) {
	return func(ev Event) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.events = append(m.events, ev)
	}
}

func (m *mockBroadcaster) count(t EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ev := range m.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (m *mockBroadcaster) last(t EventType) *Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Type == t {
			ev := m.events[i]
			return &ev
		}
	}
	return nil
}

// mockStore records pushed snapshots.
type mockStore struct {
	mu      sync.Mutex
	pushes  []*engine.GameState
	resets  int
	players []models.RosterPlayer
}

func (m *mockStore) UpdateGameState(ctx context.Context, code string, gs *engine.GameState) (models.RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, gs)
	status := models.RoomPlaying
	if gs != nil && gs.Phase == engine.PhaseMatchEnd {
		status = models.RoomFinished
	}
	return models.RoomRecord{Code: code, Players: m.players, Status: status, GameState: gs}, nil
}

func (m *mockStore) ResetRoomToLobby(ctx context.Context, code string) (models.RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return models.RoomRecord{Code: code, Players: m.players, Status: models.RoomWaiting}, nil
}

func (m *mockStore) pushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushes)
}

func newTestSession(t *testing.T, mode engine.Mode, bots int) (*Session, *mockBroadcaster) {
	t.Helper()
	s := NewSession("TEST", 7, time.Millisecond)
	players := []engine.Player{{ID: 0, Name: "You"}}
	for i := 0; i < bots; i++ {
		players = append(players, engine.Player{ID: i + 1, Name: "Bot", IsBot: true})
	}
	s.State.Players = players
	s.State.Mode = mode
	bc := &mockBroadcaster{}
	s.BroadcastFn = bc.fn()
	t.Cleanup(s.Stop)
	return s, bc
}

func humanSession(t *testing.T) (*Session, *mockBroadcaster) {
	t.Helper()
	s := NewSession("TEST", 7, time.Millisecond)
	s.State.Players = []engine.Player{{ID: 0, Name: "A"}, {ID: 1, Name: "B"}}
	bc := &mockBroadcaster{}
	s.BroadcastFn = bc.fn()
	t.Cleanup(s.Stop)
	return s, bc
}

func TestStartRoundBroadcastsState(t *testing.T) {
	s, bc := humanSession(t)

	err := s.HandleAction(0, models.GameAction{Type: models.ActionStartRound})
	require.NoError(t, err)

	ev := bc.last(EventStateUpdate)
	require.NotNil(t, ev)
	require.NotNil(t, ev.State)
	assert.Equal(t, engine.PhaseTurnStart, ev.State.Phase)
	assert.Len(t, ev.State.Players[0].Hand, engine.CardsPerHand)

	// The broadcast state is a copy, not the live one.
	ev.State.Players[0].Hand[0].ID = 999
	assert.NotEqual(t, 999, s.State.Players[0].Hand[0].ID)
}

func TestOutOfTurnRejected(t *testing.T) {
	s, _ := humanSession(t)
	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionStartRound}))

	actor := s.Snapshot().CurrentPlayerIndex
	other := (actor + 1) % 2
	err := s.HandleAction(other, models.GameAction{Type: models.ActionCall})
	assert.Error(t, err)

	err = s.HandleAction(actor, models.GameAction{Type: models.ActionCall})
	assert.NoError(t, err)
}

func TestUnknownSeatRejected(t *testing.T) {
	s, _ := humanSession(t)
	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionStartRound}))

	err := s.HandleAction(42, models.GameAction{Type: models.ActionDraw, Source: engine.DrawDeck})
	assert.Error(t, err)
}

func TestRejectedActionDoesNotBroadcast(t *testing.T) {
	s, bc := humanSession(t)
	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionStartRound}))
	before := bc.count(EventStateUpdate)

	actor := s.Snapshot().CurrentPlayerIndex
	err := s.HandleAction(actor, models.GameAction{Type: models.ActionDraw, Source: engine.DrawDeck})
	require.Error(t, err)
	assert.Equal(t, before, bc.count(EventStateUpdate))
}

func TestOnlinePushOnCommit(t *testing.T) {
	s, _ := humanSession(t)
	store := &mockStore{players: []models.RosterPlayer{{ID: 0, Name: "A"}, {ID: 1, Name: "B"}}}
	s.Store = store
	s.State.Mode = engine.ModeOnlineHost

	require.NoError(t, s.HandleAction(0, models.GameAction{
		Type: models.ActionStartRound,
		Mode: engine.ModeOnlineHost,
	}))

	require.Eventually(t, func() bool { return store.pushCount() >= 1 }, time.Second, 5*time.Millisecond)
	store.mu.Lock()
	pushed := store.pushes[0]
	store.mu.Unlock()
	assert.Equal(t, engine.PhaseTurnStart, pushed.Phase)
}

func TestOfflineModeDoesNotPush(t *testing.T) {
	s, _ := humanSession(t)
	store := &mockStore{}
	s.Store = store

	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionStartRound}))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, store.pushCount())
}

func TestApplyRoomUpdateReplacesState(t *testing.T) {
	s, bc := humanSession(t)
	s.State.Mode = engine.ModeOnlineClient
	require.NoError(t, s.HandleAction(0, models.GameAction{
		Type: models.ActionStartRound,
		Mode: engine.ModeOnlineClient,
	}))

	incoming := engine.NewMatch(99)
	incoming.Players = []engine.Player{{ID: 0, Name: "A"}, {ID: 1, Name: "B"}}
	incoming.Mode = engine.ModeOnlineClient
	require.NoError(t, incoming.StartRound(2, incoming.Players, engine.ModeOnlineClient, 5))

	s.ApplyRoomUpdate(models.RoomRecord{
		Code:      "TEST",
		Status:    models.RoomPlaying,
		GameState: incoming,
	})

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.RoundNumber)

	ev := bc.last(EventStateUpdate)
	require.NotNil(t, ev)
	assert.Equal(t, 2, ev.State.RoundNumber)

	// The reseeded state can keep playing locally.
	actor := snap.CurrentPlayerIndex
	assert.NoError(t, s.HandleAction(actor, models.GameAction{Type: models.ActionCall}))
}

func TestApplyRoomUpdatePlayingWithoutSnapshotIsNoOp(t *testing.T) {
	s, bc := humanSession(t)
	resets := 0
	s.OnLobbyReset = func() { resets++ }
	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionStartRound}))
	before := s.Snapshot()
	updates := bc.count(EventStateUpdate)

	s.ApplyRoomUpdate(models.RoomRecord{Code: "TEST", Status: models.RoomPlaying})

	assert.Zero(t, resets)
	assert.Equal(t, updates, bc.count(EventStateUpdate))
	after := s.Snapshot()
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.RoundNumber, after.RoundNumber)
	assert.Equal(t, before.Deck, after.Deck)
}

func TestApplyRoomUpdateWaitingTriggersLobbyReset(t *testing.T) {
	s, _ := humanSession(t)
	resets := 0
	s.OnLobbyReset = func() { resets++ }

	s.ApplyRoomUpdate(models.RoomRecord{Code: "TEST", Status: models.RoomWaiting})
	assert.Equal(t, 1, resets)
}

func TestStaleBotStepIgnored(t *testing.T) {
	s, bc := newTestSession(t, engine.ModeSinglePlayer, 1)
	s.BotDelay = time.Hour // Keep the real timer from firing.
	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionStartRound}))

	// Human plays out their turn so the bot is up.
	snap := s.Snapshot()
	require.NoError(t, s.HandleAction(0, models.GameAction{
		Type:    models.ActionDiscard,
		CardIDs: []int{snap.Players[0].Hand[0].ID},
	}))
	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionDraw, Source: engine.DrawDeck}))
	require.True(t, s.Snapshot().Players[s.Snapshot().CurrentPlayerIndex].IsBot)

	s.Mu.Lock()
	seq := s.turnSeq
	s.Mu.Unlock()

	// A step scheduled before the last commit does nothing.
	before := bc.count(EventStateUpdate)
	s.runBotStep(seq - 1)
	assert.Equal(t, before, bc.count(EventStateUpdate))

	// The current one acts.
	s.runBotStep(seq)
	assert.Greater(t, bc.count(EventStateUpdate), before)
}

func TestBotPlaysThroughItsTurn(t *testing.T) {
	s, _ := newTestSession(t, engine.ModeSinglePlayer, 2)
	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionStartRound}))

	// Human takes their turn so a bot comes up.
	snap := s.Snapshot()
	require.Equal(t, 0, snap.CurrentPlayerIndex)
	require.NoError(t, s.HandleAction(0, models.GameAction{
		Type:    models.ActionDiscard,
		CardIDs: []int{snap.Players[0].Hand[0].ID},
	}))
	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionDraw, Source: engine.DrawDeck}))

	// Both bots act on their timers until play returns to seat 0 or the
	// round ends on a bot call.
	require.Eventually(t, func() bool {
		cur := s.Snapshot()
		return cur.CurrentPlayerIndex == 0 || cur.Phase == engine.PhaseRoundEnd
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, engine.DeckSize, s.Snapshot().CardCount())
}

func TestInternalActionWithoutCardsRejected(t *testing.T) {
	s, _ := newTestSession(t, engine.ModeSinglePlayer, 1)
	require.NoError(t, s.HandleAction(0, models.GameAction{Type: models.ActionStartRound}))

	s.Mu.Lock()
	defer s.Mu.Unlock()
	assert.Error(t, s.applyLocked(0, models.GameAction{Type: models.ActionDiscard}))
	assert.Error(t, s.applyLocked(0, models.GameAction{Type: models.ActionToss, CardIDs: []int{1}}))
}

func TestResetToLobbyHitsStore(t *testing.T) {
	s, _ := humanSession(t)
	store := &mockStore{}
	s.Store = store
	s.State.Mode = engine.ModeOnlineHost

	require.NoError(t, s.ResetToLobby(context.Background()))
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.resets)
}
