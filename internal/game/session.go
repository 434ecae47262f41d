// Package game hosts live match sessions. A Session owns one engine state,
// serializes all mutation behind a mutex, drives bot seats on a timer, and
// mirrors every committed state to the shared room record for online play.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/UParthsarathi/Tristack-S/engine"
	"github.com/UParthsarathi/Tristack-S/internal/cache"
	"github.com/UParthsarathi/Tristack-S/internal/models"
)

// EventType marks the kind of a session event pushed to clients.
type EventType string

const (
	EventStateUpdate EventType = "state_update" // Full state after a committed action.
	EventLobbyReset  EventType = "lobby_reset"  // Room went back to WAITING; drop local state.
	EventActionError EventType = "action_error" // An action was rejected; state unchanged.
)

// Event is the payload fanned out to connected clients. State is a deep
// copy, safe to marshal without holding the session lock.
type Event struct {
	Type    EventType         `json:"type"`
	State   *engine.GameState `json:"state,omitempty"`
	Seat    int               `json:"seat,omitempty"`
	Message string            `json:"message,omitempty"`
}

// RoomStore is the slice of the persistence layer a session needs: push the
// latest snapshot, or hand the room back to the lobby.
type RoomStore interface {
	UpdateGameState(ctx context.Context, code string, gs *engine.GameState) (models.RoomRecord, error)
	ResetRoomToLobby(ctx context.Context, code string) (models.RoomRecord, error)
}

// Session is one running match.
type Session struct {
	ID   uuid.UUID
	Code string // Room code, empty for offline sessions.

	State *engine.GameState

	// Roster backs start actions after a match reset wiped the in-state
	// player list. Seats come from the room record at session creation.
	Roster []engine.Player

	BotDelay time.Duration

	Mu sync.Mutex

	// turnSeq increments on every committed mutation. A scheduled bot step
	// captures the value at scheduling time and aborts if it has moved on,
	// so a timer firing after an inbound snapshot replaced the state cannot
	// act on the old world.
	turnSeq     int
	botTimer    *time.Timer
	actionIndex int

	// Store is nil for offline sessions; online sessions mirror every
	// committed state through it.
	Store RoomStore

	BroadcastFn  func(ev Event)
	OnLobbyReset func()

	log *logrus.Entry
}

// NewSession creates a session around a fresh engine state. Code may be
// empty for offline play.
func NewSession(code string, seed uint64, botDelay time.Duration) *Session {
	id := uuid.New()
	return &Session{
		ID:       id,
		Code:     code,
		State:    engine.NewMatch(seed),
		BotDelay: botDelay,
		log:      logrus.WithFields(logrus.Fields{"session": id, "room": code}),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() *engine.GameState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	snap := s.State.Clone()
	return &snap
}

// Stop cancels any scheduled bot step. The session is unusable afterwards
// only by convention; callers drop their reference.
func (s *Session) Stop() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.turnSeq++
	if s.botTimer != nil {
		s.botTimer.Stop()
		s.botTimer = nil
	}
}

// HandleAction validates and applies one wire action. Seat is the roster id
// of the submitting player; lifecycle actions (start, advance, reset) are
// accepted from any seat because the host gate lives at the transport layer.
func (s *Session) HandleAction(seat int, action models.GameAction) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if err := s.checkSeat(seat, action.Type); err != nil {
		return err
	}

	var err error
	switch action.Type {
	case models.ActionStartRound:
		err = s.startRound(action)
	case models.ActionAdvanceRound:
		err = s.State.AdvanceRound()
	case models.ActionResetMatch:
		s.State.ResetMatch()
	case models.ActionCall:
		err = s.State.Call()
	case models.ActionToss:
		if len(action.CardIDs) != 2 {
			err = fmt.Errorf("toss needs exactly 2 card ids, got %d", len(action.CardIDs))
		} else {
			err = s.State.Toss(action.CardIDs[0], action.CardIDs[1])
		}
	case models.ActionDiscard:
		if len(action.CardIDs) != 1 {
			err = fmt.Errorf("discard needs exactly 1 card id, got %d", len(action.CardIDs))
		} else {
			err = s.State.Discard(action.CardIDs[0])
		}
	case models.ActionDraw:
		err = s.State.Draw(action.Source)
	case models.ActionSelect:
		if len(action.CardIDs) != 1 {
			err = fmt.Errorf("select needs exactly 1 card id, got %d", len(action.CardIDs))
		} else {
			s.State.ToggleSelect(action.CardIDs[0])
		}
	case models.ActionDeselect:
		s.State.ClearSelection()
	default:
		err = fmt.Errorf("unknown action type %q", action.Type)
	}
	if err != nil {
		s.log.WithError(err).WithField("action", action.Type).Debug("action rejected")
		return err
	}

	s.committed(seat, action)
	return nil
}

// startRound fills engine defaults from the wire action. Assumes lock held.
func (s *Session) startRound(action models.GameAction) error {
	round := action.Round
	if round == 0 {
		round = 1
	}
	total := action.TotalRounds
	if total == 0 {
		total = s.State.TotalRounds
	}
	mode := action.Mode
	if mode == "" {
		mode = s.State.Mode
	}
	players := s.State.Players
	if len(players) == 0 {
		players = s.Roster
	}
	return s.State.StartRound(round, players, mode, total)
}

// checkSeat rejects actions from a seat that is not on the roster, and turn
// actions from a seat that is not the acting player. Assumes lock held.
func (s *Session) checkSeat(seat int, actionType string) error {
	switch actionType {
	case models.ActionStartRound, models.ActionAdvanceRound, models.ActionResetMatch:
		return nil
	}
	p := s.State.PlayerByID(seat)
	if p == nil {
		return fmt.Errorf("seat %d is not in this match", seat)
	}
	cur := s.State.CurrentPlayer()
	if cur == nil || cur.ID != seat {
		return fmt.Errorf("seat %d acted out of turn", seat)
	}
	return nil
}

// committed runs after every successful mutation: bump the sequence, log to
// the historian, fan the new state out, push it online, and arm the bot
// timer if a bot is now up. Assumes lock held.
func (s *Session) committed(seat int, action models.GameAction) {
	s.turnSeq++
	s.logAction(seat, action)
	s.fireStateUpdate()
	s.syncOnline()
	s.scheduleBotStep()
}

// fireStateUpdate broadcasts a state copy to all clients. Assumes lock held.
func (s *Session) fireStateUpdate() {
	if s.BroadcastFn == nil {
		return
	}
	snap := s.State.Clone()
	s.BroadcastFn(Event{Type: EventStateUpdate, State: &snap})
}

// ---------------------------------------------------------------------------
// Bot scheduling
// ---------------------------------------------------------------------------

// scheduleBotStep arms a one-shot timer when the acting player is a bot.
// Assumes lock held.
func (s *Session) scheduleBotStep() {
	if s.botTimer != nil {
		s.botTimer.Stop()
		s.botTimer = nil
	}
	p := s.State.CurrentPlayer()
	if p == nil || !p.IsBot {
		return
	}
	switch s.State.Phase {
	case engine.PhaseTurnStart, engine.PhaseTossingDraw, engine.PhaseDraw:
	default:
		return
	}
	seq := s.turnSeq
	s.botTimer = time.AfterFunc(s.BotDelay, func() {
		s.runBotStep(seq)
	})
}

// runBotStep performs one bot decision. It takes the lock itself and bails
// if the world moved on since it was scheduled.
func (s *Session) runBotStep(seq int) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if seq != s.turnSeq {
		return
	}
	p := s.State.CurrentPlayer()
	if p == nil || !p.IsBot {
		return
	}

	var action models.GameAction
	switch s.State.Phase {
	case engine.PhaseTurnStart:
		decision := engine.Decide(p, s.State.RoundJoker, s.State.TossedThisTurn)
		switch decision.Type {
		case engine.BotToss:
			action = models.GameAction{Type: models.ActionToss, CardIDs: decision.CardIDs}
		case engine.BotCall:
			action = models.GameAction{Type: models.ActionCall}
		default:
			action = models.GameAction{Type: models.ActionDiscard, CardIDs: decision.CardIDs}
		}
	case engine.PhaseTossingDraw, engine.PhaseDraw:
		action = models.GameAction{Type: models.ActionDraw, Source: engine.DrawDeck}
	default:
		return
	}

	if err := s.applyLocked(p.ID, action); err != nil {
		s.log.WithError(err).WithField("seat", p.ID).Warn("bot action rejected")
		return
	}
}

// applyLocked applies an action with the lock already held. Mirrors the
// routing in HandleAction for internal callers.
func (s *Session) applyLocked(seat int, action models.GameAction) error {
	var err error
	switch action.Type {
	case models.ActionToss:
		if len(action.CardIDs) < 2 {
			err = fmt.Errorf("toss needs 2 card ids, got %d", len(action.CardIDs))
		} else {
			err = s.State.Toss(action.CardIDs[0], action.CardIDs[1])
		}
	case models.ActionDiscard:
		if len(action.CardIDs) < 1 {
			err = fmt.Errorf("discard needs a card id")
		} else {
			err = s.State.Discard(action.CardIDs[0])
		}
	case models.ActionDraw:
		err = s.State.Draw(action.Source)
	case models.ActionCall:
		err = s.State.Call()
	default:
		err = fmt.Errorf("unsupported internal action %q", action.Type)
	}
	if err != nil {
		return err
	}
	s.committed(seat, action)
	return nil
}

// ---------------------------------------------------------------------------
// Historian
// ---------------------------------------------------------------------------

// logAction queues the applied action for the historian. Fire and forget;
// the game never waits on Redis. Assumes lock held.
func (s *Session) logAction(seat int, action models.GameAction) {
	s.actionIndex++
	rec := cache.GameActionRecord{
		SessionID:   s.ID,
		RoomCode:    s.Code,
		ActionIndex: s.actionIndex,
		Seat:        seat,
		ActionType:  action.Type,
		Timestamp:   time.Now().UnixMilli(),
	}
	if len(action.CardIDs) > 0 || action.Source != "" {
		rec.ActionPayload = map[string]any{}
		if len(action.CardIDs) > 0 {
			rec.ActionPayload["card_ids"] = action.CardIDs
		}
		if action.Source != "" {
			rec.ActionPayload["source"] = string(action.Source)
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			s.log.WithError(err).Warnf("failed publishing action %d", rec.ActionIndex)
		}
	}()
}
