package game

import (
	"context"
	"time"

	"github.com/UParthsarathi/Tristack-S/engine"
	"github.com/UParthsarathi/Tristack-S/internal/cache"
	"github.com/UParthsarathi/Tristack-S/internal/models"
)

// syncTimeout bounds each outbound push. A slow store must never stall the
// table.
const syncTimeout = 2 * time.Second

// syncOnline mirrors the current state to the shared room record. The push
// runs in its own goroutine against a snapshot copy; failures are logged
// and dropped, never surfaced to the player whose action triggered them.
// Assumes lock held.
func (s *Session) syncOnline() {
	if s.Store == nil || s.Code == "" || !s.State.Mode.Online() {
		return
	}
	snap := s.State.Clone()
	go func(snap engine.GameState) {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		rec, err := s.Store.UpdateGameState(ctx, s.Code, &snap)
		if err != nil {
			s.log.WithError(err).Warn("failed pushing state to room record")
			return
		}
		if cache.Rdb != nil {
			if err := cache.PublishRoomUpdate(ctx, rec); err != nil {
				s.log.WithError(err).Warn("failed publishing room update")
			}
		}
	}(snap)
}

// ResetToLobby clears the room's game state and returns it to WAITING. Used
// by the host to abandon a match; the pub/sub fan-out tells every other
// client to drop their local state.
func (s *Session) ResetToLobby(ctx context.Context) error {
	s.Mu.Lock()
	s.turnSeq++
	if s.botTimer != nil {
		s.botTimer.Stop()
		s.botTimer = nil
	}
	store, code := s.Store, s.Code
	s.Mu.Unlock()

	if store == nil || code == "" {
		return nil
	}
	rec, err := store.ResetRoomToLobby(ctx, code)
	if err != nil {
		return err
	}
	if cache.Rdb != nil {
		if err := cache.PublishRoomUpdate(ctx, rec); err != nil {
			s.log.WithError(err).Warn("failed publishing lobby reset")
		}
	}
	return nil
}

// ApplyRoomUpdate ingests an inbound room record from pub/sub or polling.
// Last writer wins: a record carrying game state replaces the local state
// wholesale, and a WAITING record drops it. Inbound snapshots lose their
// RNG on the wire, so the state is reseeded before any local draw can run.
func (s *Session) ApplyRoomUpdate(rec models.RoomRecord) {
	s.Mu.Lock()

	if rec.Status == models.RoomWaiting {
		s.turnSeq++
		if s.botTimer != nil {
			s.botTimer.Stop()
			s.botTimer = nil
		}
		onReset := s.OnLobbyReset
		s.Mu.Unlock()
		if onReset != nil {
			onReset()
		}
		return
	}

	// A non-WAITING record without a snapshot carries nothing to apply.
	if rec.GameState == nil {
		s.Mu.Unlock()
		return
	}

	incoming := rec.GameState.Clone()
	s.State = &incoming
	s.State.Reseed(uint64(time.Now().UnixNano()))
	s.turnSeq++
	s.fireStateUpdate()
	s.scheduleBotStep()
	s.Mu.Unlock()
}
