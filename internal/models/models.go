// Package models holds the wire and storage types shared across the
// service layers.
package models

import (
	"github.com/google/uuid"

	"github.com/UParthsarathi/Tristack-S/engine"
)

// RosterPlayer is the roster metadata kept on a room record. Seat ids are
// small integers assigned by the room layer and double as engine seat
// indices.
type RosterPlayer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RoomStatus is the lifecycle state of a shared room record.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "WAITING"
	RoomPlaying  RoomStatus = "PLAYING"
	RoomFinished RoomStatus = "FINISHED"
)

// RoomRecord mirrors one row of the rooms table and the pub/sub payload
// fanned out on room:<code>. The engine treats it as a mailbox: it only
// ever reads Status and GameState, and only ever writes GameState.
type RoomRecord struct {
	Code      string            `json:"code"`
	HostID    string            `json:"host_id"`
	Players   []RosterPlayer    `json:"players"`
	Status    RoomStatus        `json:"status"`
	GameState *engine.GameState `json:"game_state"`
}

// Action type identifiers accepted over the game socket. Bot decisions are
// translated into the same shapes before submission.
const (
	ActionCall         = "action_call"
	ActionToss         = "action_toss"
	ActionDiscard      = "action_discard"
	ActionDraw         = "action_draw"
	ActionSelect       = "action_select"
	ActionDeselect     = "action_deselect"
	ActionStartRound   = "action_start_round"
	ActionAdvanceRound = "action_advance_round"
	ActionResetMatch   = "action_reset_match"
)

// GameAction is a wire-level action request from a client or bot. Fields
// beyond Type are populated per action: CardIDs for toss/discard/select,
// Source for draw, Round/TotalRounds/Mode for start_round.
type GameAction struct {
	Type        string            `json:"action_type"`
	CardIDs     []int             `json:"card_ids,omitempty"`
	Source      engine.DrawSource `json:"source,omitempty"`
	Round       int               `json:"round,omitempty"`
	TotalRounds int               `json:"total_rounds,omitempty"`
	Mode        engine.Mode       `json:"mode,omitempty"`
}

// User is an authenticated account. Guests get a User with an empty
// PasswordHash.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
}
