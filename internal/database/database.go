// Package database is the Postgres layer. Rooms are stored as one row per
// room code with roster and game state as JSONB, so the shared record the
// clients poll is exactly what the engine last pushed.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/UParthsarathi/Tristack-S/engine"
	"github.com/UParthsarathi/Tristack-S/internal/models"
)

// DB is the shared connection pool, nil until Connect succeeds.
var DB *pgxpool.Pool

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomInProgress = errors.New("room is not accepting players")
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameTaken  = errors.New("username already taken")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rooms (
	code TEXT PRIMARY KEY,
	host_id TEXT NOT NULL,
	players JSONB NOT NULL DEFAULT '[]',
	status TEXT NOT NULL DEFAULT 'WAITING',
	game_state JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Connect opens the pool and applies the schema.
func Connect(ctx context.Context, url string) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return fmt.Errorf("apply schema: %w", err)
	}
	DB = pool
	logrus.Info("connected to postgres")
	return nil
}

// Close releases the pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}

// ---------------------------------------------------------------------------
// Room codes
// ---------------------------------------------------------------------------

// roomCodeAlphabet omits lookalike characters (I, O, 0, 1) so codes survive
// being read aloud.
const (
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 4
)

// NewRoomCode returns a random 4-character join code.
func NewRoomCode() string {
	buf := make([]byte, roomCodeLength)
	for i := range buf {
		buf[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(buf)
}

// ---------------------------------------------------------------------------
// Rooms
// ---------------------------------------------------------------------------

// CreateRoom inserts a fresh WAITING room with the host as seat 0. It
// retries code generation on collision.
func CreateRoom(ctx context.Context, hostID, hostName string) (models.RoomRecord, error) {
	rec := models.RoomRecord{
		HostID:  hostID,
		Players: []models.RosterPlayer{{ID: 0, Name: hostName}},
		Status:  models.RoomWaiting,
	}
	for attempt := 0; attempt < 5; attempt++ {
		rec.Code = NewRoomCode()
		players, err := json.Marshal(rec.Players)
		if err != nil {
			return models.RoomRecord{}, fmt.Errorf("marshal roster: %w", err)
		}
		tag, err := DB.Exec(ctx,
			`INSERT INTO rooms (code, host_id, players, status) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (code) DO NOTHING`,
			rec.Code, rec.HostID, players, rec.Status)
		if err != nil {
			return models.RoomRecord{}, fmt.Errorf("insert room: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return rec, nil
		}
	}
	return models.RoomRecord{}, errors.New("could not allocate a unique room code")
}

// GetRoom fetches one room record by code.
func GetRoom(ctx context.Context, code string) (models.RoomRecord, error) {
	return scanRoom(DB.QueryRow(ctx,
		`SELECT code, host_id, players, status, game_state FROM rooms WHERE code = $1`, code))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (models.RoomRecord, error) {
	var rec models.RoomRecord
	var players []byte
	var state []byte
	err := row.Scan(&rec.Code, &rec.HostID, &players, &rec.Status, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RoomRecord{}, ErrRoomNotFound
	}
	if err != nil {
		return models.RoomRecord{}, fmt.Errorf("scan room: %w", err)
	}
	if err := json.Unmarshal(players, &rec.Players); err != nil {
		return models.RoomRecord{}, fmt.Errorf("decode roster: %w", err)
	}
	if len(state) > 0 {
		var gs engine.GameState
		if err := json.Unmarshal(state, &gs); err != nil {
			return models.RoomRecord{}, fmt.Errorf("decode game state: %w", err)
		}
		rec.GameState = &gs
	}
	return rec, nil
}

// JoinRoom adds a player to a WAITING room and returns the updated record
// plus the seat id assigned to them. Seat ids are max(existing)+1 so a seat
// freed mid-lobby is never reissued to a different person. The whole
// operation runs under a row lock so two concurrent joins cannot be handed
// the same seat.
func JoinRoom(ctx context.Context, code, name string) (models.RoomRecord, int, error) {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return models.RoomRecord{}, 0, fmt.Errorf("begin join: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := scanRoom(tx.QueryRow(ctx,
		`SELECT code, host_id, players, status, game_state FROM rooms WHERE code = $1 FOR UPDATE`, code))
	if err != nil {
		return models.RoomRecord{}, 0, err
	}
	if rec.Status != models.RoomWaiting {
		return models.RoomRecord{}, 0, ErrRoomInProgress
	}
	if len(rec.Players) >= engine.MaxSeats {
		return models.RoomRecord{}, 0, ErrRoomFull
	}

	seat := 0
	for _, p := range rec.Players {
		if p.ID >= seat {
			seat = p.ID + 1
		}
	}
	rec.Players = append(rec.Players, models.RosterPlayer{ID: seat, Name: name})

	players, err := json.Marshal(rec.Players)
	if err != nil {
		return models.RoomRecord{}, 0, fmt.Errorf("marshal roster: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE rooms SET players = $2, updated_at = now() WHERE code = $1`, code, players); err != nil {
		return models.RoomRecord{}, 0, fmt.Errorf("update roster: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.RoomRecord{}, 0, fmt.Errorf("commit join: %w", err)
	}
	return rec, seat, nil
}

// LeaveRoom removes a seat from the roster. The room is deleted outright
// once the last player leaves.
func LeaveRoom(ctx context.Context, code string, seat int) (models.RoomRecord, error) {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return models.RoomRecord{}, fmt.Errorf("begin leave: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := scanRoom(tx.QueryRow(ctx,
		`SELECT code, host_id, players, status, game_state FROM rooms WHERE code = $1 FOR UPDATE`, code))
	if err != nil {
		return models.RoomRecord{}, err
	}

	kept := rec.Players[:0:0]
	for _, p := range rec.Players {
		if p.ID != seat {
			kept = append(kept, p)
		}
	}
	rec.Players = kept

	if len(rec.Players) == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, code); err != nil {
			return models.RoomRecord{}, fmt.Errorf("delete empty room: %w", err)
		}
	} else {
		players, err := json.Marshal(rec.Players)
		if err != nil {
			return models.RoomRecord{}, fmt.Errorf("marshal roster: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE rooms SET players = $2, updated_at = now() WHERE code = $1`, code, players); err != nil {
			return models.RoomRecord{}, fmt.Errorf("update roster: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return models.RoomRecord{}, fmt.Errorf("commit leave: %w", err)
	}
	return rec, nil
}

// UpdateGameState writes the latest snapshot, deriving room status from the
// phase: FINISHED once the match ends, PLAYING otherwise. Last writer wins.
func UpdateGameState(ctx context.Context, code string, gs *engine.GameState) (models.RoomRecord, error) {
	status := models.RoomPlaying
	if gs != nil && gs.Phase == engine.PhaseMatchEnd {
		status = models.RoomFinished
	}
	state, err := json.Marshal(gs)
	if err != nil {
		return models.RoomRecord{}, fmt.Errorf("marshal game state: %w", err)
	}
	return scanRoom(DB.QueryRow(ctx,
		`UPDATE rooms SET game_state = $2, status = $3, updated_at = now()
		 WHERE code = $1
		 RETURNING code, host_id, players, status, game_state`,
		code, state, status))
}

// ResetRoomToLobby clears the game state and returns the room to WAITING so
// the roster can start a fresh match.
func ResetRoomToLobby(ctx context.Context, code string) (models.RoomRecord, error) {
	return scanRoom(DB.QueryRow(ctx,
		`UPDATE rooms SET game_state = NULL, status = $2, updated_at = now()
		 WHERE code = $1
		 RETURNING code, host_id, players, status, game_state`,
		code, models.RoomWaiting))
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// CreateUser inserts an account. Guests pass an empty password hash.
func CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	u := models.User{ID: uuid.New(), Username: username, PasswordHash: passwordHash}
	tag, err := DB.Exec(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO NOTHING`,
		u.ID, u.Username, u.PasswordHash)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, ErrUsernameTaken
	}
	return u, nil
}

// GetUserByUsername looks an account up for login.
func GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := DB.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}
