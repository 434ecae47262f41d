// Package cache wraps the Redis layer: room record fan-out over pub/sub and
// the append-only action log consumed by the historian.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/UParthsarathi/Tristack-S/internal/models"
)

// Rdb is the shared Redis client, nil until Connect succeeds. Callers treat
// a nil client as "replication disabled" rather than an error.
var Rdb *redis.Client

// actionLogKey is the list holding the global action history.
const actionLogKey = "tristack:action_log"

// Connect initializes the shared client and verifies the connection.
func Connect(ctx context.Context, addr, password string) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	Rdb = client
	logrus.WithField("addr", addr).Info("connected to redis")
	return nil
}

// roomChannel names the pub/sub channel for one room.
func roomChannel(code string) string { return "room:" + code }

// PublishRoomUpdate fans a full room record out to every subscriber of the
// room's channel. Last writer wins; there is no ordering guarantee beyond
// Redis's own.
func PublishRoomUpdate(ctx context.Context, rec models.RoomRecord) error {
	if Rdb == nil {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal room record: %w", err)
	}
	if err := Rdb.Publish(ctx, roomChannel(rec.Code), payload).Err(); err != nil {
		return fmt.Errorf("publish room %s: %w", rec.Code, err)
	}
	return nil
}

// SubscribeRoom subscribes to a room's update channel. The caller owns the
// returned subscription and must Close it.
func SubscribeRoom(ctx context.Context, code string) *redis.PubSub {
	if Rdb == nil {
		return nil
	}
	return Rdb.Subscribe(ctx, roomChannel(code))
}

// DecodeRoomUpdate parses one pub/sub message back into a room record.
func DecodeRoomUpdate(msg *redis.Message) (models.RoomRecord, error) {
	var rec models.RoomRecord
	if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
		return models.RoomRecord{}, fmt.Errorf("decode room update: %w", err)
	}
	return rec, nil
}

// GameActionRecord is one applied action, queued for the historian.
type GameActionRecord struct {
	SessionID     uuid.UUID      `json:"session_id"`
	RoomCode      string         `json:"room_code,omitempty"`
	ActionIndex   int            `json:"action_index"`
	Seat          int            `json:"seat"`
	ActionType    string         `json:"action_type"`
	ActionPayload map[string]any `json:"action_payload,omitempty"`
	Timestamp     int64          `json:"timestamp"`
}

// PublishGameAction appends an action record to the log. Failures are the
// caller's to log and drop; the game never blocks on the historian.
func PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	if Rdb == nil {
		return nil
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	if err := Rdb.RPush(ctx, actionLogKey, payload).Err(); err != nil {
		return fmt.Errorf("append action record: %w", err)
	}
	return nil
}
