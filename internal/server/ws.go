package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/UParthsarathi/Tristack-S/engine"
	"github.com/UParthsarathi/Tristack-S/internal/cache"
	"github.com/UParthsarathi/Tristack-S/internal/database"
	"github.com/UParthsarathi/Tristack-S/internal/game"
	"github.com/UParthsarathi/Tristack-S/internal/models"
)

// pgStore adapts the database package to the session's RoomStore interface.
type pgStore struct{}

func (pgStore) UpdateGameState(ctx context.Context, code string, gs *engine.GameState) (models.RoomRecord, error) {
	return database.UpdateGameState(ctx, code, gs)
}

func (pgStore) ResetRoomToLobby(ctx context.Context, code string) (models.RoomRecord, error) {
	return database.ResetRoomToLobby(ctx, code)
}

// clientMessage is one inbound frame on the game socket.
type clientMessage struct {
	Seat   int               `json:"seat"`
	Action models.GameAction `json:"action"`
}

// roomHub is the live side of one room: the session plus every open socket.
type roomHub struct {
	code    string
	session *game.Session

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	cancel context.CancelFunc
}

// Hub tracks all live rooms on this process.
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]*roomHub
	botDelay time.Duration
}

func NewHub(botDelay time.Duration) *Hub {
	return &Hub{
		rooms:    make(map[string]*roomHub),
		botDelay: botDelay,
	}
}

// Shutdown stops every live session and closes every socket.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := make([]*roomHub, 0, len(h.rooms))
	for _, rh := range h.rooms {
		rooms = append(rooms, rh)
	}
	h.rooms = make(map[string]*roomHub)
	h.mu.Unlock()

	for _, rh := range rooms {
		rh.cancel()
		rh.session.Stop()
		rh.mu.Lock()
		for conn := range rh.conns {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		rh.conns = nil
		rh.mu.Unlock()
	}
}

// room returns the live hub for a code, creating the session from the
// stored record on first use.
func (h *Hub) room(ctx context.Context, code string) (*roomHub, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rh, ok := h.rooms[code]; ok {
		return rh, nil
	}

	rec, err := database.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	session := game.NewSession(code, uint64(time.Now().UnixNano()), h.botDelay)
	session.Store = pgStore{}
	roster := make([]engine.Player, len(rec.Players))
	for i, p := range rec.Players {
		roster[i] = engine.Player{ID: p.ID, Name: p.Name}
	}
	session.Roster = roster
	if rec.GameState != nil {
		state := rec.GameState.Clone()
		session.State = &state
		session.State.Reseed(uint64(time.Now().UnixNano()))
	} else {
		session.State.Players = roster
		session.State.Mode = engine.ModeOnlineHost
	}

	rh := &roomHub{
		code:    code,
		session: session,
		conns:   make(map[*websocket.Conn]struct{}),
	}
	session.BroadcastFn = rh.broadcast
	session.OnLobbyReset = func() {
		rh.broadcast(game.Event{Type: game.EventLobbyReset})
	}

	subCtx, cancel := context.WithCancel(context.Background())
	rh.cancel = cancel
	go rh.consumeUpdates(subCtx)

	h.rooms[code] = rh
	return rh, nil
}

// drop removes a closed socket and tears the room down once the last one
// is gone.
func (h *Hub) drop(rh *roomHub, conn *websocket.Conn) {
	rh.mu.Lock()
	delete(rh.conns, conn)
	empty := len(rh.conns) == 0
	rh.mu.Unlock()

	if !empty {
		return
	}
	h.mu.Lock()
	if h.rooms[rh.code] == rh {
		delete(h.rooms, rh.code)
	}
	h.mu.Unlock()
	rh.cancel()
	rh.session.Stop()
}

// broadcast fans one event out to every open socket on the room.
func (rh *roomHub) broadcast(ev game.Event) {
	rh.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(rh.conns))
	for conn := range rh.conns {
		conns = append(conns, conn)
	}
	rh.mu.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := wsjson.Write(ctx, conn, ev); err != nil {
			logrus.WithError(err).WithField("room", rh.code).Debug("dropping write to dead socket")
		}
		cancel()
	}
}

// consumeUpdates feeds inbound pub/sub room records into the session. This
// is how state pushed by another server instance reaches local clients.
func (rh *roomHub) consumeUpdates(ctx context.Context) {
	sub := cache.SubscribeRoom(ctx, rh.code)
	if sub == nil {
		return
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			rec, err := cache.DecodeRoomUpdate(msg)
			if err != nil {
				logrus.WithError(err).WithField("room", rh.code).Warn("bad room update payload")
				continue
			}
			rh.session.ApplyRoomUpdate(rec)
		}
	}
}

// handleRoomSocket upgrades the connection and pumps client actions into
// the room's session until the socket closes.
func (s *Server) handleRoomSocket(c *gin.Context) {
	code := normalizeCode(c.Param("code"))

	rh, err := s.hub.room(c.Request.Context(), code)
	if errors.Is(err, database.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open room"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin checking is handled upstream.
	})
	if err != nil {
		logrus.WithError(err).Warn("websocket accept failed")
		return
	}

	rh.mu.Lock()
	rh.conns[conn] = struct{}{}
	rh.mu.Unlock()

	// Newly attached clients get the current state immediately.
	ctx := context.Background()
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	_ = wsjson.Write(writeCtx, conn, game.Event{Type: game.EventStateUpdate, State: rh.session.Snapshot()})
	cancel()

	defer s.hub.drop(rh, conn)
	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		if err := rh.session.HandleAction(msg.Seat, msg.Action); err != nil {
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_ = wsjson.Write(writeCtx, conn, game.Event{
				Type:    game.EventActionError,
				Seat:    msg.Seat,
				Message: err.Error(),
			})
			cancel()
		}
	}
}
