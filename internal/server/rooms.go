package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/UParthsarathi/Tristack-S/internal/cache"
	"github.com/UParthsarathi/Tristack-S/internal/database"
)

func (s *Server) handleCreateRoom(c *gin.Context) {
	hostID := c.GetString(ctxKeyUserID)
	hostName := c.GetString(ctxKeyUsername)

	rec, err := database.CreateRoom(c.Request.Context(), hostID, hostName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleGetRoom(c *gin.Context) {
	code := normalizeCode(c.Param("code"))

	rec, err := database.GetRoom(c.Request.Context(), code)
	if errors.Is(err, database.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load room"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	code := normalizeCode(c.Param("code"))
	name := c.GetString(ctxKeyUsername)

	rec, seat, err := database.JoinRoom(c.Request.Context(), code, name)
	switch {
	case errors.Is(err, database.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	case errors.Is(err, database.ErrRoomFull):
		c.JSON(http.StatusConflict, gin.H{"error": "room is full"})
		return
	case errors.Is(err, database.ErrRoomInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "game already in progress"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join room"})
		return
	}

	// Pollers still see the new roster if the push fails.
	_ = cache.PublishRoomUpdate(c.Request.Context(), rec)
	c.JSON(http.StatusOK, gin.H{"room": rec, "seat": seat})
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	code := normalizeCode(c.Param("code"))

	var req struct {
		Seat int `json:"seat"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seat is required"})
		return
	}

	rec, err := database.LeaveRoom(c.Request.Context(), code, req.Seat)
	if errors.Is(err, database.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave room"})
		return
	}

	if len(rec.Players) > 0 {
		_ = cache.PublishRoomUpdate(c.Request.Context(), rec)
	}
	c.JSON(http.StatusOK, rec)
}

// normalizeCode upper-cases a join code so lookups are case-insensitive.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
