package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/UParthsarathi/Tristack-S/internal/auth"
	"github.com/UParthsarathi/Tristack-S/internal/database"
)

// ctxKeyUsername is the gin context key the auth middleware stores the
// caller's username under.
const (
	ctxKeyUserID   = "user_id"
	ctxKeyUsername = "username"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process password"})
		return
	}
	user, err := database.CreateUser(c.Request.Context(), req.Username, hash)
	if errors.Is(err, database.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	s.issueToken(c, user.ID, user.Username)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := database.GetUserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, database.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not look up account"})
		return
	}
	if user.PasswordHash == "" || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	s.issueToken(c, user.ID, user.Username)
}

// handleGuest mints a throwaway account so a player can join rooms without
// registering. Guests cannot log back in.
func (s *Server) handleGuest(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Name == "" {
		req.Name = "Guest"
	}

	username := fmt.Sprintf("%s-%s", req.Name, uuid.NewString()[:8])
	user, err := database.CreateUser(c.Request.Context(), username, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create guest"})
		return
	}

	s.issueToken(c, user.ID, user.Username)
}

func (s *Server) issueToken(c *gin.Context, userID uuid.UUID, username string) {
	token, err := auth.CreateToken(s.cfg.JWTSecret, userID, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, UserID: userID.String(), Username: username})
}

// requireAuth validates the bearer token (or, for WebSocket upgrades, the
// token query parameter) and stores the caller's identity on the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		userID, username, err := auth.VerifyToken(s.cfg.JWTSecret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxKeyUserID, userID.String())
		c.Set(ctxKeyUsername, username)
		c.Next()
	}
}
