// Package server is the HTTP and WebSocket surface: account auth, room
// lifecycle, and the per-room game socket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/UParthsarathi/Tristack-S/internal/config"
)

// Server wires the router, the session hub, and shared config together.
type Server struct {
	cfg    config.Config
	hub    *Hub
	router *gin.Engine
}

// New builds the server and registers all routes.
func New(cfg config.Config) *Server {
	s := &Server{
		cfg: cfg,
		hub: NewHub(cfg.BotDelay),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", s.handleRegister)
		auth.POST("/login", s.handleLogin)
		auth.POST("/guest", s.handleGuest)
	}

	rooms := r.Group("/rooms", s.requireAuth())
	{
		rooms.POST("", s.handleCreateRoom)
		rooms.GET("/:code", s.handleGetRoom)
		rooms.POST("/:code/join", s.handleJoinRoom)
		rooms.POST("/:code/leave", s.handleLeaveRoom)
		rooms.GET("/:code/ws", s.handleRoomSocket)
	}

	s.router = r
	return s
}

// Run serves until the context is canceled, then drains with a short
// shutdown grace period.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", s.cfg.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.Shutdown()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one line per request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("request")
	}
}
