package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
	"loot-tracker/pkg/core"
)

const DefaultAddr = "127.0.0.1:8787"

// Controller is the session surface served over HTTP.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
	Reset()
	SetMode(mode loot.Mode)
	Status() tracker.Status
	Snapshot() ledger.Snapshot
	Subscribe(ctx context.Context) <-chan ledger.Snapshot
	History() []ledger.HistoryEntry
}

type Server struct {
	addr    string
	control Controller
	log     core.Logger
	engine  *gin.Engine
}

func NewServer(addr string, control Controller, log core.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{addr: addr, control: control, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes(r)
	s.engine = r
	return s
}

func (s *Server) setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/status", s.statusHandler)
	api.GET("/loot", s.lootHandler)
	api.GET("/loot/stream", s.streamHandler)
	api.GET("/history", s.historyHandler)
	api.POST("/session/start", s.startHandler)
	api.POST("/session/stop", s.stopHandler)
	api.POST("/session/reset", s.resetHandler)
	api.PUT("/mode", s.modeHandler)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP API listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
