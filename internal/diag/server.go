// Package diag serves the diagnostics API: liveness plus read access to
// the per-cycle log streams kept in Redis. It replaces tailing stdout
// when investigating why a particular cycle aborted.
package diag

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/condenses/validator/pkg/logger"
)

// LogStore is the slice of the ledger the diagnostics API reads.
type LogStore interface {
	RecentCycleIDs(ctx context.Context) ([]string, error)
	CycleLogs(ctx context.Context, cycleID string) ([]string, error)
}

// Server exposes the diagnostics HTTP API.
type Server struct {
	store  LogStore
	log    *logger.Logger
	router *gin.Engine
	server *http.Server
	port   int
}

// NewServer builds the diagnostics server. Returns nil when port is 0,
// meaning the API is disabled.
func NewServer(port int, store LogStore, log *logger.Logger) *Server {
	if port == 0 {
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		store:  store,
		log:    log,
		router: router,
		port:   port,
	}

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("diag request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})

	router.GET("/health", s.handleHealth)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/cycles", s.handleListCycles)
		v1.GET("/cycles/:id/logs", s.handleCycleLogs)
	}

	return s
}

// Start blocks serving the API until the listener fails or Stop runs;
// no-op when disabled.
func (s *Server) Start() error {
	if s == nil {
		return nil
	}
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("Starting diagnostics server", "address", addr)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start diagnostics server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully; no-op when disabled.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.log.Info("Stopping diagnostics server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleListCycles(c *gin.Context) {
	ids, err := s.store.RecentCycleIDs(c.Request.Context())
	if err != nil {
		s.log.Error("Failed to list cycles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to list cycles",
		})
		return
	}

	sort.Strings(ids)
	c.JSON(http.StatusOK, gin.H{
		"cycles": ids,
		"count":  len(ids),
	})
}

func (s *Server) handleCycleLogs(c *gin.Context) {
	cycleID := c.Param("id")

	logs, err := s.store.CycleLogs(c.Request.Context(), cycleID)
	if err != nil {
		s.log.Error("Failed to read cycle logs", "cycle_id", cycleID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to read cycle logs",
		})
		return
	}
	if len(logs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "cycle not found or logs expired",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cycle_id": cycleID,
		"logs":     logs,
	})
}
