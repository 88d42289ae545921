// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the comparison engine and the diff store over
// HTTP. Entity collections travel as JSON in the same shape the entity
// files use.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/floorplan-diff/internal/store"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Server serves the floorplan-diff API.
type Server struct {
	cfg   types.AppConfig
	store *store.Store
	log   logrus.FieldLogger
}

// New returns a server. A nil store disables the /diffs endpoints and the
// save option of compare; a nil logger discards logs.
func New(cfg types.AppConfig, st *store.Store, logger logrus.FieldLogger) *Server {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Server{cfg: cfg, store: st, log: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.limitBody())

	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	v1.POST("/compare", s.compare)
	v1.POST("/normalize", s.normalize)
	v1.GET("/profiles", s.profiles)
	v1.GET("/diffs", s.listDiffs)
	v1.GET("/diffs/:id", s.getDiff)
	v1.GET("/diffs/:id/records", s.diffRecords)
	v1.DELETE("/diffs/:id", s.deleteDiff)
	return r
}

// Run serves on cfg.Server.Addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

func (s *Server) limitBody() gin.HandlerFunc {
	limit := s.cfg.Server.MaxBodyBytes
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) profiles(c *gin.Context) {
	out := make([]types.ToleranceProfile, 0)
	for _, name := range s.cfg.ProfileNames() {
		p, err := s.cfg.ResolveProfile(name)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	c.JSON(http.StatusOK, gin.H{"default": s.cfg.DefaultProfile, "profiles": out})
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bindError maps a body binding failure to 413 or 400.
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abort(c, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	abort(c, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
}
