// Package server exposes the time-card workflow and the saved history over
// an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/workspace"
)

// Backend is what the handlers need from the pipeline.
type Backend interface {
	workspace.Processor
	History(ctx context.Context, limit int) ([]model.Record, error)
	Record(ctx context.Context, id string) (model.Record, error)
	HasStore() bool
}

// Options configures the API.
type Options struct {
	Mode           string // gin mode
	MaxUploadBytes int64
	AutoSave       bool
	ImagesDir      string // served under /images when set
}

// Server wires the router to a backend and a batch manager.
type Server struct {
	backend Backend
	batches *workspace.Manager
	opts    Options
	engine  *gin.Engine
}

// New builds the router.
func New(backend Backend, batches *workspace.Manager, opts Options) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	s := &Server{backend: backend, batches: batches, opts: opts}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())
	r.MaxMultipartMemory = s.opts.MaxUploadBytes

	r.GET("/healthz", s.health)
	if s.opts.ImagesDir != "" {
		r.Static("/images", s.opts.ImagesDir)
	}

	api := r.Group("/api/v1")
	{
		api.POST("/batches", s.createBatch)
		api.GET("/batches/:id", s.getBatch)
		api.DELETE("/batches/:id", s.deleteBatch)
		api.POST("/batches/:id/extract", s.extractBatch)
		api.DELETE("/batches/:id/files/:index", s.removeFile)
		api.PUT("/batches/:id/files/:index/view", s.setViewMode)
		api.GET("/batches/:id/files/:index/render", s.renderFile)
		api.POST("/batches/:id/files/:index/save", s.saveFile)

		api.GET("/history", s.listHistory)
		api.GET("/history/:id", s.getHistory)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down http server", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// requestLogger logs each request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		switch {
		case c.Writer.Status() >= 500:
			slog.Error("http request", attrs...)
		case c.Writer.Status() >= 400:
			slog.Warn("http request", attrs...)
		default:
			slog.Debug("http request", attrs...)
		}
	}
}
