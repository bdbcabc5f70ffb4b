// Package api exposes the task lifecycle over REST plus an SSE progress
// stream, backed by the pipeline orchestrator and its task store.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dreamerjackson/extractra/extract"
	"github.com/dreamerjackson/extractra/extract/pipeline"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	options
	orchestrator *pipeline.Orchestrator
	store        *extract.TaskStore
	engine       *gin.Engine
}

func NewServer(o *pipeline.Orchestrator, store *extract.TaskStore, opts ...Option) (*Server, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	if o == nil {
		return nil, errors.New("orchestrator is required")
	}
	if store == nil {
		return nil, errors.New("task store is required")
	}

	s := &Server{
		options:      options,
		orchestrator: o,
		store:        store,
	}
	s.engine = s.routes()

	return s, nil
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	if s.Throttle != nil {
		r.Use(s.throttle())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "tasks": s.store.Len()})
	})

	v1 := r.Group("/api/v1")
	{
		tasks := v1.Group("/tasks")
		{
			tasks.POST("", s.createTask)
			tasks.GET("/:id/status", s.getStatus)
			tasks.GET("/:id/stream", s.streamProgress)
			tasks.GET("/:id/result", s.getResult)
			tasks.DELETE("/:id", s.deleteTask)
		}
	}

	return r
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.Logger.Info("http server listening", zap.String("addr", s.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
