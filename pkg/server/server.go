// Package server exposes the gateway over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pario-ai/aigateway/pkg/admission"
	"github.com/pario-ai/aigateway/pkg/config"
	"github.com/pario-ai/aigateway/pkg/gateway"
	"github.com/pario-ai/aigateway/pkg/quota"
)

// Server is the gateway HTTP server.
type Server struct {
	cfg     *config.Config
	gateway *gateway.Service
	quotas  *quota.Service
	logger  *slog.Logger
	engine  *gin.Engine
}

// New creates a Server wired with all dependencies. debits receives the
// balance updates computed by the admission middleware when quota
// enforcement is enabled.
func New(cfg *config.Config, gw *gateway.Service, quotas *quota.Service, debits admission.Scheduler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		gateway: gw,
		quotas:  quotas,
		logger:  logger,
		engine:  gin.New(),
	}

	s.engine.Use(s.recovery(), correlationID(), s.accessLog())
	s.routes(debits)
	return s
}

func (s *Server) routes(debits admission.Scheduler) {
	root := s.engine.Group(s.cfg.PathPrefix)
	root.GET("/health", s.handleHealth)

	// Admission runs after the header check so a missing client id is a 400.
	v1 := root.Group("/v1", requireHeaders(clientHeaders...))
	if s.cfg.Quota.Enabled {
		v1.Use(admission.Middleware(s.quotas, debits, s.cfg.PathPrefix, s.logger))
	}
	v1.POST("/chat", s.handleChat)
	v1.POST("/chat/stream", s.handleChatStream)
	v1.POST("/embeddings", s.handleEmbeddings)
	v1.POST("/similarity", s.handleSimilarity)
	v1.POST("/images/generations", s.handleImages)
	v1.POST("/files", s.handleCreateFile)
	v1.GET("/files/:fileId", s.handleGetFile)
	v1.POST("/batches", s.handleCreateBatch)
	v1.GET("/batches/:batchId", s.handleGetBatch)
	v1.GET("/providers", s.handleProviders)

	admin := adminAuth(s.cfg.Quota.AdminToken)
	v1.POST("/quotas", admin, s.handleCreateQuota)
	v1.GET("/quotas", s.handleRetrieveQuotas)
	v1.PATCH("/quotas", admin, s.handleUpdateQuota)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("aigateway listening", "addr", s.cfg.Listen, "prefix", s.cfg.PathPrefix, "quota", s.cfg.Quota.Enabled)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
