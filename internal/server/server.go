// Package server exposes the detector over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/hybrid"
	"doc_detector/internal/logging"
	"doc_detector/internal/metrics"
)

const DefaultMaxUploadBytes = 32 << 20

type Options struct {
	Base   aidetect.Config
	Scorer hybrid.Scorer
	Hybrid hybrid.Settings
	// StorePath enables persistence and the /v1/analyses endpoints.
	StorePath      string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	h := NewHandlers(opts)
	router.MaxMultipartMemory = h.maxUpload

	router.GET("/healthz", h.HandleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	RegisterRoutes(router.Group("/v1"), h)
	return router
}

// RegisterRoutes registers the /v1 endpoints:
//
//	POST /v1/analyze          analyze JSON text
//	POST /v1/analyze/file     analyze an uploaded pdf, docx or txt
//	GET  /v1/presets          list weight presets
//	GET  /v1/analyses         list stored analyses
//	GET  /v1/analyses/:id     fetch one stored analysis
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/analyze", h.HandleAnalyze)
	rg.POST("/analyze/file", h.HandleAnalyzeFile)
	rg.GET("/presets", h.HandlePresets)
	rg.GET("/analyses", h.HandleListAnalyses)
	rg.GET("/analyses/:id", h.HandleGetAnalysis)
}

// Run serves handler on addr until ctx is canceled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.Discard()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("http server shutting down", "addr", addr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
