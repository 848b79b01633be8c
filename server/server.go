// Package server exposes the soil prediction pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"soilscan/config"
	"soilscan/database"
	"soilscan/pipeline"
	"soilscan/types"
)

const shutdownTimeout = 10 * time.Second

// Predictor runs one prediction
type Predictor interface {
	Run(ctx context.Context, req pipeline.Request) (*types.PredictionResult, error)
}

// Server holds the HTTP dependencies
type Server struct {
	cfg       *config.Config
	predictor Predictor
	source    *database.Source
	logger    *zap.Logger
	validate  *validator.Validate

	// bounds concurrent pipeline runs; clustering runs in cgo
	slots chan struct{}
}

// New creates a server. maxConcurrent below 1 is treated as 1.
func New(cfg *config.Config, predictor Predictor, source *database.Source, logger *zap.Logger, maxConcurrent int) *Server {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		predictor: predictor,
		source:    source,
		logger:    logger,
		validate:  validator.New(),
		slots:     make(chan struct{}, maxConcurrent),
	}
}

// Router builds the chi router with its middleware stack
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(Recoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(exposeRequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(NewCORSMiddleware(s.cfg.CORSAllowedOrigins))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.With(middleware.Timeout(s.cfg.RequestTimeout)).Post("/predict", s.handlePredict)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", srv.Addr))
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

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
