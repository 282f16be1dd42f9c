package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/internal/engine"
)

// Config contains HTTP server configuration.
type Config struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	MetricsPort     int           `json:"metrics_port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	EnableMetrics   bool          `json:"enable_metrics"`
}

// DefaultConfig returns the standard server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8080,
		MetricsPort:     9090,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		EnableMetrics:   true,
	}
}

// Server is the HTTP surface over the engine's four operations. It owns
// no engine state; (de)serialization is its whole job.
type Server struct {
	httpServer    *http.Server
	metricsServer *http.Server
	router        *mux.Router
	logger        *logrus.Logger
	config        *Config
	handlers      *Handlers
}

// NewServer creates an HTTP server bound to an engine.
func NewServer(eng *engine.Engine, config *Config, logger *logrus.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	router := mux.NewRouter()
	s := &Server{
		router:   router,
		logger:   logger,
		config:   config,
		handlers: NewHandlers(eng, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	if config.EnableMetrics {
		s.setupMetricsServer(eng)
	}

	return s
}

// Start runs the server until it fails or is stopped.
func (s *Server) Start(ctx context.Context) error {
	if s.metricsServer != nil {
		go func() {
			s.logger.WithField("port", s.config.MetricsPort).Info("starting metrics server")
			if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.WithError(err).Error("metrics server failed")
			}
		}()
	}

	s.logger.WithField("addr", s.httpServer.Addr).Info("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("metrics server shutdown failed")
		}
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the HTTP router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	s.router.HandleFunc("/version", s.handlers.Version).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/ingest", s.handlers.Ingest).Methods("POST")
	api.HandleFunc("/synthesize", s.handlers.Synthesize).Methods("POST")
	api.HandleFunc("/budget/{key}", s.handlers.RemainingBudget).Methods("GET")
	api.HandleFunc("/datasets/{id}", s.handlers.DescribeDataset).Methods("GET")
	api.HandleFunc("/status", s.handlers.Status).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(jsonContentTypeMiddleware)
}

func (s *Server) setupMetricsServer(eng *engine.Engine) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", eng.MetricsHandler())
	metricsMux.HandleFunc("/health", s.handlers.Health)

	s.metricsServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.MetricsPort),
		Handler:      metricsMux,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}
