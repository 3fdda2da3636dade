// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/savings-tracker/internal/logging"
	"github.com/savings-tracker/internal/models"
	"github.com/savings-tracker/internal/service"
)

// Service interfaces for dependency injection and testing

// IngestServiceInterface defines the interface for snapshot ingestion
type IngestServiceInterface interface {
	Ingest(ctx context.Context, input *service.IngestInput) (*models.Snapshot, error)
}

// PortfolioServiceInterface defines the interface for portfolio queries
type PortfolioServiceInterface interface {
	CurrentPortfolio(ctx context.Context) (*models.PortfolioSnapshot, error)
	History(ctx context.Context, days int) ([]models.HistoryRow, error)
	HistoryPercentage(ctx context.Context, days int) ([]models.HistoryRow, error)
}

// Server represents the HTTP API server.
type Server struct {
	router           *mux.Router
	httpServer       *http.Server
	ingestService    IngestServiceInterface
	portfolioService PortfolioServiceInterface
	config           *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	ingestService IngestServiceInterface,
	portfolioService PortfolioServiceInterface,
) *Server {
	s := &Server{
		router:           mux.NewRouter(),
		ingestService:    ingestService,
		portfolioService: portfolioService,
		config:           config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Set up middleware (order matters!)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(CompressionMiddleware)

	// Set up routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Ledger endpoint
	api.HandleFunc("/savings", s.handleAppendSnapshot).Methods("POST")

	// Portfolio endpoints
	api.HandleFunc("/portfolio", s.handleGetPortfolio).Methods("GET")
	api.HandleFunc("/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/history/percentage", s.handleGetHistoryPercentage).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "savings-tracker",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.GetGlobalLogger().WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
