// Package api exposes the ColdScale HTTP surface: contact, campaign and
// template CRUD, the send pipeline actions, AI copy generation and the
// open/click tracking endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/siddarth16/coldscale/internal/aiwriter"
	"github.com/siddarth16/coldscale/internal/campaign"
	"github.com/siddarth16/coldscale/internal/config"
	"github.com/siddarth16/coldscale/internal/metrics"
	"github.com/siddarth16/coldscale/internal/sender"
	"github.com/siddarth16/coldscale/internal/store"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *config.ServerConfig

	contacts  *store.ContactStore
	templates *store.TemplateStore
	settings  *store.SettingsStore
	manager   *campaign.Manager
	queue     *sender.Queue
	ai        *aiwriter.Client
	metrics   *metrics.Metrics
	logger    *slog.Logger
	startTime time.Time
}

// Deps carries the dependencies of the API server.
type Deps struct {
	Config    *config.ServerConfig
	Contacts  *store.ContactStore
	Templates *store.TemplateStore
	Settings  *store.SettingsStore
	Manager   *campaign.Manager
	Queue     *sender.Queue
	AI        *aiwriter.Client
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// NewServer creates a new API server
func NewServer(d Deps) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		config:    d.Config,
		contacts:  d.Contacts,
		templates: d.Templates,
		settings:  d.Settings,
		manager:   d.Manager,
		queue:     d.Queue,
		ai:        d.AI,
		metrics:   d.Metrics,
		logger:    d.Logger,
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)

	// Public endpoints: health, metrics and the recipient-facing
	// tracking pixel/redirect. Tracking cannot carry an API key.
	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	s.router.Get("/track/open/{trackingID}", s.handleTrackOpen)
	s.router.Get("/track/click/{trackingID}", s.handleTrackClick)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", s.handleListContacts)
			r.Post("/", s.handleCreateContact)
			r.Post("/bulk-delete", s.handleBulkDeleteContacts)
			r.Get("/duplicates", s.handleContactDuplicates)
			r.Get("/tags", s.handleContactTags)
			r.Get("/companies", s.handleContactCompanies)
			r.Get("/stats", s.handleContactStats)
			r.Post("/import", s.handleImportContacts)
			r.Post("/import/commit", s.handleCommitImport)
			r.Get("/export", s.handleExportContacts)
			r.Get("/{id}", s.handleGetContact)
			r.Put("/{id}", s.handleUpdateContact)
			r.Delete("/{id}", s.handleDeleteContact)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", s.handleListCampaigns)
			r.Post("/", s.handleCreateCampaign)
			r.Get("/summary", s.handleCampaignSummary)
			r.Get("/{id}", s.handleGetCampaign)
			r.Put("/{id}", s.handleUpdateCampaign)
			r.Delete("/{id}", s.handleDeleteCampaign)
			r.Post("/{id}/duplicate", s.handleDuplicateCampaign)
			r.Post("/{id}/start", s.handleStartCampaign)
			r.Post("/{id}/pause", s.handlePauseCampaign)
			r.Post("/{id}/resume", s.handleResumeCampaign)
			r.Post("/{id}/cancel", s.handleCancelCampaign)
			r.Post("/{id}/complete", s.handleCompleteCampaign)
			r.Get("/{id}/emails", s.handleCampaignEmails)
			r.Post("/{id}/test-send", s.handleTestSend)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Get("/{id}", s.handleGetTemplate)
			r.Put("/{id}", s.handleUpdateTemplate)
			r.Delete("/{id}", s.handleDeleteTemplate)
			r.Post("/{id}/use", s.handleUseTemplate)
		})

		r.Get("/personalization/tokens", s.handlePersonalizationTokens)
		r.Post("/personalization/preview", s.handlePersonalizationPreview)

		r.Post("/generate-email", s.handleGenerateEmail)

		r.Get("/settings/smtp", s.handleGetSMTPSettings)
		r.Put("/settings/smtp", s.handlePutSMTPSettings)

		r.Get("/queue", s.handleQueueStatus)
	})
}

// drainContext is the context queue drains run under. Drains outlive the
// request that started them, so this is never the request context.
func (s *Server) drainContext() context.Context {
	return context.Background()
}

// Router returns the HTTP handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(s.startTime).String(),
	})
}

// handleQueueStatus reports the send queue state.
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	pending, processing := s.queue.Status()
	s.sendJSON(w, http.StatusOK, map[string]any{
		"pending":    pending,
		"processing": processing,
	})
}

// sendJSON writes a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendError writes a JSON error response
func (s *Server) sendError(w http.ResponseWriter, status int, msg string) {
	s.sendJSON(w, status, map[string]string{"error": msg})
}
