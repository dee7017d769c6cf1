package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/siddarth16/coldscale/internal/aiwriter"
	"github.com/siddarth16/coldscale/internal/models"
	"github.com/siddarth16/coldscale/internal/personalize"
)

// PreviewRequest is the request body for POST /personalization/preview
type PreviewRequest struct {
	Text      string `json:"text"`
	ContactID string `json:"contact_id,omitempty"` // empty means sample data
}

// PreviewResponse carries the rendered text and token diagnostics.
type PreviewResponse struct {
	Rendered    string   `json:"rendered"`
	Tokens      []string `json:"tokens"`
	Unsupported []string `json:"unsupported,omitempty"`
}

// handleGenerateEmail handles POST /api/v1/generate-email
func (s *Server) handleGenerateEmail(w http.ResponseWriter, r *http.Request) {
	var p aiwriter.Prompt
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := p.Validate(); len(missing) > 0 {
		s.sendJSON(w, http.StatusBadRequest, aiwriter.Result{
			Subjects: []string{},
			Bodies:   []string{},
			Error:    "Missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	start := time.Now()
	result, err := s.ai.Generate(r.Context(), &p)
	if s.metrics != nil {
		s.metrics.GenerationDurationSecs.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.generationError(w, err)
		return
	}

	if s.metrics != nil {
		outcome := "ok"
		if result.Error != "" {
			outcome = "parse_failure"
		}
		s.metrics.GenerationsTotal.WithLabelValues(outcome).Inc()
	}
	s.sendJSON(w, http.StatusOK, result)
}

// generationError maps aiwriter errors onto HTTP responses. Every branch
// keeps the subjects/bodies/error body shape so clients decode one type.
func (s *Server) generationError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "Failed to generate email"
	outcome := "error"

	var upstream *aiwriter.UpstreamError
	switch {
	case errors.Is(err, aiwriter.ErrNoAPIKey):
		msg = "AI API key not configured"
		outcome = "no_key"
	case errors.Is(err, aiwriter.ErrRateLimited):
		status = http.StatusTooManyRequests
		msg = aiwriter.RateLimitMessage
		outcome = "rate_limited"
	case errors.As(err, &upstream):
		status = upstream.StatusCode
		msg = upstream.Error()
		outcome = "upstream_error"
	default:
		s.logger.Error("generation failed", "error", err)
	}

	if s.metrics != nil {
		s.metrics.GenerationsTotal.WithLabelValues(outcome).Inc()
	}
	s.sendJSON(w, status, aiwriter.Result{
		Subjects: []string{},
		Bodies:   []string{},
		Error:    msg,
	})
}

// handlePersonalizationTokens handles GET /api/v1/personalization/tokens
func (s *Server) handlePersonalizationTokens(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, personalize.Tokens())
}

// handlePersonalizationPreview handles POST /api/v1/personalization/preview
func (s *Server) handlePersonalizationPreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var contact *models.Contact
	if req.ContactID != "" {
		c, err := s.contacts.Get(req.ContactID)
		if err != nil {
			s.sendError(w, http.StatusNotFound, "Contact not found")
			return
		}
		contact = c
	} else {
		contact = personalize.PreviewContact()
	}

	_, unsupported := personalize.Validate(req.Text)
	s.sendJSON(w, http.StatusOK, PreviewResponse{
		Rendered:    personalize.Personalize(req.Text, contact),
		Tokens:      personalize.ExtractTokens(req.Text),
		Unsupported: unsupported,
	})
}
