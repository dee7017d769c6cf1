package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/siddarth16/coldscale/internal/campaign"
	"github.com/siddarth16/coldscale/internal/models"
)

// TestSendRequest is the request body for POST /campaigns/{id}/test-send
type TestSendRequest struct {
	To string `json:"to"`
}

// handleListCampaigns handles GET /api/v1/campaigns
func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.CampaignFilter{
		Status: models.CampaignStatus(q.Get("status")),
		Search: q.Get("search"),
	}

	campaigns, err := s.manager.Filter(f)
	if err != nil {
		s.logger.Error("failed to list campaigns", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list campaigns")
		return
	}

	s.sendJSON(w, http.StatusOK, campaigns)
}

// handleCreateCampaign handles POST /api/v1/campaigns
func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var c models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if c.Name == "" {
		s.sendError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := s.manager.Create(&c); err != nil {
		s.logger.Error("failed to create campaign", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to create campaign")
		return
	}

	s.logger.Info("campaign created", "id", c.ID, "name", c.Name)
	s.sendJSON(w, http.StatusCreated, c)
}

// handleCampaignSummary handles GET /api/v1/campaigns/summary
func (s *Server) handleCampaignSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.manager.Summary()
	if err != nil {
		s.logger.Error("failed to compute campaign summary", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	s.sendJSON(w, http.StatusOK, summary)
}

// handleGetCampaign handles GET /api/v1/campaigns/{id}
func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.manager.Get(id)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		s.logger.Error("failed to get campaign", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get campaign")
		return
	}

	s.sendJSON(w, http.StatusOK, c)
}

// handleUpdateCampaign handles PUT /api/v1/campaigns/{id}
func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.manager.Get(id)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		s.logger.Error("failed to get campaign", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to update campaign")
		return
	}

	// Decode over the existing record so omitted fields keep their
	// values. Status and stats are server-owned.
	updated := *existing
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated.ID = existing.ID
	updated.Status = existing.Status
	updated.Stats = existing.Stats
	updated.CreatedAt = existing.CreatedAt

	if err := s.manager.Update(&updated); err != nil {
		s.logger.Error("failed to update campaign", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to update campaign")
		return
	}

	s.sendJSON(w, http.StatusOK, updated)
}

// handleDeleteCampaign handles DELETE /api/v1/campaigns/{id}
func (s *Server) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.Delete(id); err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		s.logger.Error("failed to delete campaign", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to delete campaign")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDuplicateCampaign handles POST /api/v1/campaigns/{id}/duplicate
func (s *Server) handleDuplicateCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dup, err := s.manager.Duplicate(id)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		s.logger.Error("failed to duplicate campaign", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to duplicate campaign")
		return
	}

	s.logger.Info("campaign duplicated", "source", id, "copy", dup.ID)
	s.sendJSON(w, http.StatusCreated, dup)
}

// handleStartCampaign handles POST /api/v1/campaigns/{id}/start. Starting
// prepares the per-recipient emails, enqueues them and kicks off the
// queue drain.
func (s *Server) handleStartCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.Start(id); err != nil {
		s.transitionError(w, id, "start", err)
		return
	}

	emails, err := s.manager.PrepareEmails(id)
	if err != nil {
		s.logger.Error("failed to prepare campaign emails", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to prepare campaign emails")
		return
	}

	s.queue.Enqueue(emails)
	go s.queue.Process(s.drainContext(), nil)

	s.logger.Info("campaign started", "id", id, "emails", len(emails))
	s.sendJSON(w, http.StatusOK, map[string]any{
		"status": string(models.CampaignSending),
		"queued": len(emails),
	})
}

// handlePauseCampaign handles POST /api/v1/campaigns/{id}/pause
func (s *Server) handlePauseCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.Pause(id); err != nil {
		s.transitionError(w, id, "pause", err)
		return
	}
	s.queue.Pause()

	s.logger.Info("campaign paused", "id", id)
	s.sendJSON(w, http.StatusOK, map[string]string{"status": string(models.CampaignPaused)})
}

// handleResumeCampaign handles POST /api/v1/campaigns/{id}/resume
func (s *Server) handleResumeCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.Resume(id); err != nil {
		s.transitionError(w, id, "resume", err)
		return
	}
	s.queue.Resume(s.drainContext(), nil)

	s.logger.Info("campaign resumed", "id", id)
	s.sendJSON(w, http.StatusOK, map[string]string{"status": string(models.CampaignSending)})
}

// handleCancelCampaign handles POST /api/v1/campaigns/{id}/cancel
func (s *Server) handleCancelCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.Cancel(id); err != nil {
		s.transitionError(w, id, "cancel", err)
		return
	}
	s.queue.Clear()

	s.logger.Info("campaign cancelled", "id", id)
	s.sendJSON(w, http.StatusOK, map[string]string{"status": string(models.CampaignCancelled)})
}

// handleCompleteCampaign handles POST /api/v1/campaigns/{id}/complete
func (s *Server) handleCompleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.Complete(id); err != nil {
		s.transitionError(w, id, "complete", err)
		return
	}

	s.logger.Info("campaign completed", "id", id)
	s.sendJSON(w, http.StatusOK, map[string]string{"status": string(models.CampaignCompleted)})
}

// handleCampaignEmails handles GET /api/v1/campaigns/{id}/emails
func (s *Server) handleCampaignEmails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.manager.Get(id); err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		s.logger.Error("failed to get campaign", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list campaign emails")
		return
	}

	emails, err := s.manager.Emails(id)
	if err != nil {
		s.logger.Error("failed to list campaign emails", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list campaign emails")
		return
	}

	s.sendJSON(w, http.StatusOK, emails)
}

// handleTestSend handles POST /api/v1/campaigns/{id}/test-send. The test
// message goes through the sender with a marked subject and never touches
// campaign stats.
func (s *Server) handleTestSend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TestSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !models.ValidEmail(req.To) {
		s.sendError(w, http.StatusBadRequest, "valid to address is required")
		return
	}

	c, err := s.manager.Get(id)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		s.logger.Error("failed to get campaign", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to send test email")
		return
	}

	result, err := s.queue.SendTest(r.Context(), req.To, c.Subject, c.Body)
	if err != nil {
		s.logger.Error("test send failed", "campaign", id, "to", req.To, "error", err)
		s.sendError(w, http.StatusBadGateway, "Test send failed: "+err.Error())
		return
	}

	s.logger.Info("test email sent", "campaign", id, "to", req.To, "message_id", result.MessageID)
	s.sendJSON(w, http.StatusOK, result)
}

// transitionError maps lifecycle errors onto HTTP statuses. Guard
// failures are 409, a missing campaign 404.
func (s *Server) transitionError(w http.ResponseWriter, id, action string, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		s.sendError(w, http.StatusNotFound, "Campaign not found")
	case errors.Is(err, campaign.ErrInvalidTransition):
		s.sendError(w, http.StatusConflict, "Campaign cannot "+action+" from its current status")
	default:
		s.logger.Error("campaign transition failed", "id", id, "action", action, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to "+action+" campaign")
	}
}
