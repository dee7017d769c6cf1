package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/siddarth16/coldscale/internal/models"
	"github.com/siddarth16/coldscale/internal/store"
)

// handleListTemplates handles GET /api/v1/templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.TemplateFilter{
		Category: q.Get("category"),
		Source:   models.TemplateSource(q.Get("source")),
		Search:   q.Get("search"),
	}

	templates, err := s.templates.Filter(f)
	if err != nil {
		s.logger.Error("failed to list templates", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	s.sendJSON(w, http.StatusOK, templates)
}

// handleCreateTemplate handles POST /api/v1/templates
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.EmailTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if t.Name == "" || t.Subject == "" || t.Body == "" {
		s.sendError(w, http.StatusBadRequest, "name, subject and body are required")
		return
	}

	if err := s.templates.Add(&t); err != nil {
		s.logger.Error("failed to create template", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to create template")
		return
	}

	s.logger.Info("template created", "id", t.ID, "name", t.Name, "source", t.Source)
	s.sendJSON(w, http.StatusCreated, t)
}

// handleGetTemplate handles GET /api/v1/templates/{id}
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := s.templates.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Template not found")
			return
		}
		s.logger.Error("failed to get template", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	s.sendJSON(w, http.StatusOK, t)
}

// handleUpdateTemplate handles PUT /api/v1/templates/{id}
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.templates.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Template not found")
			return
		}
		s.logger.Error("failed to get template", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to update template")
		return
	}

	updated := *existing
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated.ID = existing.ID
	updated.UsageCount = existing.UsageCount
	updated.CreatedAt = existing.CreatedAt

	if err := s.templates.Put(&updated); err != nil {
		s.logger.Error("failed to update template", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to update template")
		return
	}

	s.sendJSON(w, http.StatusOK, updated)
}

// handleDeleteTemplate handles DELETE /api/v1/templates/{id}
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.templates.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Template not found")
			return
		}
		s.logger.Error("failed to delete template", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to delete template")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleUseTemplate handles POST /api/v1/templates/{id}/use. It bumps the
// usage counter and returns the template for the caller to copy into a
// campaign.
func (s *Server) handleUseTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := s.templates.IncrementUsage(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Template not found")
			return
		}
		s.logger.Error("failed to increment template usage", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to use template")
		return
	}

	s.sendJSON(w, http.StatusOK, t)
}
