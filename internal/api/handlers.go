package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/siddarth16/coldscale/internal/contactcsv"
	"github.com/siddarth16/coldscale/internal/models"
	"github.com/siddarth16/coldscale/internal/store"
)

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// BulkDeleteRequest is the request body for POST /contacts/bulk-delete
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDeleteResponse reports how many records were removed.
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// CommitImportRequest is the request body for POST /contacts/import/commit.
// It carries the contacts synthesized by a prior dry run.
type CommitImportRequest struct {
	Contacts []models.Contact `json:"contacts"`
}

// handleListContacts handles GET /api/v1/contacts
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.ContactFilter{
		Search:  q.Get("search"),
		Company: q.Get("company"),
	}
	if tags := q.Get("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Tags = append(f.Tags, t)
			}
		}
	}

	contacts, err := s.contacts.Filter(f)
	if err != nil {
		s.logger.Error("failed to list contacts", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list contacts")
		return
	}

	s.sendJSON(w, http.StatusOK, contacts)
}

// handleCreateContact handles POST /api/v1/contacts
func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if c.Email == "" || c.FirstName == "" || c.LastName == "" {
		s.sendError(w, http.StatusBadRequest, "email, first_name and last_name are required")
		return
	}
	if !models.ValidEmail(c.Email) {
		s.sendError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	// Reject duplicate emails up front; the store itself does not
	// enforce uniqueness.
	existing, err := s.contacts.List()
	if err != nil {
		s.logger.Error("failed to list contacts", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to create contact")
		return
	}
	lower := strings.ToLower(c.Email)
	for _, e := range existing {
		if strings.ToLower(e.Email) == lower {
			s.sendError(w, http.StatusConflict, fmt.Sprintf("contact with email %s already exists", c.Email))
			return
		}
	}

	if err := s.contacts.Add(&c); err != nil {
		s.logger.Error("failed to create contact", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to create contact")
		return
	}

	s.logger.Info("contact created", "id", c.ID, "email", c.Email)
	s.sendJSON(w, http.StatusCreated, c)
}

// handleGetContact handles GET /api/v1/contacts/{id}
func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.contacts.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Contact not found")
			return
		}
		s.logger.Error("failed to get contact", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get contact")
		return
	}

	s.sendJSON(w, http.StatusOK, c)
}

// handleUpdateContact handles PUT /api/v1/contacts/{id}
func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd models.ContactUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if upd.Email != nil && !models.ValidEmail(*upd.Email) {
		s.sendError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	c, err := s.contacts.Update(id, upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Contact not found")
			return
		}
		s.logger.Error("failed to update contact", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to update contact")
		return
	}

	s.sendJSON(w, http.StatusOK, c)
}

// handleDeleteContact handles DELETE /api/v1/contacts/{id}
func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.contacts.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Contact not found")
			return
		}
		s.logger.Error("failed to delete contact", "id", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to delete contact")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleBulkDeleteContacts handles POST /api/v1/contacts/bulk-delete
func (s *Server) handleBulkDeleteContacts(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		s.sendError(w, http.StatusBadRequest, "ids is required")
		return
	}

	deleted, err := s.contacts.BulkDelete(req.IDs)
	if err != nil {
		s.logger.Error("failed to bulk delete contacts", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to delete contacts")
		return
	}

	s.logger.Info("contacts bulk deleted", "requested", len(req.IDs), "deleted", deleted)
	s.sendJSON(w, http.StatusOK, BulkDeleteResponse{Deleted: deleted})
}

// handleContactDuplicates handles GET /api/v1/contacts/duplicates
func (s *Server) handleContactDuplicates(w http.ResponseWriter, r *http.Request) {
	dups, err := s.contacts.FindDuplicates()
	if err != nil {
		s.logger.Error("failed to find duplicates", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to find duplicates")
		return
	}

	s.sendJSON(w, http.StatusOK, dups)
}

// handleContactTags handles GET /api/v1/contacts/tags
func (s *Server) handleContactTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.contacts.Tags()
	if err != nil {
		s.logger.Error("failed to list tags", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list tags")
		return
	}

	s.sendJSON(w, http.StatusOK, tags)
}

// handleContactCompanies handles GET /api/v1/contacts/companies
func (s *Server) handleContactCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.contacts.Companies()
	if err != nil {
		s.logger.Error("failed to list companies", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list companies")
		return
	}

	s.sendJSON(w, http.StatusOK, companies)
}

// handleContactStats handles GET /api/v1/contacts/stats
func (s *Server) handleContactStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.contacts.Stats()
	if err != nil {
		s.logger.Error("failed to compute contact stats", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	s.sendJSON(w, http.StatusOK, stats)
}

// handleImportContacts handles POST /api/v1/contacts/import. The body is
// raw CSV; the response is a dry-run report — nothing is persisted until
// the client commits the batch.
func (s *Server) handleImportContacts(w http.ResponseWriter, r *http.Request) {
	existing, err := s.contacts.List()
	if err != nil {
		s.logger.Error("failed to list contacts", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to import contacts")
		return
	}

	result := contactcsv.Import(r.Body, existing)

	s.logger.Info("contact import parsed",
		"contacts", len(result.Contacts),
		"errors", len(result.Errors),
		"duplicates", len(result.Duplicates),
	)
	s.sendJSON(w, http.StatusOK, result)
}

// handleCommitImport handles POST /api/v1/contacts/import/commit
func (s *Server) handleCommitImport(w http.ResponseWriter, r *http.Request) {
	var req CommitImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Contacts) == 0 {
		s.sendError(w, http.StatusBadRequest, "contacts is required")
		return
	}
	for i := range req.Contacts {
		c := &req.Contacts[i]
		if c.ID == "" || c.Email == "" {
			s.sendError(w, http.StatusBadRequest, fmt.Sprintf("contact %d is missing id or email", i))
			return
		}
	}

	if err := s.contacts.AddAll(req.Contacts); err != nil {
		s.logger.Error("failed to commit import", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to import contacts")
		return
	}

	s.logger.Info("contact import committed", "contacts", len(req.Contacts))
	s.sendJSON(w, http.StatusCreated, map[string]int{"imported": len(req.Contacts)})
}

// handleExportContacts handles GET /api/v1/contacts/export
func (s *Server) handleExportContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.contacts.List()
	if err != nil {
		s.logger.Error("failed to list contacts", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to export contacts")
		return
	}

	filename := fmt.Sprintf("contacts-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := contactcsv.Export(w, contacts); err != nil {
		s.logger.Error("failed to write contact export", "error", err)
	}
}
