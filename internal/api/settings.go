package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/siddarth16/coldscale/internal/models"
)

// SMTPSettingsResponse never echoes the stored password; HasPassword
// tells the client one is set.
type SMTPSettingsResponse struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	HasPassword bool   `json:"has_password"`
	FromEmail   string `json:"from_email"`
	FromName    string `json:"from_name"`
	Secure      bool   `json:"secure"`
}

// handleGetSMTPSettings handles GET /api/v1/settings/smtp
func (s *Server) handleGetSMTPSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.SMTP()
	if err != nil {
		s.logger.Error("failed to load SMTP settings", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load SMTP settings")
		return
	}
	if cfg == nil {
		cfg = &models.SMTPSettings{}
	}

	s.sendJSON(w, http.StatusOK, SMTPSettingsResponse{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Username:    cfg.Username,
		HasPassword: cfg.Password != "",
		FromEmail:   cfg.FromEmail,
		FromName:    cfg.FromName,
		Secure:      cfg.Secure,
	})
}

// handlePutSMTPSettings handles PUT /api/v1/settings/smtp
func (s *Server) handlePutSMTPSettings(w http.ResponseWriter, r *http.Request) {
	var cfg models.SMTPSettings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// An omitted password keeps the stored one, so a client can update
	// the host without re-entering the credential.
	if cfg.Password == "" {
		if existing, err := s.settings.SMTP(); err == nil && existing != nil {
			cfg.Password = existing.Password
		}
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		s.sendError(w, http.StatusBadRequest, strings.Join(problems, "; "))
		return
	}

	if err := s.settings.SaveSMTP(&cfg); err != nil {
		s.logger.Error("failed to save SMTP settings", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to save SMTP settings")
		return
	}

	s.logger.Info("SMTP settings updated", "host", cfg.Host, "port", cfg.Port)
	w.WriteHeader(http.StatusNoContent)
}
