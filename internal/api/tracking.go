package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/siddarth16/coldscale/internal/campaign"
)

// trackingPixel is a transparent 1x1 GIF.
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80,
	0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04,
	0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01,
	0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// handleTrackOpen handles GET /track/open/{trackingID}. The pixel is
// served no matter what: an unknown or already-counted id must not make
// the image break in the recipient's client.
func (s *Server) handleTrackOpen(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")

	if _, err := s.manager.TrackOpen(trackingID); err != nil {
		if !errors.Is(err, campaign.ErrNotFound) {
			s.logger.Error("failed to record open", "tracking_id", trackingID, "error", err)
		}
	} else if s.metrics != nil {
		s.metrics.TrackingEventsTotal.WithLabelValues("open").Inc()
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Length", strconv.Itoa(len(trackingPixel)))
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Write(trackingPixel)
}

// handleTrackClick handles GET /track/click/{trackingID}?url=...
func (s *Server) handleTrackClick(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")

	target := r.URL.Query().Get("url")
	if target == "" {
		s.sendError(w, http.StatusBadRequest, "url is required")
		return
	}
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		s.sendError(w, http.StatusBadRequest, "invalid redirect url")
		return
	}

	if _, err := s.manager.TrackClick(trackingID); err != nil {
		if !errors.Is(err, campaign.ErrNotFound) {
			s.logger.Error("failed to record click", "tracking_id", trackingID, "error", err)
		}
	} else if s.metrics != nil {
		s.metrics.TrackingEventsTotal.WithLabelValues("click").Inc()
	}

	// The redirect happens even when the id is unknown; a dead link
	// would punish the recipient for our bookkeeping.
	http.Redirect(w, r, target, http.StatusFound)
}
