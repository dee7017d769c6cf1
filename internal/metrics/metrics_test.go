package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}

	// Check that all metrics are registered
	if m.EmailsSentTotal == nil {
		t.Error("EmailsSentTotal is nil")
	}
	if m.EmailsFailedTotal == nil {
		t.Error("EmailsFailedTotal is nil")
	}
	if m.SendDurationSeconds == nil {
		t.Error("SendDurationSeconds is nil")
	}
	if m.QueuePending == nil {
		t.Error("QueuePending is nil")
	}
	if m.QueueDrainsTotal == nil {
		t.Error("QueueDrainsTotal is nil")
	}
	if m.TrackingEventsTotal == nil {
		t.Error("TrackingEventsTotal is nil")
	}
	if m.GenerationsTotal == nil {
		t.Error("GenerationsTotal is nil")
	}
	if m.GenerationDurationSecs == nil {
		t.Error("GenerationDurationSecs is nil")
	}
	if m.APIRequestsTotal == nil {
		t.Error("APIRequestsTotal is nil")
	}
	if m.APIRequestDurationSeconds == nil {
		t.Error("APIRequestDurationSeconds is nil")
	}
}

func TestObserveAPIRequest(t *testing.T) {
	m := New()

	m.ObserveAPIRequest(http.MethodGet, "/api/v1/contacts", "200", 5*time.Millisecond)
	m.ObserveAPIRequest(http.MethodGet, "/api/v1/contacts", "200", 7*time.Millisecond)
	m.ObserveAPIRequest(http.MethodPost, "/api/v1/contacts", "201", 3*time.Millisecond)

	counter, err := m.APIRequestsTotal.GetMetricWithLabelValues(http.MethodGet, "/api/v1/contacts", "200")
	if err != nil {
		t.Fatalf("Failed to get counter: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected counter value 2, got %f", metric.Counter.GetValue())
	}
}

func TestTrackingEventsTotal(t *testing.T) {
	m := New()

	m.TrackingEventsTotal.WithLabelValues("open").Inc()
	m.TrackingEventsTotal.WithLabelValues("open").Inc()
	m.TrackingEventsTotal.WithLabelValues("click").Inc()

	counter, err := m.TrackingEventsTotal.GetMetricWithLabelValues("open")
	if err != nil {
		t.Fatalf("Failed to get counter: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected open events 2, got %f", metric.Counter.GetValue())
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.EmailsSentTotal.Inc()
	m.QueuePending.Set(3)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "coldscale_emails_sent_total 1") {
		t.Error("exposition missing coldscale_emails_sent_total")
	}
	if !strings.Contains(body, "coldscale_queue_pending 3") {
		t.Error("exposition missing coldscale_queue_pending")
	}
}

func TestPrivateRegistry(t *testing.T) {
	// Two instances must not collide, so the registry cannot be the
	// global default.
	a := New()
	b := New()
	a.EmailsSentTotal.Inc()

	w := httptest.NewRecorder()
	b.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if strings.Contains(w.Body.String(), "coldscale_emails_sent_total 1") {
		t.Error("metrics leaked between instances")
	}
}
