package aiwriter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPrompt() *Prompt {
	return &Prompt{
		Product:   "Onboarding tool",
		Audience:  "HR leaders",
		Objective: "book demos",
		Tone:      "professional",
		CTA:       "Book a call",
		Length:    "medium",
		Template:  "intro",
	}
}

// upstreamText wraps raw model output in the generateContent response
// envelope.
func upstreamText(t *testing.T, text string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	if err != nil {
		t.Fatalf("marshal upstream response: %v", err)
	}
	return data
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Endpoint: srv.URL,
		Model:    "test-model",
		APIKey:   "test-key",
	}, testLogger())
}

func TestClient_Generate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("upstream method = %v, want POST", r.Method)
		}
		if !strings.Contains(r.URL.Path, "test-model") {
			t.Errorf("upstream path = %v, want model in path", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("upstream key = %v", r.URL.Query().Get("key"))
		}
		w.Write(upstreamText(t, `<Subject> One; Two <Subject>

<Body 1>
A complete email body.
<Body 1>`))
	})

	res, err := c.Generate(context.Background(), testPrompt())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Error != "" {
		t.Errorf("Result.Error = %q, want empty", res.Error)
	}
	if len(res.Subjects) != 2 || len(res.Bodies) != 1 {
		t.Errorf("Generate() = %d subjects, %d bodies", len(res.Subjects), len(res.Bodies))
	}
}

func TestClient_Generate_NoAPIKey(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://unused.test", Model: "m"}, testLogger())

	if _, err := c.Generate(context.Background(), testPrompt()); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Generate() error = %v, want ErrNoAPIKey", err)
	}
}

func TestClient_Generate_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := c.Generate(context.Background(), testPrompt()); !errors.Is(err, ErrRateLimited) {
		t.Errorf("Generate() error = %v, want ErrRateLimited", err)
	}
}

func TestClient_Generate_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Generate(context.Background(), testPrompt())
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Generate() error = %v, want *UpstreamError", err)
	}
	if ue.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", ue.StatusCode)
	}
}

func TestClient_Generate_ParseFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(upstreamText(t, ""))
	})

	res, err := c.Generate(context.Background(), testPrompt())
	if err != nil {
		t.Fatalf("Generate() error = %v, want parse failure in Result", err)
	}
	if res.Error != "Failed to parse AI response format" {
		t.Errorf("Result.Error = %q", res.Error)
	}
	if res.Subjects == nil || res.Bodies == nil {
		t.Error("Result slices must be non-nil on parse failure")
	}
}

func TestClient_Generate_EmptyCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	if _, err := c.Generate(context.Background(), testPrompt()); err == nil {
		t.Error("Generate() error = nil on empty candidates")
	}
}
