package aiwriter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RateLimitMessage is the fixed user-facing message for upstream 429s.
const RateLimitMessage = "Limit reached, try after 2 minutes"

var (
	// ErrNoAPIKey means generation is not configured at all.
	ErrNoAPIKey = errors.New("AI API key not configured")

	// ErrRateLimited is returned when the upstream answers 429. No
	// retry or backoff is attempted; the caller surfaces the fixed
	// message.
	ErrRateLimited = errors.New("upstream rate limit")
)

// UpstreamError carries a non-2xx upstream status through to the HTTP
// layer.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// Config configures the upstream client.
type Config struct {
	Endpoint string // base URL of the generative-text API
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Client calls the upstream generative-text API and decodes its output
// into subject/body options.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an AI writer client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("component", "aiwriter"),
	}
}

// Configured reports whether an upstream key is present.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// generateRequest mirrors the upstream generateContent body.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate drafts subject and body options for the prompt. On success
// the Result carries the decoded options; failures return ErrNoAPIKey,
// ErrRateLimited, an *UpstreamError, or a Result whose Error field
// names a parse failure.
func (c *Client) Generate(ctx context.Context, p *Prompt) (*Result, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}

	text, err := c.callUpstream(ctx, BuildPrompt(p))
	if err != nil {
		return nil, err
	}

	parsed, strat, ok := parseResponse(text)
	if !ok {
		c.logger.Warn("failed to parse AI response", "length", len(text))
		return &Result{Subjects: []string{}, Bodies: []string{}, Error: "Failed to parse AI response format"}, nil
	}

	c.logger.Info("email copy generated",
		"strategy", strat,
		"subjects", len(parsed.subjects),
		"bodies", len(parsed.bodies),
	)
	return &Result{Subjects: parsed.subjects, Bodies: parsed.bodies}, nil
}

func (c *Client) callUpstream(ctx context.Context, promptText string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: promptText}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.Endpoint, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("upstream error", "status", resp.StatusCode)
		return "", &UpstreamError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upstream response: %w", err)
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("failed to decode upstream response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("invalid response from upstream API")
	}

	return gr.Candidates[0].Content.Parts[0].Text, nil
}
