// Package sender delivers campaign emails. The default sender simulates
// an SMTP relay with randomized latency and injected failures; the live
// sender submits through a real relay. Both satisfy the same interface,
// so the queue does not care which one it drains into.
package sender

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Email is the delivery-ready form of a campaign email.
type Email struct {
	To         string
	Subject    string
	Body       string
	TrackingID string
	CampaignID string
	ContactID  string
}

// Result reports a successful delivery.
type Result struct {
	MessageID string
	Timestamp time.Time
}

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, email *Email) (*Result, error)
}

// Simulated is a stand-in SMTP relay: it waits a randomized latency,
// fails a fixed fraction of sends and fabricates message ids.
type Simulated struct {
	minLatency  time.Duration
	maxLatency  time.Duration
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// SimulatedConfig tunes the simulation. Zero values fall back to the
// production defaults (500-1500ms latency, 5% failures).
type SimulatedConfig struct {
	MinLatency  time.Duration
	MaxLatency  time.Duration
	FailureRate float64
	Seed        int64
}

// NewSimulated creates a simulated sender.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	if cfg.MaxLatency == 0 {
		cfg.MinLatency = 500 * time.Millisecond
		cfg.MaxLatency = 1500 * time.Millisecond
	}
	if cfg.FailureRate == 0 {
		cfg.FailureRate = 0.05
	}
	if cfg.FailureRate < 0 {
		cfg.FailureRate = 0
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulated{
		minLatency:  cfg.MinLatency,
		maxLatency:  cfg.MaxLatency,
		failureRate: cfg.FailureRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Send simulates one delivery.
func (s *Simulated) Send(ctx context.Context, email *Email) (*Result, error) {
	s.mu.Lock()
	latency := s.minLatency
	if span := s.maxLatency - s.minLatency; span > 0 {
		latency += time.Duration(s.rng.Int63n(int64(span)))
	}
	fail := s.rng.Float64() < s.failureRate
	s.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if fail {
		return nil, fmt.Errorf("temporary server error sending to %s", email.To)
	}

	return &Result{
		MessageID: fmt.Sprintf("%s@coldscale.local", uuid.New().String()),
		Timestamp: time.Now(),
	}, nil
}
