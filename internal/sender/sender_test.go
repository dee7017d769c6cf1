package sender

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSimulated_Send(t *testing.T) {
	s := NewSimulated(SimulatedConfig{
		MinLatency:  0,
		MaxLatency:  time.Nanosecond,
		FailureRate: -1, // never fail
		Seed:        1,
	})

	res, err := s.Send(context.Background(), &Email{To: "a@b.test", Subject: "hi"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !strings.HasSuffix(res.MessageID, "@coldscale.local") {
		t.Errorf("MessageID = %q, want @coldscale.local suffix", res.MessageID)
	}
	if res.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestSimulated_Send_AlwaysFails(t *testing.T) {
	s := NewSimulated(SimulatedConfig{
		MinLatency:  0,
		MaxLatency:  time.Nanosecond,
		FailureRate: 1.0,
		Seed:        1,
	})

	for i := 0; i < 5; i++ {
		if _, err := s.Send(context.Background(), &Email{To: "a@b.test"}); err == nil {
			t.Fatal("Send() error = nil, want injected failure")
		}
	}
}

func TestSimulated_Send_ContextCancelled(t *testing.T) {
	s := NewSimulated(SimulatedConfig{
		MinLatency:  time.Hour,
		MaxLatency:  time.Hour,
		FailureRate: -1,
		Seed:        1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Send(ctx, &Email{To: "a@b.test"}); err != context.Canceled {
		t.Errorf("Send() error = %v, want context.Canceled", err)
	}
}

func TestNewSimulated_Defaults(t *testing.T) {
	s := NewSimulated(SimulatedConfig{})
	if s.minLatency != 500*time.Millisecond || s.maxLatency != 1500*time.Millisecond {
		t.Errorf("latency defaults = %v-%v, want 500ms-1.5s", s.minLatency, s.maxLatency)
	}
	if s.failureRate != 0.05 {
		t.Errorf("failureRate default = %v, want 0.05", s.failureRate)
	}
}
