package sender

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/siddarth16/coldscale/internal/campaign"
	"github.com/siddarth16/coldscale/internal/models"
	"github.com/siddarth16/coldscale/internal/store"
)

// stubSender records sends and fails on demand.
type stubSender struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	errFn func(to string) error
}

func (s *stubSender) Send(ctx context.Context, email *Email) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errFn != nil {
		if err := s.errFn(email.To); err != nil {
			return nil, err
		}
	}
	if s.fail {
		return nil, context.DeadlineExceeded
	}
	s.sent = append(s.sent, email.To)
	return &Result{MessageID: "stub@coldscale.local", Timestamp: time.Now()}, nil
}

func (s *stubSender) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

type queueFixture struct {
	queue    *Queue
	manager  *campaign.Manager
	stub     *stubSender
	campaign *models.Campaign
	emails   []models.CampaignEmail
}

func setupQueue(t *testing.T, recipients ...string) *queueFixture {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	contacts := store.NewContactStore(s)
	manager := campaign.NewManager(store.NewCampaignStore(s), contacts, logger)

	c := &models.Campaign{Name: "Launch", Subject: "Hi", Body: "Hello"}
	for _, addr := range recipients {
		contact := &models.Contact{
			FirstName: "Test",
			LastName:  "Recipient",
			Email:     addr,
		}
		if err := contacts.Add(contact); err != nil {
			t.Fatalf("contacts.Add() error = %v", err)
		}
		c.ContactIDs = append(c.ContactIDs, contact.ID)
	}
	if err := manager.Create(c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := manager.Start(c.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	emails, err := manager.PrepareEmails(c.ID)
	if err != nil {
		t.Fatalf("PrepareEmails() error = %v", err)
	}

	stub := &stubSender{}
	q := NewQueue(QueueConfig{
		Simulated: stub,
		Manager:   manager,
		Logger:    logger,
		Delay:     time.Nanosecond,
	})
	return &queueFixture{queue: q, manager: manager, stub: stub, campaign: c, emails: emails}
}

func TestQueue_Process_DrainsInOrder(t *testing.T) {
	f := setupQueue(t, "a@x.test", "b@x.test", "c@x.test")
	f.queue.Enqueue(f.emails)

	f.queue.Process(context.Background(), nil)

	got := f.stub.sentTo()
	want := []string{"a@x.test", "b@x.test", "c@x.test"}
	if len(got) != len(want) {
		t.Fatalf("Process() sent %d emails, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("send order[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	pending, processing := f.queue.Status()
	if pending != 0 || processing {
		t.Errorf("Status() = %d pending, processing %v after drain", pending, processing)
	}

	// Every record is now terminal and the campaign auto-completed.
	c, err := f.manager.Get(f.campaign.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if c.Status != models.CampaignCompleted {
		t.Errorf("campaign Status = %v, want completed", c.Status)
	}
	if c.Stats.Sent != 3 {
		t.Errorf("Stats.Sent = %d, want 3", c.Stats.Sent)
	}
}

func TestQueue_Process_MarksFailures(t *testing.T) {
	f := setupQueue(t, "a@x.test")
	f.stub.fail = true
	f.queue.Enqueue(f.emails)

	f.queue.Process(context.Background(), nil)

	e, err := f.manager.GetEmail(f.emails[0].ID)
	if err != nil {
		t.Fatalf("GetEmail() error = %v", err)
	}
	if e.Status != models.EmailFailed {
		t.Errorf("email Status = %v, want failed", e.Status)
	}
	if e.ErrorMessage == "" {
		t.Error("ErrorMessage not recorded on failure")
	}

	c, _ := f.manager.Get(f.campaign.ID)
	if c.Stats.Failed != 1 {
		t.Errorf("Stats.Failed = %d, want 1", c.Stats.Failed)
	}
}

func TestQueue_Process_SkipsNonPending(t *testing.T) {
	f := setupQueue(t, "a@x.test", "b@x.test")
	if _, err := f.manager.MarkEmailStatus(f.emails[0].ID, models.EmailSent, ""); err != nil {
		t.Fatalf("MarkEmailStatus() error = %v", err)
	}
	f.queue.Enqueue(f.emails)

	f.queue.Process(context.Background(), nil)

	got := f.stub.sentTo()
	if len(got) != 1 || got[0] != "b@x.test" {
		t.Errorf("Process() sent %v, want only b@x.test", got)
	}
}

func TestQueue_Clear(t *testing.T) {
	f := setupQueue(t, "a@x.test", "b@x.test")
	f.queue.Enqueue(f.emails)

	f.queue.Clear()

	pending, _ := f.queue.Status()
	if pending != 0 {
		t.Errorf("Status() pending = %d after Clear, want 0", pending)
	}

	f.queue.Process(context.Background(), nil)
	if len(f.stub.sentTo()) != 0 {
		t.Error("Process() sent emails after Clear")
	}
}

func TestQueue_PauseAndResume(t *testing.T) {
	f := setupQueue(t, "a@x.test", "b@x.test")
	f.queue.Enqueue(f.emails)

	f.queue.Pause()
	f.queue.Process(context.Background(), nil)

	if len(f.stub.sentTo()) != 0 {
		t.Error("Process() dequeued while paused")
	}
	pending, _ := f.queue.Status()
	if pending != 2 {
		t.Errorf("Status() pending = %d while paused, want 2", pending)
	}

	done := make(chan struct{})
	f.queue.Resume(context.Background(), func(sent, total int, current *models.CampaignEmail) {
		if sent == 1 {
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Resume() drain did not make progress")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if pending, processing := f.queue.Status(); pending == 0 && !processing {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := f.stub.sentTo(); len(got) != 2 {
		t.Errorf("Resume() drained %d emails, want 2", len(got))
	}
}

func TestQueue_Process_ContextCancelled(t *testing.T) {
	f := setupQueue(t, "a@x.test", "b@x.test")
	f.queue.Enqueue(f.emails)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.queue.Process(ctx, nil)

	if len(f.stub.sentTo()) != 0 {
		t.Error("Process() sent emails under a cancelled context")
	}
}

func TestQueue_PickSender_TestModeUsesSimulated(t *testing.T) {
	f := setupQueue(t, "a@x.test")
	live := &stubSender{}
	f.queue.SetLive(live)

	c, err := f.manager.Get(f.campaign.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	c.Settings.TestMode = true
	if err := f.manager.Update(c); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	f.queue.Enqueue(f.emails)
	f.queue.Process(context.Background(), nil)

	if len(live.sentTo()) != 0 {
		t.Error("test-mode campaign went through the live sender")
	}
	if len(f.stub.sentTo()) != 1 {
		t.Error("test-mode campaign not routed to the simulated sender")
	}
}

func TestQueue_PickSender_LiveMode(t *testing.T) {
	f := setupQueue(t, "a@x.test")
	live := &stubSender{}
	f.queue.SetLive(live)

	f.queue.Enqueue(f.emails)
	f.queue.Process(context.Background(), nil)

	if len(live.sentTo()) != 1 {
		t.Error("live sender not used when configured")
	}
}

func TestQueue_SendTest(t *testing.T) {
	f := setupQueue(t)

	var got *Email
	f.queue.simulated = senderFunc(func(ctx context.Context, e *Email) (*Result, error) {
		got = e
		return &Result{MessageID: "test@coldscale.local", Timestamp: time.Now()}, nil
	})

	res, err := f.queue.SendTest(context.Background(), "me@x.test", "Hello", "Body text")
	if err != nil {
		t.Fatalf("SendTest() error = %v", err)
	}
	if res.MessageID == "" {
		t.Error("SendTest() returned empty message id")
	}
	if got.To != "me@x.test" {
		t.Errorf("To = %q", got.To)
	}
	if !strings.HasPrefix(got.Subject, "[TEST] ") {
		t.Errorf("Subject = %q, want [TEST] prefix", got.Subject)
	}
	if !strings.Contains(got.Body, "Body text") {
		t.Errorf("Body = %q, want original content included", got.Body)
	}
}

type senderFunc func(ctx context.Context, e *Email) (*Result, error)

func (f senderFunc) Send(ctx context.Context, e *Email) (*Result, error) { return f(ctx, e) }
