package sender

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/siddarth16/coldscale/internal/campaign"
	"github.com/siddarth16/coldscale/internal/metrics"
	"github.com/siddarth16/coldscale/internal/models"
)

// DefaultInterSendDelay is the pause between successive sends, a crude
// global rate limit.
const DefaultInterSendDelay = 2 * time.Second

// ProgressFunc is called before each email is attempted.
type ProgressFunc func(sent, total int, current *models.CampaignEmail)

// Queue drains campaign emails one at a time through a sender. A single
// processing flag guards against concurrent drains; pausing only stops
// further dequeuing and never aborts an in-flight send.
type Queue struct {
	simulated Sender
	live      Sender // nil unless the operator configured live mode
	manager   *campaign.Manager
	metrics   *metrics.Metrics
	logger    *slog.Logger
	delay     time.Duration

	mu         sync.Mutex
	items      []models.CampaignEmail
	processing bool
	paused     bool
}

// QueueConfig wires a queue.
type QueueConfig struct {
	Simulated Sender
	Live      Sender
	Manager   *campaign.Manager
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Delay     time.Duration
}

// NewQueue creates a send queue.
func NewQueue(cfg QueueConfig) *Queue {
	if cfg.Delay == 0 {
		cfg.Delay = DefaultInterSendDelay
	}
	return &Queue{
		simulated: cfg.Simulated,
		live:      cfg.Live,
		manager:   cfg.Manager,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With("component", "send_queue"),
		delay:     cfg.Delay,
	}
}

// Enqueue appends emails to the tail of the queue.
func (q *Queue) Enqueue(emails []models.CampaignEmail) {
	q.mu.Lock()
	q.items = append(q.items, emails...)
	pending := len(q.items)
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.QueuePending.Set(float64(pending))
	}
	q.logger.Info("emails enqueued", "count", len(emails), "pending", pending)
}

// Status reports the queue depth and whether a drain is running.
func (q *Queue) Status() (pending int, processing bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items), q.processing
}

// Clear drops every queued item. An in-flight send still completes.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
	if q.metrics != nil {
		q.metrics.QueuePending.Set(0)
	}
}

// Pause stops the drain before its next dequeue. The wait already in
// flight is not cancelled.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
	q.logger.Info("queue paused")
}

// Resume clears the pause flag and restarts the drain when one is not
// already running.
func (q *Queue) Resume(ctx context.Context, onProgress ProgressFunc) {
	q.mu.Lock()
	q.paused = false
	restart := !q.processing && len(q.items) > 0
	q.mu.Unlock()

	if restart {
		go q.Process(ctx, onProgress)
	}
}

// Process drains the queue sequentially. It is a no-op when a drain is
// already running. Each item still pending is attempted once: success
// marks it sent with a message id, failure marks it failed with the
// error message; either way the parent campaign stats are recomputed
// and the campaign completed once all its emails are terminal.
func (q *Queue) Process(ctx context.Context, onProgress ProgressFunc) {
	q.mu.Lock()
	if q.processing || len(q.items) == 0 {
		q.mu.Unlock()
		return
	}
	q.processing = true
	total := len(q.items)
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.QueueDrainsTotal.Inc()
	}
	q.logger.Info("queue drain started", "total", total)

	sent := 0
	defer func() {
		q.mu.Lock()
		q.processing = false
		q.mu.Unlock()
		q.logger.Info("queue drain stopped", "processed", sent)
	}()

	for {
		q.mu.Lock()
		if q.paused || len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		remaining := len(q.items)
		q.mu.Unlock()

		if q.metrics != nil {
			q.metrics.QueuePending.Set(float64(remaining))
		}

		if err := ctx.Err(); err != nil {
			return
		}

		// Re-read the record: it may have changed since enqueue.
		current, err := q.manager.GetEmail(item.ID)
		if err != nil {
			q.logger.Warn("queued email vanished", "id", item.ID, "error", err)
			continue
		}
		if current.Status != models.EmailPending {
			continue
		}

		if onProgress != nil {
			onProgress(sent, total, current)
		}

		q.sendOne(ctx, current)
		sent++

		if _, err := q.manager.CompleteIfDone(current.CampaignID); err != nil {
			q.logger.Warn("failed to check campaign completion", "campaign_id", current.CampaignID, "error", err)
		}

		q.mu.Lock()
		more := len(q.items) > 0
		q.mu.Unlock()
		if more {
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.interSendDelay(current.CampaignID)):
			}
		}
	}
}

func (q *Queue) sendOne(ctx context.Context, e *models.CampaignEmail) {
	if _, err := q.manager.MarkEmailStatus(e.ID, models.EmailSending, ""); err != nil {
		q.logger.Error("failed to mark email sending", "id", e.ID, "error", err)
		return
	}

	start := time.Now()
	result, err := q.pickSender(e.CampaignID).Send(ctx, &Email{
		To:         e.ToAddress,
		Subject:    e.Subject,
		Body:       e.Body,
		TrackingID: e.TrackingID,
		CampaignID: e.CampaignID,
		ContactID:  e.ContactID,
	})
	if q.metrics != nil {
		q.metrics.SendDurationSeconds.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if _, merr := q.manager.MarkEmailStatus(e.ID, models.EmailFailed, err.Error()); merr != nil {
			q.logger.Error("failed to mark email failed", "id", e.ID, "error", merr)
		}
		if q.metrics != nil {
			q.metrics.EmailsFailedTotal.Inc()
		}
		q.logger.Warn("email send failed", "id", e.ID, "to", e.ToAddress, "error", err)
		return
	}

	_, uerr := q.manager.UpdateEmail(e.ID, func(rec *models.CampaignEmail) {
		rec.Status = models.EmailSent
		rec.SentAt = &result.Timestamp
		rec.MessageID = result.MessageID
		rec.ErrorMessage = ""
	})
	if uerr != nil {
		q.logger.Error("failed to mark email sent", "id", e.ID, "error", uerr)
		return
	}
	if q.metrics != nil {
		q.metrics.EmailsSentTotal.Inc()
	}
	q.logger.Info("email sent", "id", e.ID, "to", e.ToAddress, "message_id", result.MessageID)
}

// SetLive swaps the live sender. Nil routes everything back through the
// simulated path.
func (q *Queue) SetLive(s Sender) {
	q.mu.Lock()
	q.live = s
	q.mu.Unlock()
}

func (q *Queue) liveSender() Sender {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.live
}

// pickSender routes to the live sender when one is configured and the
// campaign is not in test mode.
func (q *Queue) pickSender(campaignID string) Sender {
	live := q.liveSender()
	if live == nil {
		return q.simulated
	}
	c, err := q.manager.Get(campaignID)
	if err != nil || c.Settings.TestMode {
		return q.simulated
	}
	return live
}

// interSendDelay returns the campaign's configured delay, falling back
// to the queue default.
func (q *Queue) interSendDelay(campaignID string) time.Duration {
	c, err := q.manager.Get(campaignID)
	if err == nil && c.Settings.SendDelay > 0 {
		return time.Duration(c.Settings.SendDelay) * time.Second
	}
	return q.delay
}

// SendTest delivers a one-off test email to addr, outside any campaign.
func (q *Queue) SendTest(ctx context.Context, addr, subject, body string) (*Result, error) {
	s := q.simulated
	if live := q.liveSender(); live != nil {
		s = live
	}
	return s.Send(ctx, &Email{
		To:      addr,
		Subject: "[TEST] " + subject,
		Body:    "This is a test email.\n\nOriginal content:\n" + body,
	})
}
