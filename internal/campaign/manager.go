// Package campaign owns the campaign lifecycle: creation, the guarded
// state machine, materializing per-recipient email records, and the
// aggregate stats rollup recomputed from the child set.
package campaign

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siddarth16/coldscale/internal/models"
	"github.com/siddarth16/coldscale/internal/personalize"
	"github.com/siddarth16/coldscale/internal/store"
)

var (
	// ErrInvalidTransition is returned when a lifecycle action fails
	// its guard. The campaign is left untouched.
	ErrInvalidTransition = errors.New("invalid campaign state transition")

	// ErrNotFound mirrors the store sentinel for callers of this package.
	ErrNotFound = store.ErrNotFound
)

// Manager is the campaign service. One instance is constructed at
// application start and handed to every consumer.
type Manager struct {
	campaigns *store.CampaignStore
	contacts  *store.ContactStore
	logger    *slog.Logger
}

// NewManager creates a campaign manager.
func NewManager(campaigns *store.CampaignStore, contacts *store.ContactStore, logger *slog.Logger) *Manager {
	return &Manager{
		campaigns: campaigns,
		contacts:  contacts,
		logger:    logger.With("component", "campaign"),
	}
}

// Create persists a new campaign with zeroed stats. The campaign starts
// in draft unless the caller set a schedule, in which case it is
// scheduled; every other incoming status is discarded.
func (m *Manager) Create(c *models.Campaign) error {
	if c.Status == models.CampaignScheduled && c.ScheduledAt != nil {
		c.Status = models.CampaignScheduled
	} else {
		c.Status = models.CampaignDraft
	}
	c.StartedAt = nil
	c.CompletedAt = nil
	c.Stats = models.CampaignStats{TotalContacts: len(c.ContactIDs)}
	if c.ContactIDs == nil {
		c.ContactIDs = []string{}
	}

	if err := m.campaigns.Add(c); err != nil {
		return err
	}
	m.logger.Info("campaign created", "id", c.ID, "name", c.Name, "contacts", len(c.ContactIDs))
	return nil
}

// Get returns a campaign by id.
func (m *Manager) Get(id string) (*models.Campaign, error) {
	return m.campaigns.Get(id)
}

// List returns all campaigns.
func (m *Manager) List() ([]models.Campaign, error) {
	return m.campaigns.List()
}

// Filter returns campaigns matching the filter.
func (m *Manager) Filter(f models.CampaignFilter) ([]models.Campaign, error) {
	all, err := m.campaigns.List()
	if err != nil {
		return nil, err
	}
	matched := []models.Campaign{}
	search := strings.ToLower(f.Search)
	for _, c := range all {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		matched = append(matched, c)
	}
	return matched, nil
}

// Update overwrites campaign content. Lifecycle fields are managed by
// the transition methods, not here.
func (m *Manager) Update(c *models.Campaign) error {
	return m.campaigns.Put(c)
}

// Delete removes a campaign and cascades to its email records.
func (m *Manager) Delete(id string) error {
	if err := m.campaigns.Delete(id); err != nil {
		return err
	}
	m.logger.Info("campaign deleted", "id", id)
	return nil
}

// Duplicate deep-copies content and settings into a fresh draft with a
// new id, cleared timestamps and zeroed stats. Email records are not
// copied: the duplicate starts with zero prepared recipients.
func (m *Manager) Duplicate(id string) (*models.Campaign, error) {
	original, err := m.campaigns.Get(id)
	if err != nil {
		return nil, err
	}

	dup := &models.Campaign{
		Name:       original.Name + " (Copy)",
		Subject:    original.Subject,
		Body:       original.Body,
		ContactIDs: append([]string{}, original.ContactIDs...),
		Settings:   original.Settings,
	}
	if err := m.Create(dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// Start transitions draft or scheduled to sending.
func (m *Manager) Start(id string) error {
	return m.transition(id, func(c *models.Campaign) error {
		if c.Status != models.CampaignDraft && c.Status != models.CampaignScheduled {
			return ErrInvalidTransition
		}
		now := time.Now()
		c.Status = models.CampaignSending
		c.StartedAt = &now
		return nil
	})
}

// Pause transitions sending to paused.
func (m *Manager) Pause(id string) error {
	return m.transition(id, func(c *models.Campaign) error {
		if c.Status != models.CampaignSending {
			return ErrInvalidTransition
		}
		c.Status = models.CampaignPaused
		return nil
	})
}

// Resume transitions paused back to sending.
func (m *Manager) Resume(id string) error {
	return m.transition(id, func(c *models.Campaign) error {
		if c.Status != models.CampaignPaused {
			return ErrInvalidTransition
		}
		c.Status = models.CampaignSending
		return nil
	})
}

// Cancel moves any non-terminal campaign to cancelled.
func (m *Manager) Cancel(id string) error {
	return m.transition(id, func(c *models.Campaign) error {
		if c.Status.Terminal() {
			return ErrInvalidTransition
		}
		now := time.Now()
		c.Status = models.CampaignCancelled
		c.CompletedAt = &now
		return nil
	})
}

// Complete marks the campaign completed. Caller-driven, typically once
// every child email reached a terminal status.
func (m *Manager) Complete(id string) error {
	return m.transition(id, func(c *models.Campaign) error {
		if c.Status.Terminal() {
			return ErrInvalidTransition
		}
		now := time.Now()
		c.Status = models.CampaignCompleted
		c.CompletedAt = &now
		return nil
	})
}

func (m *Manager) transition(id string, apply func(*models.Campaign) error) error {
	c, err := m.campaigns.Get(id)
	if err != nil {
		return err
	}
	from := c.Status
	if err := apply(c); err != nil {
		return err
	}
	if err := m.campaigns.Put(c); err != nil {
		return err
	}
	m.logger.Info("campaign transition", "id", id, "from", from, "to", c.Status)
	return nil
}

// PrepareEmails materializes one pending email record per campaign
// contact, personalizing subject and body when the campaign says so.
// Not idempotent: calling it twice duplicates records, so it is invoked
// exactly once per campaign.
func (m *Manager) PrepareEmails(campaignID string) ([]models.CampaignEmail, error) {
	c, err := m.campaigns.Get(campaignID)
	if err != nil {
		return nil, err
	}

	scheduledAt := time.Now()
	if c.ScheduledAt != nil {
		scheduledAt = *c.ScheduledAt
	}

	emails := []models.CampaignEmail{}
	for _, contactID := range c.ContactIDs {
		contact, err := m.contacts.Get(contactID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				m.logger.Warn("skipping missing contact", "campaign_id", campaignID, "contact_id", contactID)
				continue
			}
			return nil, err
		}

		subject, body := c.Subject, c.Body
		if c.Settings.EnablePersonalization {
			subject = personalize.Personalize(subject, contact)
			body = personalize.Personalize(body, contact)
		}

		email := models.CampaignEmail{
			ID:          uuid.New().String(),
			CampaignID:  campaignID,
			ContactID:   contactID,
			ToAddress:   contact.Email,
			Subject:     subject,
			Body:        body,
			Status:      models.EmailPending,
			ScheduledAt: scheduledAt,
		}
		if c.Settings.EnableTracking {
			email.TrackingID = uuid.New().String()
		}
		emails = append(emails, email)
	}

	if len(emails) > 0 {
		if err := m.campaigns.AddEmails(emails); err != nil {
			return nil, err
		}
	}
	if err := m.recomputeStats(campaignID); err != nil {
		return nil, err
	}

	m.logger.Info("campaign emails prepared", "campaign_id", campaignID, "count", len(emails))
	return emails, nil
}

// Emails returns a campaign's email records.
func (m *Manager) Emails(campaignID string) ([]models.CampaignEmail, error) {
	return m.campaigns.ListEmails(campaignID)
}

// GetEmail returns a single email record.
func (m *Manager) GetEmail(id string) (*models.CampaignEmail, error) {
	return m.campaigns.GetEmail(id)
}

// UpdateEmail applies a mutation to one email record and recomputes the
// parent campaign's stats from the full child set.
func (m *Manager) UpdateEmail(id string, apply func(*models.CampaignEmail)) (*models.CampaignEmail, error) {
	e, err := m.campaigns.GetEmail(id)
	if err != nil {
		return nil, err
	}
	apply(e)
	if err := m.campaigns.PutEmail(e); err != nil {
		return nil, err
	}
	if err := m.recomputeStats(e.CampaignID); err != nil {
		return nil, err
	}
	return e, nil
}

// MarkEmailStatus sets an email's status with the matching timestamp.
func (m *Manager) MarkEmailStatus(id string, status models.EmailStatus, errMsg string) (*models.CampaignEmail, error) {
	now := time.Now()
	return m.UpdateEmail(id, func(e *models.CampaignEmail) {
		e.Status = status
		e.ErrorMessage = errMsg
		switch status {
		case models.EmailSent:
			e.SentAt = &now
		case models.EmailDelivered:
			e.DeliveredAt = &now
		case models.EmailOpened:
			e.OpenedAt = &now
		case models.EmailClicked:
			e.ClickedAt = &now
		}
	})
}

// TrackOpen records an open event for a tracking id. Opens only upgrade
// sent or delivered emails; a click already implies an open.
func (m *Manager) TrackOpen(trackingID string) (*models.CampaignEmail, error) {
	e, err := m.campaigns.GetEmailByTrackingID(trackingID)
	if err != nil {
		return nil, err
	}
	if e.Status != models.EmailSent && e.Status != models.EmailDelivered {
		return e, nil
	}
	return m.MarkEmailStatus(e.ID, models.EmailOpened, "")
}

// TrackClick records a click event for a tracking id.
func (m *Manager) TrackClick(trackingID string) (*models.CampaignEmail, error) {
	e, err := m.campaigns.GetEmailByTrackingID(trackingID)
	if err != nil {
		return nil, err
	}
	switch e.Status {
	case models.EmailSent, models.EmailDelivered, models.EmailOpened:
		return m.MarkEmailStatus(e.ID, models.EmailClicked, "")
	}
	return e, nil
}

// CompleteIfDone completes a sending campaign once every child email
// reached a terminal per-recipient status.
func (m *Manager) CompleteIfDone(campaignID string) (bool, error) {
	c, err := m.campaigns.Get(campaignID)
	if err != nil {
		return false, err
	}
	if c.Status != models.CampaignSending {
		return false, nil
	}

	emails, err := m.campaigns.ListEmails(campaignID)
	if err != nil {
		return false, err
	}
	if len(emails) == 0 {
		return false, nil
	}
	for _, e := range emails {
		if !e.Status.Terminal() {
			return false, nil
		}
	}

	if err := m.Complete(campaignID); err != nil {
		return false, err
	}
	return true, nil
}

// recomputeStats derives campaign stats as a pure function of the child
// statuses. Sent/delivered/opened/clicked are monotonic rollups: a
// clicked email counts in all four. Never incremented in place, so the
// aggregate cannot drift from the records regardless of update order.
func (m *Manager) recomputeStats(campaignID string) error {
	c, err := m.campaigns.Get(campaignID)
	if err != nil {
		return err
	}
	emails, err := m.campaigns.ListEmails(campaignID)
	if err != nil {
		return err
	}

	c.Stats = ComputeStats(emails)
	return m.campaigns.Put(c)
}

// ComputeStats counts email statuses into a stats record.
func ComputeStats(emails []models.CampaignEmail) models.CampaignStats {
	stats := models.CampaignStats{TotalContacts: len(emails)}
	for _, e := range emails {
		switch e.Status {
		case models.EmailSent:
			stats.Sent++
		case models.EmailDelivered:
			stats.Sent++
			stats.Delivered++
		case models.EmailOpened:
			stats.Sent++
			stats.Delivered++
			stats.Opened++
		case models.EmailClicked:
			stats.Sent++
			stats.Delivered++
			stats.Opened++
			stats.Clicked++
		case models.EmailBounced:
			stats.Bounced++
		case models.EmailFailed:
			stats.Failed++
		}
	}
	return stats
}

// Summary aggregates dashboard numbers across all campaigns.
func (m *Manager) Summary() (*models.CampaignSummary, error) {
	all, err := m.campaigns.List()
	if err != nil {
		return nil, err
	}

	s := &models.CampaignSummary{Total: len(all)}
	openRateSum := 0.0
	for _, c := range all {
		if c.Status == models.CampaignSending {
			s.Active++
		}
		if c.Status == models.CampaignCompleted {
			s.Completed++
		}
		s.EmailsSent += c.Stats.Sent
		s.EmailsDelivered += c.Stats.Delivered
		delivered := c.Stats.Delivered
		if delivered < 1 {
			delivered = 1
		}
		openRateSum += float64(c.Stats.Opened) / float64(delivered)
	}
	if len(all) > 0 {
		s.AverageOpenRate = int(openRateSum/float64(len(all))*100 + 0.5)
	}
	return s, nil
}
