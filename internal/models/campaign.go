package models

import "time"

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignSending   CampaignStatus = "sending"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s CampaignStatus) Terminal() bool {
	return s == CampaignCompleted || s == CampaignCancelled
}

// EmailStatus is the per-recipient delivery state.
type EmailStatus string

const (
	EmailPending   EmailStatus = "pending"
	EmailSending   EmailStatus = "sending"
	EmailSent      EmailStatus = "sent"
	EmailDelivered EmailStatus = "delivered"
	EmailOpened    EmailStatus = "opened"
	EmailClicked   EmailStatus = "clicked"
	EmailBounced   EmailStatus = "bounced"
	EmailFailed    EmailStatus = "failed"
)

// Terminal reports whether the recipient reached a final state.
func (s EmailStatus) Terminal() bool {
	switch s {
	case EmailSent, EmailDelivered, EmailOpened, EmailClicked, EmailBounced, EmailFailed:
		return true
	}
	return false
}

// CampaignSettings controls how a campaign is materialized and sent.
type CampaignSettings struct {
	EnablePersonalization bool `json:"enable_personalization"`
	EnableTracking        bool `json:"enable_tracking"`
	SendDelay             int  `json:"send_delay"` // seconds between emails
	TestMode              bool `json:"test_mode"`
}

// CampaignStats is recomputed from the child email set, never mutated
// independently.
type CampaignStats struct {
	TotalContacts int `json:"total_contacts"`
	Sent          int `json:"sent"`
	Delivered     int `json:"delivered"`
	Opened        int `json:"opened"`
	Clicked       int `json:"clicked"`
	Bounced       int `json:"bounced"`
	Failed        int `json:"failed"`
}

// Campaign represents a cold-email campaign
type Campaign struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Subject     string           `json:"subject"` // template, may carry {{tokens}}
	Body        string           `json:"body"`    // template, may carry {{tokens}}
	Status      CampaignStatus   `json:"status"`
	ContactIDs  []string         `json:"contact_ids"`
	ScheduledAt *time.Time       `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Settings    CampaignSettings `json:"settings"`
	Stats       CampaignStats    `json:"stats"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CampaignEmail is one materialized, already-personalized email for a
// single recipient. It is a point-in-time snapshot: deleting the contact
// later does not touch it.
type CampaignEmail struct {
	ID           string      `json:"id"`
	CampaignID   string      `json:"campaign_id"`
	ContactID    string      `json:"contact_id"`
	ToAddress    string      `json:"to_address"`
	Subject      string      `json:"subject"`
	Body         string      `json:"body"`
	Status       EmailStatus `json:"status"`
	ScheduledAt  time.Time   `json:"scheduled_at"`
	SentAt       *time.Time  `json:"sent_at,omitempty"`
	DeliveredAt  *time.Time  `json:"delivered_at,omitempty"`
	OpenedAt     *time.Time  `json:"opened_at,omitempty"`
	ClickedAt    *time.Time  `json:"clicked_at,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	MessageID    string      `json:"message_id,omitempty"`
	TrackingID   string      `json:"tracking_id,omitempty"`
}

// CampaignFilter for filtering campaigns
type CampaignFilter struct {
	Status CampaignStatus // empty matches all
	Search string         // case-insensitive substring on name
}

// CampaignSummary holds cross-campaign dashboard aggregates.
type CampaignSummary struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	Completed       int `json:"completed"`
	EmailsSent      int `json:"emails_sent"`
	EmailsDelivered int `json:"emails_delivered"`
	AverageOpenRate int `json:"average_open_rate"` // percent
}
