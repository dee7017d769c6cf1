package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/siddarth16/coldscale/internal/models"
)

func newTestCampaign(name string) *models.Campaign {
	return &models.Campaign{
		Name:    name,
		Subject: "Quick question, {{firstName}}",
		Body:    "Hi {{firstName}}, saw {{company}} is growing.",
		Status:  models.CampaignDraft,
	}
}

func newTestEmail(campaignID, to string) models.CampaignEmail {
	return models.CampaignEmail{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		ToAddress:  to,
		Subject:    "Quick question",
		Body:       "Hi there",
		Status:     models.EmailPending,
	}
}

func TestCampaignStore_AddGet(t *testing.T) {
	cs := NewCampaignStore(setupTestStore(t))

	c := newTestCampaign("Q3 outreach")
	if err := cs.Add(c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c.ID == "" {
		t.Error("Add() did not set ID")
	}

	got, err := cs.Get(c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != c.Name {
		t.Errorf("Get() Name = %v, want %v", got.Name, c.Name)
	}
	if got.Status != models.CampaignDraft {
		t.Errorf("Get() Status = %v, want draft", got.Status)
	}
}

func TestCampaignStore_Put(t *testing.T) {
	cs := NewCampaignStore(setupTestStore(t))

	c := newTestCampaign("Q3 outreach")
	if err := cs.Add(c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	c.Status = models.CampaignSending
	if err := cs.Put(c); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := cs.Get(c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != models.CampaignSending {
		t.Errorf("Get() Status = %v, want sending", got.Status)
	}

	missing := newTestCampaign("ghost")
	missing.ID = "non-existent"
	if err := cs.Put(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Put() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestCampaignStore_Delete_CascadesToEmails(t *testing.T) {
	cs := NewCampaignStore(setupTestStore(t))

	c := newTestCampaign("doomed")
	if err := cs.Add(c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	other := newTestCampaign("survivor")
	if err := cs.Add(other); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	emails := []models.CampaignEmail{
		newTestEmail(c.ID, "a@x.test"),
		newTestEmail(c.ID, "b@x.test"),
		newTestEmail(other.ID, "c@x.test"),
	}
	if err := cs.AddEmails(emails); err != nil {
		t.Fatalf("AddEmails() error = %v", err)
	}

	if err := cs.Delete(c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := cs.GetEmail(emails[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEmail() after cascade error = %v, want ErrNotFound", err)
	}

	// The other campaign's emails survive.
	kept, err := cs.ListEmails(other.ID)
	if err != nil {
		t.Fatalf("ListEmails() error = %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("ListEmails() returned %d emails, want 1", len(kept))
	}
}

func TestCampaignStore_ListEmails_Order(t *testing.T) {
	cs := NewCampaignStore(setupTestStore(t))

	c := newTestCampaign("ordered")
	if err := cs.Add(c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	addrs := []string{"one@x.test", "two@x.test", "three@x.test"}
	emails := make([]models.CampaignEmail, 0, len(addrs))
	for _, a := range addrs {
		emails = append(emails, newTestEmail(c.ID, a))
	}
	if err := cs.AddEmails(emails); err != nil {
		t.Fatalf("AddEmails() error = %v", err)
	}

	got, err := cs.ListEmails(c.ID)
	if err != nil {
		t.Fatalf("ListEmails() error = %v", err)
	}
	if len(got) != len(addrs) {
		t.Fatalf("ListEmails() returned %d emails, want %d", len(got), len(addrs))
	}
	for i, a := range addrs {
		if got[i].ToAddress != a {
			t.Errorf("ListEmails()[%d].ToAddress = %v, want %v", i, got[i].ToAddress, a)
		}
	}
}

func TestCampaignStore_GetEmailByTrackingID(t *testing.T) {
	cs := NewCampaignStore(setupTestStore(t))

	c := newTestCampaign("tracked")
	if err := cs.Add(c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	e := newTestEmail(c.ID, "a@x.test")
	e.TrackingID = uuid.New().String()
	if err := cs.AddEmails([]models.CampaignEmail{e}); err != nil {
		t.Fatalf("AddEmails() error = %v", err)
	}

	got, err := cs.GetEmailByTrackingID(e.TrackingID)
	if err != nil {
		t.Fatalf("GetEmailByTrackingID() error = %v", err)
	}
	if got.ID != e.ID {
		t.Errorf("GetEmailByTrackingID() ID = %v, want %v", got.ID, e.ID)
	}

	if _, err := cs.GetEmailByTrackingID("unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEmailByTrackingID() unknown error = %v, want ErrNotFound", err)
	}
	// Untracked emails have an empty tracking id; the empty string must
	// never resolve to one of them.
	if _, err := cs.GetEmailByTrackingID(""); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEmailByTrackingID(\"\") error = %v, want ErrNotFound", err)
	}
}

func TestCampaignStore_PutEmail(t *testing.T) {
	cs := NewCampaignStore(setupTestStore(t))

	c := newTestCampaign("updates")
	if err := cs.Add(c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	e := newTestEmail(c.ID, "a@x.test")
	if err := cs.AddEmails([]models.CampaignEmail{e}); err != nil {
		t.Fatalf("AddEmails() error = %v", err)
	}

	e.Status = models.EmailSent
	if err := cs.PutEmail(&e); err != nil {
		t.Fatalf("PutEmail() error = %v", err)
	}

	got, err := cs.GetEmail(e.ID)
	if err != nil {
		t.Fatalf("GetEmail() error = %v", err)
	}
	if got.Status != models.EmailSent {
		t.Errorf("GetEmail() Status = %v, want sent", got.Status)
	}
}
