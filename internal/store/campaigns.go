package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/siddarth16/coldscale/internal/models"
)

// CampaignStore manages campaigns and their child email records.
// A campaign exclusively owns its emails: deleting it cascades.
type CampaignStore struct {
	store *Store
	notifier
}

// NewCampaignStore creates a campaign store over s.
func NewCampaignStore(s *Store) *CampaignStore {
	return &CampaignStore{store: s}
}

// Add assigns an id and timestamps and persists the campaign.
func (cs *CampaignStore) Add(c *models.Campaign) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		if err := putCampaign(tx, c); err != nil {
			return err
		}
		return appendOrder(tx, bucketCampaignOrder, c.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to add campaign: %w", err)
	}

	cs.notify()
	return nil
}

// Get returns the campaign with the given id, or ErrNotFound.
func (cs *CampaignStore) Get(id string) (*models.Campaign, error) {
	var c *models.Campaign
	err := cs.store.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCampaigns).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		c = &models.Campaign{}
		return json.Unmarshal(data, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns all campaigns in insertion order.
func (cs *CampaignStore) List() ([]models.Campaign, error) {
	campaigns := []models.Campaign{}
	err := cs.store.db.View(func(tx *bolt.Tx) error {
		return forEachOrdered(tx, bucketCampaignOrder, bucketCampaigns, func(v []byte) error {
			var c models.Campaign
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			campaigns = append(campaigns, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

// Put overwrites an existing campaign and refreshes UpdatedAt.
func (cs *CampaignStore) Put(c *models.Campaign) error {
	c.UpdatedAt = time.Now()
	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketCampaigns).Get([]byte(c.ID)) == nil {
			return ErrNotFound
		}
		return putCampaign(tx, c)
	})
	if err != nil {
		return err
	}

	cs.notify()
	return nil
}

// Delete removes a campaign and cascades to its email records.
func (cs *CampaignStore) Delete(id string) error {
	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCampaigns)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		if err := b.Delete([]byte(id)); err != nil {
			return err
		}
		if err := removeOrder(tx, bucketCampaignOrder, id); err != nil {
			return err
		}

		// Cascade delete child emails
		emails := tx.Bucket(bucketEmails)
		var doomed []string
		err := emails.ForEach(func(k, v []byte) error {
			var e models.CampaignEmail
			if err := json.Unmarshal(v, &e); err != nil {
				return nil
			}
			if e.CampaignID == id {
				doomed = append(doomed, string(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, eid := range doomed {
			if err := emails.Delete([]byte(eid)); err != nil {
				return err
			}
			if err := removeOrder(tx, bucketEmailOrder, eid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	cs.notify()
	return nil
}

// AddEmails persists a batch of campaign emails in one transaction.
// Ids must already be assigned.
func (cs *CampaignStore) AddEmails(emails []models.CampaignEmail) error {
	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		for i := range emails {
			if emails[i].ID == "" {
				emails[i].ID = uuid.New().String()
			}
			if err := putEmail(tx, &emails[i]); err != nil {
				return err
			}
			if err := appendOrder(tx, bucketEmailOrder, emails[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add campaign emails: %w", err)
	}

	cs.notify()
	return nil
}

// GetEmail returns a single email record, or ErrNotFound.
func (cs *CampaignStore) GetEmail(id string) (*models.CampaignEmail, error) {
	var e *models.CampaignEmail
	err := cs.store.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketEmails).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		e = &models.CampaignEmail{}
		return json.Unmarshal(data, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetEmailByTrackingID resolves a tracking id to its email record.
func (cs *CampaignStore) GetEmailByTrackingID(trackingID string) (*models.CampaignEmail, error) {
	if trackingID == "" {
		return nil, ErrNotFound
	}
	var e *models.CampaignEmail
	err := cs.store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEmails).ForEach(func(k, v []byte) error {
			if e != nil {
				return nil
			}
			var m models.CampaignEmail
			if err := json.Unmarshal(v, &m); err != nil {
				return nil
			}
			if m.TrackingID == trackingID {
				e = &m
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// ListEmails returns a campaign's email records in insertion order.
func (cs *CampaignStore) ListEmails(campaignID string) ([]models.CampaignEmail, error) {
	emails := []models.CampaignEmail{}
	err := cs.store.db.View(func(tx *bolt.Tx) error {
		return forEachOrdered(tx, bucketEmailOrder, bucketEmails, func(v []byte) error {
			var e models.CampaignEmail
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			if e.CampaignID == campaignID {
				emails = append(emails, e)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return emails, nil
}

// PutEmail overwrites an existing email record.
func (cs *CampaignStore) PutEmail(e *models.CampaignEmail) error {
	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketEmails).Get([]byte(e.ID)) == nil {
			return ErrNotFound
		}
		return putEmail(tx, e)
	})
	if err != nil {
		return err
	}

	cs.notify()
	return nil
}

func putCampaign(tx *bolt.Tx, c *models.Campaign) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}
	return tx.Bucket(bucketCampaigns).Put([]byte(c.ID), data)
}

func putEmail(tx *bolt.Tx, e *models.CampaignEmail) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign email: %w", err)
	}
	return tx.Bucket(bucketEmails).Put([]byte(e.ID), data)
}
