package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/siddarth16/coldscale/internal/models"
)

// TemplateStore manages reusable email templates.
type TemplateStore struct {
	store *Store
	notifier
}

// NewTemplateStore creates a template store over s.
func NewTemplateStore(s *Store) *TemplateStore {
	return &TemplateStore{store: s}
}

// Add assigns an id and timestamps and persists the template. UsageCount
// starts at zero.
func (ts *TemplateStore) Add(t *models.EmailTemplate) error {
	t.ID = uuid.New().String()
	t.UsageCount = 0
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Source == "" {
		t.Source = models.TemplateSourceManual
	}

	err := ts.store.db.Update(func(tx *bolt.Tx) error {
		if err := putTemplate(tx, t); err != nil {
			return err
		}
		return appendOrder(tx, bucketTemplateOrder, t.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to add template: %w", err)
	}

	ts.notify()
	return nil
}

// Get returns the template with the given id, or ErrNotFound.
func (ts *TemplateStore) Get(id string) (*models.EmailTemplate, error) {
	var t *models.EmailTemplate
	err := ts.store.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTemplates).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		t = &models.EmailTemplate{}
		return json.Unmarshal(data, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns all templates in insertion order.
func (ts *TemplateStore) List() ([]models.EmailTemplate, error) {
	templates := []models.EmailTemplate{}
	err := ts.store.db.View(func(tx *bolt.Tx) error {
		return forEachOrdered(tx, bucketTemplateOrder, bucketTemplates, func(v []byte) error {
			var t models.EmailTemplate
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			templates = append(templates, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// Filter returns templates matching all set filters.
func (ts *TemplateStore) Filter(f models.TemplateFilter) ([]models.EmailTemplate, error) {
	all, err := ts.List()
	if err != nil {
		return nil, err
	}

	matched := []models.EmailTemplate{}
	search := strings.ToLower(f.Search)
	for _, t := range all {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Source != "" && t.Source != f.Source {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(t.Name + " " + t.Subject)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		matched = append(matched, t)
	}
	return matched, nil
}

// Put overwrites an existing template and refreshes UpdatedAt.
func (ts *TemplateStore) Put(t *models.EmailTemplate) error {
	t.UpdatedAt = time.Now()
	err := ts.store.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketTemplates).Get([]byte(t.ID)) == nil {
			return ErrNotFound
		}
		return putTemplate(tx, t)
	})
	if err != nil {
		return err
	}

	ts.notify()
	return nil
}

// Delete removes the template with the given id.
func (ts *TemplateStore) Delete(id string) error {
	err := ts.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTemplates)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		if err := b.Delete([]byte(id)); err != nil {
			return err
		}
		return removeOrder(tx, bucketTemplateOrder, id)
	})
	if err != nil {
		return err
	}

	ts.notify()
	return nil
}

// IncrementUsage bumps the usage counter, recording that the template
// was applied to a campaign.
func (ts *TemplateStore) IncrementUsage(id string) (*models.EmailTemplate, error) {
	var t *models.EmailTemplate
	err := ts.store.db.Update(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTemplates).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		t = &models.EmailTemplate{}
		if err := json.Unmarshal(data, t); err != nil {
			return err
		}
		t.UsageCount++
		t.UpdatedAt = time.Now()
		return putTemplate(tx, t)
	})
	if err != nil {
		return nil, err
	}

	ts.notify()
	return t, nil
}

func putTemplate(tx *bolt.Tx, t *models.EmailTemplate) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	return tx.Bucket(bucketTemplates).Put([]byte(t.ID), data)
}
