package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/siddarth16/coldscale/internal/models"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// ContactStore manages contact records.
type ContactStore struct {
	store *Store
	notifier
}

// NewContactStore creates a contact store over s.
func NewContactStore(s *Store) *ContactStore {
	return &ContactStore{store: s}
}

// Add assigns an id and timestamps, persists the contact and notifies
// subscribers. No validation beyond what the caller performed.
func (cs *ContactStore) Add(c *models.Contact) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	if c.Tags == nil {
		c.Tags = []string{}
	}

	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		if err := putContact(tx, c); err != nil {
			return err
		}
		return appendOrder(tx, bucketContactOrder, c.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to add contact: %w", err)
	}

	cs.notify()
	return nil
}

// AddAll commits a batch of already-synthesized contacts (CSV import
// commit). Ids and timestamps assigned by the importer are kept.
func (cs *ContactStore) AddAll(contacts []models.Contact) error {
	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		for i := range contacts {
			if err := putContact(tx, &contacts[i]); err != nil {
				return err
			}
			if err := appendOrder(tx, bucketContactOrder, contacts[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add imported contacts: %w", err)
	}

	cs.notify()
	return nil
}

// Get returns the contact with the given id, or ErrNotFound.
func (cs *ContactStore) Get(id string) (*models.Contact, error) {
	var c *models.Contact
	err := cs.store.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketContacts).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		c = &models.Contact{}
		return json.Unmarshal(data, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns all contacts in insertion order.
func (cs *ContactStore) List() ([]models.Contact, error) {
	contacts := []models.Contact{}
	err := cs.store.db.View(func(tx *bolt.Tx) error {
		return forEachOrdered(tx, bucketContactOrder, bucketContacts, func(v []byte) error {
			var c models.Contact
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			contacts = append(contacts, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

// Update merges the non-nil fields of upd into the contact and refreshes
// UpdatedAt. Returns ErrNotFound when id is absent.
func (cs *ContactStore) Update(id string, upd models.ContactUpdate) (*models.Contact, error) {
	var c *models.Contact
	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketContacts).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		c = &models.Contact{}
		if err := json.Unmarshal(data, c); err != nil {
			return err
		}
		applyContactUpdate(c, upd)
		c.UpdatedAt = time.Now()
		return putContact(tx, c)
	})
	if err != nil {
		return nil, err
	}

	cs.notify()
	return c, nil
}

// Delete removes the contact with the given id.
func (cs *ContactStore) Delete(id string) error {
	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketContacts)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		if err := b.Delete([]byte(id)); err != nil {
			return err
		}
		return removeOrder(tx, bucketContactOrder, id)
	})
	if err != nil {
		return err
	}

	cs.notify()
	return nil
}

// BulkDelete removes all matching contacts and returns the count removed.
func (cs *ContactStore) BulkDelete(ids []string) (int, error) {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	count := 0
	err := cs.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketContacts)
		for id := range idSet {
			if b.Get([]byte(id)) == nil {
				continue
			}
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
			if err := removeOrder(tx, bucketContactOrder, id); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if count > 0 {
		cs.notify()
	}
	return count, nil
}

// Filter returns contacts matching all set filters.
func (cs *ContactStore) Filter(f models.ContactFilter) ([]models.Contact, error) {
	all, err := cs.List()
	if err != nil {
		return nil, err
	}

	matched := []models.Contact{}
	search := strings.ToLower(f.Search)
	for _, c := range all {
		if search != "" {
			haystack := strings.ToLower(c.FirstName + " " + c.LastName + " " + c.Email + " " + c.Company + " " + c.Position)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		if len(f.Tags) > 0 {
			found := false
			for _, tag := range f.Tags {
				if c.HasTag(tag) {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if f.Company != "" && !strings.EqualFold(c.Company, f.Company) {
			continue
		}
		matched = append(matched, c)
	}
	return matched, nil
}

// FindDuplicates groups contacts by lowercased email and reports every
// member after the first of each group. First-seen wins.
func (cs *ContactStore) FindDuplicates() ([]models.Contact, error) {
	all, err := cs.List()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	duplicates := []models.Contact{}
	for _, c := range all {
		email := strings.ToLower(c.Email)
		if seen[email] {
			duplicates = append(duplicates, c)
			continue
		}
		seen[email] = true
	}
	return duplicates, nil
}

// Tags returns every distinct tag in the store, sorted.
func (cs *ContactStore) Tags() ([]string, error) {
	all, err := cs.List()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	for _, c := range all {
		for _, t := range c.Tags {
			set[t] = true
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

// Companies returns every distinct non-empty company, sorted.
func (cs *ContactStore) Companies() ([]string, error) {
	all, err := cs.List()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	for _, c := range all {
		if c.Company != "" {
			set[c.Company] = true
		}
	}
	companies := make([]string, 0, len(set))
	for c := range set {
		companies = append(companies, c)
	}
	sort.Strings(companies)
	return companies, nil
}

// Stats summarizes the store.
func (cs *ContactStore) Stats() (*models.ContactStats, error) {
	all, err := cs.List()
	if err != nil {
		return nil, err
	}
	tags, err := cs.Tags()
	if err != nil {
		return nil, err
	}
	companies, err := cs.Companies()
	if err != nil {
		return nil, err
	}
	dups, err := cs.FindDuplicates()
	if err != nil {
		return nil, err
	}
	return &models.ContactStats{
		Total:      len(all),
		Companies:  len(companies),
		Tags:       len(tags),
		Duplicates: len(dups),
	}, nil
}

func putContact(tx *bolt.Tx, c *models.Contact) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}
	return tx.Bucket(bucketContacts).Put([]byte(c.ID), data)
}

func applyContactUpdate(c *models.Contact, upd models.ContactUpdate) {
	if upd.FirstName != nil {
		c.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		c.LastName = *upd.LastName
	}
	if upd.Email != nil {
		c.Email = *upd.Email
	}
	if upd.Company != nil {
		c.Company = *upd.Company
	}
	if upd.Position != nil {
		c.Position = *upd.Position
	}
	if upd.Phone != nil {
		c.Phone = *upd.Phone
	}
	if upd.Website != nil {
		c.Website = *upd.Website
	}
	if upd.Notes != nil {
		c.Notes = *upd.Notes
	}
	if upd.Tags != nil {
		c.Tags = *upd.Tags
	}
}
