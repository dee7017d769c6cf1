package store

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/siddarth16/coldscale/internal/models"
)

var (
	keySMTPSettings = []byte("smtp")
	keyAPIKeyHash   = []byte("api_key_hash")
)

// SettingsStore holds singleton configuration records (SMTP account,
// API-key hash). Each record is a whole JSON value under a fixed key.
type SettingsStore struct {
	store *Store
	notifier
}

// NewSettingsStore creates a settings store over s.
func NewSettingsStore(s *Store) *SettingsStore {
	return &SettingsStore{store: s}
}

// SMTP returns the stored SMTP settings, or nil when none are saved.
func (ss *SettingsStore) SMTP() (*models.SMTPSettings, error) {
	var cfg *models.SMTPSettings
	err := ss.store.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSettings).Get(keySMTPSettings)
		if data == nil {
			return nil
		}
		cfg = &models.SMTPSettings{}
		return json.Unmarshal(data, cfg)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveSMTP persists the SMTP settings wholesale.
func (ss *SettingsStore) SaveSMTP(cfg *models.SMTPSettings) error {
	err := ss.store.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal smtp settings: %w", err)
		}
		return tx.Bucket(bucketSettings).Put(keySMTPSettings, data)
	})
	if err != nil {
		return err
	}

	ss.notify()
	return nil
}

// APIKeyHash returns the stored bcrypt hash of the API key, empty when
// authentication is not configured.
func (ss *SettingsStore) APIKeyHash() (string, error) {
	var hash string
	err := ss.store.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSettings).Get(keyAPIKeyHash)
		hash = string(data)
		return nil
	})
	return hash, err
}

// SaveAPIKeyHash stores the bcrypt hash of the API key.
func (ss *SettingsStore) SaveAPIKeyHash(hash string) error {
	return ss.store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSettings).Put(keyAPIKeyHash, []byte(hash))
	})
}
