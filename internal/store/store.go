// Package store persists ColdScale records in BoltDB. Every record is a
// JSON blob rewritten wholesale on each mutation; per-entity order
// buckets keep insertion order, which listing and duplicate detection
// rely on.
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketContacts       = []byte("contacts")
	bucketContactOrder   = []byte("contacts_order")
	bucketCampaigns      = []byte("campaigns")
	bucketCampaignOrder  = []byte("campaigns_order")
	bucketEmails         = []byte("campaign_emails")
	bucketEmailOrder     = []byte("campaign_emails_order")
	bucketTemplates      = []byte("templates")
	bucketTemplateOrder  = []byte("templates_order")
	bucketSettings       = []byte("settings")
)

// Store owns the BoltDB handle shared by the entity stores.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketContacts, bucketContactOrder,
			bucketCampaigns, bucketCampaignOrder,
			bucketEmails, bucketEmailOrder,
			bucketTemplates, bucketTemplateOrder,
			bucketSettings,
		}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for stores layered on top.
func (s *Store) DB() *bolt.DB {
	return s.db
}

// appendOrder records id at the tail of the order bucket.
func appendOrder(tx *bolt.Tx, bucket []byte, id string) error {
	b := tx.Bucket(bucket)
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return b.Put(key, []byte(id))
}

// removeOrder drops the order entry pointing at id.
func removeOrder(tx *bolt.Tx, bucket []byte, id string) error {
	c := tx.Bucket(bucket).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if string(v) == id {
			return c.Delete()
		}
	}
	return nil
}

// forEachOrdered visits record values in insertion order.
func forEachOrdered(tx *bolt.Tx, orderBucket, recordBucket []byte, fn func(v []byte) error) error {
	records := tx.Bucket(recordBucket)
	c := tx.Bucket(orderBucket).Cursor()
	for k, id := c.First(); k != nil; k, id = c.Next() {
		v := records.Get(id)
		if v == nil {
			continue
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

// notifier implements per-store change subscription. Every logical
// mutation notifies each subscriber exactly once.
type notifier struct {
	mu   sync.Mutex
	subs map[int]func()
	next int
}

// Subscribe registers fn and returns an unsubscribe function.
func (n *notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
