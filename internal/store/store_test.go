package store

import (
	"path/filepath"
	"testing"
)

// setupTestStore opens a store on a throwaway bolt file.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestOpen_CreatesBuckets(t *testing.T) {
	s := setupTestStore(t)

	// Every sub-store must work on a fresh database.
	if _, err := NewContactStore(s).List(); err != nil {
		t.Errorf("ContactStore.List() on fresh db error = %v", err)
	}
	if _, err := NewCampaignStore(s).List(); err != nil {
		t.Errorf("CampaignStore.List() on fresh db error = %v", err)
	}
	if _, err := NewTemplateStore(s).List(); err != nil {
		t.Errorf("TemplateStore.List() on fresh db error = %v", err)
	}
	if _, err := NewSettingsStore(s).SMTP(); err != nil {
		t.Errorf("SettingsStore.SMTP() on fresh db error = %v", err)
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	s := setupTestStore(t)
	cs := NewContactStore(s)

	calls := 0
	unsubscribe := cs.Subscribe(func() { calls++ })

	if err := cs.Add(newTestContact("a@example.com")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls after Add = %d, want 1", calls)
	}

	unsubscribe()
	if err := cs.Add(newTestContact("b@example.com")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls after unsubscribe = %d, want 1", calls)
	}
}
