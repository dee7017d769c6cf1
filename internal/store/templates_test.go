package store

import (
	"errors"
	"testing"

	"github.com/siddarth16/coldscale/internal/models"
)

func newTestTemplate(name string) *models.EmailTemplate {
	return &models.EmailTemplate{
		Name:     name,
		Subject:  "Quick question for {{company}}",
		Body:     "Hi {{firstName}},",
		Category: "outreach",
	}
}

func TestTemplateStore_Add_Defaults(t *testing.T) {
	ts := NewTemplateStore(setupTestStore(t))

	tmpl := newTestTemplate("Opener")
	tmpl.UsageCount = 99 // caller-provided counts are ignored
	if err := ts.Add(tmpl); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if tmpl.ID == "" {
		t.Error("Add() did not set ID")
	}
	if tmpl.UsageCount != 0 {
		t.Errorf("Add() UsageCount = %d, want 0", tmpl.UsageCount)
	}
	if tmpl.Source != models.TemplateSourceManual {
		t.Errorf("Add() Source = %v, want manual", tmpl.Source)
	}
}

func TestTemplateStore_Add_KeepsSource(t *testing.T) {
	ts := NewTemplateStore(setupTestStore(t))

	tmpl := newTestTemplate("AI draft")
	tmpl.Source = models.TemplateSourceAI
	if err := ts.Add(tmpl); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if tmpl.Source != models.TemplateSourceAI {
		t.Errorf("Add() Source = %v, want ai", tmpl.Source)
	}
}

func TestTemplateStore_IncrementUsage(t *testing.T) {
	ts := NewTemplateStore(setupTestStore(t))

	tmpl := newTestTemplate("Opener")
	if err := ts.Add(tmpl); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for i := 1; i <= 3; i++ {
		got, err := ts.IncrementUsage(tmpl.ID)
		if err != nil {
			t.Fatalf("IncrementUsage() error = %v", err)
		}
		if got.UsageCount != i {
			t.Errorf("IncrementUsage() UsageCount = %d, want %d", got.UsageCount, i)
		}
	}

	if _, err := ts.IncrementUsage("non-existent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("IncrementUsage() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestTemplateStore_Filter(t *testing.T) {
	ts := NewTemplateStore(setupTestStore(t))

	a := newTestTemplate("Cold opener")
	a.Category = "outreach"
	b := newTestTemplate("Follow up")
	b.Category = "followup"
	b.Source = models.TemplateSourceAI
	for _, tmpl := range []*models.EmailTemplate{a, b} {
		if err := ts.Add(tmpl); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter models.TemplateFilter
		want   int
	}{
		{"no filter", models.TemplateFilter{}, 2},
		{"category", models.TemplateFilter{Category: "followup"}, 1},
		{"source", models.TemplateFilter{Source: models.TemplateSourceAI}, 1},
		{"search", models.TemplateFilter{Search: "cold"}, 1},
		{"no match", models.TemplateFilter{Category: "outreach", Source: models.TemplateSourceAI}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ts.Filter(tt.filter)
			if err != nil {
				t.Fatalf("Filter() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Filter() returned %d templates, want %d", len(got), tt.want)
			}
		})
	}
}

func TestTemplateStore_Delete(t *testing.T) {
	ts := NewTemplateStore(setupTestStore(t))

	tmpl := newTestTemplate("doomed")
	if err := ts.Add(tmpl); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := ts.Delete(tmpl.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ts.Get(tmpl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}
