package models

import (
	"strings"
	"time"
)

// Contact represents a single prospect record
type Contact struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"` // unique per store, case-insensitive
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Phone     string    `json:"phone,omitempty"`
	Website   string    `json:"website,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns "First Last" with either part omitted when empty.
func (c *Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// HasTag reports whether the contact carries the given tag.
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ContactUpdate holds the fields of a partial contact update. Nil fields
// are left untouched.
type ContactUpdate struct {
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Company   *string   `json:"company,omitempty"`
	Position  *string   `json:"position,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Website   *string   `json:"website,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
}

// ContactFilter for filtering contacts. All set filters are AND-combined.
type ContactFilter struct {
	Search  string   // case-insensitive substring on name/email/company/position
	Tags    []string // contact must carry at least one (OR semantics)
	Company string   // exact, case-insensitive
}

// ContactImportResult holds the outcome of a CSV import dry run.
type ContactImportResult struct {
	Contacts   []Contact `json:"contacts"`
	Errors     []string  `json:"errors"`
	Duplicates []Contact `json:"duplicates"`
}

// ContactStats summarizes the contact store.
type ContactStats struct {
	Total      int `json:"total"`
	Companies  int `json:"companies"`
	Tags       int `json:"tags"`
	Duplicates int `json:"duplicates"`
}
