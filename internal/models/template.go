package models

import "time"

// TemplateSource records where a template came from.
type TemplateSource string

const (
	TemplateSourceAI       TemplateSource = "ai"
	TemplateSourceManual   TemplateSource = "manual"
	TemplateSourceImported TemplateSource = "imported"
)

// EmailTemplate is a reusable draft. Campaigns copy it by value; there
// is no live link back.
type EmailTemplate struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Subject    string         `json:"subject"`
	Body       string         `json:"body"`
	Category   string         `json:"category"`
	Tags       []string       `json:"tags"`
	Source     TemplateSource `json:"source"`
	UsageCount int            `json:"usage_count"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TemplateFilter for filtering templates
type TemplateFilter struct {
	Category string
	Source   TemplateSource
	Search   string // case-insensitive substring on name/subject
}
