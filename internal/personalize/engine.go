// Package personalize substitutes {{token}} placeholders in campaign
// subject and body text with contact fields. It is pure and total:
// supported tokens always resolve (to a friendly default when the field
// is empty), unsupported tokens pass through verbatim.
package personalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/siddarth16/coldscale/internal/models"
)

// Token describes one supported placeholder for editor autocomplete.
type Token struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

var supportedTokens = []Token{
	{Key: "firstName", Label: "First Name", Description: "Contact's first name", Example: "John"},
	{Key: "lastName", Label: "Last Name", Description: "Contact's last name", Example: "Doe"},
	{Key: "fullName", Label: "Full Name", Description: "Contact's full name", Example: "John Doe"},
	{Key: "email", Label: "Email", Description: "Contact's email address", Example: "john.doe@company.com"},
	{Key: "company", Label: "Company", Description: "Contact's company name", Example: "Acme Corp"},
	{Key: "position", Label: "Position", Description: "Contact's job title", Example: "Marketing Manager"},
	{Key: "industry", Label: "Industry", Description: "Company industry", Example: "Technology"},
	{Key: "location", Label: "Location", Description: "Contact's location", Example: "New York, NY"},
}

// tokenPattern matches any {{...}} placeholder. Matching is exact and
// case-sensitive; inner whitespace is part of the token name and makes
// it unsupported.
var tokenPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Tokens returns the supported token set in a fixed order.
func Tokens() []Token {
	out := make([]Token, len(supportedTokens))
	copy(out, supportedTokens)
	return out
}

// Format renders a token key as it appears in text.
func Format(key string) string {
	return "{{" + key + "}}"
}

// Personalize replaces every supported token in text with the
// corresponding field of contact. Never fails; never leaves a supported
// token unresolved.
func Personalize(text string, contact *models.Contact) string {
	fullName := contact.FullName()
	if fullName == "" {
		fullName = contact.FirstName
	}

	replacements := map[string]string{
		"firstName": fallback(contact.FirstName, "there"),
		"lastName":  contact.LastName,
		"fullName":  fallback(fullName, "there"),
		"email":     contact.Email,
		"company":   fallback(contact.Company, "your company"),
		"position":  contact.Position,
		// industry and location are not tracked per-contact; they
		// resolve to their empty-field default.
		"industry": "",
		"location": "",
	}

	for key, value := range replacements {
		text = strings.ReplaceAll(text, Format(key), value)
	}
	return text
}

// ExtractTokens returns the distinct token names appearing in text, in
// first-seen order.
func ExtractTokens(text string) []string {
	seen := make(map[string]bool)
	tokens := []string{}
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			tokens = append(tokens, name)
		}
	}
	return tokens
}

// Validate reports tokens in text that are not in the supported set.
// Advisory only: Personalize still emits unsupported tokens verbatim.
func Validate(text string) (valid bool, unsupported []string) {
	supported := make(map[string]bool, len(supportedTokens))
	for _, t := range supportedTokens {
		supported[t.Key] = true
	}

	unsupported = []string{}
	for _, name := range ExtractTokens(text) {
		if !supported[name] {
			unsupported = append(unsupported, name)
		}
	}
	return len(unsupported) == 0, unsupported
}

// PreviewContact returns sample data for editor previews.
func PreviewContact() *models.Contact {
	now := time.Now()
	return &models.Contact{
		ID:        "preview",
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john.doe@acmecorp.com",
		Company:   "Acme Corp",
		Position:  "Marketing Manager",
		Tags:      []string{"lead", "enterprise"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
