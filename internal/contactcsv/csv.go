// Package contactcsv parses and serializes contact lists as header-row
// CSV. Import is a dry run: it synthesizes records, collects per-row
// errors and flags duplicates without touching any store; committing the
// batch is a separate step.
package contactcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siddarth16/coldscale/internal/models"
)

// exportColumns is the canonical column set. Import accepts any subset
// as long as firstName, lastName and email are present per row.
var exportColumns = []string{
	"firstName", "lastName", "email", "company", "position",
	"phone", "website", "notes", "tags", "createdAt", "updatedAt",
}

// Import parses r as header-row CSV. A row is an error when any of
// email/firstName/lastName is blank; a duplicate when its lowercased
// email already exists among existing (the existing record is reported
// and the row skipped); otherwise a new contact is synthesized.
func Import(r io.Reader, existing []models.Contact) *models.ContactImportResult {
	result := &models.ContactImportResult{
		Contacts:   []models.Contact{},
		Errors:     []string{},
		Duplicates: []models.Contact{},
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to parse CSV: %v", err))
		return result
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	byEmail := make(map[string]models.Contact, len(existing))
	for _, c := range existing {
		byEmail[strings.ToLower(c.Email)] = c
	}
	seen := make(map[string]bool)

	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		email := field("email")
		firstName := field("firstName")
		lastName := field("lastName")
		if email == "" || firstName == "" || lastName == "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: Missing required fields (email, firstName, lastName)", rowNum))
			continue
		}

		lower := strings.ToLower(email)
		if dup, ok := byEmail[lower]; ok {
			result.Duplicates = append(result.Duplicates, dup)
			continue
		}
		if seen[lower] {
			// Duplicate within the file itself: first row wins.
			continue
		}
		seen[lower] = true

		now := time.Now()
		result.Contacts = append(result.Contacts, models.Contact{
			ID:        uuid.New().String(),
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			Company:   field("company"),
			Position:  field("position"),
			Phone:     field("phone"),
			Website:   field("website"),
			Notes:     field("notes"),
			Tags:      splitTags(field("tags")),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return result
}

// Export writes contacts to w with the full column set, including audit
// timestamps. Tags are rejoined with ", ".
func Export(w io.Writer, contacts []models.Contact) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, c := range contacts {
		row := []string{
			c.FirstName,
			c.LastName,
			c.Email,
			c.Company,
			c.Position,
			c.Phone,
			c.Website,
			c.Notes,
			strings.Join(c.Tags, ", "),
			c.CreatedAt.Format(time.RFC3339),
			c.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// splitTags comma-splits a tags cell, trimming each entry.
func splitTags(cell string) []string {
	if cell == "" {
		return []string{}
	}
	parts := strings.Split(cell, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
