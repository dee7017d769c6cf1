package aiwriter

import (
	"fmt"
	"regexp"
	"strings"
)

// parsed is the output of one parser strategy.
type parsed struct {
	subjects []string
	bodies   []string
}

// strategy is a best-effort decoder. It returns false when the text
// does not match its expectations; the chain then tries the next one.
type strategy struct {
	name string
	fn   func(text string) (*parsed, bool)
}

// strategies are ordered strictest first. The first success wins.
var strategies = []strategy{
	{name: "delimiter", fn: parseDelimited},
	{name: "numbered_list", fn: parseNumberedList},
	{name: "paragraphs", fn: parseParagraphs},
}

// parseResponse runs the decoder chain over raw model output.
func parseResponse(text string) (*parsed, string, bool) {
	for _, s := range strategies {
		if p, ok := s.fn(text); ok {
			return p, s.name, true
		}
	}
	return nil, "", false
}

var subjectBlockPattern = regexp.MustCompile(`(?s)<Subject>\s*(.*?)\s*<Subject>`)

// parseDelimited handles the strict prompt-enforced grammar:
// subjects semicolon-separated between <Subject> markers, bodies
// between numbered <Body n> markers.
func parseDelimited(text string) (*parsed, bool) {
	m := subjectBlockPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	subjects := []string{}
	for _, s := range strings.Split(m[1], ";") {
		if s = strings.TrimSpace(s); s != "" {
			subjects = append(subjects, s)
		}
		if len(subjects) == 5 {
			break
		}
	}

	bodies := []string{}
	for i := 1; i <= 5; i++ {
		marker := regexp.QuoteMeta(fmt.Sprintf("<Body %d>", i))
		re := regexp.MustCompile(`(?s)` + marker + `\s*(.*?)\s*` + marker)
		if bm := re.FindStringSubmatch(text); bm != nil {
			if body := strings.TrimSpace(bm[1]); body != "" {
				bodies = append(bodies, body)
			}
		}
	}

	if len(subjects) == 0 || len(bodies) == 0 {
		return nil, false
	}
	return &parsed{subjects: subjects, bodies: bodies}, true
}

var numberedLinePattern = regexp.MustCompile(`^\s*(?:\*{0,2})(\d+)[.):]\s*(.+?)\s*$`)

// parseNumberedList recovers subjects from numbered lines when the
// model ignored the delimiter grammar and answered with a plain list.
// Short numbered entries become subjects; long blocks between numbered
// markers or blank lines become bodies.
func parseNumberedList(text string) (*parsed, bool) {
	lines := strings.Split(text, "\n")

	subjects := []string{}
	for _, line := range lines {
		m := numberedLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entry := strings.Trim(strings.TrimSpace(m[2]), `"*`)
		// Subject lines are short; a numbered paragraph is body text.
		if entry != "" && len(entry) <= 120 && len(subjects) < 5 {
			subjects = append(subjects, entry)
		}
	}
	if len(subjects) == 0 {
		return nil, false
	}

	bodies := longParagraphs(text)
	return &parsed{subjects: subjects, bodies: bodies}, true
}

// parseParagraphs is the loosest fallback: short standalone lines are
// subject candidates, long paragraphs are bodies.
func parseParagraphs(text string) (*parsed, bool) {
	subjects := []string{}
	for _, block := range splitBlocks(text) {
		if !strings.Contains(block, "\n") && len(block) <= 120 && len(subjects) < 5 {
			if s := strings.Trim(block, `"*#`); s != "" {
				subjects = append(subjects, strings.TrimSpace(s))
			}
		}
	}

	bodies := longParagraphs(text)
	if len(subjects) == 0 && len(bodies) == 0 {
		return nil, false
	}
	return &parsed{subjects: subjects, bodies: bodies}, true
}

// longParagraphs returns blank-line-separated blocks that read like
// email bodies rather than headings or list entries.
func longParagraphs(text string) []string {
	bodies := []string{}
	for _, block := range splitBlocks(text) {
		if len(block) <= 120 || isNumberedList(block) {
			continue
		}
		bodies = append(bodies, block)
		if len(bodies) == 5 {
			break
		}
	}
	return bodies
}

// isNumberedList reports whether every line of the block is a numbered
// entry, i.e. the block is a subject list rather than a body.
func isNumberedList(block string) bool {
	lines := strings.Split(block, "\n")
	count := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !numberedLinePattern.MatchString(line) {
			return false
		}
		count++
	}
	return count > 0
}

func splitBlocks(text string) []string {
	blocks := []string{}
	for _, raw := range regexp.MustCompile(`\n\s*\n`).Split(text, -1) {
		if b := strings.TrimSpace(raw); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}
