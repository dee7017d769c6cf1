package aiwriter

import (
	"strings"
	"testing"
)

func TestParseResponse_Delimited(t *testing.T) {
	text := `<Subject> Quick question, {{firstName}}; Helping {{company}} grow; A thought for you <Subject>

<Body 1>
Hi {{firstName}},

I noticed {{company}} has been growing fast. We help teams like yours cut onboarding time in half.

Worth a quick call?
<Body 1>

<Body 2>
Hello {{firstName}},

Most teams in your space struggle with churn. We fixed that for three of your competitors.

Book 15 minutes here.
<Body 2>`

	p, strat, ok := parseResponse(text)
	if !ok {
		t.Fatal("parseResponse() failed on delimiter grammar")
	}
	if strat != "delimiter" {
		t.Errorf("strategy = %q, want delimiter", strat)
	}
	if len(p.subjects) != 3 {
		t.Errorf("subjects = %d, want 3", len(p.subjects))
	}
	if p.subjects[0] != "Quick question, {{firstName}}" {
		t.Errorf("subjects[0] = %q", p.subjects[0])
	}
	if len(p.bodies) != 2 {
		t.Errorf("bodies = %d, want 2", len(p.bodies))
	}
	if !strings.HasPrefix(p.bodies[0], "Hi {{firstName}},") {
		t.Errorf("bodies[0] = %q, markers not stripped", p.bodies[0])
	}
}

func TestParseResponse_DelimiterCapsAtFive(t *testing.T) {
	text := `<Subject> One; Two; Three; Four; Five; Six; Seven <Subject>

<Body 1>
` + strings.Repeat("A long enough body paragraph about the product and its value. ", 3) + `
<Body 1>`

	p, _, ok := parseResponse(text)
	if !ok {
		t.Fatal("parseResponse() failed")
	}
	if len(p.subjects) != 5 {
		t.Errorf("subjects = %d, want capped at 5", len(p.subjects))
	}
}

func TestParseResponse_NumberedListFallback(t *testing.T) {
	text := `Here are your subject lines:

1. Quick question about Acme
2. "Helping your team move faster"
3) A better way to handle onboarding

` + strings.Repeat("This paragraph is an email body long enough to clear the length threshold for body detection. ", 2)

	p, strat, ok := parseResponse(text)
	if !ok {
		t.Fatal("parseResponse() failed on numbered list")
	}
	if strat != "numbered_list" {
		t.Errorf("strategy = %q, want numbered_list", strat)
	}
	if len(p.subjects) != 3 {
		t.Fatalf("subjects = %d, want 3", len(p.subjects))
	}
	if p.subjects[1] != "Helping your team move faster" {
		t.Errorf("subjects[1] = %q, quotes not stripped", p.subjects[1])
	}
	if len(p.bodies) != 1 {
		t.Errorf("bodies = %d, want 1", len(p.bodies))
	}
}

func TestParseResponse_NumberedList_LongEntriesAreNotSubjects(t *testing.T) {
	long := strings.Repeat("word ", 40)
	text := "1. " + long + "\n2. Short subject line\n\n" +
		strings.Repeat("Body paragraph with plenty of text to pass the minimum length cut for detection. ", 2)

	p, _, ok := parseResponse(text)
	if !ok {
		t.Fatal("parseResponse() failed")
	}
	if len(p.subjects) != 1 || p.subjects[0] != "Short subject line" {
		t.Errorf("subjects = %v, want only the short entry", p.subjects)
	}
}

func TestParseResponse_ParagraphsFallback(t *testing.T) {
	text := `A short standalone heading line

` + strings.Repeat("This free-form paragraph is long enough to count as an email body in the loosest fallback. ", 2)

	p, strat, ok := parseResponse(text)
	if !ok {
		t.Fatal("parseResponse() failed on paragraphs")
	}
	if strat != "paragraphs" {
		t.Errorf("strategy = %q, want paragraphs", strat)
	}
	if len(p.subjects) != 1 {
		t.Errorf("subjects = %d, want 1", len(p.subjects))
	}
	if len(p.bodies) != 1 {
		t.Errorf("bodies = %d, want 1", len(p.bodies))
	}
}

func TestParseResponse_Unparseable(t *testing.T) {
	if _, _, ok := parseResponse(""); ok {
		t.Error("parseResponse(empty) ok = true, want false")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := &Prompt{
		Product:     "Onboarding tool",
		Audience:    "HR leaders",
		Objective:   "book demos",
		Tone:        "friendly",
		CTA:         "Book a call",
		Length:      "short",
		Template:    "intro",
		CompanyName: "ColdScale Inc",
	}

	text := BuildPrompt(p)

	for _, want := range []string{
		"Onboarding tool",
		"HR leaders",
		"friendly (warm, approachable, conversational)",
		"50-100 words",
		"Sender Company: ColdScale Inc",
		"<Subject> Option 1; Option 2; Option 3; Option 4; Option 5 <Subject>",
		"<Body 1>",
		"<Body 5>",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("BuildPrompt() missing %q", want)
		}
	}
}

func TestBuildPrompt_Defaults(t *testing.T) {
	text := BuildPrompt(&Prompt{Product: "x", Audience: "y", Objective: "z", CTA: "call"})
	if !strings.Contains(text, "100-150 words") {
		t.Error("BuildPrompt() does not default to medium length")
	}
	if !strings.Contains(text, "(professional)") {
		t.Error("BuildPrompt() does not default to professional tone")
	}
}

func TestPrompt_Validate(t *testing.T) {
	tests := []struct {
		name   string
		prompt Prompt
		want   []string
	}{
		{
			name:   "complete",
			prompt: Prompt{Product: "a", Audience: "b", Objective: "c", CTA: "d"},
			want:   nil,
		},
		{
			name:   "all missing",
			prompt: Prompt{},
			want:   []string{"product", "audience", "objective", "cta"},
		},
		{
			name:   "whitespace counts as missing",
			prompt: Prompt{Product: "  ", Audience: "b", Objective: "c", CTA: "d"},
			want:   []string{"product"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.prompt.Validate()
			if len(got) != len(tt.want) {
				t.Fatalf("Validate() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Validate()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
