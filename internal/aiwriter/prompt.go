// Package aiwriter drafts cold-email copy through an upstream
// generative-text API. The upstream response format is prompt-enforced
// rather than contractual, so parsing runs a best-effort decoder chain:
// the strict delimiter grammar first, then progressively looser
// heuristics.
package aiwriter

import (
	"fmt"
	"strings"
)

// Prompt describes the campaign the copy is generated for.
type Prompt struct {
	Product     string `json:"product"`
	Audience    string `json:"audience"`
	Objective   string `json:"objective"`
	Tone        string `json:"tone"`
	CTA         string `json:"cta"`
	Length      string `json:"length"`
	Template    string `json:"template"`
	CompanyName string `json:"companyName,omitempty"`
}

// Validate reports the missing required fields, empty when the prompt
// is usable.
func (p *Prompt) Validate() []string {
	var missing []string
	if strings.TrimSpace(p.Product) == "" {
		missing = append(missing, "product")
	}
	if strings.TrimSpace(p.Audience) == "" {
		missing = append(missing, "audience")
	}
	if strings.TrimSpace(p.Objective) == "" {
		missing = append(missing, "objective")
	}
	if strings.TrimSpace(p.CTA) == "" {
		missing = append(missing, "cta")
	}
	return missing
}

// Result is the single error surface for generation: every failure mode
// collapses into an error string beside empty slices.
type Result struct {
	Subjects []string `json:"subjects"`
	Bodies   []string `json:"bodies"`
	Error    string   `json:"error,omitempty"`
}

var lengthGuide = map[string]string{
	"short":  "50-100 words",
	"medium": "100-150 words",
	"long":   "150-200 words",
}

var toneDescriptions = map[string]string{
	"professional": "formal, business-focused, respectful",
	"friendly":     "warm, approachable, conversational",
	"casual":       "relaxed, informal, personable",
	"persuasive":   "compelling, action-oriented, convincing",
	"consultative": "advisory, helpful, expert-focused",
}

// BuildPrompt renders the fixed-format instruction demanding the
// delimiter grammar the parser expects.
func BuildPrompt(p *Prompt) string {
	tone := toneDescriptions[p.Tone]
	if tone == "" {
		tone = "professional"
	}
	length := lengthGuide[p.Length]
	if length == "" {
		length = lengthGuide["medium"]
	}

	var b strings.Builder
	b.WriteString("You are an expert cold email copywriter. Generate 5 different subject line options and 5 different email body options for a cold email campaign.\n\n")
	b.WriteString("CAMPAIGN DETAILS:\n")
	fmt.Fprintf(&b, "- Product/Service: %s\n", p.Product)
	fmt.Fprintf(&b, "- Target Audience: %s\n", p.Audience)
	fmt.Fprintf(&b, "- Objective: %s\n", p.Objective)
	fmt.Fprintf(&b, "- Tone: %s (%s)\n", p.Tone, tone)
	fmt.Fprintf(&b, "- Call to Action: %s\n", p.CTA)
	fmt.Fprintf(&b, "- Email Length: %s (%s)\n", p.Length, length)
	fmt.Fprintf(&b, "- Template Type: %s\n", p.Template)
	if p.CompanyName != "" {
		fmt.Fprintf(&b, "- Sender Company: %s\n", p.CompanyName)
	}
	b.WriteString("\nREQUIREMENTS:\n")
	b.WriteString("1. Each subject line should be unique and attention-grabbing\n")
	b.WriteString("2. Each email body should be complete and ready to send\n")
	b.WriteString("3. Include personalization tokens like {{firstName}}, {{company}}, {{position}} where appropriate\n")
	b.WriteString("4. Vary the approach across the 5 options (different hooks, value propositions, styles)\n")
	fmt.Fprintf(&b, "5. All emails should be %s in length\n", length)
	fmt.Fprintf(&b, "6. Match the %s tone consistently\n", p.Tone)
	fmt.Fprintf(&b, "7. Include the specified call to action: %s\n", p.CTA)
	b.WriteString("\nSTRICT OUTPUT FORMAT - YOU MUST FOLLOW THIS EXACTLY:\n\n")
	b.WriteString("<Subject> Option 1; Option 2; Option 3; Option 4; Option 5 <Subject>\n\n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "<Body %d>\n[Complete email body %d here]\n<Body %d>\n\n", i, i, i)
	}
	fmt.Fprintf(&b, "Generate compelling, high-converting cold emails that will get responses from %s prospects.", p.Audience)
	return b.String()
}
