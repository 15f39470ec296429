package discovery

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldline/fieldline/pkg/models"
)

// discoverySystemPrompt frames the discovery agent's role.
const discoverySystemPrompt = `You are a document schema analyst. Given sampled pages of a document, you identify the structured fields a data-extraction pipeline should populate for documents of this kind. You respond with valid JSON only.`

// discoveryPromptHeader is the instruction block shared by both the single
// and chained discovery paths.
const discoveryPromptHeader = `Analyze the sampled document pages below and determine the set of fields worth extracting from this document.

Return ONLY a JSON array of field specifications with this exact structure (no other text):
[
  {
    "name": "total_value",
    "type": "scalar",
    "description": "What the field means and where it appears in the document",
    "validation_rules": ["numeric", "non-negative"],
    "required": true
  }
]

Rules:
- "type" must be one of: "scalar" (single value), "list" (multiple values), "structured" (named sub-values)
- "name" must be lowercase snake_case
- "required" marks fields every document of this kind should have
- Include validation_rules only when a concrete constraint is evident
- Prefer fewer, well-defined fields over exhaustive noise`

// refinementInstructions is appended for chained discovery agents that
// receive the cumulative field set from earlier agents.
const refinementInstructions = `

Fields already discovered by earlier analysis passes are listed below as JSON.
Confirm or refine them (better description, corrected type, stricter rules) by
including them in your output, and add any newly observed fields they missed.
Do not drop a previously discovered field unless the samples contradict it.

Previously discovered fields:
%s`

// buildPrompt assembles the discovery prompt from sampled pages and the
// accumulated field set (nil for the single-agent path or the first chain pass).
func buildPrompt(samples []pageSample, accumulated []models.FieldSpecification) string {
	var b strings.Builder
	b.WriteString(discoveryPromptHeader)

	if len(accumulated) > 0 {
		known, _ := json.MarshalIndent(accumulated, "", "  ")
		fmt.Fprintf(&b, refinementInstructions, known)
	}

	b.WriteString("\n\nSampled pages:\n")
	for _, s := range samples {
		fmt.Fprintf(&b, "\n--- page %d ---\n%s\n", s.number, s.content)
	}

	return b.String()
}

// pageSample pairs a page number with its fetched content.
type pageSample struct {
	number  int
	content string
}
