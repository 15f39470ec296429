package extraction

import (
	"fmt"
	"strings"

	"github.com/fieldline/fieldline/pkg/models"
)

// extractionSystemPrompt frames the extraction agent's role.
const extractionSystemPrompt = `You are a document data-extraction agent. You are given a contiguous range of document pages and a field schema. You extract values for the schema's fields from those pages only, with a confidence score per value. You respond with valid JSON only.`

// extractionPromptHeader carries the output contract and confidence guidance.
const extractionPromptHeader = `Extract values for the fields listed below from the document pages that follow.

Return ONLY a JSON array (no other text). One entry per field you can populate from these pages; omit fields you cannot find here — absence is expected, not an error.

Output structure by field type:
- scalar:     {"field_name": "total_value", "value": "1250000", "confidence": 0.92}
- list:       {"field_name": "parties", "value": ["Acme Corp", "Globex Ltd"], "confidence": 0.8}
- structured: {"field_name": "address", "value": {"street": "1 Main St", "city": "Oslo"}, "confidence": 0.75}

Confidence reflects how directly the page text supports the value:
- 1.0 for an explicit literal match on the page
- 0.7-0.9 for a lightly reformatted or assembled value
- below 0.7 for inferred or paraphrased values
Never report a value you cannot ground in the provided pages.`

// buildExtractionPrompt assembles the agent prompt from the frozen field
// specifications and the assignment's page contents.
func buildExtractionPrompt(specs []models.FieldSpecification, pages []pageContent) string {
	var b strings.Builder
	b.WriteString(extractionPromptHeader)

	b.WriteString("\n\nFields to extract:\n")
	for _, spec := range specs {
		fmt.Fprintf(&b, "- %s (%s)", spec.Name, spec.Type)
		if spec.Required {
			b.WriteString(" [required]")
		}
		if spec.Description != "" {
			fmt.Fprintf(&b, ": %s", spec.Description)
		}
		if len(spec.ValidationRules) > 0 {
			fmt.Fprintf(&b, " (constraints: %s)", strings.Join(spec.ValidationRules, "; "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nDocument pages:\n")
	for _, p := range pages {
		fmt.Fprintf(&b, "\n--- page %d ---\n%s\n", p.number, p.content)
	}

	return b.String()
}
