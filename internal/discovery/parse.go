package discovery

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldline/fieldline/pkg/models"
)

// wireFieldSpec is the JSON structure a discovery agent returns for one field.
type wireFieldSpec struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Description     string   `json:"description"`
	ValidationRules []string `json:"validation_rules"`
	Required        bool     `json:"required"`
}

// ParseFieldSpecs extracts field specifications from a model response.
// The response may wrap the JSON array in prose or code fences; everything
// outside the outermost array is ignored. Field names are normalized and
// entries with unusable names or types are dropped.
func ParseFieldSpecs(response string) ([]models.FieldSpecification, error) {
	raw := extractJSONArray(response)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var wire []wireFieldSpec
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal field specs: %w", err)
	}

	specs := make([]models.FieldSpecification, 0, len(wire))
	for _, w := range wire {
		name := models.NormalizeFieldName(w.Name)
		if name == "" {
			continue
		}

		ft := models.FieldType(strings.ToLower(strings.TrimSpace(w.Type)))
		if !ft.Valid() {
			// Unknown types degrade to scalar rather than losing the field.
			ft = models.FieldTypeScalar
		}

		specs = append(specs, models.FieldSpecification{
			Name:            name,
			Type:            ft,
			Description:     strings.TrimSpace(w.Description),
			ValidationRules: w.ValidationRules,
			Required:        w.Required,
		})
	}

	return specs, nil
}

// extractJSONArray returns the outermost JSON array in s, stripping code
// fences if present. Returns "" when no array is found.
func extractJSONArray(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
