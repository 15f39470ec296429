package extraction

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/fieldline/fieldline/pkg/models"
)

// wireExtraction is the JSON structure an extraction agent returns per field.
type wireExtraction struct {
	FieldName  string          `json:"field_name"`
	Value      json.RawMessage `json:"value"`
	Confidence float64         `json:"confidence"`
}

// ParseExtractions converts a model response into FieldExtractions for the
// given assignment. Entries naming unknown fields are dropped, values are
// coerced to the field's declared type, and confidences are clamped to [0, 1].
// Provenance (agent ID, source page range) comes from the assignment.
func ParseExtractions(response string, assignment models.AgentAssignment) ([]models.FieldExtraction, error) {
	raw := extractJSONArray(response)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var wire []wireExtraction
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal extractions: %w", err)
	}

	specsByName := make(map[string]models.FieldSpecification, len(assignment.Specs))
	for _, spec := range assignment.Specs {
		specsByName[spec.Name] = spec
	}

	extractions := make([]models.FieldExtraction, 0, len(wire))
	for _, w := range wire {
		name := models.NormalizeFieldName(w.FieldName)
		spec, known := specsByName[name]
		if !known {
			log.Printf("[extraction] %s: dropping unknown field %q", assignment.AgentID, w.FieldName)
			continue
		}

		value, err := coerceValue(spec.Type, w.Value)
		if err != nil {
			log.Printf("[extraction] %s: dropping field %q: %v", assignment.AgentID, name, err)
			continue
		}
		if value.IsZero() {
			continue
		}

		extractions = append(extractions, models.FieldExtraction{
			FieldName:  name,
			Value:      value,
			Confidence: clampConfidence(w.Confidence),
			Source:     assignment.Range,
			AgentID:    assignment.AgentID,
		})
	}

	return extractions, nil
}

// coerceValue converts a raw JSON value into the shape the field's type
// declares, tolerating the common model slips (a bare string for a list, a
// number for a scalar).
func coerceValue(ft models.FieldType, raw json.RawMessage) (models.FieldValue, error) {
	if len(raw) == 0 {
		return models.FieldValue{}, fmt.Errorf("empty value")
	}

	switch ft {
	case models.FieldTypeScalar:
		s, err := rawToString(raw)
		if err != nil {
			return models.FieldValue{}, err
		}
		return models.FieldValue{Scalar: s}, nil

	case models.FieldTypeList:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			// A bare scalar becomes a one-element list.
			s, serr := rawToString(raw)
			if serr != nil {
				return models.FieldValue{}, fmt.Errorf("list value: %w", err)
			}
			return models.FieldValue{List: []string{s}}, nil
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			s, err := rawToString(item)
			if err != nil {
				return models.FieldValue{}, fmt.Errorf("list element: %w", err)
			}
			if s != "" {
				list = append(list, s)
			}
		}
		return models.FieldValue{List: list}, nil

	case models.FieldTypeStructured:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return models.FieldValue{}, fmt.Errorf("structured value: %w", err)
		}
		fields := make(map[string]string, len(obj))
		for k, v := range obj {
			s, err := rawToString(v)
			if err != nil {
				return models.FieldValue{}, fmt.Errorf("structured value %q: %w", k, err)
			}
			fields[k] = s
		}
		return models.FieldValue{Fields: fields}, nil

	default:
		return models.FieldValue{}, fmt.Errorf("unknown field type %q", ft)
	}
}

// rawToString renders a JSON scalar (string, number, bool) as a trimmed string.
func rawToString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	return "", fmt.Errorf("not a scalar: %s", string(raw))
}

// clampConfidence bounds a reported confidence to [0, 1].
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
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
