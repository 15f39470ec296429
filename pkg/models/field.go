// Package models contains the shared data types for the extraction engine.
package models

import "strings"

// FieldType classifies the shape of a field's value.
type FieldType string

const (
	// FieldTypeScalar is a single value (string, number, date rendered as text).
	FieldTypeScalar FieldType = "scalar"
	// FieldTypeList is an ordered collection of scalar values.
	FieldTypeList FieldType = "list"
	// FieldTypeStructured is a named set of sub-values.
	FieldTypeStructured FieldType = "structured"
)

// Valid returns true if the type is a known value.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeScalar, FieldTypeList, FieldTypeStructured:
		return true
	default:
		return false
	}
}

// FieldSpecification describes one attribute the extraction pipeline attempts
// to populate for a document. The set is frozen once discovery completes and is
// shared read-only by every extraction agent.
type FieldSpecification struct {
	// Name uniquely identifies the field within a document's schema.
	// Always in normalized form (see NormalizeFieldName).
	Name string `json:"name"`
	// Type is the value shape agents must produce for this field.
	Type FieldType `json:"type"`
	// Description tells agents what the field means and where it tends to appear.
	Description string `json:"description,omitempty"`
	// ValidationRules are free-form predicate constraints on the value.
	ValidationRules []string `json:"validation_rules,omitempty"`
	// Required marks fields whose absence flags the consolidated record.
	Required bool `json:"required"`
}

// NormalizeFieldName canonicalizes a field name so that the same field
// discovered by different agents merges into one specification: lower-cased,
// trimmed, with inner whitespace runs collapsed to a single underscore.
func NormalizeFieldName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "_")
}

// MergeFieldSpecs folds newly discovered specs into an accumulated set,
// preserving first-seen order. A re-discovered field refines the existing
// entry: a longer description wins, validation rules union, and Required
// sticks once any agent marks it.
func MergeFieldSpecs(accumulated, discovered []FieldSpecification) []FieldSpecification {
	index := make(map[string]int, len(accumulated))
	merged := make([]FieldSpecification, len(accumulated))
	copy(merged, accumulated)
	for i, spec := range merged {
		index[spec.Name] = i
	}

	for _, spec := range discovered {
		spec.Name = NormalizeFieldName(spec.Name)
		if spec.Name == "" {
			continue
		}
		i, seen := index[spec.Name]
		if !seen {
			index[spec.Name] = len(merged)
			merged = append(merged, spec)
			continue
		}
		existing := &merged[i]
		if len(spec.Description) > len(existing.Description) {
			existing.Description = spec.Description
		}
		existing.ValidationRules = unionStrings(existing.ValidationRules, spec.ValidationRules)
		if spec.Required {
			existing.Required = true
		}
	}

	return merged
}

// unionStrings appends elements of b not already present in a.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			a = append(a, s)
		}
	}
	return a
}
