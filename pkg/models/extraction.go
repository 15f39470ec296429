package models

import (
	"sort"
	"time"
)

// FieldValue holds a typed field value. Exactly one member is populated,
// matching the owning FieldSpecification's type.
type FieldValue struct {
	// Scalar holds the value for scalar-typed fields.
	Scalar string `json:"scalar,omitempty"`
	// List holds the values for list-typed fields.
	List []string `json:"list,omitempty"`
	// Fields holds the sub-values for structured fields.
	Fields map[string]string `json:"fields,omitempty"`
}

// Equal reports whether two values are identical by content.
func (v FieldValue) Equal(other FieldValue) bool {
	if v.Scalar != other.Scalar {
		return false
	}
	if len(v.List) != len(other.List) {
		return false
	}
	for i := range v.List {
		if v.List[i] != other.List[i] {
			return false
		}
	}
	if len(v.Fields) != len(other.Fields) {
		return false
	}
	for k, val := range v.Fields {
		if other.Fields[k] != val {
			return false
		}
	}
	return true
}

// IsZero reports whether the value carries no content at all.
func (v FieldValue) IsZero() bool {
	return v.Scalar == "" && len(v.List) == 0 && len(v.Fields) == 0
}

// FieldExtraction is one agent's observation of one field: the typed value,
// how directly the source text supports it, and where it came from. Multiple
// extractions may exist for the same field when more than one agent saw it.
type FieldExtraction struct {
	FieldName  string     `json:"field_name"`
	Value      FieldValue `json:"value"`
	Confidence float64    `json:"confidence"`
	Source     PageRange  `json:"source_page_range"`
	AgentID    string     `json:"extracted_by_agent"`
}

// AgentStatus is the terminal state an extraction agent reached.
type AgentStatus string

const (
	// AgentStatusCompleted means the agent returned its extractions.
	AgentStatusCompleted AgentStatus = "completed"
	// AgentStatusTimeout means the agent exceeded its call timeout.
	AgentStatusTimeout AgentStatus = "timeout"
	// AgentStatusFailed means the agent returned an error.
	AgentStatusFailed AgentStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusCompleted, AgentStatusTimeout, AgentStatusFailed:
		return true
	default:
		return false
	}
}

// AgentOutcome records how one agent's run ended, kept as provenance metadata
// on the consolidated record.
type AgentOutcome struct {
	AgentID     string      `json:"agent_id"`
	Range       PageRange   `json:"range"`
	Status      AgentStatus `json:"status"`
	Error       string      `json:"error,omitempty"`
	Extractions int         `json:"extractions"`
}

// Record flags set during consolidation.
const (
	// RecordFlagMissingRequired marks a record missing at least one required field.
	RecordFlagMissingRequired = "missing_required"
	// RecordFlagDegraded marks a record built from fewer completed agents than
	// the configured minimum fraction.
	RecordFlagDegraded = "degraded"
	// RecordFlagPartial marks a record produced from a cancelled run.
	RecordFlagPartial = "partial"
)

// ListItem is one member of a resolved list field, retaining the confidence
// of the extraction that contributed it.
type ListItem struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ResolvedField is the single value a field resolved to after consolidation,
// with the losing observations retained as provenance.
type ResolvedField struct {
	Name       string     `json:"name"`
	Type       FieldType  `json:"type"`
	Value      FieldValue `json:"value"`
	Confidence float64    `json:"confidence"`
	// Source is the page range the winning extraction came from. For list
	// fields it is the range of the highest-confidence contributor.
	Source PageRange `json:"source,omitempty"`
	// Items carries per-member confidences for list-typed fields.
	Items []ListItem `json:"items,omitempty"`
	// ContributedBy lists every agent whose extraction informed the value.
	ContributedBy []string `json:"contributed_by,omitempty"`
	// Missing is set when no agent observed the field.
	Missing bool `json:"missing,omitempty"`
	// LowConfidence flags a resolved confidence below the configured threshold.
	LowConfidence bool `json:"low_confidence,omitempty"`
	// Discarded retains extractions that lost conflict resolution.
	Discarded []FieldExtraction `json:"discarded,omitempty"`
}

// ConsolidatedRecord is the final per-document output of a processing run.
// It is written once by the consolidator and never mutated; reprocessing a
// document creates a new record version.
type ConsolidatedRecord struct {
	DocumentID string `json:"document_id"`
	RunID      string `json:"run_id"`
	// Version starts at 1 and increments per reprocessing run.
	Version   int                      `json:"version"`
	Fields    map[string]ResolvedField `json:"fields"`
	Flags     []string                 `json:"flags,omitempty"`
	Outcomes  []AgentOutcome           `json:"agent_outcomes,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// HasFlag reports whether the record carries the given flag.
func (r *ConsolidatedRecord) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag appends a flag if not already present.
func (r *ConsolidatedRecord) AddFlag(flag string) {
	if !r.HasFlag(flag) {
		r.Flags = append(r.Flags, flag)
	}
}

// FieldNames returns the record's field names in sorted order.
func (r *ConsolidatedRecord) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
