package models

import "fmt"

// PageRange is a contiguous, inclusive, 1-indexed span of document pages.
// Each range belongs to exactly one document and one assigned agent; the set
// of ranges for a document partitions [1, pageCount] with no gaps or overlaps.
type PageRange struct {
	StartPage int `json:"start_page"`
	EndPage   int `json:"end_page"`
}

// Pages returns the number of pages covered by the range.
func (r PageRange) Pages() int {
	return r.EndPage - r.StartPage + 1
}

// Contains reports whether the given page falls inside the range.
func (r PageRange) Contains(page int) bool {
	return page >= r.StartPage && page <= r.EndPage
}

// Valid returns true if the range covers at least one page and is 1-indexed.
func (r PageRange) Valid() bool {
	return r.StartPage >= 1 && r.EndPage >= r.StartPage
}

// String renders the range as "p3-17".
func (r PageRange) String() string {
	return fmt.Sprintf("p%d-%d", r.StartPage, r.EndPage)
}

// AgentAssignment is one unit of extraction work: a page range plus the
// document's frozen field specification set. Created by the scaling planner,
// consumed by exactly one extraction agent, discarded after the run.
type AgentAssignment struct {
	// AgentID identifies the agent that owns this assignment for the run.
	AgentID string `json:"agent_id"`
	// Range is the span of pages this agent may read. Agents never read
	// outside their range.
	Range PageRange `json:"range"`
	// Specs is the document's field specification set, shared read-only
	// across all assignments.
	Specs []FieldSpecification `json:"-"`
}
