// Package scaling maps document size to an extraction agent count and
// computes the contiguous, non-overlapping page-range assignments.
package scaling

import (
	"errors"
	"fmt"
	"log"

	"github.com/fieldline/fieldline/pkg/models"
)

// ErrMisconfigured is returned when the page count is inconsistent with the
// partitioning invariants (e.g. zero pages). No agents are dispatched.
var ErrMisconfigured = errors.New("scaling misconfiguration")

// Agent-count policy thresholds.
const (
	smallDocPages = 20  // below this, 2 agents
	largeDocPages = 100 // above this, 10 agents

	smallDocAgents  = 2
	mediumDocAgents = 5
	largeDocAgents  = 10
)

// AgentCount returns the number of extraction agents for a document of the
// given page count:
//
//	P < 20        -> 2
//	20 <= P <= 100 -> 5
//	P > 100       -> 10
func AgentCount(pageCount int) int {
	switch {
	case pageCount < smallDocPages:
		return smallDocAgents
	case pageCount <= largeDocPages:
		return mediumDocAgents
	default:
		return largeDocAgents
	}
}

// Partition divides pageCount pages into k contiguous inclusive ranges as
// evenly as possible: base = P div K pages per range, with the first P mod K
// ranges receiving one extra page. The result is deterministic for a given
// (pageCount, k) and always ends exactly at pageCount.
func Partition(pageCount, k int) []models.PageRange {
	ranges := make([]models.PageRange, 0, k)

	base := pageCount / k
	extra := pageCount % k

	start := 1
	for i := 0; i < k; i++ {
		size := base
		if i < extra {
			size++
		}
		ranges = append(ranges, models.PageRange{
			StartPage: start,
			EndPage:   start + size - 1,
		})
		start += size
	}

	return ranges
}

// Plan produces one AgentAssignment per extraction agent, partitioning
// [1, pageCount] exactly. The frozen field specification set is attached to
// every assignment read-only.
//
// A page count below the chosen agent count cannot occur within the policy
// table's own thresholds, but is defended against by clamping K to the page
// count and logging a misconfiguration warning rather than emitting empty
// ranges.
func Plan(pageCount int, specs []models.FieldSpecification) ([]models.AgentAssignment, error) {
	if pageCount < 1 {
		return nil, fmt.Errorf("%w: document has %d pages", ErrMisconfigured, pageCount)
	}

	k := AgentCount(pageCount)
	if pageCount < k {
		log.Printf("[scaling] warning: page count %d below agent count %d, clamping", pageCount, k)
		k = pageCount
	}

	ranges := Partition(pageCount, k)

	assignments := make([]models.AgentAssignment, 0, k)
	for i, r := range ranges {
		assignments = append(assignments, models.AgentAssignment{
			AgentID: fmt.Sprintf("agent-%02d", i+1),
			Range:   r,
			Specs:   specs,
		})
	}

	return assignments, nil
}
