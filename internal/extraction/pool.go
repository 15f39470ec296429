package extraction

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldline/fieldline/pkg/models"
)

// PoolConfig configures a fan-out run over a set of assignments.
type PoolConfig struct {
	// Extractor performs the per-assignment work.
	Extractor Extractor
	// Timeout bounds each agent's call independently. Exceeding it is a
	// partial failure for that range, never a global abort.
	Timeout time.Duration
	// Workers bounds concurrent agents. Zero means one worker per assignment.
	Workers int
}

// Result is everything the pool hands to the consolidator once every agent
// has reached a terminal state.
type Result struct {
	// Extractions aggregates all completed agents' field observations.
	Extractions []models.FieldExtraction
	// Outcomes records the terminal state of every dispatched agent, in
	// assignment order.
	Outcomes []models.AgentOutcome
}

// Completed returns how many agents finished successfully.
func (r Result) Completed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == models.AgentStatusCompleted {
			n++
		}
	}
	return n
}

// AllFailed reports whether not a single agent completed.
func (r Result) AllFailed() bool {
	return len(r.Outcomes) > 0 && r.Completed() == 0
}

// Run dispatches every assignment concurrently and blocks until all agents
// reach a terminal state (success, timeout, or failure). Per-agent failures
// are absorbed into the outcome list — one agent's failure never blocks or
// cancels a sibling — so the returned Result is always complete.
func Run(ctx context.Context, cfg PoolConfig, assignments []models.AgentAssignment) Result {
	workers := cfg.Workers
	if workers <= 0 || workers > len(assignments) {
		workers = len(assignments)
	}

	outcomes := make([]models.AgentOutcome, len(assignments))

	var mu sync.Mutex
	var extractions []models.FieldExtraction

	// errgroup is used for the join barrier and worker bound only; agent
	// errors are recorded, not returned, so no sibling is ever cancelled.
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, assignment := range assignments {
		i, assignment := i, assignment
		g.Go(func() error {
			outcome := models.AgentOutcome{
				AgentID: assignment.AgentID,
				Range:   assignment.Range,
			}

			callCtx := ctx
			var cancel context.CancelFunc
			if cfg.Timeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
			}

			found, err := cfg.Extractor.Extract(callCtx, assignment)
			switch {
			case err == nil:
				outcome.Status = models.AgentStatusCompleted
				outcome.Extractions = len(found)

				mu.Lock()
				extractions = append(extractions, found...)
				mu.Unlock()

			case errors.Is(err, context.DeadlineExceeded):
				outcome.Status = models.AgentStatusTimeout
				outcome.Error = err.Error()
				log.Printf("[pool] %s timed out on %s", assignment.AgentID, assignment.Range)

			default:
				outcome.Status = models.AgentStatusFailed
				outcome.Error = err.Error()
				log.Printf("[pool] %s failed on %s: %v", assignment.AgentID, assignment.Range, err)
			}

			outcomes[i] = outcome
			return nil
		})
	}

	// Fan-in barrier: consolidation never sees a still-running agent set.
	_ = g.Wait()

	return Result{Extractions: extractions, Outcomes: outcomes}
}
