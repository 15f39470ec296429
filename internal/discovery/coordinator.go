// Package discovery determines the field specification set for a document,
// using either one agent (short documents) or a chain of dependent agents
// (long documents).
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fieldline/fieldline/internal/api"
	"github.com/fieldline/fieldline/internal/document"
	"github.com/fieldline/fieldline/pkg/models"
)

// ErrLowConfidence is returned when the merged field set is empty or below
// the configured minimum field count. Extraction must not proceed.
var ErrLowConfidence = errors.New("discovery low confidence")

// ErrTimeout is returned when a discovery agent did not respond in time even
// after the single retry.
var ErrTimeout = errors.New("discovery timeout")

// Policy constants for the page-count branch.
const (
	// singleAgentMaxPages is the largest document handled by one discovery agent.
	singleAgentMaxPages = 50
	// singleAgentSamples is the sample size for the single-agent path.
	singleAgentSamples = 8
	// chainAgents is the number of sequential agents for long documents.
	chainAgents = 3
	// chainAgentSamples is the per-agent sample size on the chained path.
	chainAgentSamples = 15
)

// Config tunes the coordinator.
type Config struct {
	// Timeout bounds a single discovery agent call.
	Timeout time.Duration
	// MinFields is the minimum merged field count; fewer is a low-confidence
	// failure.
	MinFields int
}

// Coordinator produces the frozen field specification set for a document.
type Coordinator struct {
	invoker  api.Invoker
	accessor document.Accessor
	cfg      Config
}

// New creates a Coordinator.
func New(invoker api.Invoker, accessor document.Accessor, cfg Config) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MinFields < 1 {
		cfg.MinFields = 1
	}
	return &Coordinator{invoker: invoker, accessor: accessor, cfg: cfg}
}

// Discover determines the field specifications for the document. Documents of
// 50 pages or fewer get a single agent over 8 sampled pages; longer documents
// get three strictly sequential agents over 15 sampled pages each, each
// agent receiving the cumulative field set of its predecessors. The returned
// set is the caller's frozen schema for the run.
func (c *Coordinator) Discover(ctx context.Context, documentID string) ([]models.FieldSpecification, error) {
	pageCount, err := c.accessor.PageCount(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if pageCount < 1 {
		return nil, fmt.Errorf("%w: document %s has no pages", ErrLowConfidence, documentID)
	}

	var specs []models.FieldSpecification

	if pageCount <= singleAgentMaxPages {
		pages := SamplePages(pageCount, singleAgentSamples)
		log.Printf("[discovery] %s: single agent, %d pages sampled of %d", documentID, len(pages), pageCount)

		specs, err = c.runAgent(ctx, documentID, pages, nil)
		if err != nil {
			return nil, err
		}
		specs = models.MergeFieldSpecs(nil, specs)
	} else {
		// Sequential dependency: agent i+1's prompt is built from the
		// cumulative set of agents 1..i, so this is an explicit fold over
		// the ordered agent list.
		log.Printf("[discovery] %s: chained discovery, %d agents over %d pages", documentID, chainAgents, pageCount)

		for pass := 0; pass < chainAgents; pass++ {
			pages := ChainSample(pageCount, chainAgentSamples, pass, chainAgents)

			found, err := c.runAgent(ctx, documentID, pages, specs)
			if err != nil {
				return nil, fmt.Errorf("chain agent %d: %w", pass+1, err)
			}

			specs = models.MergeFieldSpecs(specs, found)
			log.Printf("[discovery] %s: agent %d/%d found %d fields, cumulative %d",
				documentID, pass+1, chainAgents, len(found), len(specs))
		}
	}

	if len(specs) < c.cfg.MinFields {
		return nil, fmt.Errorf("%w: %d fields discovered, need at least %d",
			ErrLowConfidence, len(specs), c.cfg.MinFields)
	}

	return specs, nil
}

// runAgent executes one discovery agent: fetch the sampled pages, build the
// prompt (including the cumulative set when chained), invoke the model with a
// timeout, retry once on timeout, and parse the response.
func (c *Coordinator) runAgent(ctx context.Context, documentID string, pages []int, accumulated []models.FieldSpecification) ([]models.FieldSpecification, error) {
	samples, err := c.fetchSamples(ctx, documentID, pages)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(samples, accumulated)

	response, err := c.invokeWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	specs, err := ParseFieldSpecs(response)
	if err != nil {
		return nil, fmt.Errorf("parse discovery response: %w", err)
	}
	return specs, nil
}

// fetchSamples reads the sampled pages. Individual unreadable pages are
// skipped; only a fully unreadable sample is an error.
func (c *Coordinator) fetchSamples(ctx context.Context, documentID string, pages []int) ([]pageSample, error) {
	samples := make([]pageSample, 0, len(pages))
	for _, page := range pages {
		content, err := c.accessor.Page(ctx, documentID, page)
		if err != nil {
			log.Printf("[discovery] %s: skipping unreadable page %d: %v", documentID, page, err)
			continue
		}
		samples = append(samples, pageSample{number: page, content: content})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no sampled pages readable for %s", documentID)
	}
	return samples, nil
}

// invokeWithRetry makes the model call with the configured timeout, retrying
// exactly once on timeout before escalating as ErrTimeout.
func (c *Coordinator) invokeWithRetry(ctx context.Context, prompt string) (string, error) {
	for attempt := 1; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		response, err := c.invoker.Complete(callCtx, discoverySystemPrompt, prompt)
		cancel()

		if err == nil {
			return response, nil
		}

		// A document-level cancellation is not retryable.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if errors.Is(err, context.DeadlineExceeded) {
			if attempt == 1 {
				log.Printf("[discovery] agent call timed out, retrying once")
				continue
			}
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}

		return "", fmt.Errorf("discovery agent call: %w", err)
	}
}
