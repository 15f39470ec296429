// Package engine runs the full document pipeline: discover what fields a
// document contains, plan how many extraction agents it needs, fan the work
// out, consolidate the results, and persist the record.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/fieldline/internal/api"
	"github.com/fieldline/fieldline/internal/consolidate"
	"github.com/fieldline/fieldline/internal/discovery"
	"github.com/fieldline/fieldline/internal/document"
	"github.com/fieldline/fieldline/internal/extraction"
	"github.com/fieldline/fieldline/internal/scaling"
	"github.com/fieldline/fieldline/pkg/models"
)

// ErrAllAgentsFailed is returned when every dispatched extraction agent
// failed or timed out; the run produces no record rather than an empty one.
var ErrAllAgentsFailed = errors.New("all extraction agents failed")

// ErrPersistence wraps sink write failures. The record exists in memory but
// is not durable.
var ErrPersistence = errors.New("persistence failure")

// Sink stores consolidated records. Each call is write-once for its run.
type Sink interface {
	SaveRecord(record *models.ConsolidatedRecord) error
}

// Config carries the engine's tunables.
type Config struct {
	DiscoveryTimeout  time.Duration
	ExtractionTimeout time.Duration
	// DocumentDeadline bounds one whole document run. Zero means no bound.
	DocumentDeadline time.Duration

	LowConfidenceThreshold float64
	MinFields              int
	MinAgentFraction       float64
}

// Engine coordinates the pipeline stages for one or more documents. The
// discovery and extraction phases may use different models, so each gets its
// own invoker; passing the same one for both is fine.
type Engine struct {
	discovery  api.Invoker
	extraction api.Invoker
	accessor   document.Accessor
	sink       Sink
	cfg        Config
}

// New creates an Engine. sink may be nil, in which case records are returned
// but not persisted.
func New(discoveryInvoker, extractionInvoker api.Invoker, accessor document.Accessor, sink Sink, cfg Config) *Engine {
	return &Engine{
		discovery:  discoveryInvoker,
		extraction: extractionInvoker,
		accessor:   accessor,
		sink:       sink,
		cfg:        cfg,
	}
}

// DiscoverFields runs only the discovery phase and returns the merged field
// specifications.
func (e *Engine) DiscoverFields(ctx context.Context, documentID string) ([]models.FieldSpecification, error) {
	coordinator := discovery.New(e.discovery, e.accessor, discovery.Config{
		Timeout:   e.cfg.DiscoveryTimeout,
		MinFields: e.cfg.MinFields,
	})
	return coordinator.Discover(ctx, documentID)
}

// ExtractStructured plans and dispatches extraction agents for the given
// field set and consolidates their outputs into one record. Per-agent
// failures are absorbed into the record's provenance; only a total loss of
// the agent set is an error.
func (e *Engine) ExtractStructured(ctx context.Context, documentID, runID string, specs []models.FieldSpecification) (*models.ConsolidatedRecord, error) {
	pageCount, err := e.accessor.PageCount(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("page count for %s: %w", documentID, err)
	}

	assignments, err := scaling.Plan(pageCount, specs)
	if err != nil {
		return nil, err
	}
	log.Printf("[engine] %s: %d pages, dispatching %d agents", documentID, pageCount, len(assignments))

	extractor := extraction.NewModelExtractor(e.extraction, e.accessor)
	result := extraction.Run(extraction.WithDocument(ctx, documentID), extraction.PoolConfig{
		Extractor: extractor,
		Timeout:   e.cfg.ExtractionTimeout,
	}, assignments)

	if result.AllFailed() {
		return nil, fmt.Errorf("%s: %w", documentID, ErrAllAgentsFailed)
	}

	consolidator := consolidate.New(consolidate.Config{
		LowConfidenceThreshold: e.cfg.LowConfidenceThreshold,
		MinAgentFraction:       e.cfg.MinAgentFraction,
	})
	record := consolidator.Consolidate(documentID, runID, specs, result.Extractions, result.Outcomes)

	// Hitting the document deadline mid-run means some assignments never got
	// their full time; the record is usable but not the whole document's.
	if ctx.Err() != nil {
		record.AddFlag(models.RecordFlagPartial)
	}

	return record, nil
}

// Process runs the full pipeline for one document and persists the record.
// Every call ends in either a (possibly flagged) record or a named error.
func (e *Engine) Process(ctx context.Context, documentID string) (*models.ConsolidatedRecord, error) {
	if e.cfg.DocumentDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.DocumentDeadline)
		defer cancel()
	}

	runID := uuid.New().String()[:8]
	log.Printf("[engine] %s: run %s starting", documentID, runID)

	specs, err := e.DiscoverFields(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("discovery for %s: %w", documentID, err)
	}
	log.Printf("[engine] %s: discovered %d fields", documentID, len(specs))

	record, err := e.ExtractStructured(ctx, documentID, runID, specs)
	if err != nil {
		return nil, err
	}

	if e.sink != nil {
		if err := e.sink.SaveRecord(record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	log.Printf("[engine] %s: run %s complete, %d fields, flags=%v",
		documentID, runID, len(record.Fields), record.Flags)
	return record, nil
}
