// Package extraction runs independent agents that populate field values from
// assigned page ranges, fanning out across a bounded pool and fanning back in
// for consolidation.
package extraction

import (
	"context"
	"fmt"
	"log"

	"github.com/fieldline/fieldline/internal/api"
	"github.com/fieldline/fieldline/internal/document"
	"github.com/fieldline/fieldline/pkg/models"
)

// Extractor is the single capability an extraction agent provides: produce
// FieldExtractions for a page range given the frozen field specifications.
// One concrete implementation exists per model backend.
type Extractor interface {
	Extract(ctx context.Context, assignment models.AgentAssignment) ([]models.FieldExtraction, error)
}

// ModelExtractor extracts fields by prompting a model with the assignment's
// pages. It reads only pages inside the assigned range.
type ModelExtractor struct {
	invoker  api.Invoker
	accessor document.Accessor
}

// NewModelExtractor creates a model-backed extractor.
func NewModelExtractor(invoker api.Invoker, accessor document.Accessor) *ModelExtractor {
	return &ModelExtractor{invoker: invoker, accessor: accessor}
}

// documentKeyType is the context key carrying the document ID to extractors.
type documentKeyType struct{}

// WithDocument attaches the document ID to a context for extraction calls.
func WithDocument(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, documentKeyType{}, documentID)
}

// documentFromContext returns the document ID attached by WithDocument.
func documentFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(documentKeyType{}).(string)
	return id, ok
}

// Extract reads the assignment's pages, prompts the model, and parses the
// response into FieldExtractions. Fields not found in the range are simply
// absent from the output; absence is not an error.
func (e *ModelExtractor) Extract(ctx context.Context, assignment models.AgentAssignment) ([]models.FieldExtraction, error) {
	documentID, ok := documentFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no document ID in context")
	}

	pages := make([]pageContent, 0, assignment.Range.Pages())
	for p := assignment.Range.StartPage; p <= assignment.Range.EndPage; p++ {
		content, err := e.accessor.Page(ctx, documentID, p)
		if err != nil {
			log.Printf("[extraction] %s %s: skipping unreadable page %d: %v",
				documentID, assignment.AgentID, p, err)
			continue
		}
		pages = append(pages, pageContent{number: p, content: content})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages readable in range %s", assignment.Range)
	}

	prompt := buildExtractionPrompt(assignment.Specs, pages)

	response, err := e.invoker.Complete(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("extraction agent call: %w", err)
	}

	return ParseExtractions(response, assignment)
}

// pageContent pairs a page number with its content.
type pageContent struct {
	number  int
	content string
}
