// Package consolidate merges all extraction agents' outputs into one
// structured record per document, resolving duplicate and contradictory
// field values deterministically.
package consolidate

import (
	"log"
	"sort"
	"time"

	"github.com/fieldline/fieldline/pkg/models"
)

// Config tunes the consolidator.
type Config struct {
	// LowConfidenceThreshold flags resolved fields below this confidence.
	LowConfidenceThreshold float64
	// MinAgentFraction marks the record degraded when fewer agents completed.
	MinAgentFraction float64
}

// Consolidator is the single writer of ConsolidatedRecords. It must only be
// invoked after every dispatched agent has reached a terminal state.
type Consolidator struct {
	cfg Config
}

// New creates a Consolidator.
func New(cfg Config) *Consolidator {
	if cfg.LowConfidenceThreshold <= 0 {
		cfg.LowConfidenceThreshold = 0.5
	}
	if cfg.MinAgentFraction <= 0 {
		cfg.MinAgentFraction = 0.5
	}
	return &Consolidator{cfg: cfg}
}

// Consolidate merges the gathered extractions into exactly one record. The
// merge is order-independent: conflicts resolve on confidence with an
// earliest-page tie-break, never on arrival order.
func (c *Consolidator) Consolidate(documentID, runID string, specs []models.FieldSpecification, extractions []models.FieldExtraction, outcomes []models.AgentOutcome) *models.ConsolidatedRecord {
	byField := make(map[string][]models.FieldExtraction)
	for _, e := range extractions {
		byField[e.FieldName] = append(byField[e.FieldName], e)
	}

	record := &models.ConsolidatedRecord{
		DocumentID: documentID,
		RunID:      runID,
		Fields:     make(map[string]models.ResolvedField, len(specs)),
		Outcomes:   outcomes,
		CreatedAt:  time.Now().UTC(),
	}

	for _, spec := range specs {
		found := byField[spec.Name]

		if len(found) == 0 {
			// Absence only flags the record for required fields; an optional
			// field nobody observed is simply not part of the record.
			if spec.Required {
				record.Fields[spec.Name] = models.ResolvedField{
					Name:    spec.Name,
					Type:    spec.Type,
					Missing: true,
				}
				record.AddFlag(models.RecordFlagMissingRequired)
				log.Printf("[consolidate] %s: required field %q missing", documentID, spec.Name)
			}
			continue
		}

		var resolved models.ResolvedField
		if spec.Type == models.FieldTypeList {
			resolved = resolveList(spec, found)
		} else {
			resolved = resolveScalar(spec, found)
		}

		if resolved.Confidence < c.cfg.LowConfidenceThreshold {
			resolved.LowConfidence = true
		}

		record.Fields[spec.Name] = resolved
	}

	if fraction := completedFraction(outcomes); fraction < c.cfg.MinAgentFraction {
		record.AddFlag(models.RecordFlagDegraded)
		log.Printf("[consolidate] %s: only %.0f%% of agents completed, record degraded",
			documentID, fraction*100)
	}

	return record
}

// resolveScalar applies highest-confidence-wins with the lowest start page as
// the deterministic tie-break; everything else is retained as discarded
// provenance. Structured fields resolve the same way.
func resolveScalar(spec models.FieldSpecification, found []models.FieldExtraction) models.ResolvedField {
	ordered := make([]models.FieldExtraction, len(found))
	copy(ordered, found)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Confidence != ordered[j].Confidence {
			return ordered[i].Confidence > ordered[j].Confidence
		}
		return ordered[i].Source.StartPage < ordered[j].Source.StartPage
	})

	winner := ordered[0]
	return models.ResolvedField{
		Name:          spec.Name,
		Type:          spec.Type,
		Value:         winner.Value,
		Confidence:    winner.Confidence,
		Source:        winner.Source,
		ContributedBy: []string{winner.AgentID},
		Discarded:     ordered[1:],
	}
}

// resolveList unions the distinct values across all agents' extractions,
// deduplicated by value equality, each member keeping the best confidence any
// contributor reported for it. The field's overall confidence is the maximum
// of its members.
func resolveList(spec models.FieldSpecification, found []models.FieldExtraction) models.ResolvedField {
	ordered := make([]models.FieldExtraction, len(found))
	copy(ordered, found)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Confidence != ordered[j].Confidence {
			return ordered[i].Confidence > ordered[j].Confidence
		}
		return ordered[i].Source.StartPage < ordered[j].Source.StartPage
	})

	var items []models.ListItem
	index := make(map[string]int)
	agents := make(map[string]bool)
	var contributedBy []string

	for _, e := range ordered {
		if !agents[e.AgentID] {
			agents[e.AgentID] = true
			contributedBy = append(contributedBy, e.AgentID)
		}
		for _, v := range e.Value.List {
			if i, seen := index[v]; seen {
				if e.Confidence > items[i].Confidence {
					items[i].Confidence = e.Confidence
				}
				continue
			}
			index[v] = len(items)
			items = append(items, models.ListItem{Value: v, Confidence: e.Confidence})
		}
	}

	values := make([]string, len(items))
	var maxConfidence float64
	for i, item := range items {
		values[i] = item.Value
		if item.Confidence > maxConfidence {
			maxConfidence = item.Confidence
		}
	}

	return models.ResolvedField{
		Name:          spec.Name,
		Type:          spec.Type,
		Value:         models.FieldValue{List: values},
		Items:         items,
		Confidence:    maxConfidence,
		Source:        ordered[0].Source,
		ContributedBy: contributedBy,
	}
}

// completedFraction returns the fraction of agents that completed.
func completedFraction(outcomes []models.AgentOutcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	completed := 0
	for _, o := range outcomes {
		if o.Status == models.AgentStatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(outcomes))
}
