package extraction

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fieldline/fieldline/pkg/models"
)

// recordingAccessor tracks which pages were read.
type recordingAccessor struct {
	pageCount int
	reads     []int
}

func (r *recordingAccessor) PageCount(ctx context.Context, documentID string) (int, error) {
	return r.pageCount, nil
}

func (r *recordingAccessor) Page(ctx context.Context, documentID string, pageNumber int) (string, error) {
	r.reads = append(r.reads, pageNumber)
	return fmt.Sprintf("page %d text", pageNumber), nil
}

// cannedInvoker returns one fixed response and records the prompt.
type cannedInvoker struct {
	response string
	prompt   string
}

func (c *cannedInvoker) Complete(ctx context.Context, system, prompt string) (string, error) {
	c.prompt = prompt
	return c.response, nil
}

func TestModelExtractor_ReadsOnlyAssignedRange(t *testing.T) {
	accessor := &recordingAccessor{pageCount: 100}
	invoker := &cannedInvoker{response: `[{"field_name": "total_value", "value": "9", "confidence": 1.0}]`}
	ext := NewModelExtractor(invoker, accessor)

	assignment := models.AgentAssignment{
		AgentID: "agent-02",
		Range:   models.PageRange{StartPage: 11, EndPage: 15},
		Specs:   []models.FieldSpecification{{Name: "total_value", Type: models.FieldTypeScalar}},
	}

	ctx := WithDocument(context.Background(), "doc-9")
	got, err := ext.Extract(ctx, assignment)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(accessor.reads) != 5 {
		t.Fatalf("read %d pages, want 5", len(accessor.reads))
	}
	for i, page := range accessor.reads {
		want := 11 + i
		if page != want {
			t.Errorf("read[%d] = %d, want %d", i, page, want)
		}
	}

	if len(got) != 1 || got[0].AgentID != "agent-02" {
		t.Errorf("extractions = %v", got)
	}
}

func TestModelExtractor_PromptCarriesSpecsAndPages(t *testing.T) {
	accessor := &recordingAccessor{pageCount: 10}
	invoker := &cannedInvoker{response: "[]"}
	ext := NewModelExtractor(invoker, accessor)

	assignment := models.AgentAssignment{
		AgentID: "agent-01",
		Range:   models.PageRange{StartPage: 1, EndPage: 2},
		Specs: []models.FieldSpecification{
			{Name: "total_value", Type: models.FieldTypeScalar, Required: true, Description: "contract total"},
		},
	}

	ctx := WithDocument(context.Background(), "doc-1")
	if _, err := ext.Extract(ctx, assignment); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for _, want := range []string{"total_value", "[required]", "contract total", "--- page 1 ---", "--- page 2 ---"} {
		if !strings.Contains(invoker.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestModelExtractor_RequiresDocumentContext(t *testing.T) {
	ext := NewModelExtractor(&cannedInvoker{}, &recordingAccessor{})

	_, err := ext.Extract(context.Background(), models.AgentAssignment{
		Range: models.PageRange{StartPage: 1, EndPage: 1},
	})
	if err == nil {
		t.Error("expected error without document ID in context")
	}
}

func TestModelExtractor_EmptyResultIsNotAnError(t *testing.T) {
	accessor := &recordingAccessor{pageCount: 10}
	invoker := &cannedInvoker{response: "[]"}
	ext := NewModelExtractor(invoker, accessor)

	ctx := WithDocument(context.Background(), "doc-1")
	got, err := ext.Extract(ctx, models.AgentAssignment{
		AgentID: "agent-01",
		Range:   models.PageRange{StartPage: 1, EndPage: 3},
		Specs:   []models.FieldSpecification{{Name: "x", Type: models.FieldTypeScalar}},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no extractions", got)
	}
}
