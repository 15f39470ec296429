package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeAccessor serves synthetic page content for a fixed page count.
type fakeAccessor struct {
	pageCount int
}

func (f *fakeAccessor) PageCount(ctx context.Context, documentID string) (int, error) {
	return f.pageCount, nil
}

func (f *fakeAccessor) Page(ctx context.Context, documentID string, pageNumber int) (string, error) {
	if pageNumber < 1 || pageNumber > f.pageCount {
		return "", fmt.Errorf("page %d out of range", pageNumber)
	}
	return fmt.Sprintf("content of page %d", pageNumber), nil
}

// scriptedInvoker returns canned responses in order and records prompts.
type scriptedInvoker struct {
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedInvoker) Complete(ctx context.Context, system, prompt string) (string, error) {
	call := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if call < len(s.errs) && s.errs[call] != nil {
		return "", s.errs[call]
	}
	if call < len(s.responses) {
		return s.responses[call], nil
	}
	return "[]", nil
}

func specsJSON(names ...string) string {
	var parts []string
	for _, n := range names {
		parts = append(parts, fmt.Sprintf(`{"name": %q, "type": "scalar", "required": false}`, n))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestDiscover_SingleAgentAt50Pages(t *testing.T) {
	invoker := &scriptedInvoker{responses: []string{specsJSON("total_value")}}
	c := New(invoker, &fakeAccessor{pageCount: 50}, Config{Timeout: time.Second})

	specs, err := c.Discover(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(invoker.prompts) != 1 {
		t.Errorf("got %d agent calls, want 1 at the 50-page boundary", len(invoker.prompts))
	}
	if got := strings.Count(invoker.prompts[0], "--- page "); got != 8 {
		t.Errorf("single agent sampled %d pages, want 8", got)
	}
	if len(specs) != 1 || specs[0].Name != "total_value" {
		t.Errorf("specs = %v", specs)
	}
}

func TestDiscover_ChainAt51Pages(t *testing.T) {
	invoker := &scriptedInvoker{responses: []string{
		specsJSON("a"),
		specsJSON("b"),
		specsJSON("c"),
	}}
	c := New(invoker, &fakeAccessor{pageCount: 51}, Config{Timeout: time.Second})

	specs, err := c.Discover(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(invoker.prompts) != 3 {
		t.Fatalf("got %d agent calls, want 3 past the 50-page boundary", len(invoker.prompts))
	}
	for i, prompt := range invoker.prompts {
		if got := strings.Count(prompt, "--- page "); got != 15 {
			t.Errorf("chain agent %d sampled %d pages, want 15", i+1, got)
		}
	}
	if len(specs) != 3 {
		t.Errorf("merged specs = %v, want 3 fields", specs)
	}
}

func TestDiscover_ChainCarriesCumulativeSet(t *testing.T) {
	invoker := &scriptedInvoker{responses: []string{
		specsJSON("a", "b"),
		specsJSON("c", "a", "b"), // reconfirms a, b and adds c
		"[]",                     // nothing new
	}}
	c := New(invoker, &fakeAccessor{pageCount: 80}, Config{Timeout: time.Second})

	specs, err := c.Discover(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	// Agent 1 gets no prior fields; agents 2 and 3 must see the cumulative set.
	if strings.Contains(invoker.prompts[0], "Previously discovered fields") {
		t.Error("first chain agent should receive no prior fields")
	}
	if !strings.Contains(invoker.prompts[1], `"a"`) || !strings.Contains(invoker.prompts[1], `"b"`) {
		t.Error("second chain agent should receive fields from agent 1")
	}
	if !strings.Contains(invoker.prompts[2], `"c"`) {
		t.Error("third chain agent should receive the cumulative set including c")
	}

	want := []string{"a", "b", "c"}
	if len(specs) != len(want) {
		t.Fatalf("final set = %v, want exactly {a,b,c}", specs)
	}
	for i, name := range want {
		if specs[i].Name != name {
			t.Errorf("specs[%d].Name = %q, want %q", i, specs[i].Name, name)
		}
	}
}

func TestDiscover_EmptySetIsLowConfidence(t *testing.T) {
	invoker := &scriptedInvoker{responses: []string{"[]"}}
	c := New(invoker, &fakeAccessor{pageCount: 30}, Config{Timeout: time.Second})

	_, err := c.Discover(context.Background(), "doc-1")
	if !errors.Is(err, ErrLowConfidence) {
		t.Errorf("err = %v, want ErrLowConfidence", err)
	}
}

func TestDiscover_MinFieldsThreshold(t *testing.T) {
	invoker := &scriptedInvoker{responses: []string{specsJSON("only_one")}}
	c := New(invoker, &fakeAccessor{pageCount: 30}, Config{Timeout: time.Second, MinFields: 3})

	_, err := c.Discover(context.Background(), "doc-1")
	if !errors.Is(err, ErrLowConfidence) {
		t.Errorf("err = %v, want ErrLowConfidence below min field count", err)
	}
}

func TestDiscover_TimeoutRetriesOnce(t *testing.T) {
	invoker := &scriptedInvoker{
		errs:      []error{context.DeadlineExceeded, nil},
		responses: []string{"", specsJSON("total_value")},
	}
	c := New(invoker, &fakeAccessor{pageCount: 30}, Config{Timeout: time.Second})

	specs, err := c.Discover(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Discover after retry: %v", err)
	}
	if len(invoker.prompts) != 2 {
		t.Errorf("got %d calls, want 2 (original + one retry)", len(invoker.prompts))
	}
	if len(specs) != 1 {
		t.Errorf("specs = %v", specs)
	}
}

func TestDiscover_SecondTimeoutEscalates(t *testing.T) {
	invoker := &scriptedInvoker{
		errs: []error{context.DeadlineExceeded, context.DeadlineExceeded},
	}
	c := New(invoker, &fakeAccessor{pageCount: 30}, Config{Timeout: time.Second})

	_, err := c.Discover(context.Background(), "doc-1")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout after second timeout", err)
	}
	if len(invoker.prompts) != 2 {
		t.Errorf("got %d calls, want exactly 2", len(invoker.prompts))
	}
}

func TestDiscover_NormalizesDuplicateNames(t *testing.T) {
	invoker := &scriptedInvoker{responses: []string{
		`[{"name": "Total Value", "type": "scalar"}, {"name": "total_value", "type": "scalar"}]`,
	}}
	c := New(invoker, &fakeAccessor{pageCount: 10}, Config{Timeout: time.Second})

	specs, err := c.Discover(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(specs) != 1 {
		t.Errorf("case/whitespace variants should merge, got %v", specs)
	}
}
