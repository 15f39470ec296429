package models

import "testing"

func TestFieldValueEqual(t *testing.T) {
	a := FieldValue{Scalar: "42"}
	b := FieldValue{Scalar: "42"}
	if !a.Equal(b) {
		t.Error("identical scalars should be equal")
	}

	c := FieldValue{List: []string{"x", "y"}}
	d := FieldValue{List: []string{"x", "y"}}
	if !c.Equal(d) {
		t.Error("identical lists should be equal")
	}

	e := FieldValue{List: []string{"y", "x"}}
	if c.Equal(e) {
		t.Error("list order matters for equality")
	}

	f := FieldValue{Fields: map[string]string{"city": "Oslo"}}
	g := FieldValue{Fields: map[string]string{"city": "Oslo"}}
	if !f.Equal(g) {
		t.Error("identical structured values should be equal")
	}
	if a.Equal(c) {
		t.Error("scalar and list should not be equal")
	}
}

func TestFieldValueIsZero(t *testing.T) {
	if !(FieldValue{}).IsZero() {
		t.Error("empty value should be zero")
	}
	if (FieldValue{Scalar: "x"}).IsZero() {
		t.Error("scalar value should not be zero")
	}
}

func TestPageRange(t *testing.T) {
	r := PageRange{StartPage: 3, EndPage: 7}
	if r.Pages() != 5 {
		t.Errorf("Pages() = %d, want 5", r.Pages())
	}
	if !r.Contains(3) || !r.Contains(7) {
		t.Error("range should contain its endpoints")
	}
	if r.Contains(8) {
		t.Error("range should not contain pages past the end")
	}
	if r.String() != "p3-7" {
		t.Errorf("String() = %q, want %q", r.String(), "p3-7")
	}
	if !r.Valid() {
		t.Error("range should be valid")
	}
	if (PageRange{StartPage: 0, EndPage: 3}).Valid() {
		t.Error("0-indexed range should be invalid")
	}
	if (PageRange{StartPage: 5, EndPage: 4}).Valid() {
		t.Error("inverted range should be invalid")
	}
}

func TestConsolidatedRecordFlags(t *testing.T) {
	rec := &ConsolidatedRecord{}
	if rec.HasFlag(RecordFlagDegraded) {
		t.Error("new record should have no flags")
	}
	rec.AddFlag(RecordFlagDegraded)
	rec.AddFlag(RecordFlagDegraded)
	if len(rec.Flags) != 1 {
		t.Errorf("AddFlag should be idempotent, got %v", rec.Flags)
	}
	if !rec.HasFlag(RecordFlagDegraded) {
		t.Error("flag should be present after AddFlag")
	}
}

func TestConsolidatedRecordFieldNames(t *testing.T) {
	rec := &ConsolidatedRecord{Fields: map[string]ResolvedField{
		"b": {}, "a": {}, "c": {},
	}}
	names := rec.FieldNames()
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("FieldNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestAgentStatusValid(t *testing.T) {
	for _, s := range []AgentStatus{AgentStatusCompleted, AgentStatusTimeout, AgentStatusFailed} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if AgentStatus("lost").Valid() {
		t.Error("unknown status should not be valid")
	}
}
