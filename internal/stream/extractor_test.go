package stream

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract_CompleteObject(t *testing.T) {
	snap := Extract(`{"summary":"ok","themes":["a","b"]}`)

	want := map[string]any{
		"summary": "ok",
		"themes":  []any{"a", "b"},
	}
	if diff := cmp.Diff(want, snap.CompleteFields); diff != "" {
		t.Errorf("CompleteFields mismatch (-want +got):\n%s", diff)
	}
	if snap.InFieldName != "" {
		t.Errorf("Expected no in-progress field, got %q", snap.InFieldName)
	}
	if snap.PartialValue != "" {
		t.Errorf("Expected empty partial value, got %q", snap.PartialValue)
	}
}

func TestExtract_TruncatedStringValue(t *testing.T) {
	snap := Extract(`{"summary": "The story begins`)

	if len(snap.CompleteFields) != 0 {
		t.Errorf("Expected no complete fields, got %v", snap.CompleteFields)
	}
	if snap.InFieldName != "summary" {
		t.Errorf("Expected in-progress field summary, got %q", snap.InFieldName)
	}
	if snap.PartialValue != "The story begins" {
		t.Errorf("Expected partial value %q, got %q", "The story begins", snap.PartialValue)
	}
}

func TestExtract_OpenArrayAfterCompleteField(t *testing.T) {
	snap := Extract(`{"summary": "done.", "themes": [`)

	want := map[string]any{"summary": "done."}
	if diff := cmp.Diff(want, snap.CompleteFields); diff != "" {
		t.Errorf("CompleteFields mismatch (-want +got):\n%s", diff)
	}
	if snap.InFieldName != "themes" {
		t.Errorf("Expected in-progress field themes, got %q", snap.InFieldName)
	}
	if snap.PartialValue != "" {
		t.Errorf("Expected empty partial value, got %q", snap.PartialValue)
	}
}

func TestExtract_OpenArrayWithPartialContent(t *testing.T) {
	snap := Extract(`{"summary": "done.", "themes": ["loss", "memo`)

	if snap.InFieldName != "themes" {
		t.Errorf("Expected in-progress field themes, got %q", snap.InFieldName)
	}
	if !strings.Contains(snap.PartialValue, "loss") {
		t.Errorf("Expected partial array text to include received items, got %q", snap.PartialValue)
	}
}

func TestExtract_MarkdownFences(t *testing.T) {
	snap := Extract("```json\n{\"summary\": \"ok\", \"count\": 3}\n```")

	want := map[string]any{"summary": "ok", "count": float64(3)}
	if diff := cmp.Diff(want, snap.CompleteFields); diff != "" {
		t.Errorf("CompleteFields mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_FencedPartialStream(t *testing.T) {
	snap := Extract("```json\n{\"summary\": \"done.\", \"analysis\": \"still goi")

	want := map[string]any{"summary": "done."}
	if diff := cmp.Diff(want, snap.CompleteFields); diff != "" {
		t.Errorf("CompleteFields mismatch (-want +got):\n%s", diff)
	}
	if snap.InFieldName != "analysis" {
		t.Errorf("Expected in-progress field analysis, got %q", snap.InFieldName)
	}
	if snap.PartialValue != "still goi" {
		t.Errorf("Expected partial value %q, got %q", "still goi", snap.PartialValue)
	}
}

func TestExtract_ScalarValueKinds(t *testing.T) {
	snap := Extract(`{"done": true, "count": 42, "note": null, "score": 3.5, `)

	want := map[string]any{
		"done":  true,
		"count": float64(42),
		"note":  nil,
		"score": float64(3.5),
	}
	if diff := cmp.Diff(want, snap.CompleteFields); diff != "" {
		t.Errorf("CompleteFields mismatch (-want +got):\n%s", diff)
	}
	if snap.InFieldName != "" {
		t.Errorf("Expected no in-progress field, got %q", snap.InFieldName)
	}
}

func TestExtract_NestedObjectValue(t *testing.T) {
	// The nested value breaks the naive closing-brace reconstruction; the
	// repair tier has to rebalance the prefix.
	snap := Extract(`{"meta": {"chapter": 1}, "body": [`)

	want := map[string]any{"meta": map[string]any{"chapter": float64(1)}}
	if diff := cmp.Diff(want, snap.CompleteFields); diff != "" {
		t.Errorf("CompleteFields mismatch (-want +got):\n%s", diff)
	}
	if snap.InFieldName != "body" {
		t.Errorf("Expected in-progress field body, got %q", snap.InFieldName)
	}
}

func TestExtract_EscapedQuotesInValues(t *testing.T) {
	snap := Extract(`{"summary": "a \"quoted\" word", "next": "par`)

	want := map[string]any{"summary": `a "quoted" word`}
	if diff := cmp.Diff(want, snap.CompleteFields); diff != "" {
		t.Errorf("CompleteFields mismatch (-want +got):\n%s", diff)
	}
	if snap.InFieldName != "next" {
		t.Errorf("Expected in-progress field next, got %q", snap.InFieldName)
	}
	if snap.PartialValue != "par" {
		t.Errorf("Expected partial value %q, got %q", "par", snap.PartialValue)
	}
}

func TestExtract_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"{",
		"}",
		"not json at all",
		"```",
		"```json",
		`{"a"`,
		`{"a":`,
		`[1, 2, 3]`,
		`"just a string"`,
		strings.Repeat("{", 100),
	}
	for _, in := range inputs {
		snap := Extract(in)
		if snap.CompleteFields == nil {
			t.Errorf("Extract(%q) returned nil CompleteFields", in)
		}
	}
}

func TestExtract_EmptyInputYieldsEmptySnapshot(t *testing.T) {
	snap := Extract("")
	if len(snap.CompleteFields) != 0 || snap.InFieldName != "" || snap.PartialValue != "" {
		t.Errorf("Expected empty snapshot, got %+v", snap)
	}
}

func TestExtract_GrowingBufferConverges(t *testing.T) {
	full := `{"summary": "done.", "themes": ["loss", "memory"], "tone": "sober"}`

	// Every prefix must produce a snapshot without error, and the complete
	// buffer must parse exactly.
	for i := 1; i <= len(full); i++ {
		_ = Extract(full[:i])
	}

	snap := Extract(full)
	want := map[string]any{
		"summary": "done.",
		"themes":  []any{"loss", "memory"},
		"tone":    "sober",
	}
	if diff := cmp.Diff(want, snap.CompleteFields); diff != "" {
		t.Errorf("CompleteFields mismatch (-want +got):\n%s", diff)
	}
}
