package models

import "fmt"

// Pipeline models

// Stage is one phase of the translation pipeline. A template is always
// authored for a specific stage; the stage decides which variables are in
// scope and which default macros apply.
type Stage string

const (
	StageAnalysis     Stage = "analysis"
	StageTranslation  Stage = "translation"
	StageOptimization Stage = "optimization"
	StageProofreading Stage = "proofreading"
)

// AllStages lists every pipeline stage in execution order.
var AllStages = []Stage{StageAnalysis, StageTranslation, StageOptimization, StageProofreading}

// ParseStage converts a user-supplied string into a Stage.
func ParseStage(s string) (Stage, error) {
	for _, st := range AllStages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q (expected one of analysis, translation, optimization, proofreading)", s)
}

// VariableType describes the shape of a template variable's value.
type VariableType string

const (
	TypeString      VariableType = "string"
	TypeNumber      VariableType = "number"
	TypeBoolean     VariableType = "boolean"
	TypeArray       VariableType = "array"
	TypeObject      VariableType = "object"
	TypeMarkdown    VariableType = "markdown"
	TypeTable       VariableType = "table"
	TypeTerminology VariableType = "terminology"
)

// ParseVariableType converts a user-supplied string into a VariableType.
func ParseVariableType(s string) (VariableType, error) {
	switch VariableType(s) {
	case TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject, TypeMarkdown, TypeTable, TypeTerminology:
		return VariableType(s), nil
	}
	return "", fmt.Errorf("unknown variable type %q", s)
}

// Template variable models

// VariableDefinition is one addressable template variable. Definitions are
// registered once at startup and are immutable afterwards.
type VariableDefinition struct {
	Name          string       `json:"name"`      // short identifier, unique within its category
	FullName      string       `json:"full_name"` // category.name, the canonical reference string
	Type          VariableType `json:"type"`
	Description   string       `json:"description,omitempty"`
	Stages        []Stage      `json:"stages"`   // stages where the variable resolves to a value
	Required      bool         `json:"required"` // the stage's template is expected to use it
	CanonicalName string       `json:"canonical_name,omitempty"`
	IsLegacy      bool         `json:"is_legacy,omitempty"`
}

// InStage reports whether the definition is in scope for the given stage.
func (d VariableDefinition) InStage(stage Stage) bool {
	for _, s := range d.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// VariableCategory groups definitions under a display label and icon tag.
type VariableCategory struct {
	Key       string               `json:"key"` // project|content|context|pipeline|derived|meta|user
	Label     string               `json:"label"`
	Icon      IconTag              `json:"icon"`
	Variables []VariableDefinition `json:"variables"`
}

// IconTag names the glyph a UI should use for a category. Kept as a closed
// enum so renderers map it with a default arm instead of matching on
// free-form strings.
type IconTag string

const (
	IconBook      IconTag = "book"
	IconDocument  IconTag = "document"
	IconContext   IconTag = "context"
	IconPipeline  IconTag = "pipeline"
	IconGauge     IconTag = "gauge"
	IconGear      IconTag = "gear"
	IconUser      IconTag = "user"
	IconUndefined IconTag = "undefined"
)

// Validation result models

// ValidationResult classifies every variable reference found in a template
// against a stage. Legacy is a subset of Valid: a legacy reference appears
// in both lists.
type ValidationResult struct {
	Valid    []string `json:"valid"`
	Invalid  []string `json:"invalid"`
	Warnings []string `json:"warnings"` // defined somewhere, but out of scope for the stage
	Legacy   []string `json:"legacy"`
}

// Clean reports whether the template had no invalid references. Warnings and
// legacy references do not make a template unclean.
func (r ValidationResult) Clean() bool {
	return len(r.Invalid) == 0
}

// SyntaxError is one structural problem found in a template. Line and Column
// are 1-based; both are 0 when the error has no single source position (for
// example a global brace-count mismatch).
type SyntaxError struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Context string `json:"context,omitempty"` // short ellipsized snippet around the position
}

func (e SyntaxError) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// Streaming extractor models

// StreamSnapshot is a best-effort view over a partially received LLM
// response that is expected to eventually form one JSON object.
type StreamSnapshot struct {
	// CompleteFields holds every top-level field whose value has fully
	// arrived, already unmarshalled.
	CompleteFields map[string]any `json:"complete_fields"`
	// InFieldName is the key currently receiving its value, or "" when no
	// field is mid-stream.
	InFieldName string `json:"in_field_name,omitempty"`
	// PartialValue is the raw text seen so far for InFieldName.
	PartialValue string `json:"partial_value,omitempty"`
}

// EmptySnapshot is the most conservative extractor result.
func EmptySnapshot() StreamSnapshot {
	return StreamSnapshot{CompleteFields: map[string]any{}}
}
