package template

import (
	"sort"

	"github.com/bookweave/pkg/models"
)

// Macro is a reusable prompt fragment addressed as {{@name}}. Macros live in
// their own namespace; they are never variable references.
type Macro struct {
	Name   string
	Body   string
	Stages []models.Stage // stages the macro is available in; empty means all
}

// InStage reports whether the macro may be expanded for the given stage.
func (m Macro) InStage(stage models.Stage) bool {
	if len(m.Stages) == 0 {
		return true
	}
	for _, s := range m.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// MacroSet is a named collection of macros.
type MacroSet struct {
	macros map[string]Macro
}

// NewMacroSet builds a set from the given macros; later duplicates replace
// earlier ones.
func NewMacroSet(macros ...Macro) *MacroSet {
	s := &MacroSet{macros: make(map[string]Macro, len(macros))}
	for _, m := range macros {
		s.macros[m.Name] = m
	}
	return s
}

// Lookup returns the macro by name if it exists and is in scope for stage.
func (s *MacroSet) Lookup(name string, stage models.Stage) (Macro, bool) {
	if s == nil {
		return Macro{}, false
	}
	m, ok := s.macros[name]
	if !ok || !m.InStage(stage) {
		return Macro{}, false
	}
	return m, true
}

// Names returns the macro names in sorted order.
func (s *MacroSet) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.macros))
	for name := range s.macros {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidateMacros returns the {{@name}} invocations that do not resolve in
// the set for the given stage. Like variable scoping problems these are
// warnings, not errors: an unknown macro renders as empty text.
func ValidateMacros(tpl string, stage models.Stage, set *MacroSet) []string {
	var unknown []string
	seen := make(map[string]struct{})
	for _, tok := range Tokenize(tpl) {
		if tok.Kind != TokenMacro {
			continue
		}
		if _, dup := seen[tok.Name]; dup {
			continue
		}
		seen[tok.Name] = struct{}{}
		if _, ok := set.Lookup(tok.Name, stage); !ok {
			unknown = append(unknown, tok.Name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// DefaultMacros returns the built-in macro set applied by the pipeline. Each
// stage gets the fragments its prompts routinely repeat.
func DefaultMacros() *MacroSet {
	fromTranslation := []models.Stage{models.StageTranslation, models.StageOptimization, models.StageProofreading}
	return NewMacroSet(
		Macro{
			Name: "json_output",
			Body: "Respond with a single JSON object and nothing else. Do not wrap it in a code fence.",
		},
		Macro{
			Name:   "analysis_format",
			Stages: []models.Stage{models.StageAnalysis},
			Body: "Structure the analysis as JSON with the fields " +
				`"summary", "themes", "tone", "terminology" and "challenges".`,
		},
		Macro{
			Name:   "translation_rules",
			Stages: fromTranslation,
			Body: "Preserve paragraph boundaries and inline emphasis. Never add translator notes " +
				"inside the translated text. Follow the terminology table exactly.",
		},
		Macro{
			Name:   "terminology_reminder",
			Stages: fromTranslation,
			Body:   "When a term appears in the terminology table, use the agreed translation even if an alternative reads better.",
		},
		Macro{
			Name:   "proofreading_focus",
			Stages: []models.Stage{models.StageProofreading},
			Body:   "Point out mistranslations, omissions and awkward phrasing. Quote the exact span you are commenting on.",
		},
	)
}
