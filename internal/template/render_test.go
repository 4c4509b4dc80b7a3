package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookweave/pkg/models"
)

func render(t *testing.T, tpl string, vals Values) string {
	t.Helper()
	out, err := Render(tpl, models.StageTranslation, vals, DefaultMacros())
	require.NoError(t, err)
	return out
}

func TestRender_Substitution(t *testing.T) {
	out := render(t, "Translate {{project.title}} into {{project.target_language}}.",
		Values{"project.title": "The Trial", "project.target_language": "French"})
	assert.Equal(t, "Translate The Trial into French.", out)
}

func TestRender_DefaultFallback(t *testing.T) {
	out := render(t, `Author: {{project.author | default:"unknown"}}`, Values{})
	assert.Equal(t, "Author: unknown", out)

	out = render(t, `Author: {{project.author | default:"unknown"}}`, Values{"project.author": "Kafka"})
	assert.Equal(t, "Author: Kafka", out)

	// Present but empty also falls back.
	out = render(t, `Author: {{project.author | default:"unknown"}}`, Values{"project.author": ""})
	assert.Equal(t, "Author: unknown", out)
}

func TestRender_MissingWithoutDefaultIsEmpty(t *testing.T) {
	out := render(t, "[{{project.genre}}]", Values{})
	assert.Equal(t, "[]", out)
}

func TestRender_TypedFormats(t *testing.T) {
	vals := Values{
		"context.previous_paragraphs": []any{"First.", "Second."},
		"pipeline.terminology":        map[string]any{"Prozess": "trial", "Schloss": "castle"},
		"derived.word_count":          float64(42),
	}

	assert.Equal(t, "- First.\n- Second.", render(t, "{{context.previous_paragraphs:list}}", vals))
	assert.Equal(t, "First., Second.", render(t, "{{context.previous_paragraphs:inline}}", vals))
	assert.Equal(t, "Prozess → trial\nSchloss → castle", render(t, "{{pipeline.terminology:terminology}}", vals))
	assert.Equal(t, "42", render(t, "{{derived.word_count}}", vals))

	jsonOut := render(t, "{{context.previous_paragraphs:json}}", vals)
	assert.Contains(t, jsonOut, `"First."`)
	assert.Contains(t, jsonOut, `"Second."`)
}

func TestRender_TableFormat(t *testing.T) {
	vals := Values{
		"pipeline.reader_feedback": []any{
			map[string]any{"line": float64(3), "note": "too literal"},
			map[string]any{"line": float64(7), "note": "great rhythm"},
		},
	}
	out := render(t, "{{pipeline.reader_feedback:table}}", vals)
	assert.Equal(t, "| line | note |\n| --- | --- |\n| 3 | too literal |\n| 7 | great rhythm |", out)
}

func TestRender_Conditionals(t *testing.T) {
	tpl := `{{#if pipeline.style_guide}}Follow the style guide.{{#else}}Use your judgement.{{/if}}`

	assert.Equal(t, "Follow the style guide.", render(t, tpl, Values{"pipeline.style_guide": "short sentences"}))
	assert.Equal(t, "Use your judgement.", render(t, tpl, Values{}))

	unless := `{{#unless pipeline.terminology}}No terminology yet.{{/unless}}`
	assert.Equal(t, "No terminology yet.", render(t, unless, Values{}))
	assert.Equal(t, "", render(t, unless, Values{"pipeline.terminology": map[string]any{"a": "b"}}))
}

func TestRender_ConditionCombinators(t *testing.T) {
	tpl := `{{#if a.x && a.y}}both{{/if}}{{#if a.x || a.z}}either{{/if}}`

	out := render(t, tpl, Values{"a.x": "1"})
	assert.Equal(t, "either", out)

	out = render(t, tpl, Values{"a.x": "1", "a.y": "1"})
	assert.Equal(t, "botheither", out)

	out = render(t, tpl, Values{"a.z": true})
	assert.Equal(t, "either", out)
}

func TestRender_Loops(t *testing.T) {
	tpl := `{{#each context.previous_translations}}{{@index}}: {{this}}
{{/each}}`
	out := render(t, tpl, Values{"context.previous_translations": []any{"Un.", "Deux."}})
	assert.Equal(t, "0: Un.\n1: Deux.\n", out)
}

func TestRender_LoopOverMapUsesKey(t *testing.T) {
	tpl := `{{#each pipeline.terminology}}{{@key}}={{this}};{{/each}}`
	out := render(t, tpl, Values{"pipeline.terminology": map[string]any{"b": "2", "a": "1"}})
	// Map iteration is sorted by key for deterministic prompts.
	assert.Equal(t, "a=1;b=2;", out)
}

func TestRender_MacroExpansion(t *testing.T) {
	macros := NewMacroSet(
		Macro{Name: "sign_off", Body: "Project: {{project.title}}"},
		Macro{Name: "analysis_only", Stages: []models.Stage{models.StageAnalysis}, Body: "never here"},
	)

	out, err := Render("{{@sign_off}} / {{@analysis_only}} / {{@unknown}}",
		models.StageTranslation, Values{"project.title": "The Trial"}, macros)
	require.NoError(t, err)
	assert.Equal(t, "Project: The Trial /  / ", out)
}

func TestRender_StructurallyBrokenTemplateFails(t *testing.T) {
	_, err := Render("{{#if a}}never closed", models.StageTranslation, Values{}, DefaultMacros())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclosed")
}

func TestValidateMacros(t *testing.T) {
	set := DefaultMacros()

	unknown := ValidateMacros("{{@json_output}} {{@made_up}}", models.StageTranslation, set)
	assert.Equal(t, []string{"made_up"}, unknown)

	// analysis_format is registered, but only for the analysis stage.
	unknown = ValidateMacros("{{@analysis_format}}", models.StageTranslation, set)
	assert.Equal(t, []string{"analysis_format"}, unknown)
	assert.Empty(t, ValidateMacros("{{@analysis_format}}", models.StageAnalysis, set))
}

func TestParse_Shape(t *testing.T) {
	nodes, err := Parse(`a {{x.y}} {{#if c.d}}t{{#else}}e{{/if}}`)
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	assert.Equal(t, Literal{Text: "a "}, nodes[0])
	assert.Equal(t, VariableRef{Name: "x.y"}, nodes[1])
	assert.Equal(t, Literal{Text: " "}, nodes[2])

	cond, ok := nodes[3].(Conditional)
	require.True(t, ok)
	assert.Equal(t, Condition{{"c.d"}}, cond.Cond)
	assert.Equal(t, []Node{Literal{Text: "t"}}, cond.Then)
	assert.Equal(t, []Node{Literal{Text: "e"}}, cond.Else)
}
