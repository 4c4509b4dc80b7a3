package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReferences_AllForms(t *testing.T) {
	tpl := `Translate "{{project.title}}" by {{project.author | default:"unknown"}}.

Terminology:
{{pipeline.terminology:terminology}}

{{#if context.chapter_summary && project.genre}}
Keep the {{project.genre}} register.
{{/if}}
{{#unless derived.word_count}}No length constraint.{{/unless}}
{{#each context.previous_paragraphs}}
{{@index}}. {{this}}
{{/each}}
{{@json_output}}`

	refs := ExtractReferences(tpl)

	assert.ElementsMatch(t, []string{
		"project.title",
		"project.author",
		"pipeline.terminology",
		"context.chapter_summary",
		"project.genre",
		"derived.word_count",
		"context.previous_paragraphs",
	}, refs)
}

func TestExtractReferences_SetSemantics(t *testing.T) {
	// The same name in several syntactic forms is reported once.
	tpl := `{{content.paragraph}} {{#if content.paragraph}}{{content.paragraph:json}}{{/if}} {{content.paragraph | default:"x"}}`
	refs := ExtractReferences(tpl)
	assert.Equal(t, []string{"content.paragraph"}, refs)
}

func TestExtractReferences_Idempotent(t *testing.T) {
	tpl := `{{a.b}} {{#each c.d}}{{this}}{{/each}} {{#if e || f.g}}x{{/if}}`
	first := ExtractReferences(tpl)
	second := ExtractReferences(tpl)
	assert.Equal(t, first, second)
}

func TestExtractReferences_PseudoVariablesExcluded(t *testing.T) {
	tpl := `{{#each pipeline.reader_feedback}}{{@index}} {{@key}} {{this}}{{/each}}`
	refs := ExtractReferences(tpl)
	assert.Equal(t, []string{"pipeline.reader_feedback"}, refs)
	assert.NotContains(t, refs, "@index")
	assert.NotContains(t, refs, "@key")
	assert.NotContains(t, refs, "this")
}

func TestExtractReferences_MacrosExcluded(t *testing.T) {
	refs := ExtractReferences(`{{@translation_rules}} {{content.paragraph}}`)
	assert.Equal(t, []string{"content.paragraph"}, refs)
}

func TestExtractReferences_ConditionOperators(t *testing.T) {
	refs := ExtractReferences(`{{#if a.b && c.d}}x{{/if}} {{#if e.f || g}}y{{/if}}`)
	assert.ElementsMatch(t, []string{"a.b", "c.d", "e.f", "g"}, refs)
}

func TestExtractReferences_MalformedNamesIgnored(t *testing.T) {
	tpl := `{{foo-bar}} {{a..b}} {{ }} {{project.title}}`
	refs := ExtractReferences(tpl)
	assert.Equal(t, []string{"project.title"}, refs)
}

func TestExtractReferences_Empty(t *testing.T) {
	assert.Empty(t, ExtractReferences("no tags here"))
	assert.Empty(t, ExtractReferences(""))
}
