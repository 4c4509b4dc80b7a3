package registry

import "github.com/bookweave/pkg/models"

// Default returns the built-in registry used by the translation pipeline.
// The table is static: definitions are never created or removed at runtime.
func Default() *Registry {
	return MustNew(defaultCategories(), defaultAliases())
}

func defaultAliases() map[string]string {
	return map[string]string{
		// Pre-pipeline-split reference names kept resolvable for old templates.
		"content.source_text":      "content.source",
		"content.paragraph_text":   "content.paragraph",
		"pipeline.analysis_result": "pipeline.analysis_report",
		"pipeline.glossary":        "pipeline.terminology",
	}
}

func defaultCategories() []models.VariableCategory {
	all := models.AllStages
	fromTranslation := []models.Stage{models.StageTranslation, models.StageOptimization, models.StageProofreading}
	lateStages := []models.Stage{models.StageOptimization, models.StageProofreading}

	return []models.VariableCategory{
		{
			Key: "project", Label: "Project", Icon: models.IconBook,
			Variables: []models.VariableDefinition{
				{Name: "title", FullName: "project.title", Type: models.TypeString, Description: "Book title", Stages: all, Required: true},
				{Name: "author", FullName: "project.author", Type: models.TypeString, Description: "Book author", Stages: all},
				{Name: "source_language", FullName: "project.source_language", Type: models.TypeString, Description: "Language of the original text", Stages: all, Required: true},
				{Name: "target_language", FullName: "project.target_language", Type: models.TypeString, Description: "Language to translate into", Stages: all, Required: true},
				{Name: "genre", FullName: "project.genre", Type: models.TypeString, Description: "Literary genre", Stages: all},
				{Name: "description", FullName: "project.description", Type: models.TypeMarkdown, Description: "Free-form project notes", Stages: all},
			},
		},
		{
			Key: "content", Label: "Content", Icon: models.IconDocument,
			Variables: []models.VariableDefinition{
				{Name: "source", FullName: "content.source", Type: models.TypeMarkdown, Description: "Full source text of the current chapter", Stages: []models.Stage{models.StageAnalysis}, Required: true},
				{Name: "paragraph", FullName: "content.paragraph", Type: models.TypeString, Description: "Source paragraph being translated", Stages: fromTranslation, Required: true},
				{Name: "chapter_title", FullName: "content.chapter_title", Type: models.TypeString, Description: "Title of the current chapter", Stages: all},
				{Name: "original_text", FullName: "content.original_text", Type: models.TypeString, Description: "Old name for the source paragraph", Stages: fromTranslation, CanonicalName: "content.paragraph", IsLegacy: true},
			},
		},
		{
			Key: "context", Label: "Context", Icon: models.IconContext,
			Variables: []models.VariableDefinition{
				{Name: "previous_paragraphs", FullName: "context.previous_paragraphs", Type: models.TypeArray, Description: "Source paragraphs immediately before the current one", Stages: fromTranslation},
				{Name: "previous_translations", FullName: "context.previous_translations", Type: models.TypeArray, Description: "Translations already produced for preceding paragraphs", Stages: fromTranslation},
				{Name: "following_paragraphs", FullName: "context.following_paragraphs", Type: models.TypeArray, Description: "Source paragraphs immediately after the current one", Stages: fromTranslation},
				{Name: "chapter_summary", FullName: "context.chapter_summary", Type: models.TypeMarkdown, Description: "Running summary of the chapter so far", Stages: fromTranslation},
			},
		},
		{
			Key: "pipeline", Label: "Pipeline", Icon: models.IconPipeline,
			Variables: []models.VariableDefinition{
				{Name: "analysis_report", FullName: "pipeline.analysis_report", Type: models.TypeMarkdown, Description: "Output of the analysis stage", Stages: fromTranslation, Required: true},
				{Name: "terminology", FullName: "pipeline.terminology", Type: models.TypeTerminology, Description: "Agreed term translations", Stages: fromTranslation},
				{Name: "style_guide", FullName: "pipeline.style_guide", Type: models.TypeMarkdown, Description: "Tone and style constraints", Stages: fromTranslation},
				{Name: "draft_translation", FullName: "pipeline.draft_translation", Type: models.TypeString, Description: "Translation produced by the previous stage", Stages: lateStages, Required: true},
				{Name: "reader_feedback", FullName: "pipeline.reader_feedback", Type: models.TypeArray, Description: "Proofreading chat notes attached to the paragraph", Stages: []models.Stage{models.StageProofreading}},
			},
		},
		{
			Key: "derived", Label: "Derived", Icon: models.IconGauge,
			Variables: []models.VariableDefinition{
				{Name: "chapter_index", FullName: "derived.chapter_index", Type: models.TypeNumber, Description: "1-based index of the current chapter", Stages: all},
				{Name: "paragraph_index", FullName: "derived.paragraph_index", Type: models.TypeNumber, Description: "1-based index of the current paragraph", Stages: fromTranslation},
				{Name: "word_count", FullName: "derived.word_count", Type: models.TypeNumber, Description: "Word count of the current unit", Stages: all},
				{Name: "progress_percent", FullName: "derived.progress_percent", Type: models.TypeNumber, Description: "Completion percentage for the book", Stages: all},
			},
		},
		{
			Key: "meta", Label: "Meta", Icon: models.IconGear,
			Variables: []models.VariableDefinition{
				{Name: "stage", FullName: "meta.stage", Type: models.TypeString, Description: "Name of the running pipeline stage", Stages: all},
				{Name: "model_name", FullName: "meta.model_name", Type: models.TypeString, Description: "LLM model handling the request", Stages: all},
				{Name: "timestamp", FullName: "meta.timestamp", Type: models.TypeString, Description: "Invocation time, RFC 3339", Stages: all},
			},
		},
		{
			Key: "user", Label: "User", Icon: models.IconUser,
			// Populated from configuration; empty by default.
		},
	}
}
