package template

import (
	"github.com/bookweave/internal/registry"
	"github.com/bookweave/pkg/models"
)

// ValidateSemantics classifies every variable reference in the template
// against the registry for one pipeline stage:
//
//   - valid: resolves to a definition whose stages include the target stage
//   - legacy: valid, and reached through a legacy definition or the alias
//     table (always also present in valid)
//   - warning: resolves to a definition, but one out of scope for the stage
//   - invalid: resolves to nothing under any stage
//
// Resolution order is the registry's: alias table, exact fullName, then
// short-name fallback across categories.
func ValidateSemantics(tpl string, stage models.Stage, reg *registry.Registry) models.ValidationResult {
	result := models.ValidationResult{
		Valid:    []string{},
		Invalid:  []string{},
		Warnings: []string{},
		Legacy:   []string{},
	}

	for _, ref := range ExtractReferences(tpl) {
		res, ok := reg.Resolve(ref)
		if !ok {
			result.Invalid = append(result.Invalid, ref)
			continue
		}
		if !res.Def.InStage(stage) {
			result.Warnings = append(result.Warnings, ref)
			continue
		}
		result.Valid = append(result.Valid, ref)
		if res.Def.IsLegacy || res.ViaAlias {
			result.Legacy = append(result.Legacy, ref)
		}
	}

	return result
}
