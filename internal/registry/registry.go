// Package registry holds the static table of template variables addressable
// from prompt templates, grouped by category, plus the alias table that maps
// legacy reference strings to their canonical names.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bookweave/pkg/models"
)

// Registry is an immutable snapshot of every addressable template variable.
// Build one with New (or take Default) at startup and share it freely; all
// lookup methods are read-only.
type Registry struct {
	categories []models.VariableCategory
	byFull     map[string]*models.VariableDefinition
	byShort    map[string]*models.VariableDefinition // first declaration wins on collisions
	aliases    map[string]string                     // legacy reference -> canonical fullName
}

// New builds a registry from category definitions and an alias table.
// Every definition's FullName must be unique across the whole registry.
func New(categories []models.VariableCategory, aliases map[string]string) (*Registry, error) {
	r := &Registry{
		categories: categories,
		byFull:     make(map[string]*models.VariableDefinition),
		byShort:    make(map[string]*models.VariableDefinition),
		aliases:    make(map[string]string, len(aliases)),
	}

	for ci := range categories {
		cat := &categories[ci]
		for vi := range cat.Variables {
			def := &cat.Variables[vi]
			if def.FullName == "" {
				def.FullName = cat.Key + "." + def.Name
			}
			if want := cat.Key + "." + def.Name; def.FullName != want {
				return nil, fmt.Errorf("variable %q: full name %q does not match category %q", def.Name, def.FullName, cat.Key)
			}
			if _, dup := r.byFull[def.FullName]; dup {
				return nil, fmt.Errorf("duplicate variable %q", def.FullName)
			}
			r.byFull[def.FullName] = def
			if _, taken := r.byShort[def.Name]; !taken {
				r.byShort[def.Name] = def
			}
		}
	}

	for from, to := range aliases {
		if _, ok := r.byFull[to]; !ok {
			return nil, fmt.Errorf("alias %q points to undefined variable %q", from, to)
		}
		r.aliases[from] = to
	}

	return r, nil
}

// MustNew is New for statically known inputs; it panics on error.
func MustNew(categories []models.VariableCategory, aliases map[string]string) *Registry {
	r, err := New(categories, aliases)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolution is the outcome of looking a reference up in the registry.
type Resolution struct {
	Def      *models.VariableDefinition
	ViaAlias bool // the reference was rewritten through the alias table
}

// Resolve looks up a bare template reference. Order: alias table first, then
// exact fullName, then short-name fallback across all categories (declaration
// order decides collisions). The second return is false when the reference
// matches nothing at all.
func (r *Registry) Resolve(ref string) (Resolution, bool) {
	res := Resolution{}
	if canonical, ok := r.aliases[ref]; ok {
		res.ViaAlias = true
		ref = canonical
	}
	if def, ok := r.byFull[ref]; ok {
		res.Def = def
		return res, true
	}
	if def, ok := r.byShort[ref]; ok {
		res.Def = def
		return res, true
	}
	return Resolution{}, false
}

// ForStage returns every definition in scope for the given stage, sorted by
// fullName.
func (r *Registry) ForStage(stage models.Stage) []models.VariableDefinition {
	var out []models.VariableDefinition
	for _, cat := range r.categories {
		for _, def := range cat.Variables {
			if def.InStage(stage) {
				out = append(out, def)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// RequiredFor returns the fullNames of variables a template for the stage is
// expected to reference.
func (r *Registry) RequiredFor(stage models.Stage) []string {
	var out []string
	for _, def := range r.ForStage(stage) {
		if def.Required {
			out = append(out, def.FullName)
		}
	}
	return out
}

// Categories returns the category groupings in declaration order.
func (r *Registry) Categories() []models.VariableCategory {
	return r.categories
}

// Category returns the grouping with the given key.
func (r *Registry) Category(key string) (models.VariableCategory, bool) {
	for _, cat := range r.categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return models.VariableCategory{}, false
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// Len returns the total number of definitions.
func (r *Registry) Len() int {
	return len(r.byFull)
}

// WithUserVariables returns a new registry extended with user-defined
// variables (placed in the "user" category) and extra aliases. The receiver
// is not modified.
func (r *Registry) WithUserVariables(vars []models.VariableDefinition, aliases map[string]string) (*Registry, error) {
	categories := make([]models.VariableCategory, len(r.categories))
	copy(categories, r.categories)

	if len(vars) > 0 {
		idx := -1
		for i, cat := range categories {
			if cat.Key == "user" {
				idx = i
				break
			}
		}
		if idx == -1 {
			categories = append(categories, models.VariableCategory{Key: "user", Label: "User", Icon: models.IconUser})
			idx = len(categories) - 1
		}
		merged := make([]models.VariableDefinition, 0, len(categories[idx].Variables)+len(vars))
		merged = append(merged, categories[idx].Variables...)
		for _, v := range vars {
			if !strings.HasPrefix(v.FullName, "user.") && v.FullName != "" {
				return nil, fmt.Errorf("user variable %q must live in the user category", v.FullName)
			}
			merged = append(merged, v)
		}
		categories[idx].Variables = merged
	}

	mergedAliases := r.Aliases()
	for from, to := range aliases {
		mergedAliases[from] = to
	}

	return New(categories, mergedAliases)
}
