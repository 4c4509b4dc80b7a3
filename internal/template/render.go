package template

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/bookweave/pkg/models"
)

// Values carries the variable values for one render, keyed by the canonical
// reference string (category.name).
type Values map[string]any

const maxMacroDepth = 8

// Render expands a template for one pipeline stage. Missing or empty
// variables fall back to their | default:"..." literal when present and
// otherwise render as empty text; unknown macros render as empty text.
// Rendering only fails on structurally broken templates.
func Render(tpl string, stage models.Stage, vals Values, macros *MacroSet) (string, error) {
	nodes, err := Parse(tpl)
	if err != nil {
		return "", err
	}
	r := &renderer{stage: stage, vals: vals, macros: macros}
	var b strings.Builder
	r.walk(&b, nodes, 0)
	return b.String(), nil
}

type loopFrame struct {
	item  any
	index int
	key   string
}

type renderer struct {
	stage  models.Stage
	vals   Values
	macros *MacroSet
	loops  []loopFrame
}

func (r *renderer) walk(b *strings.Builder, nodes []Node, depth int) {
	for _, n := range nodes {
		switch node := n.(type) {
		case Literal:
			b.WriteString(node.Text)

		case VariableRef:
			val, ok := r.lookup(node.Name)
			if !ok || !truthy(val) {
				if node.HasDefault {
					b.WriteString(node.Default)
				} else if ok {
					b.WriteString(formatValue(val, node.Format))
				}
				continue
			}
			b.WriteString(formatValue(val, node.Format))

		case PseudoRef:
			if len(r.loops) == 0 {
				continue
			}
			frame := r.loops[len(r.loops)-1]
			switch node.Name {
			case "index":
				b.WriteString(strconv.Itoa(frame.index))
			case "key":
				b.WriteString(frame.key)
			case "this":
				b.WriteString(formatValue(frame.item, FormatNone))
			}

		case MacroRef:
			if depth >= maxMacroDepth {
				continue
			}
			macro, ok := r.macros.Lookup(node.Name, r.stage)
			if !ok {
				continue
			}
			// Macro bodies may themselves use the mini-language.
			body, err := Parse(macro.Body)
			if err != nil {
				b.WriteString(macro.Body)
				continue
			}
			r.walk(b, body, depth+1)

		case Conditional:
			pass := r.eval(node.Cond)
			if node.Negate {
				pass = !pass
			}
			if pass {
				r.walk(b, node.Then, depth)
			} else {
				r.walk(b, node.Else, depth)
			}

		case Loop:
			val, ok := r.lookup(node.Source)
			if !ok {
				continue
			}
			r.iterate(val, func(frame loopFrame) {
				r.loops = append(r.loops, frame)
				r.walk(b, node.Body, depth)
				r.loops = r.loops[:len(r.loops)-1]
			})
		}
	}
}

// lookup resolves a reference against the value map. Inside a loop, "this"
// style access is handled by PseudoRef; names here are always registry
// references.
func (r *renderer) lookup(name string) (any, bool) {
	val, ok := r.vals[name]
	return val, ok
}

// eval evaluates a condition in disjunctive form: OR across groups, AND
// inside a group. Unknown operands are false; a condition with no resolvable
// operands is false.
func (r *renderer) eval(cond Condition) bool {
	for _, group := range cond {
		if len(group) == 0 {
			continue
		}
		pass := true
		for _, name := range group {
			val, ok := r.lookup(name)
			if !ok || !truthy(val) {
				pass = false
				break
			}
		}
		if pass {
			return true
		}
	}
	return false
}

func (r *renderer) iterate(val any, fn func(loopFrame)) {
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			fn(loopFrame{item: rv.Index(i).Interface(), index: i})
		}
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		byKey := make(map[string]any, rv.Len())
		for _, k := range rv.MapKeys() {
			ks := fmt.Sprintf("%v", k.Interface())
			keys = append(keys, ks)
			byKey[ks] = rv.MapIndex(k).Interface()
		}
		sort.Strings(keys)
		for i, k := range keys {
			fn(loopFrame{item: byKey[k], index: i, key: k})
		}
	}
}

// truthy mirrors the conditional semantics of the language: empty strings,
// zero numbers, false, nil and empty collections are false.
func truthy(val any) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// formatValue renders a value according to its :format suffix.
func formatValue(val any, format FormatKind) string {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return plain(val)
		}
		return string(out)
	case FormatList:
		items := elements(val)
		if items == nil {
			return plain(val)
		}
		var b strings.Builder
		for _, it := range items {
			b.WriteString("- ")
			b.WriteString(plain(it))
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n")
	case FormatInline:
		items := elements(val)
		if items == nil {
			return plain(val)
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = plain(it)
		}
		return strings.Join(parts, ", ")
	case FormatTerminology:
		return formatTerminology(val)
	case FormatTable:
		return formatTable(val)
	}
	return plain(val)
}

func plain(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", val)
}

// elements flattens a slice value into []any, or nil when the value is not
// a slice.
func elements(val any) []any {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// formatTerminology renders "term → translation" lines from a map or from a
// slice of objects with term/translation fields.
func formatTerminology(val any) string {
	var lines []string
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			lines = append(lines, fmt.Sprintf("%v → %v", k.Interface(), rv.MapIndex(k).Interface()))
		}
	case reflect.Slice, reflect.Array:
		for _, it := range elements(val) {
			entry, ok := it.(map[string]any)
			if !ok {
				lines = append(lines, plain(it))
				continue
			}
			lines = append(lines, fmt.Sprintf("%v → %v", entry["term"], entry["translation"]))
		}
	default:
		return plain(val)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// formatTable renders a markdown table from a slice of homogeneous objects.
// Column order follows the sorted keys of the first row.
func formatTable(val any) string {
	rows := elements(val)
	if len(rows) == 0 {
		return ""
	}
	first, ok := rows[0].(map[string]any)
	if !ok {
		return formatValue(val, FormatList)
	}
	headers := make([]string, 0, len(first))
	for k := range first {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for _, row := range rows {
		entry, ok := row.(map[string]any)
		if !ok {
			continue
		}
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = plain(entry[h])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
