// Package stream turns the partially received text of a streaming LLM call
// into a best-effort snapshot of the JSON object it is expected to become:
// which top-level fields have fully arrived, which field is currently
// mid-value, and the partial text seen for it so far.
//
// The caller owns buffer accumulation; Extract is re-run over the whole
// buffer on every chunk and never fails — each parse tier degrades to the
// next one, bottoming out at an empty snapshot.
package stream

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/bookweave/pkg/models"
)

var (
	fenceOpenPattern  = regexp.MustCompile("^```(?:json)?[ \t]*\n?")
	fenceClosePattern = regexp.MustCompile("\n?```[ \t]*$")

	// A complete "key": value pair. Values cover quoted strings (with
	// escapes), numbers, booleans, null, and non-nested arrays/objects; a
	// pair only counts as complete when a comma or closing brace follows,
	// otherwise the value may still be growing.
	pairPattern = regexp.MustCompile(
		`"((?:[^"\\]|\\.)*)"\s*:\s*("(?:[^"\\]|\\.)*"|-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?|true|false|null|\[[^\[\]]*\]|\{[^{}]*\})\s*[,}]`)

	// An open, unterminated string value at the tail of the buffer.
	openStringPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"\s*:\s*"((?:[^"\\]|\\.)*)$`)
	// An open array value with no closing bracket yet.
	openArrayPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"\s*:\s*\[([^\]]*)$`)
)

// Extract produces a snapshot of the JSON object forming in buf. It never
// returns an error: input that defeats every tier yields the empty snapshot.
func Extract(buf string) models.StreamSnapshot {
	snap := models.EmptySnapshot()
	cleaned := stripFences(buf)
	if cleaned == "" {
		return snap
	}

	// Tier 1: the buffer may already be one complete JSON object.
	var whole map[string]any
	if err := json.Unmarshal([]byte(cleaned), &whole); err == nil && whole != nil {
		snap.CompleteFields = whole
		return snap
	}

	// Tier 2: find every complete "key": value pair seen so far.
	matches := pairPattern.FindAllStringSubmatchIndex(cleaned, -1)

	objStart := strings.Index(cleaned, "{")
	searchFrom := 0
	if objStart >= 0 {
		searchFrom = objStart + 1
	}

	if len(matches) > 0 {
		last := matches[len(matches)-1]
		lastValueEnd := last[5] // end of the value group of the last pair
		searchFrom = lastValueEnd

		// Tier 3: reconstruct the object prefix through the last complete
		// pair and parse it whole.
		start := objStart
		if start < 0 || start >= lastValueEnd {
			start = 0
		}
		prefix := strings.TrimRight(cleaned[start:lastValueEnd], " \t\r\n")
		prefix = strings.TrimSuffix(prefix, ",")
		if !strings.HasSuffix(prefix, "}") {
			prefix += "}"
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(prefix), &fields); err != nil {
			// A nested value can break the naive closer; let the repair
			// library rebalance the prefix before giving up on it.
			if repaired, ok := repair(prefix); ok {
				if json.Unmarshal([]byte(repaired), &fields) != nil {
					fields = nil
				}
			}
		}
		if fields != nil {
			for k, v := range fields {
				snap.CompleteFields[k] = v
			}
		} else {
			// Tier 4: assign pairs one at a time, skipping any that fail to
			// parse on their own.
			for _, m := range matches {
				var key string
				if json.Unmarshal([]byte(cleaned[m[2]-1:m[3]+1]), &key) != nil {
					continue
				}
				var val any
				if json.Unmarshal([]byte(cleaned[m[4]:m[5]]), &val) != nil {
					continue
				}
				snap.CompleteFields[key] = val
			}
		}
	}

	// Tier 5: look for a field whose value is still arriving.
	if searchFrom <= len(cleaned) {
		rest := cleaned[searchFrom:]
		if m := openStringPattern.FindStringSubmatch(rest); m != nil {
			snap.InFieldName = unquoteKey(m[1])
			snap.PartialValue = m[2]
		} else if m := openArrayPattern.FindStringSubmatch(rest); m != nil {
			snap.InFieldName = unquoteKey(m[1])
			snap.PartialValue = strings.TrimSpace(m[2])
		}
	}

	return snap
}

// stripFences removes a leading ```json (or bare ```) marker and a trailing
// ``` so fenced responses parse like bare ones.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = fenceOpenPattern.ReplaceAllString(s, "")
	s = fenceClosePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// unquoteKey decodes the escapes of a raw key capture; the raw text is kept
// when decoding fails.
func unquoteKey(raw string) string {
	var key string
	if json.Unmarshal([]byte(`"`+raw+`"`), &key) == nil {
		return key
	}
	return raw
}

// repair runs the jsonrepair library guarded against any failure mode; the
// extractor's contract is that no input can make it blow up.
func repair(s string) (out string, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = "", false
		}
	}()
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return "", false
	}
	return repaired, true
}
