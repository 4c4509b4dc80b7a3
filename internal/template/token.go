// Package template implements the prompt template mini-language used by the
// translation pipeline: {{category.name}} interpolation with fallback
// defaults and typed formatting, {{#if}}/{{#each}}/{{#unless}} blocks with
// &&/|| combinators, and {{@macro}} invocations. Reference extraction,
// syntax validation, semantic validation against the variable registry, and
// rendering all derive from one tokenizer instead of separate regex passes
// over the same text.
package template

import (
	"regexp"
	"strings"
)

// TokenKind classifies one {{...}} occurrence.
type TokenKind int

const (
	TokenVar        TokenKind = iota // {{ns.name}}, optionally :format or | default:"..."
	TokenBlockOpen                   // {{#if expr}}, {{#each src}}, {{#unless expr}}
	TokenBlockClose                  // {{/if}}, {{/each}}, {{/unless}}
	TokenElse                        // {{#else}}
	TokenMacro                       // {{@macro_name}}
	TokenPseudo                      // {{@index}}, {{@key}}, {{this}}
	TokenUnknown                     // anything else between braces; never a reference
)

// BlockKind names a block tag.
type BlockKind string

const (
	BlockIf     BlockKind = "if"
	BlockEach   BlockKind = "each"
	BlockUnless BlockKind = "unless"
)

// FormatKind is the typed-formatting suffix of an interpolation.
type FormatKind string

const (
	FormatNone        FormatKind = ""
	FormatList        FormatKind = "list"
	FormatTable       FormatKind = "table"
	FormatTerminology FormatKind = "terminology"
	FormatJSON        FormatKind = "json"
	FormatInline      FormatKind = "inline"
)

// Token is one parsed {{...}} tag with its source position.
type Token struct {
	Kind       TokenKind
	Block      BlockKind // open/close tags only
	Expr       string    // raw condition or loop source for open tags
	Name       string    // variable or macro name
	Format     FormatKind
	Default    string // fallback literal for | default:"..."
	HasDefault bool
	Offset     int // byte offset of the opening {{
	End        int // byte offset just past the closing }}
	Line       int // 1-based
	Column     int // 1-based
}

var (
	refNamePattern = regexp.MustCompile(`^\w+(\.\w+)*$`)
	// {{ns.name}} optionally followed by :format
	varExprPattern = regexp.MustCompile(`^(\w+(?:\.\w+)*)(?::(list|table|terminology|json|inline))?$`)
	// default:"..." with escaped characters allowed inside the literal
	defaultPattern = regexp.MustCompile(`^default:"((?:[^"\\]|\\.)*)"$`)
	macroPattern   = regexp.MustCompile(`^@(\w+)$`)
)

// Tokenize scans the template and returns every {{...}} tag in order of
// appearance. Literal text between tags is not tokenized; callers that need
// it (the renderer) slice the source using Offset/End. An opening {{ with no
// closing }} terminates the scan; the syntax validator reports the imbalance
// from raw brace counts.
func Tokenize(tpl string) []Token {
	var tokens []Token
	line, col := 1, 1
	pos := 0

	for {
		rel := strings.Index(tpl[pos:], "{{")
		if rel == -1 {
			break
		}
		// Advance line/column bookkeeping over the skipped literal run.
		for _, r := range tpl[pos : pos+rel] {
			if r == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
		start := pos + rel

		endRel := strings.Index(tpl[start+2:], "}}")
		if endRel == -1 {
			break
		}
		end := start + 2 + endRel + 2
		inner := strings.TrimSpace(tpl[start+2 : end-2])

		tok := classify(inner)
		tok.Offset = start
		tok.End = end
		tok.Line = line
		tok.Column = col

		tokens = append(tokens, tok)

		for _, r := range tpl[start:end] {
			if r == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
		pos = end
	}
	return tokens
}

func classify(inner string) Token {
	switch {
	case inner == "#else":
		return Token{Kind: TokenElse}
	case strings.HasPrefix(inner, "#if "):
		return Token{Kind: TokenBlockOpen, Block: BlockIf, Expr: strings.TrimSpace(inner[4:])}
	case strings.HasPrefix(inner, "#each "):
		return Token{Kind: TokenBlockOpen, Block: BlockEach, Expr: strings.TrimSpace(inner[6:])}
	case strings.HasPrefix(inner, "#unless "):
		return Token{Kind: TokenBlockOpen, Block: BlockUnless, Expr: strings.TrimSpace(inner[8:])}
	case strings.HasPrefix(inner, "/"):
		kind := BlockKind(strings.TrimSpace(inner[1:]))
		switch kind {
		case BlockIf, BlockEach, BlockUnless:
			return Token{Kind: TokenBlockClose, Block: kind}
		}
		return Token{Kind: TokenUnknown, Expr: inner}
	case inner == "@index" || inner == "@key" || inner == "this":
		return Token{Kind: TokenPseudo, Name: strings.TrimPrefix(inner, "@")}
	case strings.HasPrefix(inner, "@"):
		if m := macroPattern.FindStringSubmatch(inner); m != nil {
			return Token{Kind: TokenMacro, Name: m[1]}
		}
		return Token{Kind: TokenUnknown, Expr: inner}
	}
	return classifyVar(inner)
}

// classifyVar parses a plain interpolation: name, optional :format, optional
// | default:"literal" fallback.
func classifyVar(inner string) Token {
	expr := inner
	tok := Token{Kind: TokenVar}

	if bar := strings.Index(expr, "|"); bar != -1 {
		fallback := strings.TrimSpace(expr[bar+1:])
		m := defaultPattern.FindStringSubmatch(fallback)
		if m == nil {
			return Token{Kind: TokenUnknown, Expr: inner}
		}
		tok.Default = unescapeLiteral(m[1])
		tok.HasDefault = true
		expr = strings.TrimSpace(expr[:bar])
	}

	m := varExprPattern.FindStringSubmatch(expr)
	if m == nil {
		return Token{Kind: TokenUnknown, Expr: inner}
	}
	tok.Name = m[1]
	tok.Format = FormatKind(m[2])
	return tok
}

// ConditionOperands splits an #if/#unless expression on its &&/||
// combinators and returns the operands that look like variable references.
// Anything that does not match the reference name shape is dropped.
func ConditionOperands(expr string) []string {
	var out []string
	for _, orPart := range strings.Split(expr, "||") {
		for _, andPart := range strings.Split(orPart, "&&") {
			name := strings.TrimSpace(andPart)
			if refNamePattern.MatchString(name) {
				out = append(out, name)
			}
		}
	}
	return out
}

// unescapeLiteral decodes the escapes permitted inside a default:"..."
// literal: \" \\ \n \t; anything else is kept verbatim.
func unescapeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	esc := false
	for _, r := range s {
		if !esc {
			if r == '\\' {
				esc = true
				continue
			}
			b.WriteRune(r)
			continue
		}
		switch r {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
		esc = false
	}
	if esc {
		b.WriteByte('\\')
	}
	return b.String()
}
