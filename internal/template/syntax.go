package template

import (
	"fmt"
	"strings"

	"github.com/bookweave/pkg/models"
)

const snippetLimit = 60

// ValidateSyntax checks the structural well-formedness of a template without
// consulting the variable registry. All problems are collected and returned;
// the scan never stops at the first error.
//
// Checks run in priority order: global {{ / }} balance, per-kind open/close
// tag counts, then a stack scan over the ordered block tags for nesting
// errors (unexpected close, mismatched close, unclosed open).
func ValidateSyntax(tpl string) []models.SyntaxError {
	var errs []models.SyntaxError

	opens := strings.Count(tpl, "{{")
	closes := strings.Count(tpl, "}}")
	if opens != closes {
		errs = append(errs, models.SyntaxError{
			Message: fmt.Sprintf("unbalanced braces: %d opening '{{' but %d closing '}}'", opens, closes),
		})
	}

	tokens := Tokenize(tpl)

	for _, kind := range []BlockKind{BlockIf, BlockEach, BlockUnless} {
		openCount, closeCount := 0, 0
		for _, tok := range tokens {
			if tok.Block != kind {
				continue
			}
			switch tok.Kind {
			case TokenBlockOpen:
				openCount++
			case TokenBlockClose:
				closeCount++
			}
		}
		if openCount != closeCount {
			errs = append(errs, models.SyntaxError{
				Message: fmt.Sprintf("unbalanced #%s blocks: %d opening tag(s) but %d closing tag(s)", kind, openCount, closeCount),
			})
		}
	}

	// Nesting check. A mismatched closing tag does not pop the stack; only
	// an exact kind match does.
	type openTag struct {
		kind BlockKind
		tok  Token
	}
	var stack []openTag

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenBlockOpen:
			stack = append(stack, openTag{kind: tok.Block, tok: tok})
		case TokenBlockClose:
			if len(stack) == 0 {
				errs = append(errs, positioned(tpl, tok,
					fmt.Sprintf("unexpected closing tag {{/%s}}: no matching opening tag", tok.Block)))
				continue
			}
			top := stack[len(stack)-1]
			if top.kind != tok.Block {
				errs = append(errs, positioned(tpl, tok,
					fmt.Sprintf("mismatched block: expected close of #%s, found close of #%s", top.kind, tok.Block)))
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}

	for _, open := range stack {
		errs = append(errs, positioned(tpl, open.tok,
			fmt.Sprintf("unclosed block {{#%s}}", open.kind)))
	}

	return errs
}

func positioned(tpl string, tok Token, msg string) models.SyntaxError {
	return models.SyntaxError{
		Message: msg,
		Line:    tok.Line,
		Column:  tok.Column,
		Context: snippet(tpl, tok.Offset),
	}
}

// snippet returns up to snippetLimit characters of source starting at the
// offending position, ellipsized and with newlines escaped so it fits on one
// diagnostic line.
func snippet(tpl string, offset int) string {
	if offset < 0 || offset > len(tpl) {
		return ""
	}
	rest := tpl[offset:]
	truncated := false
	if len(rest) > snippetLimit-3 {
		rest = rest[:snippetLimit-3]
		truncated = true
	}
	rest = strings.ReplaceAll(rest, "\n", `\n`)
	if truncated {
		rest += "..."
	}
	return rest
}
