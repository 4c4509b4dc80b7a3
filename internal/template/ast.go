package template

import (
	"fmt"
	"strings"
)

// Node is one element of a parsed template tree.
type Node interface{ node() }

// Literal is a run of plain text between tags.
type Literal struct {
	Text string
}

// VariableRef is a {{name}} interpolation, optionally with a :format suffix
// or a | default:"..." fallback.
type VariableRef struct {
	Name       string
	Format     FormatKind
	Default    string
	HasDefault bool
}

// Condition is an #if/#unless expression in disjunctive form: the outer
// slice is joined with ||, each inner group with &&.
type Condition [][]string

// Conditional is an #if (or #unless, with Negate set) block.
type Conditional struct {
	Cond   Condition
	Negate bool
	Then   []Node
	Else   []Node
}

// Loop is an #each block over a named variable.
type Loop struct {
	Source string
	Body   []Node
}

// MacroRef is a {{@name}} macro invocation.
type MacroRef struct {
	Name string
}

// PseudoRef is a loop-local pseudo-variable: index, key or this.
type PseudoRef struct {
	Name string
}

func (Literal) node()     {}
func (VariableRef) node() {}
func (Conditional) node() {}
func (Loop) node()        {}
func (MacroRef) node()    {}
func (PseudoRef) node()   {}

// Parse builds the template tree. It expects structurally valid input; run
// ValidateSyntax first when the template comes from a user. Tags that are
// not part of the mini-language are preserved as literal text.
func Parse(tpl string) ([]Node, error) {
	p := &parser{tpl: tpl, toks: Tokenize(tpl)}
	nodes, stoppedAtElse, err := p.parseNodes("")
	if err != nil {
		return nil, err
	}
	if stoppedAtElse {
		return nil, fmt.Errorf("{{#else}} outside of a conditional block")
	}
	return nodes, nil
}

type parser struct {
	tpl  string
	toks []Token
	i    int // next token
	pos  int // byte cursor into tpl for literal runs
}

// parseNodes consumes tokens until the closing tag of kind until (or the end
// of input when until is empty). It also stops at {{#else}}, reporting that
// through the second return so the conditional caller can pick up the else
// branch.
func (p *parser) parseNodes(until BlockKind) ([]Node, bool, error) {
	var nodes []Node

	appendLiteral := func(to int) {
		if to > p.pos {
			nodes = append(nodes, Literal{Text: p.tpl[p.pos:to]})
		}
	}

	for p.i < len(p.toks) {
		tok := p.toks[p.i]
		appendLiteral(tok.Offset)
		p.pos = tok.End
		p.i++

		switch tok.Kind {
		case TokenVar:
			nodes = append(nodes, VariableRef{Name: tok.Name, Format: tok.Format, Default: tok.Default, HasDefault: tok.HasDefault})

		case TokenMacro:
			nodes = append(nodes, MacroRef{Name: tok.Name})

		case TokenPseudo:
			nodes = append(nodes, PseudoRef{Name: tok.Name})

		case TokenUnknown:
			// Not part of the language; keep the raw text.
			nodes = append(nodes, Literal{Text: p.tpl[tok.Offset:tok.End]})

		case TokenElse:
			if until == BlockIf || until == BlockUnless {
				return nodes, true, nil
			}
			return nil, false, fmt.Errorf("line %d: {{#else}} outside of a conditional block", tok.Line)

		case TokenBlockClose:
			if tok.Block == until {
				return nodes, false, nil
			}
			return nil, false, fmt.Errorf("line %d: unexpected {{/%s}}", tok.Line, tok.Block)

		case TokenBlockOpen:
			switch tok.Block {
			case BlockIf, BlockUnless:
				then, hasElse, err := p.parseNodes(tok.Block)
				if err != nil {
					return nil, false, err
				}
				var elseNodes []Node
				if hasElse {
					elseNodes, hasElse, err = p.parseNodes(tok.Block)
					if err != nil {
						return nil, false, err
					}
					if hasElse {
						return nil, false, fmt.Errorf("line %d: duplicate {{#else}}", tok.Line)
					}
				}
				nodes = append(nodes, Conditional{
					Cond:   parseCondition(tok.Expr),
					Negate: tok.Block == BlockUnless,
					Then:   then,
					Else:   elseNodes,
				})
			case BlockEach:
				body, hasElse, err := p.parseNodes(BlockEach)
				if err != nil {
					return nil, false, err
				}
				if hasElse {
					return nil, false, fmt.Errorf("line %d: {{#else}} inside {{#each}}", tok.Line)
				}
				nodes = append(nodes, Loop{Source: tok.Expr, Body: body})
			}
		}
	}

	if until != "" {
		return nil, false, fmt.Errorf("unclosed {{#%s}} block", until)
	}
	appendLiteral(len(p.tpl))
	return nodes, false, nil
}

// parseCondition turns "a && b || c" into its disjunctive groups. Operands
// that do not look like variable references are dropped; a group left empty
// evaluates to false.
func parseCondition(expr string) Condition {
	var cond Condition
	for _, orPart := range strings.Split(expr, "||") {
		var group []string
		for _, andPart := range strings.Split(orPart, "&&") {
			name := strings.TrimSpace(andPart)
			if refNamePattern.MatchString(name) {
				group = append(group, name)
			}
		}
		cond = append(cond, group)
	}
	return cond
}
