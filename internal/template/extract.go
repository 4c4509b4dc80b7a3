package template

import "sort"

// ExtractReferences returns the distinct variable names a template
// references, across every syntactic form: plain interpolations (with or
// without :format and | default:"..." fallbacks), #if/#unless condition
// operands (each &&/|| operand counts separately), and #each loop sources.
// Loop pseudo-variables (@index, @key, this) and {{@macro}} invocations live
// in other namespaces and never appear in the result. The result is a set;
// it is returned sorted only so callers get a stable order.
func ExtractReferences(tpl string) []string {
	seen := make(map[string]struct{})

	for _, tok := range Tokenize(tpl) {
		switch tok.Kind {
		case TokenVar:
			seen[tok.Name] = struct{}{}
		case TokenBlockOpen:
			switch tok.Block {
			case BlockIf, BlockUnless:
				for _, name := range ConditionOperands(tok.Expr) {
					seen[name] = struct{}{}
				}
			case BlockEach:
				if refNamePattern.MatchString(tok.Expr) {
					seen[tok.Expr] = struct{}{}
				}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
