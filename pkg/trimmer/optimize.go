package trimmer

import (
	"strings"
	"unicode"
)

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// optimize drops line joiners, merges adjacent raw text and removes
// whitespace-only text between line statements or at a body edge.
// optimize(optimize(b)) equals optimize(b).
func optimize(body Body) Body {
	var merged []Statement
	for _, s := range body.Statements {
		switch s := s.(type) {
		case *LineJoinStmt:
			continue
		case *RawStmt:
			if n := len(merged); n > 0 {
				if prev, ok := merged[n-1].(*RawStmt); ok {
					merged[n-1] = &RawStmt{
						node: at(Span{prev.loc.Start, s.loc.End}),
						Text: prev.Text + s.Text,
					}
					continue
				}
			}
			merged = append(merged, s)
		case *CondStmt:
			c := *s
			c.Branches = make([]CondBranch, len(s.Branches))
			for i, b := range s.Branches {
				c.Branches[i] = CondBranch{Cond: b.Cond, Body: optimize(b.Body)}
			}
			c.Otherwise = optimize(s.Otherwise)
			merged = append(merged, &c)
		case *LoopStmt:
			l := *s
			l.Body = optimize(s.Body)
			merged = append(merged, &l)
		default:
			merged = append(merged, s)
		}
	}

	lineOrNone := func(i int) bool {
		return i < 0 || i >= len(merged) || isLineStatement(merged[i])
	}
	out := make([]Statement, 0, len(merged))
	for i, s := range merged {
		if raw, ok := s.(*RawStmt); ok && isBlank(raw.Text) && lineOrNone(i-1) && lineOrNone(i+1) {
			continue
		}
		out = append(out, s)
	}
	return Body{node: body.node, Statements: out}
}
