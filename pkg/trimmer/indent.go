package trimmer

import (
	"fmt"
	"strings"
)

// postprocess applies the syntax mode rewrites and checks to a parsed body.
func postprocess(opts Options, body Body) (Body, error) {
	var err error
	switch opts.Syntax {
	case SyntaxIndent:
		if body, err = reindent(body, 0); err != nil {
			return Body{}, err
		}
		body = optimize(body)
	case SyntaxOneline:
		body = oneline(optimize(body))
	default:
		body = optimize(body)
	}
	if opts.Curly || opts.Square || opts.Round {
		if err := checkBrackets(opts, body); err != nil {
			return Body{}, err
		}
	}
	return body, nil
}

func isNewline(s Statement) bool {
	raw, ok := s.(*RawStmt)
	return ok && raw.Text == "\n"
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

// reindent strips, from each line of body, the indentation in excess of
// base, which is the column of the statement owning the body. Nested
// blocks are processed against their own statement's column.
func reindent(body Body, base int) (Body, error) {
	lineStart := true
	minIndent := -1
	var starts []int
	measure := func(pos Pos, indent int) error {
		if indent < base {
			return &ParseError{
				Kind:    InvalidSyntax,
				Pos:     pos,
				Message: fmt.Sprintf("line is under-indented in 'indent' syntax mode, expected %d but is %d", base, indent),
			}
		}
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
		return nil
	}
	stmts := body.Statements
	for i, s := range stmts {
		switch s := s.(type) {
		case *RawStmt:
			if s.Text == "\n" {
				lineStart = true
				continue
			}
			if lineStart {
				starts = append(starts, i)
				// whitespace-only lines do not count
				blank := strings.TrimLeft(s.Text, " \t") == "" &&
					(i+1 == len(stmts) || isNewline(stmts[i+1]))
				if !blank {
					if err := measure(s.loc.Start, leadingSpace(s.Text)); err != nil {
						return Body{}, err
					}
				}
			}
			lineStart = false
		case *CondStmt, *LoopStmt, *AliasStmt:
			lineStart = true
		case *OutputStmt:
			if lineStart {
				if err := measure(s.loc.Start, 0); err != nil {
					return Body{}, err
				}
			}
			lineStart = false
		default:
			lineStart = false
		}
	}

	out := make([]Statement, len(body.Statements))
	copy(out, body.Statements)
	if strip := minIndent - base; strip > 0 {
		for _, i := range starts {
			raw := out[i].(*RawStmt)
			n := min(strip, leadingSpace(raw.Text))
			out[i] = &RawStmt{node: raw.node, Text: raw.Text[n:]}
		}
	}
	for i, s := range out {
		var err error
		switch s := s.(type) {
		case *CondStmt:
			c := *s
			c.Branches = make([]CondBranch, len(s.Branches))
			for j, b := range s.Branches {
				c.Branches[j].Cond = b.Cond
				if c.Branches[j].Body, err = reindent(b.Body, s.Indent); err != nil {
					return Body{}, err
				}
			}
			if c.Otherwise, err = reindent(s.Otherwise, s.Indent); err != nil {
				return Body{}, err
			}
			out[i] = &c
		case *LoopStmt:
			l := *s
			if l.Body, err = reindent(s.Body, s.Indent); err != nil {
				return Body{}, err
			}
			out[i] = &l
		}
	}
	return Body{node: body.node, Statements: out}, nil
}
