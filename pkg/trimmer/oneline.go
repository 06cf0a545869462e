package trimmer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// oneline collapses every whitespace run of raw text into a single space.
// Whitespace at the edge of a text node is dropped unless an output tag
// sits on that side.
func oneline(body Body) Body {
	out := make([]Statement, 0, len(body.Statements))
	for i, s := range body.Statements {
		switch s := s.(type) {
		case *RawStmt:
			text := collapse(s.Text,
				i > 0 && isOutput(body.Statements[i-1]),
				i+1 < len(body.Statements) && isOutput(body.Statements[i+1]))
			if text == "" {
				continue
			}
			out = append(out, &RawStmt{node: s.node, Text: text})
		case *CondStmt:
			c := *s
			c.Branches = make([]CondBranch, len(s.Branches))
			for j, b := range s.Branches {
				c.Branches[j] = CondBranch{Cond: b.Cond, Body: oneline(b.Body)}
			}
			c.Otherwise = oneline(s.Otherwise)
			out = append(out, &c)
		case *LoopStmt:
			l := *s
			l.Body = oneline(s.Body)
			out = append(out, &l)
		default:
			out = append(out, s)
		}
	}
	return Body{node: body.node, Statements: out}
}

func isOutput(s Statement) bool {
	_, ok := s.(*OutputStmt)
	return ok
}

// collapse squeezes whitespace in text. Whitespace-only text survives as a
// single space only between two output tags.
func collapse(text string, keepLeading, keepTrailing bool) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		if text != "" && keepLeading && keepTrailing {
			return " "
		}
		return ""
	}
	first, _ := utf8.DecodeRuneInString(text)
	last, _ := utf8.DecodeLastRuneInString(text)
	var b strings.Builder
	if keepLeading && unicode.IsSpace(first) {
		b.WriteByte(' ')
	}
	b.WriteString(strings.Join(words, " "))
	if keepTrailing && unicode.IsSpace(last) {
		b.WriteByte(' ')
	}
	return b.String()
}
