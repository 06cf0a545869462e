package trimmer

import (
	"fmt"
)

// checkBrackets requires the raw text of every body to contain balanced
// brackets of each style enabled in opts.
func checkBrackets(opts Options, body Body) error {
	var pairs []string
	if opts.Curly {
		pairs = append(pairs, "{}")
	}
	if opts.Square {
		pairs = append(pairs, "[]")
	}
	if opts.Round {
		pairs = append(pairs, "()")
	}
	return checkBody(pairs, body)
}

// checkBody walks the statements in source order, so a nested body is
// checked before the raw text that follows it.
func checkBody(pairs []string, body Body) error {
	depth := make([]int, len(pairs))
	opened := make([]Pos, len(pairs))
	for _, s := range body.Statements {
		switch s := s.(type) {
		case *RawStmt:
			pos := s.loc.Start
			for _, r := range s.Text {
				for i, pair := range pairs {
					switch r {
					case rune(pair[0]):
						if depth[i] == 0 {
							opened[i] = pos
						}
						depth[i]++
					case rune(pair[1]):
						if depth[i] == 0 {
							return &ParseError{Kind: InvalidSyntax, Pos: pos, Message: fmt.Sprintf("unbalanced `%c`", pair[1])}
						}
						depth[i]--
					}
				}
				pos = advancePos(pos, string(r))
			}
		case *CondStmt:
			for _, b := range s.Branches {
				if err := checkBody(pairs, b.Body); err != nil {
					return err
				}
			}
			if err := checkBody(pairs, s.Otherwise); err != nil {
				return err
			}
		case *LoopStmt:
			if err := checkBody(pairs, s.Body); err != nil {
				return err
			}
		}
	}
	for i, pair := range pairs {
		if depth[i] > 0 {
			return &ParseError{
				Kind:    InvalidSyntax,
				Pos:     opened[i],
				Message: fmt.Sprintf("unclosed `%c` in block ending at %s", pair[0], body.loc.End),
			}
		}
	}
	return nil
}
