package trimmer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Directive lines configure a template. They may appear before the body,
// interleaved with comment and blank lines, or in a block after it.
var (
	reDirective = regexp.MustCompile(`^[ \t]*##[ \t]*(?:syntax|validate|filter)\b`)
	reSyntax    = regexp.MustCompile(`^[ \t]*##[ \t]*syntax:[ \t]*(\w+)[ \t]*(?:\n|$)`)
	reValidate  = regexp.MustCompile(`^[ \t]*##[ \t]*validate[ \t]+(\w+):[ \t]*(.*)(?:\n|$)`)
	reFilter    = regexp.MustCompile(`^[ \t]*##[ \t]*filter[ \t]+(\w+):[ \t]*(.*)(?:\n|$)`)
	reComment   = regexp.MustCompile(`^[ \t]*(?:###.*|#(?:[^#\n].*)?)?(?:\n|$)`)
)

type directives struct {
	opts      Options
	hasSyntax bool
}

// stripComment cuts an inline ` # comment` off a directive value.
func stripComment(s string) string {
	for i := 1; i < len(s); i++ {
		if s[i] == '#' && isHSpace(s[i-1]) {
			s = s[:i]
			break
		}
	}
	return strings.TrimSpace(s)
}

// line consumes one directive, comment or blank line from the start of
// text. n is zero when text does not start with such a line.
func (d *directives) line(text string, pos Pos) (n int, directive bool, err error) {
	if m := reSyntax.FindStringSubmatch(text); m != nil {
		if d.hasSyntax {
			return 0, false, &ParseError{Kind: DuplicateSyntaxDirective, Pos: pos, Message: "syntax is already set"}
		}
		s, err := ParseSyntax(m[1])
		if err != nil {
			return 0, false, &ParseError{Kind: InvalidSyntaxDirective, Pos: pos, Err: err}
		}
		d.opts.Syntax, d.hasSyntax = s, true
		return len(m[0]), true, nil
	}
	if m := reValidate.FindStringSubmatch(text); m != nil {
		v, err := NewRegexValidator(stripComment(m[2]))
		if err != nil {
			return 0, false, &ParseError{Kind: BadRegexValidator, Pos: pos, Message: "validator " + m[1], Err: err}
		}
		d.opts = d.opts.WithFilter(m[1], v)
		return len(m[0]), true, nil
	}
	if m := reFilter.FindStringSubmatch(text); m != nil {
		name := stripComment(m[2])
		f, ok := BuiltinFilter(name)
		if !ok {
			return 0, false, &ParseError{
				Kind:    BadFilter,
				Pos:     pos,
				Message: fmt.Sprintf("unknown filter %q for %s, expected builtin.html_entities or builtin.quoted_shell_argument", name, m[1]),
			}
		}
		d.opts = d.opts.WithFilter(m[1], f)
		return len(m[0]), true, nil
	}
	if reDirective.MatchString(text) {
		return 0, false, &ParseError{Kind: InvalidSyntaxDirective, Pos: pos, Message: "malformed directive"}
	}
	if m := reComment.FindString(text); m != "" {
		return len(m), false, nil
	}
	return 0, false, nil
}

func advancePos(p Pos, consumed string) Pos {
	for _, r := range consumed {
		if r == '\n' {
			p.Line++
			p.Column = 1
		} else {
			p.Column++
		}
	}
	return p
}

// preamble is the part of a template before its body.
type preamble struct {
	offset int
	pos    Pos
}

// scanPreamble extracts leading directives. Comment and blank lines are only
// consumed when a directive follows them.
func scanPreamble(text string, defaults Options) (*directives, preamble, error) {
	d := &directives{opts: defaults.clone()}
	start := Pos{Line: 1, Column: 1}
	end := preamble{pos: start}
	i, pos := 0, start
	for i < len(text) {
		n, directive, err := d.line(text[i:], pos)
		if err != nil {
			return nil, preamble{}, err
		}
		if n == 0 {
			break
		}
		pos = advancePos(pos, text[i:i+n])
		i += n
		if directive {
			end = preamble{offset: i, pos: pos}
		}
	}
	return d, end, nil
}

// scanTrailing consumes the directive block after the body, which must
// extend to the end of the input.
func (d *directives) scanTrailing(text string, offset int, pos Pos) error {
	for i := offset; i < len(text); {
		n, _, err := d.line(text[i:], pos)
		if err != nil {
			return err
		}
		if n == 0 {
			r, _ := utf8.DecodeRuneInString(text[i:])
			return &ParseError{
				Kind:    InvalidSyntax,
				Pos:     pos,
				Message: fmt.Sprintf("unexpected %q; expected end of input or a directive", r),
			}
		}
		pos = advancePos(pos, text[i:i+n])
		i += n
	}
	return nil
}

// Preparse returns the options declared by the directives of text on top of
// defaults, without parsing the body.
func Preparse(text string, defaults Options) (Options, error) {
	d, _, err := scanPreamble(text, defaults)
	if err != nil {
		return Options{}, err
	}
	return d.opts, nil
}
