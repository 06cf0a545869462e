package trimmer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// The lexer has three modes. Top scans raw template text, Expr scans the
// inside of {{ }} and Statement scans a `## keyword ...` line up to its
// newline.

// Pos is a 1-based line and column in the template source.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Span is a half-open source range.
type Span struct {
	Start Pos
	End   Pos
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWhitespace
	tokNewline
	tokRaw
	tokExprStart // {{ {{+ {{-
	tokExprEnd   // }} +}} -}}
	tokStStart   // [ \t]*## word
	tokOperator
	tokParen
	tokKeyword
	tokIdent
	tokNumber
	tokString
	tokComment
	tokLineJoiner // ##\n
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokWhitespace:
		return "whitespace"
	case tokNewline:
		return "newline"
	case tokRaw:
		return "text"
	case tokExprStart:
		return "`{{`"
	case tokExprEnd:
		return "`}}`"
	case tokStStart:
		return "statement"
	case tokOperator:
		return "operator"
	case tokParen:
		return "parenthesis"
	case tokKeyword:
		return "keyword"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokComment:
		return "comment"
	case tokLineJoiner:
		return "line joiner"
	}
	return fmt.Sprintf("tokenKind(%d)", int(k))
}

type token struct {
	kind   tokenKind
	val    string
	start  Pos
	end    Pos
	offset int // byte offset in source
}

func (t token) span() Span { return Span{t.start, t.end} }

func (t token) describe() string {
	switch t.kind {
	case tokEOF, tokNewline:
		return t.kind.String()
	case tokString:
		return "string " + t.val
	}
	return "`" + strings.TrimSpace(t.val) + "`"
}

type lexMode int

const (
	modeTop lexMode = iota
	modeExpr
	modeStatement
)

var keywords = map[string]bool{
	"for": true, "in": true, "endfor": true, "skip": true,
	"if": true, "elif": true, "else": true, "endif": true,
	"let": true, "syntax": true, "validate": true, "filter": true,
}

type lexer struct {
	src  string
	i    int
	n    int
	line int
	col  int
	mode lexMode
}

func newLexer(src string, offset int, start Pos) *lexer {
	return &lexer{src: src, i: offset, n: len(src), line: start.Line, col: start.Column}
}

func (l *lexer) pos() Pos { return Pos{Line: l.line, Column: l.col} }

// advance moves the cursor n bytes forward keeping line and column current.
func (l *lexer) advance(n int) {
	end := l.i + n
	for l.i < end {
		b := l.src[l.i]
		switch {
		case b == '\n':
			l.line++
			l.col = 1
		case b < utf8.RuneSelf || utf8.RuneStart(b):
			l.col++
		}
		l.i++
	}
}

func (l *lexer) at(off int) byte {
	if l.i+off >= l.n {
		return 0
	}
	return l.src[l.i+off]
}

func (l *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.src[l.i:], s)
}

func (l *lexer) emit(kind tokenKind, n int) token {
	tok := token{kind: kind, val: l.src[l.i : l.i+n], start: l.pos(), offset: l.i}
	l.advance(n)
	tok.end = l.pos()
	return tok
}

func (l *lexer) errorf(format string, args ...any) error {
	return &ParseError{Kind: InvalidSyntax, Pos: l.pos(), Message: fmt.Sprintf(format, args...)}
}

func isHSpace(b byte) bool { return b == ' ' || b == '\t' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentChar(b byte) bool { return isIdentStart(b) || (b >= '0' && b <= '9') }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// span returns the length of the run starting at offset off satisfying f.
func (l *lexer) span(off int, f func(byte) bool) int {
	j := l.i + off
	for j < l.n && f(l.src[j]) {
		j++
	}
	return j - l.i - off
}

// lineLen returns the number of bytes up to (not including) the next newline.
func (l *lexer) lineLen() int {
	if k := strings.IndexByte(l.src[l.i:], '\n'); k >= 0 {
		return k
	}
	return l.n - l.i
}

func (l *lexer) next() (token, error) {
	if l.i >= l.n {
		return token{kind: tokEOF, start: l.pos(), end: l.pos(), offset: l.i}, nil
	}
	switch l.mode {
	case modeExpr:
		return l.nextInside(true)
	case modeStatement:
		return l.nextInside(false)
	}
	return l.nextTop()
}

func (l *lexer) nextTop() (token, error) {
	if l.col == 1 {
		if tok, ok := l.lineStart(); ok {
			return tok, nil
		}
	}
	switch c := l.at(0); {
	case isHSpace(c):
		return l.emit(tokWhitespace, l.span(0, isHSpace)), nil
	case c == '\n':
		return l.emit(tokNewline, 1), nil
	case c == '{' && l.at(1) == '{':
		n := 2
		if m := l.at(2); m == '+' || m == '-' {
			n = 3
		}
		l.mode = modeExpr
		return l.emit(tokExprStart, n), nil
	case c == '{' && l.at(1) == '#':
		return l.blockComment()
	case c == '#':
		switch {
		case l.hasPrefix("###"):
			return l.emit(tokComment, l.lineLen()), nil
		case l.hasPrefix("##\n"):
			return l.emit(tokLineJoiner, 3), nil
		case l.at(1) == '#':
			ws := l.span(2, isHSpace)
			if isIdentStart(l.at(2 + ws)) {
				return token{}, l.errorf("statement must start at the beginning of a line")
			}
		}
		return l.emit(tokRaw, l.span(0, func(b byte) bool { return b == '#' })), nil
	}
	n := l.span(0, func(b byte) bool {
		return !isHSpace(b) && b != '\n' && b != '{' && b != '#'
	})
	if n == 0 {
		n = 1
	}
	return l.emit(tokRaw, n), nil
}

// lineStart recognizes constructs that are only valid at the start of a
// line: statements and full-line comments.
func (l *lexer) lineStart() (token, bool) {
	ws := l.span(0, isHSpace)
	rest := l.src[l.i+ws:]
	switch {
	case strings.HasPrefix(rest, "###"):
		return l.emit(tokComment, l.lineLenWithNewline()), true
	case strings.HasPrefix(rest, "##"):
		gap := l.span(ws+2, isHSpace)
		if !isIdentStart(l.at(ws + 2 + gap)) {
			return token{}, false
		}
		word := l.span(ws+2+gap, isIdentChar)
		l.mode = modeStatement
		return l.emit(tokStStart, ws+2+gap+word), true
	case strings.HasPrefix(rest, "#"):
		gap := l.span(ws+1, isHSpace)
		if c := l.at(ws + 1 + gap); c == '\n' || c == 0 {
			return l.emit(tokComment, l.lineLenWithNewline()), true
		}
	}
	return token{}, false
}

func (l *lexer) lineLenWithNewline() int {
	n := l.lineLen()
	if l.i+n < l.n {
		n++
	}
	return n
}

func (l *lexer) blockComment() (token, error) {
	k := strings.Index(l.src[l.i+2:], "#}")
	if k < 0 {
		start := l.pos()
		l.advance(l.n - l.i)
		return token{}, &ParseError{
			Kind:    InvalidSyntax,
			Pos:     start,
			Message: "unexpected end of file, expected `#}`",
		}
	}
	return l.emit(tokComment, k+4), nil
}

func (l *lexer) nextInside(expr bool) (token, error) {
	c := l.at(0)
	switch {
	case c == '\n' && !expr:
		l.mode = modeTop
		return l.emit(tokNewline, 1), nil
	case isHSpace(c) || c == '\r' || (c == '\n' && expr):
		if expr {
			return l.emit(tokWhitespace, l.span(0, func(b byte) bool {
				return isHSpace(b) || b == '\n' || b == '\r'
			})), nil
		}
		return l.emit(tokWhitespace, l.span(0, func(b byte) bool { return isHSpace(b) || b == '\r' })), nil
	case expr && (c == '+' || c == '-') && l.at(1) == '}' && l.at(2) == '}':
		l.mode = modeTop
		return l.emit(tokExprEnd, 3), nil
	case expr && c == '}' && l.at(1) == '}':
		l.mode = modeTop
		return l.emit(tokExprEnd, 2), nil
	case expr && c == '{' && l.at(1) == '#':
		return l.blockComment()
	case !expr && c == '#':
		return l.emit(tokComment, l.lineLen()), nil
	case isIdentStart(c):
		n := l.span(0, isIdentChar)
		word := l.src[l.i : l.i+n]
		switch {
		case word == "and" || word == "or" || word == "not":
			return l.emit(tokOperator, n), nil
		case keywords[word]:
			return l.emit(tokKeyword, n), nil
		}
		return l.emit(tokIdent, n), nil
	case isDigit(c):
		return l.emit(tokNumber, l.numberLen()), nil
	case c == '"' || c == '\'':
		return l.quoted(c)
	}
	for _, op := range []string{">=", "<=", "==", "!=", ".."} {
		if l.hasPrefix(op) {
			return l.emit(tokOperator, 2), nil
		}
	}
	if strings.IndexByte(".|:><%*/+-,=", c) >= 0 {
		return l.emit(tokOperator, 1), nil
	}
	if strings.IndexByte("()[]{}", c) >= 0 {
		return l.emit(tokParen, 1), nil
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.i:])
	return token{}, l.errorf("unexpected character %q", r)
}

func (l *lexer) numberLen() int {
	if l.at(0) == '0' {
		switch l.at(1) {
		case 'x':
			return 2 + l.span(2, func(b byte) bool {
				return isDigit(b) || b == '_' || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
			})
		case 'o', 'b':
			return 2 + l.span(2, func(b byte) bool { return isDigit(b) || b == '_' })
		}
	}
	digits := func(b byte) bool { return isDigit(b) || b == '_' }
	n := l.span(0, digits)
	if l.at(n) == '.' && isDigit(l.at(n+1)) {
		n += 1 + l.span(n+1, digits)
	}
	return n
}

// quoted scans a string literal; val holds the unescaped contents.
func (l *lexer) quoted(q byte) (token, error) {
	var b strings.Builder
	j := l.i + 1
	for j < l.n {
		c := l.src[j]
		switch {
		case c == q:
			tok := l.emit(tokString, j+1-l.i)
			tok.val = b.String()
			return tok, nil
		case c == '\\' && j+1 < l.n:
			j++
			switch e := l.src[j]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
		j++
	}
	return token{}, l.errorf("unterminated string literal")
}
