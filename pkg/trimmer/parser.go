package trimmer

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Parser turns template source into a Template. A Parser is immutable and
// may be shared between goroutines.
type Parser struct {
	options Options
	logger  *slog.Logger
}

func NewParser() *Parser {
	return &Parser{options: DefaultOptions()}
}

// WithOptions returns a parser whose templates start from opts before
// their own directives are applied.
func (p *Parser) WithOptions(opts Options) *Parser {
	c := *p
	c.options = opts
	return &c
}

func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	c := *p
	c.logger = logger
	return &c
}

func (p *Parser) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}

// Parse parses and postprocesses a template.
func (p *Parser) Parse(text string) (*Template, error) {
	if err := p.options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	dirs, pre, err := scanPreamble(text, p.options)
	if err != nil {
		return nil, err
	}
	ps := &parser{src: text, lex: newLexer(text, pre.offset, pre.pos), dirs: dirs, failOff: -1}
	body, err := ps.parseTemplate()
	if err != nil {
		return nil, err
	}
	opts := dirs.opts
	body, err = postprocess(opts, body)
	if err != nil {
		return nil, err
	}
	p.log().Debug("parsed template",
		"syntax", opts.Syntax.String(),
		"filters", len(opts.Filters),
		"statements", len(body.Statements))
	return &Template{options: opts, body: body, logger: p.logger}, nil
}

// Load reads the named template from loader and parses it.
func (p *Parser) Load(loader Loader, name string) (*Template, error) {
	src, err := loader.Load(name)
	if err != nil {
		return nil, err
	}
	t, err := p.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", name, err)
	}
	return t, nil
}

// Parse parses text with the default options.
func Parse(text string) (*Template, error) {
	return NewParser().Parse(text)
}

// ParseWithOptions parses text starting from opts.
func ParseWithOptions(opts Options, text string) (*Template, error) {
	return NewParser().WithOptions(opts).Parse(text)
}

type parser struct {
	src     string
	lex     *lexer
	cur     *token
	lastEnd Pos
	dirs    *directives

	// alternatives tried at the deepest failing token
	failOff  int
	expected []string
}

func (p *parser) peek() (token, error) {
	if p.cur == nil {
		t, err := p.lex.next()
		if err != nil {
			return token{}, err
		}
		p.cur = &t
	}
	return *p.cur, nil
}

func (p *parser) advance() token {
	t := *p.cur
	p.cur = nil
	p.lastEnd = t.end
	return t
}

// peekSig peeks past whitespace and comments.
func (p *parser) peekSig() (token, error) {
	for {
		t, err := p.peek()
		if err != nil {
			return t, err
		}
		if t.kind != tokWhitespace && t.kind != tokComment {
			return t, nil
		}
		p.advance()
	}
}

func (p *parser) miss(t token, desc string) {
	if t.offset > p.failOff {
		p.failOff = t.offset
		p.expected = p.expected[:0]
	}
	if t.offset == p.failOff && !slices.Contains(p.expected, desc) {
		p.expected = append(p.expected, desc)
	}
}

// is checks the next significant token without consuming it.
func (p *parser) is(kind tokenKind, val string) (bool, error) {
	t, err := p.peekSig()
	if err != nil {
		return false, err
	}
	if t.kind == kind && (val == "" || t.val == val) {
		return true, nil
	}
	if val != "" {
		p.miss(t, "`"+val+"`")
	} else {
		p.miss(t, kind.String())
	}
	return false, nil
}

// accept consumes the next significant token if it matches.
func (p *parser) accept(kind tokenKind, val string) (token, bool, error) {
	ok, err := p.is(kind, val)
	if !ok || err != nil {
		return token{}, false, err
	}
	return p.advance(), true, nil
}

func (p *parser) expect(kind tokenKind, val string) (token, error) {
	t, ok, err := p.accept(kind, val)
	if err != nil {
		return t, err
	}
	if !ok {
		return t, p.unexpected()
	}
	return t, nil
}

func (p *parser) unexpected() error {
	t, err := p.peekSig()
	if err != nil {
		return err
	}
	msg := "unexpected " + t.describe()
	if t.offset == p.failOff && len(p.expected) > 0 {
		msg += "; expected " + expectedList(p.expected)
	}
	return &ParseError{Kind: InvalidSyntax, Pos: t.start, Message: msg}
}

func (p *parser) errorAt(pos Pos, format string, args ...any) error {
	return &ParseError{Kind: InvalidSyntax, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) parseTemplate() (Body, error) {
	body, _, err := p.parseBody(nil)
	return body, err
}

// statementHead splits a statement-start token into its indentation and
// keyword.
func statementHead(t token) (indent int, word string) {
	trimmed := strings.TrimLeft(t.val, " \t")
	indent = len(t.val) - len(trimmed)
	return indent, strings.TrimLeft(trimmed[2:], " \t")
}

// parseBody parses statements until EOF or a statement whose keyword is in
// ends. That statement's keyword is returned; its remainder is left for the
// caller.
func (p *parser) parseBody(ends []string) (Body, token, error) {
	var (
		stmts []Statement
		raw   strings.Builder
		rawSp Span
	)
	first, err := p.peek()
	if err != nil {
		return Body{}, token{}, err
	}
	flush := func() {
		if raw.Len() > 0 {
			stmts = append(stmts, &RawStmt{node: at(rawSp), Text: raw.String()})
			raw.Reset()
		}
	}
	finish := func(stop token) (Body, token, error) {
		flush()
		return Body{node: at(Span{first.start, p.lastEnd}), Statements: stmts}, stop, nil
	}
	for {
		t, err := p.peek()
		if err != nil {
			return Body{}, token{}, err
		}
		switch t.kind {
		case tokEOF:
			if ends != nil {
				p.miss(t, "`## "+ends[len(ends)-1]+"`")
				return Body{}, token{}, p.unexpected()
			}
			return finish(t)
		case tokWhitespace, tokRaw:
			if raw.Len() == 0 {
				rawSp.Start = t.start
			}
			raw.WriteString(t.val)
			rawSp.End = t.end
			p.advance()
		case tokComment:
			p.advance()
		case tokNewline:
			flush()
			p.advance()
			stmts = append(stmts, &RawStmt{node: at(t.span()), Text: "\n"})
		case tokLineJoiner:
			flush()
			p.advance()
			stmts = append(stmts, &LineJoinStmt{node: at(t.span())})
		case tokExprStart:
			flush()
			out, err := p.parseOutput()
			if err != nil {
				return Body{}, token{}, err
			}
			stmts = append(stmts, out)
		case tokStStart:
			flush()
			indent, word := statementHead(t)
			if slices.Contains(ends, word) {
				p.advance()
				return finish(t)
			}
			var stmt Statement
			switch word {
			case "if":
				stmt, err = p.parseCond(indent)
			case "for":
				stmt, err = p.parseLoop(indent)
			case "let":
				stmt, err = p.parseAlias()
			case "syntax", "validate", "filter":
				if ends != nil {
					return Body{}, token{}, p.errorAt(t.start, "`## %s` is only allowed at the top level", word)
				}
				if err := p.dirs.scanTrailing(p.src, t.offset, t.start); err != nil {
					return Body{}, token{}, err
				}
				p.cur = nil
				return finish(token{kind: tokEOF})
			default:
				for _, w := range append([]string{"if", "for", "let"}, ends...) {
					p.miss(t, "`## "+w+"`")
				}
				return Body{}, token{}, &ParseError{
					Kind:    InvalidSyntax,
					Pos:     t.start,
					Message: fmt.Sprintf("unknown statement `%s`; expected %s", word, expectedList(p.expected)),
				}
			}
			if err != nil {
				return Body{}, token{}, err
			}
			stmts = append(stmts, stmt)
		default:
			return Body{}, token{}, p.unexpected()
		}
	}
}

func wsMode(marker byte) WhitespaceMode {
	switch marker {
	case '-':
		return Strip
	case '+':
		return Space
	}
	return Preserve
}

func (p *parser) parseOutput() (Statement, error) {
	start := p.advance()
	left := Preserve
	if len(start.val) == 3 {
		left = wsMode(start.val[2])
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var filter string
	if _, ok, err := p.accept(tokOperator, "|"); err != nil {
		return nil, err
	} else if ok {
		name, err := p.expect(tokIdent, "")
		if err != nil {
			return nil, err
		}
		filter = name.val
	}
	end, err := p.expect(tokExprEnd, "")
	if err != nil {
		return nil, err
	}
	right := Preserve
	if len(end.val) == 3 {
		right = wsMode(end.val[0])
	}
	return &OutputStmt{
		node:   at(Span{start.start, end.end}),
		Expr:   expr,
		Left:   left,
		Right:  right,
		Filter: filter,
	}, nil
}

// endStatement consumes the newline terminating a statement line.
func (p *parser) endStatement() error {
	t, err := p.peekSig()
	if err != nil {
		return err
	}
	switch t.kind {
	case tokNewline:
		p.advance()
		return nil
	case tokEOF:
		return nil
	}
	p.miss(t, "end of line")
	return p.unexpected()
}

func (p *parser) parseCond(indent int) (Statement, error) {
	start := p.advance()
	stmt := &CondStmt{Indent: indent}
	for {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.endStatement(); err != nil {
			return nil, err
		}
		body, stop, err := p.parseBody([]string{"elif", "else", "endif"})
		if err != nil {
			return nil, err
		}
		stmt.Branches = append(stmt.Branches, CondBranch{Cond: cond, Body: body})
		_, word := statementHead(stop)
		if word == "elif" {
			continue
		}
		if word == "else" {
			if err := p.endStatement(); err != nil {
				return nil, err
			}
			stmt.Otherwise, _, err = p.parseBody([]string{"endif"})
			if err != nil {
				return nil, err
			}
		} else {
			stmt.Otherwise = Body{node: at(Span{p.lastEnd, p.lastEnd})}
		}
		break
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	stmt.node = at(Span{start.start, p.lastEnd})
	return stmt, nil
}

func (p *parser) parseLoop(indent int) (Statement, error) {
	start := p.advance()
	stmt := &LoopStmt{Indent: indent}
	name, err := p.expect(tokIdent, "")
	if err != nil {
		return nil, err
	}
	stmt.Target = []string{name.val}
	if _, ok, err := p.accept(tokOperator, ","); err != nil {
		return nil, err
	} else if ok {
		second, err := p.expect(tokIdent, "")
		if err != nil {
			return nil, err
		}
		stmt.Target = append(stmt.Target, second.val)
	}
	if _, err := p.expect(tokKeyword, "in"); err != nil {
		return nil, err
	}
	if stmt.Iter, err = p.parseExpr(); err != nil {
		return nil, err
	}
	if _, ok, err := p.accept(tokKeyword, "skip"); err != nil {
		return nil, err
	} else if ok {
		if _, err := p.expect(tokKeyword, "if"); err != nil {
			return nil, err
		}
		if stmt.Skip, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	if stmt.Body, _, err = p.parseBody([]string{"endfor"}); err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	stmt.node = at(Span{start.start, p.lastEnd})
	return stmt, nil
}

func (p *parser) parseAlias() (Statement, error) {
	start := p.advance()
	name, err := p.expect(tokIdent, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokOperator, "="); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return &AliasStmt{node: at(Span{start.start, p.lastEnd}), Name: name.val, Value: value}, nil
}

// Expressions, loosest binding first:
// or, and, comparison chain, range, + -, * / %, not, postfix . [], atom.

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok, err := p.accept(tokOperator, "or"); err != nil {
			return nil, err
		} else if !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &OrExpr{node: at(Span{left.Span().Start, right.Span().End}), Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok, err := p.accept(tokOperator, "and"); err != nil {
			return nil, err
		} else if !ok {
			return left, nil
		}
		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		left = &AndExpr{node: at(Span{left.Span().Start, right.Span().End}), Left: left, Right: right}
	}
}

var compareOps = []string{"==", "!=", "<=", ">=", "<", ">"}

// acceptOneOf consumes an operator out of ops.
func (p *parser) acceptOneOf(ops []string) (string, error) {
	for _, op := range ops {
		if _, ok, err := p.accept(tokOperator, op); err != nil {
			return "", err
		} else if ok {
			return op, nil
		}
	}
	return "", nil
}

func (p *parser) parseCompare() (Expr, error) {
	left, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	var ops []CompareOp
	for {
		op, err := p.acceptOneOf(compareOps)
		if err != nil {
			return nil, err
		}
		if op == "" {
			break
		}
		right, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		ops = append(ops, CompareOp{Op: op, Right: right})
	}
	if len(ops) == 0 {
		return left, nil
	}
	end := ops[len(ops)-1].Right.Span().End
	return &CompareExpr{node: at(Span{left.Span().Start, end}), Left: left, Ops: ops}, nil
}

func (p *parser) parseRange() (Expr, error) {
	if t, ok, err := p.accept(tokOperator, ".."); err != nil {
		return nil, err
	} else if ok {
		end, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &RangeExpr{node: at(Span{t.start, end.Span().End}), End: end}, nil
	}
	start, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, ok, err := p.accept(tokOperator, ".."); err != nil || !ok {
		return start, err
	}
	r := &RangeExpr{node: at(Span{start.Span().Start, p.lastEnd}), Start: start}
	if ok, err := p.startsAtom(); err != nil {
		return nil, err
	} else if ok {
		if r.End, err = p.parseAdditive(); err != nil {
			return nil, err
		}
		r.loc.End = r.End.Span().End
	}
	return r, nil
}

// startsAtom reports whether the next token can begin an operand.
func (p *parser) startsAtom() (bool, error) {
	t, err := p.peekSig()
	if err != nil {
		return false, err
	}
	switch t.kind {
	case tokString, tokNumber, tokIdent:
		return true, nil
	case tokParen:
		return t.val == "(" || t.val == "[" || t.val == "{", nil
	case tokOperator:
		return t.val == "not", nil
	}
	return false, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	return p.parseBinary([]string{"+", "-"}, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (Expr, error) {
	return p.parseBinary([]string{"*", "/", "%"}, p.parseUnary)
}

func (p *parser) parseBinary(ops []string, operand func() (Expr, error)) (Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, err := p.acceptOneOf(ops)
		if err != nil {
			return nil, err
		}
		if op == "" {
			return left, nil
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &ArithExpr{node: at(Span{left.Span().Start, right.Span().End}), Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if t, ok, err := p.accept(tokOperator, "not"); err != nil {
		return nil, err
	} else if ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{node: at(Span{t.start, operand.Span().End}), Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok, err := p.accept(tokOperator, "."); err != nil {
			return nil, err
		} else if ok {
			t, err := p.peekSig()
			if err != nil {
				return nil, err
			}
			if t.kind != tokIdent && t.kind != tokKeyword {
				p.miss(t, "attribute name")
				return nil, p.unexpected()
			}
			p.advance()
			expr = &AttrExpr{node: at(Span{expr.Span().Start, t.end}), Target: expr, Name: t.val}
			continue
		}
		if _, ok, err := p.accept(tokParen, "["); err != nil {
			return nil, err
		} else if ok {
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(tokParen, "]")
			if err != nil {
				return nil, err
			}
			expr = &IndexExpr{node: at(Span{expr.Span().Start, end.end}), Target: expr, Key: key}
			continue
		}
		return expr, nil
	}
}

func (p *parser) parseAtom() (Expr, error) {
	t, err := p.peekSig()
	if err != nil {
		return nil, err
	}
	switch {
	case t.kind == tokString:
		p.advance()
		return &StrLit{node: at(t.span()), Value: t.val}, nil
	case t.kind == tokNumber:
		p.advance()
		n, err := parseNumberLiteral(t.val)
		if err != nil {
			return nil, p.errorAt(t.start, "%v", err)
		}
		return &NumLit{node: at(t.span()), Value: n}, nil
	case t.kind == tokIdent:
		p.advance()
		return &VarRef{node: at(t.span()), Name: t.val}, nil
	case t.kind == tokParen && t.val == "(":
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case t.kind == tokParen && t.val == "[":
		return p.parseList()
	case t.kind == tokParen && t.val == "{":
		return p.parseDict()
	}
	for _, desc := range []string{"string", "number", "identifier", "`(`", "`[`", "`{`", "`not`"} {
		p.miss(t, desc)
	}
	return nil, p.unexpected()
}

// parseItems parses a comma separated list up to the closing paren,
// allowing a trailing comma.
func (p *parser) parseItems(closing string, item func() error) (token, error) {
	for {
		if end, ok, err := p.accept(tokParen, closing); err != nil || ok {
			return end, err
		}
		if err := item(); err != nil {
			return token{}, err
		}
		if _, ok, err := p.accept(tokOperator, ","); err != nil {
			return token{}, err
		} else if !ok {
			return p.expect(tokParen, closing)
		}
	}
}

func (p *parser) parseList() (Expr, error) {
	start := p.advance()
	list := &ListExpr{}
	end, err := p.parseItems("]", func() error {
		e, err := p.parseExpr()
		if err != nil {
			return err
		}
		list.Items = append(list.Items, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	list.node = at(Span{start.start, end.end})
	return list, nil
}

func (p *parser) parseDict() (Expr, error) {
	start := p.advance()
	dict := &DictExpr{}
	end, err := p.parseItems("}", func() error {
		k, err := p.parseExpr()
		if err != nil {
			return err
		}
		if _, err := p.expect(tokOperator, ":"); err != nil {
			return err
		}
		v, err := p.parseExpr()
		if err != nil {
			return err
		}
		dict.Items = append(dict.Items, DictItem{Key: k, Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	dict.node = at(Span{start.start, end.end})
	return dict, nil
}

func parseNumberLiteral(s string) (Number, error) {
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
		if err != nil {
			return Number{}, fmt.Errorf("invalid float literal %q", s)
		}
		return FloatNumber(f), nil
	}
	return parseIntLiteral(s)
}
