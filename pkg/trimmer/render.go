package trimmer

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"unicode"
)

// Template is a parsed template. It is never modified after parsing and
// may be rendered from many goroutines at once.
type Template struct {
	options Options
	body    Body
	logger  *slog.Logger
}

// Options returns the options in effect, including the template's own
// directives.
func (t *Template) Options() Options { return t.options }

// Body returns the postprocessed statements of the template.
func (t *Template) Body() Body { return t.body }

// Render renders the template against root, usually a Context. Data errors
// do not stop rendering: the best-effort output is returned together with
// a *RenderError listing every one of them.
func (t *Template) Render(root Variable) (string, error) {
	r := &renderer{tpl: t, tail: Preserve}
	r.renderBody(newScope(root), t.body)
	if len(r.errs) > 0 {
		return r.buf.String(), &RenderError{Errors: r.errs}
	}
	return r.buf.String(), nil
}

// RenderTo renders into w. Nothing is written when data errors occurred.
func (t *Template) RenderTo(w io.Writer, root Variable) error {
	out, err := t.Render(root)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

type renderer struct {
	tpl *Template
	buf bytes.Buffer
	// frozen is the length the buffer may be trimmed back to by whitespace
	// control; floor is the end of the last output tag, never trimmed.
	frozen int
	floor  int
	tail   WhitespaceMode
	errs   []ErrorEntry
}

func (r *renderer) log() *slog.Logger {
	if r.tpl.logger == nil {
		return slog.Default()
	}
	return r.tpl.logger
}

func (r *renderer) record(n Node, err error) {
	entry := ErrorEntry{Span: n.Span(), Offset: r.buf.Len(), Err: err}
	r.log().Debug("data error", "pos", entry.Span.Start.String(), "offset", entry.Offset, "error", err)
	r.errs = append(r.errs, entry)
}

// trim cuts the buffer back to the frozen offset and reports whether
// anything was removed.
func (r *renderer) trim() bool {
	removed := r.buf.Len() > r.frozen
	r.buf.Truncate(r.frozen)
	return removed
}

func (r *renderer) renderBody(s *scope, body Body) {
	for _, st := range body.Statements {
		switch st := st.(type) {
		case *RawStmt:
			r.raw(st.Text)
		case *OutputStmt:
			r.output(s, st)
		case *CondStmt:
			r.cond(s, st)
		case *LoopStmt:
			r.loop(s, st)
		case *AliasStmt:
			s.set(st.Name, r.eval(s, st.Value))
		}
	}
}

func (r *renderer) raw(text string) {
	switch r.tail {
	case Preserve:
		r.buf.WriteString(text)
	case Strip:
		r.trim()
		r.buf.WriteString(trimLeft(text))
	case Space:
		removed := r.trim()
		rest := trimLeft(text)
		if removed || len(rest) < len(text) {
			r.buf.WriteByte(' ')
		}
		r.buf.WriteString(rest)
	}
	r.tail = Preserve
	r.frozen = max(r.floor, len(bytes.TrimRightFunc(r.buf.Bytes(), unicode.IsSpace)))
}

func trimLeft(s string) string {
	for i, c := range s {
		if !unicode.IsSpace(c) {
			return s[i:]
		}
	}
	return ""
}

func (r *renderer) output(s *scope, st *OutputStmt) {
	switch min(st.Left, r.tail) {
	case Strip:
		r.trim()
	case Space:
		if r.trim() {
			r.buf.WriteByte(' ')
		}
	}
	r.tail = st.Right

	defer func() {
		r.frozen = r.buf.Len()
		r.floor = r.frozen
	}()
	v := r.eval(s, st.Expr)
	text, err := Output(v)
	if err != nil {
		r.record(st.Expr, err)
		return
	}
	filter, err := r.tpl.options.filter(st.Filter)
	if err != nil {
		r.record(st, err)
		filter = NoFilter{}
	}
	text, err = filter.Apply(text)
	if err != nil {
		r.record(st, err)
	}
	r.buf.WriteString(text)
}

func (r *renderer) cond(s *scope, st *CondStmt) {
	for _, b := range st.Branches {
		if truthy(r.eval(s, b.Cond)) {
			r.renderBody(s.sub(), b.Body)
			return
		}
	}
	r.renderBody(s.sub(), st.Otherwise)
}

func (r *renderer) loop(s *scope, st *LoopStmt) {
	seq := r.eval(s, st.Iter)
	skip := func(sub *scope) bool {
		return st.Skip != nil && truthy(r.eval(sub, st.Skip))
	}
	if len(st.Target) == 2 {
		pairs, err := IteratePairs(seq)
		if err != nil {
			r.record(st.Iter, err)
			return
		}
		for k, v := range pairs {
			sub := s.sub()
			sub.set(st.Target[0], k)
			sub.set(st.Target[1], v)
			if !skip(sub) {
				r.renderBody(sub, st.Body)
			}
		}
		return
	}
	items, err := Iterate(seq)
	if err != nil {
		r.record(st.Iter, err)
		return
	}
	for item := range items {
		sub := s.sub()
		sub.set(st.Target[0], item)
		if !skip(sub) {
			r.renderBody(sub, st.Body)
		}
	}
}
