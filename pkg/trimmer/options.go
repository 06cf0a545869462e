package trimmer

import (
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/neurodesk/trimmer/pkg/validator"
)

// Syntax selects the postprocessing applied to a parsed template.
type Syntax int

const (
	SyntaxPlain Syntax = iota
	SyntaxIndent
	SyntaxOneline
)

var syntaxNames = map[string]Syntax{
	"plain":   SyntaxPlain,
	"indent":  SyntaxIndent,
	"oneline": SyntaxOneline,
}

func (s Syntax) String() string {
	for name, v := range syntaxNames {
		if v == s {
			return name
		}
	}
	return fmt.Sprintf("Syntax(%d)", int(s))
}

// ParseSyntax maps a `## syntax:` name to a Syntax.
func ParseSyntax(name string) (Syntax, error) {
	if s, ok := syntaxNames[name]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown syntax %q, expected plain, indent or oneline", name)
}

// WhitespaceMode is the whitespace control of one side of an output tag.
// Modes are ordered so that the smaller one trims more.
type WhitespaceMode int

const (
	Strip    WhitespaceMode = iota // {{- -}}
	Space                          // {{+ +}}
	Preserve                       // {{ }}
)

func (m WhitespaceMode) String() string {
	switch m {
	case Strip:
		return "strip"
	case Space:
		return "space"
	}
	return "preserve"
}

// Filter post-processes the text of every `{{ }}` output. Validators return
// the text unchanged or a ValidationFailed error; escapes rewrite it.
type Filter interface {
	Apply(s string) (string, error)
}

// NoFilter passes output through.
type NoFilter struct{}

func (NoFilter) Apply(s string) (string, error) { return s, nil }

func (NoFilter) String() string { return "none" }

// RegexValidator requires every output to match an anchored regexp.
type RegexValidator struct {
	Source string
	Regexp *regexp.Regexp
}

// NewRegexValidator compiles pattern, anchoring it at both ends.
func NewRegexValidator(pattern string) (*RegexValidator, error) {
	anchored := pattern
	if !strings.HasPrefix(anchored, "^") {
		anchored = "^" + anchored
	}
	if !strings.HasSuffix(anchored, "$") {
		anchored += "$"
	}
	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, err
	}
	return &RegexValidator{Source: pattern, Regexp: re}, nil
}

func (v *RegexValidator) Apply(s string) (string, error) {
	if !v.Regexp.MatchString(s) {
		return s, &DataError{Kind: ValidationFailed, Name: v.Source, Detail: s}
	}
	return s, nil
}

func (v *RegexValidator) String() string { return "validate " + v.Source }

// EscapeFilter rewrites output with one of the builtin escapes.
type EscapeFilter struct {
	Name   string
	Escape func(string) string
}

func (f EscapeFilter) Apply(s string) (string, error) { return f.Escape(s), nil }

func (f EscapeFilter) String() string { return f.Name }

// Options control parsing and rendering of one template.
type Options struct {
	Syntax        Syntax
	DefaultFilter Filter
	Filters       map[string]Filter
	// Curly, Square and Round require balanced brackets of that style in
	// the raw text of every block.
	Curly  bool
	Square bool
	Round  bool
}

func DefaultOptions() Options {
	return Options{Syntax: SyntaxPlain, DefaultFilter: NoFilter{}}
}

func (o Options) WithSyntax(s Syntax) Options {
	o.Syntax = s
	return o
}

// WithFilter returns a copy of o with a named filter. The name "default"
// replaces the default filter.
func (o Options) WithFilter(name string, f Filter) Options {
	if name == "default" {
		o.DefaultFilter = f
		return o
	}
	o.Filters = maps.Clone(o.Filters)
	if o.Filters == nil {
		o.Filters = map[string]Filter{}
	}
	o.Filters[name] = f
	return o
}

func (o Options) Validate() error {
	return validator.All(
		validator.MatchesAllowed(o.Syntax, []Syntax{SyntaxPlain, SyntaxIndent, SyntaxOneline}, "syntax"),
		validator.MapDict(o.Filters, func(name string, f Filter) error {
			return validator.All(
				validator.Identifier(name, "filter name"),
				validator.NotNil(f, "filter "+name),
			)
		}, "filters"),
	)
}

// filter resolves the filter of an output tag.
func (o Options) filter(name string) (Filter, error) {
	if name == "" {
		if o.DefaultFilter == nil {
			return NoFilter{}, nil
		}
		return o.DefaultFilter, nil
	}
	if name == "default" && o.DefaultFilter != nil {
		return o.DefaultFilter, nil
	}
	if f, ok := o.Filters[name]; ok {
		return f, nil
	}
	return nil, &DataError{Kind: UnknownFilter, Name: name}
}

func (o Options) clone() Options {
	o.Filters = maps.Clone(o.Filters)
	return o
}
