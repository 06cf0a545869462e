package trimmer

import (
	"fmt"
	"strings"
)

// ParseErrorKind classifies template parse failures.
type ParseErrorKind int

const (
	InvalidSyntax ParseErrorKind = iota
	InvalidSyntaxDirective
	DuplicateSyntaxDirective
	BadRegexValidator
	BadFilter
)

func (k ParseErrorKind) String() string {
	switch k {
	case InvalidSyntax:
		return "invalid syntax"
	case InvalidSyntaxDirective:
		return "invalid syntax directive"
	case DuplicateSyntaxDirective:
		return "duplicate syntax directive"
	case BadRegexValidator:
		return "bad regex validator"
	case BadFilter:
		return "bad filter"
	}
	return fmt.Sprintf("ParseErrorKind(%d)", int(k))
}

// ParseError is returned by the parser. Pos points at the failing token.
type ParseError struct {
	Kind    ParseErrorKind
	Pos     Pos
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return e.Pos.String() + ": " + msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// expectedList formats alternatives as "`a`, `b` or `c`".
func expectedList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}

// DataErrorKind classifies failures raised while rendering against data.
type DataErrorKind int

const (
	AttrUnsupported DataErrorKind = iota
	AttrNotFound
	IndexUnsupported
	IndexNotFound
	StrKeyUnsupported
	IntKeyUnsupported
	OutputUnsupported
	BoolUnsupported
	NumberUnsupported
	ComparisonUnsupported
	IncomparableTypes
	IterationUnsupported
	PairIterationUnsupported
	VariableNotFound
	DivisionByZero
	UnknownFilter
	ValidationFailed
	Custom
)

// DataError describes a single failed operation on a Variable.
type DataError struct {
	Kind DataErrorKind
	// Type is the typename of the variable the operation was applied to.
	Type string
	// Name holds the attribute, variable or filter name when relevant.
	Name   string
	Detail string
}

func (e *DataError) Error() string {
	switch e.Kind {
	case AttrUnsupported:
		return fmt.Sprintf("%s has no attributes", e.Type)
	case AttrNotFound:
		return fmt.Sprintf("%s has no attribute %q", e.Type, e.Name)
	case IndexUnsupported:
		return fmt.Sprintf("%s can not be indexed", e.Type)
	case IndexNotFound:
		return fmt.Sprintf("%s has no item %s", e.Type, e.Name)
	case StrKeyUnsupported:
		return fmt.Sprintf("%s can not be used as a string key", e.Type)
	case IntKeyUnsupported:
		return fmt.Sprintf("%s can not be used as an integer key", e.Type)
	case OutputUnsupported:
		return fmt.Sprintf("%s can not be rendered", e.Type)
	case BoolUnsupported:
		return fmt.Sprintf("%s can not be used as a boolean", e.Type)
	case NumberUnsupported:
		return fmt.Sprintf("%s can not be used as a number", e.Type)
	case ComparisonUnsupported:
		return fmt.Sprintf("%s can not be compared", e.Type)
	case IncomparableTypes:
		return fmt.Sprintf("can not compare %s", e.Type)
	case IterationUnsupported:
		return fmt.Sprintf("%s is not iterable", e.Type)
	case PairIterationUnsupported:
		return fmt.Sprintf("%s can not be iterated by pairs", e.Type)
	case VariableNotFound:
		return fmt.Sprintf("variable %q not found", e.Name)
	case DivisionByZero:
		return "division by zero"
	case UnknownFilter:
		return fmt.Sprintf("unknown filter %q", e.Name)
	case ValidationFailed:
		return fmt.Sprintf("output %q does not match validator %q", e.Detail, e.Name)
	}
	return e.Detail
}

func unsupported(kind DataErrorKind, v Variable) *DataError {
	return &DataError{Kind: kind, Type: typename(v)}
}

// ErrorEntry is one collected data error with the template span of the
// failing expression and the output offset at which it happened.
type ErrorEntry struct {
	Span   Span
	Offset int
	Err    error
}

func (e ErrorEntry) String() string {
	return fmt.Sprintf("%s (output offset %d): %v", e.Span.Start, e.Offset, e.Err)
}

// RenderError carries every data error collected during one render.
type RenderError struct {
	Errors []ErrorEntry
}

func (e *RenderError) Error() string {
	if len(e.Errors) == 1 {
		return "render error: " + e.Errors[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d render errors:", len(e.Errors))
	for _, entry := range e.Errors {
		b.WriteString("\n  ")
		b.WriteString(entry.String())
	}
	return b.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *RenderError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, entry := range e.Errors {
		out[i] = entry.Err
	}
	return out
}
