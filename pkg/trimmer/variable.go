package trimmer

import (
	"iter"
)

// Variable is any value a template can refer to. The only required method
// is Typename; every other operation is an optional capability interface
// below and reports an "unsupported" DataError when a type lacks it.
type Variable interface {
	Typename() string
}

// AttrGetter resolves `value.name`.
type AttrGetter interface {
	Attr(name string) (Variable, error)
}

// Indexer resolves `value[key]`.
type Indexer interface {
	Index(key Variable) (Variable, error)
}

// Outputter renders the value into template output.
type Outputter interface {
	Output() (string, error)
}

// StrKeyer allows a value to be used as a string key in an index expression.
type StrKeyer interface {
	AsStrKey() (string, error)
}

// IntKeyer allows a value to be used as an integer key in an index expression.
type IntKeyer interface {
	AsIntKey() (int, error)
}

// Booler converts the value for `## if`, `and`, `or` and `not`.
type Booler interface {
	AsBool() (bool, error)
}

// Numberer converts the value for arithmetic.
type Numberer interface {
	AsNumber() (Number, error)
}

// Comparer converts the value for comparison operators.
type Comparer interface {
	AsComparable() (Comparable, error)
}

// Iterable yields items for `## for x in value`.
type Iterable interface {
	Iterate() (iter.Seq[Variable], error)
}

// PairIterable yields pairs for `## for k, v in value`.
type PairIterable interface {
	IteratePairs() (iter.Seq2[Variable, Variable], error)
}

func typename(v Variable) string {
	if v == nil {
		return "nil"
	}
	return v.Typename()
}

// Attr returns the named attribute of v.
func Attr(v Variable, name string) (Variable, error) {
	if a, ok := v.(AttrGetter); ok {
		return a.Attr(name)
	}
	return nil, unsupported(AttrUnsupported, v)
}

// Index returns v[key].
func Index(v Variable, key Variable) (Variable, error) {
	if i, ok := v.(Indexer); ok {
		return i.Index(key)
	}
	return nil, unsupported(IndexUnsupported, v)
}

// Output renders v as text.
func Output(v Variable) (string, error) {
	if o, ok := v.(Outputter); ok {
		return o.Output()
	}
	return "", unsupported(OutputUnsupported, v)
}

// AsStrKey converts v to a string key.
func AsStrKey(v Variable) (string, error) {
	if k, ok := v.(StrKeyer); ok {
		return k.AsStrKey()
	}
	return "", unsupported(StrKeyUnsupported, v)
}

// AsIntKey converts v to an integer key.
func AsIntKey(v Variable) (int, error) {
	if k, ok := v.(IntKeyer); ok {
		return k.AsIntKey()
	}
	return 0, unsupported(IntKeyUnsupported, v)
}

// AsBool converts v to a boolean.
func AsBool(v Variable) (bool, error) {
	if b, ok := v.(Booler); ok {
		return b.AsBool()
	}
	return false, unsupported(BoolUnsupported, v)
}

// AsNumber converts v to a Number.
func AsNumber(v Variable) (Number, error) {
	if n, ok := v.(Numberer); ok {
		return n.AsNumber()
	}
	return Number{}, unsupported(NumberUnsupported, v)
}

// AsComparable converts v to a Comparable.
func AsComparable(v Variable) (Comparable, error) {
	if c, ok := v.(Comparer); ok {
		return c.AsComparable()
	}
	return Comparable{}, unsupported(ComparisonUnsupported, v)
}

// Iterate returns the items of v.
func Iterate(v Variable) (iter.Seq[Variable], error) {
	if it, ok := v.(Iterable); ok {
		return it.Iterate()
	}
	return nil, unsupported(IterationUnsupported, v)
}

// IteratePairs returns the key/value pairs of v.
func IteratePairs(v Variable) (iter.Seq2[Variable, Variable], error) {
	if it, ok := v.(PairIterable); ok {
		return it.IteratePairs()
	}
	return nil, unsupported(PairIterationUnsupported, v)
}

// truthy is the boolean coercion used by conditionals and boolean
// operators: a value that can not be coerced counts as true.
func truthy(v Variable) bool {
	b, err := AsBool(v)
	if err != nil {
		return true
	}
	return b
}

// isTolerated reports whether err is a missing attribute or item, which
// evaluates to Undefined instead of being recorded.
func isTolerated(err error) bool {
	de, ok := err.(*DataError)
	return ok && (de.Kind == AttrNotFound || de.Kind == IndexNotFound)
}
