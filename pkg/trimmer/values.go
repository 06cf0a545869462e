package trimmer

import (
	"iter"
	"maps"
	"math"
	"slices"
	"strconv"
)

// Str wraps a string.
type Str string

func (Str) Typename() string                    { return "string" }
func (s Str) Output() (string, error)           { return string(s), nil }
func (s Str) AsStrKey() (string, error)         { return string(s), nil }
func (s Str) AsBool() (bool, error)             { return len(s) > 0, nil }
func (s Str) AsComparable() (Comparable, error) { return CmpOfStr(string(s)), nil }

// Int wraps a signed integer.
type Int int64

func (Int) Typename() string                    { return "int" }
func (i Int) Output() (string, error)           { return strconv.FormatInt(int64(i), 10), nil }
func (i Int) AsIntKey() (int, error)            { return int(i), nil }
func (i Int) AsBool() (bool, error)             { return i != 0, nil }
func (i Int) AsNumber() (Number, error)         { return IntNumber(int64(i)), nil }
func (i Int) AsComparable() (Comparable, error) { return CmpOfInt(int64(i)), nil }

// Uint wraps an unsigned integer.
type Uint uint64

func (Uint) Typename() string          { return "uint" }
func (u Uint) Output() (string, error) { return strconv.FormatUint(uint64(u), 10), nil }
func (u Uint) AsIntKey() (int, error) {
	if uint64(u) > math.MaxInt {
		return 0, &DataError{Kind: IndexNotFound, Type: "uint", Name: u.String()}
	}
	return int(u), nil
}
func (u Uint) AsBool() (bool, error)             { return u != 0, nil }
func (u Uint) AsNumber() (Number, error)         { return UintNumber(uint64(u)), nil }
func (u Uint) AsComparable() (Comparable, error) { return CmpOfUint(uint64(u)), nil }
func (u Uint) String() string                    { return strconv.FormatUint(uint64(u), 10) }

// Float wraps a float64.
type Float float64

func (Float) Typename() string                    { return "float" }
func (f Float) Output() (string, error)           { return formatFloat(float64(f)), nil }
func (f Float) AsBool() (bool, error)             { return f != 0, nil }
func (f Float) AsNumber() (Number, error)         { return FloatNumber(float64(f)), nil }
func (f Float) AsComparable() (Comparable, error) { return CmpOfFloat(float64(f)), nil }

// Bool wraps a boolean.
type Bool bool

func (Bool) Typename() string { return "bool" }
func (b Bool) Output() (string, error) {
	if b {
		return "true", nil
	}
	return "false", nil
}
func (b Bool) AsBool() (bool, error)             { return bool(b), nil }
func (b Bool) AsComparable() (Comparable, error) { return CmpOfBool(bool(b)), nil }

// None is an explicit null, as found in JSON or YAML data.
type None struct{}

func (None) Typename() string        { return "none" }
func (None) Output() (string, error) { return "", nil }
func (None) AsBool() (bool, error)   { return false, nil }

// Undefined is produced by missing attributes and items. It renders as an
// empty string, iterates as empty, is falsy, and any attribute or item of it
// is Undefined again.
type Undefined struct{}

func (Undefined) Typename() string                     { return "undefined" }
func (Undefined) Output() (string, error)              { return "", nil }
func (Undefined) AsBool() (bool, error)                { return false, nil }
func (u Undefined) Attr(string) (Variable, error)      { return u, nil }
func (u Undefined) Index(Variable) (Variable, error)   { return u, nil }
func (Undefined) Iterate() (iter.Seq[Variable], error) { return func(func(Variable) bool) {}, nil }
func (Undefined) IteratePairs() (iter.Seq2[Variable, Variable], error) {
	return func(func(Variable, Variable) bool) {}, nil
}

// List is an ordered sequence of variables.
type List []Variable

func (List) Typename() string        { return "list" }
func (l List) AsBool() (bool, error) { return len(l) > 0, nil }
func (l List) Index(key Variable) (Variable, error) {
	i, err := AsIntKey(key)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(l) {
		return nil, &DataError{Kind: IndexNotFound, Type: "list", Name: strconv.Itoa(i)}
	}
	return l[i], nil
}
func (l List) Iterate() (iter.Seq[Variable], error) { return slices.Values(l), nil }

// Map is a string-keyed dictionary. Pair iteration follows sorted key order.
type Map map[string]Variable

func (Map) Typename() string        { return "map" }
func (m Map) AsBool() (bool, error) { return len(m) > 0, nil }
func (m Map) Attr(name string) (Variable, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return nil, &DataError{Kind: AttrNotFound, Type: "map", Name: name}
}
func (m Map) Index(key Variable) (Variable, error) {
	k, err := AsStrKey(key)
	if err != nil {
		return nil, err
	}
	if v, ok := m[k]; ok {
		return v, nil
	}
	return nil, &DataError{Kind: IndexNotFound, Type: "map", Name: strconv.Quote(k)}
}
func (m Map) IteratePairs() (iter.Seq2[Variable, Variable], error) {
	return func(yield func(Variable, Variable) bool) {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if !yield(Str(k), m[k]) {
				return
			}
		}
	}, nil
}

// rangeValue is the result of `a..b`. An open end can not be iterated.
type rangeValue struct {
	start, end Number
	open       bool
}

func (rangeValue) Typename() string { return "range" }

func (r rangeValue) AsBool() (bool, error) {
	if r.open {
		return true, nil
	}
	c, _, err := CmpOfNumber(r.start).Compare(CmpOfNumber(r.end))
	return err == nil && c < 0, nil
}

func (r rangeValue) Iterate() (iter.Seq[Variable], error) {
	if r.open {
		return nil, &DataError{Kind: IterationUnsupported, Type: "unbounded range"}
	}
	if r.start.Kind == NumFloat || r.end.Kind == NumFloat {
		return nil, &DataError{Kind: IterationUnsupported, Type: "float range"}
	}
	one := IntNumber(1)
	return func(yield func(Variable) bool) {
		for cur := r.start; ; cur = cur.Add(one) {
			c, _, _ := CmpOfNumber(cur).Compare(CmpOfNumber(r.end))
			if c >= 0 || !yield(cur.Variable()) {
				return
			}
		}
	}, nil
}

// CmpOfNumber converts a Number into a Comparable.
func CmpOfNumber(n Number) Comparable {
	switch n.Kind {
	case NumInt:
		return CmpOfInt(n.Int)
	case NumUint:
		return CmpOfUint(n.Uint)
	}
	return CmpOfFloat(n.Float)
}
