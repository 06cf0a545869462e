package starlark

import (
	"iter"
	"strconv"

	"github.com/neurodesk/trimmer/pkg/trimmer"
	"go.starlark.net/starlark"
)

// ToStarlark converts a template variable to a Starlark value
func ToStarlark(val trimmer.Variable) starlark.Value {
	if val == nil {
		return starlark.None
	}

	switch v := val.(type) {
	case Value:
		return v.v
	case trimmer.Str:
		return starlark.String(string(v))
	case trimmer.Int:
		return starlark.MakeInt64(int64(v))
	case trimmer.Uint:
		return starlark.MakeUint64(uint64(v))
	case trimmer.Float:
		return starlark.Float(float64(v))
	case trimmer.Bool:
		return starlark.Bool(bool(v))
	case trimmer.None, trimmer.Undefined:
		return starlark.None
	case trimmer.List:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			items[i] = ToStarlark(item)
		}
		return starlark.NewList(items)
	}

	if items, err := trimmer.Iterate(val); err == nil {
		var list []starlark.Value
		for item := range items {
			list = append(list, ToStarlark(item))
		}
		return starlark.NewList(list)
	}
	if pairs, err := trimmer.IteratePairs(val); err == nil {
		dict := starlark.NewDict(0)
		for k, item := range pairs {
			key, err := trimmer.AsStrKey(k)
			if err != nil {
				continue
			}
			_ = dict.SetKey(starlark.String(key), ToStarlark(item))
		}
		return dict
	}
	if n, err := trimmer.AsNumber(val); err == nil {
		return ToStarlark(n.Variable())
	}
	if c, err := trimmer.AsComparable(val); err == nil && c.Kind == trimmer.CmpBool {
		return starlark.Bool(c.Bool)
	}
	if s, err := trimmer.Output(val); err == nil {
		return starlark.String(s)
	}
	return starlark.None
}

// FromStarlark exposes a Starlark value to templates. Containers are
// wrapped, not copied.
func FromStarlark(val starlark.Value) trimmer.Variable {
	if val == nil || val == starlark.None {
		return trimmer.None{}
	}
	return Value{val}
}

// Value wraps a Starlark value as a template variable.
type Value struct {
	v starlark.Value
}

func (w Value) Typename() string { return w.v.Type() }

func (w Value) unsupported(kind trimmer.DataErrorKind) error {
	return &trimmer.DataError{Kind: kind, Type: w.v.Type()}
}

func (w Value) Output() (string, error) {
	switch v := w.v.(type) {
	case starlark.String:
		return string(v), nil
	case starlark.Bool:
		return strconv.FormatBool(bool(v)), nil
	case starlark.Int, starlark.Float:
		n, _ := w.AsNumber()
		return n.String(), nil
	case starlark.Bytes:
		return string(v), nil
	}
	return "", w.unsupported(trimmer.OutputUnsupported)
}

func (w Value) AsBool() (bool, error) { return bool(w.v.Truth()), nil }

func (w Value) AsNumber() (trimmer.Number, error) {
	switch v := w.v.(type) {
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return trimmer.IntNumber(i), nil
		}
		if u, ok := v.Uint64(); ok {
			return trimmer.UintNumber(u), nil
		}
		return trimmer.FloatNumber(float64(v.Float())), nil
	case starlark.Float:
		return trimmer.FloatNumber(float64(v)), nil
	}
	return trimmer.Number{}, w.unsupported(trimmer.NumberUnsupported)
}

func (w Value) AsComparable() (trimmer.Comparable, error) {
	switch v := w.v.(type) {
	case starlark.String:
		return trimmer.CmpOfStr(string(v)), nil
	case starlark.Bool:
		return trimmer.CmpOfBool(bool(v)), nil
	case starlark.Int, starlark.Float:
		n, _ := w.AsNumber()
		return trimmer.CmpOfNumber(n), nil
	}
	return trimmer.Comparable{}, w.unsupported(trimmer.ComparisonUnsupported)
}

func (w Value) AsStrKey() (string, error) {
	if s, ok := w.v.(starlark.String); ok {
		return string(s), nil
	}
	return "", w.unsupported(trimmer.StrKeyUnsupported)
}

func (w Value) AsIntKey() (int, error) {
	if i, ok := w.v.(starlark.Int); ok {
		if n, ok := i.Int64(); ok {
			return int(n), nil
		}
	}
	return 0, w.unsupported(trimmer.IntKeyUnsupported)
}

// Attr looks up dict keys first, then attributes of structs and modules.
func (w Value) Attr(name string) (trimmer.Variable, error) {
	if m, ok := w.v.(starlark.Mapping); ok {
		v, found, err := m.Get(starlark.String(name))
		if err != nil {
			return nil, err
		}
		if found {
			return FromStarlark(v), nil
		}
		return nil, &trimmer.DataError{Kind: trimmer.AttrNotFound, Type: w.v.Type(), Name: name}
	}
	if h, ok := w.v.(starlark.HasAttrs); ok {
		v, err := h.Attr(name)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, &trimmer.DataError{Kind: trimmer.AttrNotFound, Type: w.v.Type(), Name: name}
		}
		return FromStarlark(v), nil
	}
	return nil, w.unsupported(trimmer.AttrUnsupported)
}

func (w Value) Index(key trimmer.Variable) (trimmer.Variable, error) {
	switch v := w.v.(type) {
	case starlark.Mapping:
		item, found, err := v.Get(ToStarlark(key))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, &trimmer.DataError{Kind: trimmer.IndexNotFound, Type: w.v.Type(), Name: ToStarlark(key).String()}
		}
		return FromStarlark(item), nil
	case starlark.Indexable:
		i, err := trimmer.AsIntKey(key)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= v.Len() {
			return nil, &trimmer.DataError{Kind: trimmer.IndexNotFound, Type: w.v.Type(), Name: strconv.Itoa(i)}
		}
		return FromStarlark(v.Index(i)), nil
	}
	return nil, w.unsupported(trimmer.IndexUnsupported)
}

func (w Value) Iterate() (iter.Seq[trimmer.Variable], error) {
	it, ok := w.v.(starlark.Iterable)
	if !ok {
		return nil, w.unsupported(trimmer.IterationUnsupported)
	}
	return func(yield func(trimmer.Variable) bool) {
		items := it.Iterate()
		defer items.Done()
		var x starlark.Value
		for items.Next(&x) {
			if !yield(FromStarlark(x)) {
				return
			}
		}
	}, nil
}

// IteratePairs yields dict items in insertion order and list items with
// their index.
func (w Value) IteratePairs() (iter.Seq2[trimmer.Variable, trimmer.Variable], error) {
	switch v := w.v.(type) {
	case starlark.IterableMapping:
		return func(yield func(trimmer.Variable, trimmer.Variable) bool) {
			for _, item := range v.Items() {
				if !yield(FromStarlark(item[0]), FromStarlark(item[1])) {
					return
				}
			}
		}, nil
	case starlark.Indexable:
		return func(yield func(trimmer.Variable, trimmer.Variable) bool) {
			for i := 0; i < v.Len(); i++ {
				if !yield(trimmer.Int(i), FromStarlark(v.Index(i))) {
					return
				}
			}
		}, nil
	}
	return nil, w.unsupported(trimmer.PairIterationUnsupported)
}
