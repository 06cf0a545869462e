// Package jsonvar exposes decoded JSON documents to templates.
package jsonvar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"

	"github.com/neurodesk/trimmer/pkg/trimmer"
)

// Value wraps one node of a JSON document as decoded by encoding/json with
// UseNumber: nil, bool, json.Number, string, []any or map[string]any.
type Value struct {
	v any
}

// Parse decodes data into a Variable. Numbers keep their integer or float
// form.
func Parse(data []byte) (trimmer.Variable, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decoding json: unexpected data after the first value")
	}
	return wrap(v), nil
}

// ParseObject decodes data that must hold a JSON object into a Context.
func ParseObject(data []byte) (trimmer.Context, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	val, _ := v.(Value)
	obj, ok := val.v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a json object, got %s", v.Typename())
	}
	ctx := make(trimmer.Context, len(obj))
	for k, item := range obj {
		ctx[k] = wrap(item)
	}
	return ctx, nil
}

// Wrap exposes an already decoded JSON value.
func Wrap(v any) Value { return Value{v} }

// wrap maps JSON null to trimmer.None so it compares equal to undefined
// values.
func wrap(v any) trimmer.Variable {
	if v == nil {
		return trimmer.None{}
	}
	return Value{v}
}

func (j Value) Typename() string {
	switch j.v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", j.v)
}

func (j Value) number() (trimmer.Number, bool) {
	switch n := j.v.(type) {
	case float64:
		return trimmer.FloatNumber(n), true
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return trimmer.IntNumber(i), true
		}
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return trimmer.UintNumber(u), true
		}
		if f, err := n.Float64(); err == nil {
			return trimmer.FloatNumber(f), true
		}
	}
	return trimmer.Number{}, false
}

func (j Value) Output() (string, error) {
	switch v := j.v.(type) {
	case nil:
		return "", nil
	case bool:
		return strconv.FormatBool(v), nil
	case string:
		return v, nil
	}
	if n, ok := j.number(); ok {
		return n.String(), nil
	}
	return "", &trimmer.DataError{Kind: trimmer.OutputUnsupported, Type: j.Typename()}
}

func (j Value) AsBool() (bool, error) {
	switch v := j.v.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return v != "", nil
	case []any:
		return len(v) > 0, nil
	case map[string]any:
		return len(v) > 0, nil
	}
	n, _ := j.number()
	return n.Float64() != 0, nil
}

func (j Value) AsNumber() (trimmer.Number, error) {
	if n, ok := j.number(); ok {
		return n, nil
	}
	return trimmer.Number{}, &trimmer.DataError{Kind: trimmer.NumberUnsupported, Type: j.Typename()}
}

func (j Value) AsComparable() (trimmer.Comparable, error) {
	switch v := j.v.(type) {
	case bool:
		return trimmer.CmpOfBool(v), nil
	case string:
		return trimmer.CmpOfStr(v), nil
	}
	if n, ok := j.number(); ok {
		return trimmer.CmpOfNumber(n), nil
	}
	return trimmer.Comparable{}, &trimmer.DataError{Kind: trimmer.ComparisonUnsupported, Type: j.Typename()}
}

func (j Value) AsStrKey() (string, error) {
	if s, ok := j.v.(string); ok {
		return s, nil
	}
	return "", &trimmer.DataError{Kind: trimmer.StrKeyUnsupported, Type: j.Typename()}
}

func (j Value) AsIntKey() (int, error) {
	if n, ok := j.number(); ok {
		switch n.Kind {
		case trimmer.NumInt:
			return int(n.Int), nil
		case trimmer.NumUint:
			return int(n.Uint), nil
		}
	}
	return 0, &trimmer.DataError{Kind: trimmer.IntKeyUnsupported, Type: j.Typename()}
}

func (j Value) Attr(name string) (trimmer.Variable, error) {
	obj, ok := j.v.(map[string]any)
	if !ok {
		return nil, &trimmer.DataError{Kind: trimmer.AttrUnsupported, Type: j.Typename()}
	}
	if v, ok := obj[name]; ok {
		return wrap(v), nil
	}
	return nil, &trimmer.DataError{Kind: trimmer.AttrNotFound, Type: "object", Name: name}
}

func (j Value) Index(key trimmer.Variable) (trimmer.Variable, error) {
	switch v := j.v.(type) {
	case map[string]any:
		k, err := trimmer.AsStrKey(key)
		if err != nil {
			return nil, err
		}
		if item, ok := v[k]; ok {
			return wrap(item), nil
		}
		return nil, &trimmer.DataError{Kind: trimmer.IndexNotFound, Type: "object", Name: strconv.Quote(k)}
	case []any:
		i, err := trimmer.AsIntKey(key)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(v) {
			return nil, &trimmer.DataError{Kind: trimmer.IndexNotFound, Type: "array", Name: strconv.Itoa(i)}
		}
		return wrap(v[i]), nil
	}
	return nil, &trimmer.DataError{Kind: trimmer.IndexUnsupported, Type: j.Typename()}
}

func (j Value) Iterate() (iter.Seq[trimmer.Variable], error) {
	arr, ok := j.v.([]any)
	if !ok {
		return nil, &trimmer.DataError{Kind: trimmer.IterationUnsupported, Type: j.Typename()}
	}
	return func(yield func(trimmer.Variable) bool) {
		for _, item := range arr {
			if !yield(wrap(item)) {
				return
			}
		}
	}, nil
}

// IteratePairs yields object members in key order and array items with
// their index.
func (j Value) IteratePairs() (iter.Seq2[trimmer.Variable, trimmer.Variable], error) {
	switch v := j.v.(type) {
	case map[string]any:
		return func(yield func(trimmer.Variable, trimmer.Variable) bool) {
			for _, k := range slices.Sorted(maps.Keys(v)) {
				if !yield(trimmer.Str(k), wrap(v[k])) {
					return
				}
			}
		}, nil
	case []any:
		return func(yield func(trimmer.Variable, trimmer.Variable) bool) {
			for i, item := range v {
				if !yield(trimmer.Int(i), wrap(item)) {
					return
				}
			}
		}, nil
	}
	return nil, &trimmer.DataError{Kind: trimmer.PairIterationUnsupported, Type: j.Typename()}
}
