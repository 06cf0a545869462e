package trimmer

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// ValueOf wraps a Go value as a Variable. Scalars map to the builtin types;
// slices, arrays, string-keyed maps, structs and pointers are wrapped
// lazily so nothing is copied up front.
func ValueOf(v any) Variable {
	if v == nil {
		return None{}
	}
	switch t := v.(type) {
	case Variable:
		return t
	case string:
		return Str(t)
	case bool:
		return Bool(t)
	case int:
		return Int(t)
	case int8:
		return Int(t)
	case int16:
		return Int(t)
	case int32:
		return Int(t)
	case int64:
		return Int(t)
	case uint:
		return Uint(t)
	case uint8:
		return Uint(t)
	case uint16:
		return Uint(t)
	case uint32:
		return Uint(t)
	case uint64:
		return Uint(t)
	case float32:
		return Float(t)
	case float64:
		return Float(t)
	case []byte:
		return Str(t)
	}
	return reflectValue(reflect.ValueOf(v))
}

func reflectValue(rv reflect.Value) Variable {
	switch rv.Kind() {
	case reflect.Invalid:
		return None{}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return None{}
		}
	}
	if rv.CanInterface() {
		if v, ok := rv.Interface().(Variable); ok {
			return v
		}
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return reflectValue(rv.Elem())
	case reflect.Slice, reflect.Array, reflect.Struct:
		return goValue{rv}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return goValue{rv}
		}
	case reflect.String:
		return Str(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	}
	return goValue{rv}
}

// goValue exposes a composite Go value through reflection.
type goValue struct {
	rv reflect.Value
}

func (g goValue) Typename() string {
	switch g.rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "map"
	}
	return g.rv.Type().String()
}

func (g goValue) Output() (string, error) {
	if g.rv.CanInterface() {
		if s, ok := g.rv.Interface().(fmt.Stringer); ok {
			return s.String(), nil
		}
	}
	return "", unsupported(OutputUnsupported, g)
}

func (g goValue) AsBool() (bool, error) {
	switch g.rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return g.rv.Len() > 0, nil
	}
	return false, unsupported(BoolUnsupported, g)
}

func (g goValue) Attr(name string) (Variable, error) {
	switch g.rv.Kind() {
	case reflect.Map:
		return g.mapItem(name, AttrNotFound)
	case reflect.Struct:
		if f, ok := structField(g.rv, name); ok {
			return reflectValue(f), nil
		}
		return nil, &DataError{Kind: AttrNotFound, Type: g.Typename(), Name: name}
	}
	return nil, unsupported(AttrUnsupported, g)
}

func (g goValue) mapItem(key string, missing DataErrorKind) (Variable, error) {
	if g.rv.Type().Key().Kind() != reflect.String {
		return nil, &DataError{Kind: missing, Type: g.Typename(), Name: key}
	}
	v := g.rv.MapIndex(reflect.ValueOf(key).Convert(g.rv.Type().Key()))
	if !v.IsValid() {
		return nil, &DataError{Kind: missing, Type: "map", Name: key}
	}
	return reflectValue(v), nil
}

func (g goValue) Index(key Variable) (Variable, error) {
	switch g.rv.Kind() {
	case reflect.Slice, reflect.Array:
		i, err := AsIntKey(key)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= g.rv.Len() {
			return nil, &DataError{Kind: IndexNotFound, Type: "list", Name: strconv.Itoa(i)}
		}
		return reflectValue(g.rv.Index(i)), nil
	case reflect.Map:
		k, err := AsStrKey(key)
		if err != nil {
			return nil, err
		}
		return g.mapItem(k, IndexNotFound)
	}
	return nil, unsupported(IndexUnsupported, g)
}

func (g goValue) Iterate() (iter.Seq[Variable], error) {
	switch g.rv.Kind() {
	case reflect.Slice, reflect.Array:
		return func(yield func(Variable) bool) {
			for i := 0; i < g.rv.Len(); i++ {
				if !yield(reflectValue(g.rv.Index(i))) {
					return
				}
			}
		}, nil
	}
	return nil, unsupported(IterationUnsupported, g)
}

func (g goValue) IteratePairs() (iter.Seq2[Variable, Variable], error) {
	switch g.rv.Kind() {
	case reflect.Map:
		keys := g.rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
		})
		return func(yield func(Variable, Variable) bool) {
			for _, k := range keys {
				if !yield(reflectValue(k), reflectValue(g.rv.MapIndex(k))) {
					return
				}
			}
		}, nil
	case reflect.Slice, reflect.Array:
		return func(yield func(Variable, Variable) bool) {
			for i := 0; i < g.rv.Len(); i++ {
				if !yield(Int(i), reflectValue(g.rv.Index(i))) {
					return
				}
			}
		}, nil
	}
	return nil, unsupported(PairIterationUnsupported, g)
}

// structField finds an exported field by `trimmer:"name"` tag or by name.
func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("trimmer"), ",")
		if tag == "-" {
			continue
		}
		if tag == name || (tag == "" && f.Name == name) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}
