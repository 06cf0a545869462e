package trimmer

import (
	"iter"
	"maps"
	"slices"
	"strconv"
)

// Context is the usual root of a render: a set of named variables.
type Context map[string]Variable

// NewContext converts a map of Go values into a Context.
func NewContext(m map[string]any) Context {
	ctx := Context{}
	for k, v := range m {
		ctx[k] = ValueOf(v)
	}
	return ctx
}

// Set stores v under name, wrapping it with ValueOf.
func (c Context) Set(name string, v any) {
	c[name] = ValueOf(v)
}

// Merge copies every pair of other into c, overwriting existing names.
func (c Context) Merge(other Context) {
	maps.Copy(c, other)
}

func (Context) Typename() string        { return "context" }
func (c Context) AsBool() (bool, error) { return len(c) > 0, nil }

func (c Context) Attr(name string) (Variable, error) {
	if v, ok := c[name]; ok {
		return v, nil
	}
	return nil, &DataError{Kind: AttrNotFound, Type: "context", Name: name}
}

func (c Context) Index(key Variable) (Variable, error) {
	k, err := AsStrKey(key)
	if err != nil {
		return nil, err
	}
	if v, ok := c[k]; ok {
		return v, nil
	}
	return nil, &DataError{Kind: IndexNotFound, Type: "context", Name: strconv.Quote(k)}
}

func (c Context) IteratePairs() (iter.Seq2[Variable, Variable], error) {
	return func(yield func(Variable, Variable) bool) {
		for _, k := range slices.Sorted(maps.Keys(c)) {
			if !yield(Str(k), c[k]) {
				return
			}
		}
	}, nil
}

// scope is one frame of the lookup chain. Conditional branches and loop
// iterations push a child frame; `let` writes into the current frame.
type scope struct {
	parent *scope
	locals map[string]Variable
	root   Variable
}

func newScope(root Variable) *scope {
	return &scope{root: root}
}

func (s *scope) sub() *scope {
	return &scope{parent: s, root: s.root}
}

func (s *scope) set(name string, v Variable) {
	if s.locals == nil {
		s.locals = map[string]Variable{}
	}
	s.locals[name] = v
}

func (s *scope) lookup(name string) (Variable, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.locals[name]; ok {
			return v, nil
		}
	}
	if s.root == nil {
		return nil, &DataError{Kind: VariableNotFound, Name: name}
	}
	v, err := Attr(s.root, name)
	if err != nil {
		if de, ok := err.(*DataError); ok && (de.Kind == AttrNotFound || de.Kind == AttrUnsupported) {
			return nil, &DataError{Kind: VariableNotFound, Name: name}
		}
		return nil, err
	}
	return v, nil
}
