// Package yamlvar exposes YAML documents to templates without decoding
// them into Go values first.
package yamlvar

import (
	"fmt"
	"iter"
	"math"
	"strconv"

	"github.com/neurodesk/trimmer/pkg/trimmer"
	"gopkg.in/yaml.v3"
)

// Value wraps a YAML node.
type Value struct {
	node *yaml.Node
}

// Parse reads a single YAML document.
func Parse(data []byte) (trimmer.Variable, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if doc.Kind == 0 {
		return trimmer.None{}, nil
	}
	return Wrap(&doc), nil
}

// ParseMapping reads a document whose top level is a mapping into a Context.
func ParseMapping(data []byte) (trimmer.Context, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	ctx := trimmer.Context{}
	if _, ok := v.(trimmer.None); ok {
		return ctx, nil
	}
	val := v.(Value)
	if val.node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a yaml mapping, got %s", val.Typename())
	}
	for k, item := range val.pairs() {
		ctx[k.Value] = variable(item)
	}
	return ctx, nil
}

// Wrap exposes n, resolving document nodes and aliases.
func Wrap(n *yaml.Node) Value {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) == 1:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return Value{n}
		}
	}
	return Value{n}
}

// variable is Wrap with null scalars mapped to trimmer.None.
func variable(n *yaml.Node) trimmer.Variable {
	v := Wrap(n)
	if v.scalarTag() == "!!null" {
		return trimmer.None{}
	}
	return v
}

type entry struct {
	key, value *yaml.Node
}

// pairs yields mapping entries in document order with merge keys
// expanded. Explicit keys win over merged ones wherever `<<` appears, and
// earlier merge sources win over later ones. Each key is yielded once.
func (y Value) pairs() iter.Seq2[*yaml.Node, *yaml.Node] {
	return func(yield func(*yaml.Node, *yaml.Node) bool) {
		for _, e := range entries(y.node, map[*yaml.Node]bool{}) {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// entries flattens mapping m. Mappings already being expanded are skipped
// so recursive merges terminate.
func entries(m *yaml.Node, expanding map[*yaml.Node]bool) []entry {
	if expanding[m] {
		return nil
	}
	expanding[m] = true
	defer delete(expanding, m)

	explicit := make(map[string]bool)
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i]; !isMerge(k) {
			explicit[k.Value] = true
		}
	}
	seen := make(map[string]bool)
	var out []entry
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if !isMerge(k) {
			seen[k.Value] = true
			out = append(out, entry{k, v})
			continue
		}
		for _, src := range mergeSources(v) {
			for _, e := range entries(src, expanding) {
				if explicit[e.key.Value] || seen[e.key.Value] {
					continue
				}
				seen[e.key.Value] = true
				out = append(out, e)
			}
		}
	}
	return out
}

func isMerge(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge"
}

// mergeSources returns the mappings named by a `<<` value: one mapping or
// a sequence of them.
func mergeSources(v *yaml.Node) []*yaml.Node {
	n := Wrap(v).node
	switch n.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{n}
	case yaml.SequenceNode:
		var srcs []*yaml.Node
		for _, item := range n.Content {
			if m := Wrap(item).node; m.Kind == yaml.MappingNode {
				srcs = append(srcs, m)
			}
		}
		return srcs
	}
	return nil
}

func (y Value) lookup(key string) (*yaml.Node, bool) {
	for k, v := range y.pairs() {
		if k.Value == key {
			return v, true
		}
	}
	return nil, false
}

func (y Value) scalarTag() string {
	if y.node.Kind != yaml.ScalarNode {
		return ""
	}
	return y.node.ShortTag()
}

func (y Value) Typename() string {
	switch y.node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	}
	switch y.scalarTag() {
	case "!!int", "!!float":
		return "number"
	case "!!bool":
		return "bool"
	case "!!null":
		return "null"
	}
	return "string"
}

func (y Value) number() (trimmer.Number, bool) {
	switch y.scalarTag() {
	case "!!int":
		var i int64
		if err := y.node.Decode(&i); err == nil {
			return trimmer.IntNumber(i), true
		}
		var u uint64
		if err := y.node.Decode(&u); err == nil {
			return trimmer.UintNumber(u), true
		}
	case "!!float":
		var f float64
		if err := y.node.Decode(&f); err == nil {
			return trimmer.FloatNumber(f), true
		}
	}
	return trimmer.Number{}, false
}

func (y Value) boolean() (bool, bool) {
	if y.scalarTag() != "!!bool" {
		return false, false
	}
	var b bool
	if err := y.node.Decode(&b); err != nil {
		return false, false
	}
	return b, true
}

func (y Value) unsupported(kind trimmer.DataErrorKind) error {
	return &trimmer.DataError{Kind: kind, Type: y.Typename()}
}

func (y Value) Output() (string, error) {
	if y.node.Kind != yaml.ScalarNode {
		return "", y.unsupported(trimmer.OutputUnsupported)
	}
	switch y.scalarTag() {
	case "!!null":
		return "", nil
	case "!!bool":
		b, _ := y.boolean()
		return strconv.FormatBool(b), nil
	case "!!int", "!!float":
		if n, ok := y.number(); ok {
			return n.String(), nil
		}
	}
	return y.node.Value, nil
}

func (y Value) AsBool() (bool, error) {
	switch y.node.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		return len(y.node.Content) > 0, nil
	}
	switch y.scalarTag() {
	case "!!null":
		return false, nil
	case "!!bool":
		b, _ := y.boolean()
		return b, nil
	case "!!int", "!!float":
		n, _ := y.number()
		return n.Float64() != 0, nil
	}
	return y.node.Value != "", nil
}

func (y Value) AsNumber() (trimmer.Number, error) {
	if n, ok := y.number(); ok {
		return n, nil
	}
	return trimmer.Number{}, y.unsupported(trimmer.NumberUnsupported)
}

func (y Value) AsComparable() (trimmer.Comparable, error) {
	if n, ok := y.number(); ok {
		return trimmer.CmpOfNumber(n), nil
	}
	if b, ok := y.boolean(); ok {
		return trimmer.CmpOfBool(b), nil
	}
	if y.scalarTag() == "!!str" {
		return trimmer.CmpOfStr(y.node.Value), nil
	}
	return trimmer.Comparable{}, y.unsupported(trimmer.ComparisonUnsupported)
}

func (y Value) AsStrKey() (string, error) {
	if y.node.Kind == yaml.ScalarNode && y.scalarTag() != "!!null" {
		return y.node.Value, nil
	}
	return "", y.unsupported(trimmer.StrKeyUnsupported)
}

func (y Value) AsIntKey() (int, error) {
	if n, ok := y.number(); ok && n.Kind != trimmer.NumFloat {
		if n.Kind == trimmer.NumUint {
			if n.Uint > math.MaxInt {
				return 0, y.unsupported(trimmer.IntKeyUnsupported)
			}
			return int(n.Uint), nil
		}
		return int(n.Int), nil
	}
	return 0, y.unsupported(trimmer.IntKeyUnsupported)
}

func (y Value) Attr(name string) (trimmer.Variable, error) {
	if y.node.Kind != yaml.MappingNode {
		return nil, y.unsupported(trimmer.AttrUnsupported)
	}
	if v, ok := y.lookup(name); ok {
		return variable(v), nil
	}
	return nil, &trimmer.DataError{Kind: trimmer.AttrNotFound, Type: "mapping", Name: name}
}

func (y Value) Index(key trimmer.Variable) (trimmer.Variable, error) {
	switch y.node.Kind {
	case yaml.MappingNode:
		k, err := trimmer.AsStrKey(key)
		if err != nil {
			return nil, err
		}
		if v, ok := y.lookup(k); ok {
			return variable(v), nil
		}
		return nil, &trimmer.DataError{Kind: trimmer.IndexNotFound, Type: "mapping", Name: strconv.Quote(k)}
	case yaml.SequenceNode:
		i, err := trimmer.AsIntKey(key)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(y.node.Content) {
			return nil, &trimmer.DataError{Kind: trimmer.IndexNotFound, Type: "sequence", Name: strconv.Itoa(i)}
		}
		return variable(y.node.Content[i]), nil
	}
	return nil, y.unsupported(trimmer.IndexUnsupported)
}

func (y Value) Iterate() (iter.Seq[trimmer.Variable], error) {
	if y.node.Kind != yaml.SequenceNode {
		return nil, y.unsupported(trimmer.IterationUnsupported)
	}
	return func(yield func(trimmer.Variable) bool) {
		for _, item := range y.node.Content {
			if !yield(variable(item)) {
				return
			}
		}
	}, nil
}

// IteratePairs yields mapping entries in document order.
func (y Value) IteratePairs() (iter.Seq2[trimmer.Variable, trimmer.Variable], error) {
	if y.node.Kind != yaml.MappingNode {
		return nil, y.unsupported(trimmer.PairIterationUnsupported)
	}
	return func(yield func(trimmer.Variable, trimmer.Variable) bool) {
		for k, v := range y.pairs() {
			if !yield(Wrap(k), variable(v)) {
				return
			}
		}
	}, nil
}
