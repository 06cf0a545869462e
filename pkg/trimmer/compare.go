package trimmer

import (
	"cmp"
	"fmt"
)

// ComparableKind tells which field of a Comparable is valid.
type ComparableKind int

const (
	CmpInt ComparableKind = iota
	CmpUint
	CmpFloat
	CmpStr
	CmpBool
)

func (k ComparableKind) String() string {
	switch k {
	case CmpInt, CmpUint, CmpFloat:
		return "number"
	case CmpStr:
		return "string"
	case CmpBool:
		return "bool"
	}
	return fmt.Sprintf("ComparableKind(%d)", int(k))
}

// Comparable is the form a variable takes in comparison operators.
// Numbers compare across kinds by sign and magnitude; strings and booleans
// only compare with their own kind.
type Comparable struct {
	Kind  ComparableKind
	Int   int64
	Uint  uint64
	Float float64
	Str   string
	Bool  bool
}

func CmpOfInt(i int64) Comparable     { return Comparable{Kind: CmpInt, Int: i} }
func CmpOfUint(u uint64) Comparable   { return Comparable{Kind: CmpUint, Uint: u} }
func CmpOfFloat(f float64) Comparable { return Comparable{Kind: CmpFloat, Float: f} }
func CmpOfStr(s string) Comparable    { return Comparable{Kind: CmpStr, Str: s} }
func CmpOfBool(b bool) Comparable     { return Comparable{Kind: CmpBool, Bool: b} }

func (c Comparable) numeric() bool {
	return c.Kind == CmpInt || c.Kind == CmpUint || c.Kind == CmpFloat
}

func (c Comparable) float() float64 {
	switch c.Kind {
	case CmpInt:
		return float64(c.Int)
	case CmpUint:
		return float64(c.Uint)
	}
	return c.Float
}

// Compare returns -1, 0 or +1. Comparing values of incompatible kinds is
// an IncomparableTypes error. ok is false when either side is NaN.
func (c Comparable) Compare(other Comparable) (result int, ok bool, err error) {
	switch {
	case c.numeric() && other.numeric():
		r, ok := compareNumeric(c, other)
		return r, ok, nil
	case c.Kind == CmpStr && other.Kind == CmpStr:
		return cmp.Compare(c.Str, other.Str), true, nil
	case c.Kind == CmpBool && other.Kind == CmpBool:
		return cmp.Compare(boolRank(c.Bool), boolRank(other.Bool)), true, nil
	}
	return 0, false, &DataError{
		Kind: IncomparableTypes,
		Type: c.Kind.String() + " with " + other.Kind.String(),
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func compareNumeric(a, b Comparable) (int, bool) {
	switch {
	case a.Kind == CmpInt && b.Kind == CmpInt:
		return cmp.Compare(a.Int, b.Int), true
	case a.Kind == CmpUint && b.Kind == CmpUint:
		return cmp.Compare(a.Uint, b.Uint), true
	case a.Kind == CmpInt && b.Kind == CmpUint:
		if a.Int < 0 {
			return -1, true
		}
		return cmp.Compare(uint64(a.Int), b.Uint), true
	case a.Kind == CmpUint && b.Kind == CmpInt:
		if b.Int < 0 {
			return 1, true
		}
		return cmp.Compare(a.Uint, uint64(b.Int)), true
	}
	x, y := a.float(), b.float()
	if x != x || y != y {
		return 0, false
	}
	return cmp.Compare(x, y), true
}
