package trimmer

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// NumberKind tells which field of a Number is valid.
type NumberKind int

const (
	NumInt NumberKind = iota
	NumUint
	NumFloat
)

// Number is the arithmetic form of a variable. Integer arithmetic is exact
// and falls back to float64 when the result does not fit the operand kind.
type Number struct {
	Kind  NumberKind
	Int   int64
	Uint  uint64
	Float float64
}

func IntNumber(i int64) Number     { return Number{Kind: NumInt, Int: i} }
func UintNumber(u uint64) Number   { return Number{Kind: NumUint, Uint: u} }
func FloatNumber(f float64) Number { return Number{Kind: NumFloat, Float: f} }

func (n Number) String() string {
	switch n.Kind {
	case NumInt:
		return strconv.FormatInt(n.Int, 10)
	case NumUint:
		return strconv.FormatUint(n.Uint, 10)
	}
	return formatFloat(n.Float)
}

// Float64 converts n to a float, possibly losing precision.
func (n Number) Float64() float64 {
	switch n.Kind {
	case NumInt:
		return float64(n.Int)
	case NumUint:
		return float64(n.Uint)
	}
	return n.Float
}

func (n Number) big() *big.Int {
	if n.Kind == NumUint {
		return new(big.Int).SetUint64(n.Uint)
	}
	return big.NewInt(n.Int)
}

// Variable returns n as a renderable value.
func (n Number) Variable() Variable {
	switch n.Kind {
	case NumInt:
		return Int(n.Int)
	case NumUint:
		return Uint(n.Uint)
	}
	return Float(n.Float)
}

type bigOp func(z, x, y *big.Int) *big.Int

// narrow picks the result kind for an exact integer result r of a and b.
func narrow(a, b Number, r *big.Int) Number {
	fitsInt := r.IsInt64()
	fitsUint := r.IsUint64()
	switch {
	case a.Kind == NumInt && b.Kind == NumInt:
		if fitsInt {
			return IntNumber(r.Int64())
		}
	case a.Kind == NumUint && b.Kind == NumUint:
		if fitsUint {
			return UintNumber(r.Uint64())
		}
	default:
		if fitsInt {
			return IntNumber(r.Int64())
		}
		if fitsUint {
			return UintNumber(r.Uint64())
		}
	}
	f, _ := new(big.Float).SetInt(r).Float64()
	return FloatNumber(f)
}

func (n Number) integral(other Number, op bigOp, fop func(x, y float64) float64) Number {
	if n.Kind == NumFloat || other.Kind == NumFloat {
		return FloatNumber(fop(n.Float64(), other.Float64()))
	}
	return narrow(n, other, op(new(big.Int), n.big(), other.big()))
}

func (n Number) Add(other Number) Number {
	return n.integral(other, (*big.Int).Add, func(x, y float64) float64 { return x + y })
}

func (n Number) Sub(other Number) Number {
	return n.integral(other, (*big.Int).Sub, func(x, y float64) float64 { return x - y })
}

func (n Number) Mul(other Number) Number {
	return n.integral(other, (*big.Int).Mul, func(x, y float64) float64 { return x * y })
}

func (n Number) isZero() bool {
	switch n.Kind {
	case NumInt:
		return n.Int == 0
	case NumUint:
		return n.Uint == 0
	}
	return n.Float == 0
}

// Div divides exactly when possible and returns a float otherwise.
func (n Number) Div(other Number) (Number, error) {
	if n.Kind == NumFloat || other.Kind == NumFloat {
		return FloatNumber(n.Float64() / other.Float64()), nil
	}
	if other.isZero() {
		return Number{}, &DataError{Kind: DivisionByZero}
	}
	q, r := new(big.Int).QuoRem(n.big(), other.big(), new(big.Int))
	if r.Sign() != 0 {
		return FloatNumber(n.Float64() / other.Float64()), nil
	}
	return narrow(n, other, q), nil
}

// Mod returns the remainder truncated toward zero.
func (n Number) Mod(other Number) (Number, error) {
	if n.Kind == NumFloat || other.Kind == NumFloat {
		return FloatNumber(math.Mod(n.Float64(), other.Float64())), nil
	}
	if other.isZero() {
		return Number{}, &DataError{Kind: DivisionByZero}
	}
	return narrow(n, other, new(big.Int).Rem(n.big(), other.big())), nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseIntLiteral parses decimal, 0x, 0o and 0b literals with `_` separators.
func parseIntLiteral(s string) (Number, error) {
	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			clean = append(clean, s[i])
		}
	}
	text, base := string(clean), 10
	if len(text) > 2 && text[0] == '0' {
		switch text[1] {
		case 'x':
			text, base = text[2:], 16
		case 'o':
			text, base = text[2:], 8
		case 'b':
			text, base = text[2:], 2
		}
	}
	if i, err := strconv.ParseInt(text, base, 64); err == nil {
		return IntNumber(i), nil
	}
	u, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return Number{}, fmt.Errorf("integer literal %q out of range", s)
	}
	return UintNumber(u), nil
}
