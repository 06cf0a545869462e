package trimmer

import (
	"errors"
	"math"
	"testing"
)

func TestNumberArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Number
		want Number
	}{
		{"int add", IntNumber(2).Add(IntNumber(3)), IntNumber(5)},
		{"uint plus negative int", UintNumber(10).Add(IntNumber(-100)), IntNumber(-90)},
		{"float minus int", FloatNumber(1.5).Sub(IntNumber(1)), FloatNumber(0.5)},
		{"uint plus float", UintNumber(1).Add(FloatNumber(1.0)), FloatNumber(2)},
		{"int overflow", IntNumber(math.MaxInt64).Add(IntNumber(1)), FloatNumber(9223372036854775808)},
		{"uint overflow", UintNumber(math.MaxUint64).Add(UintNumber(1)), FloatNumber(18446744073709551616)},
		{"uint underflow", UintNumber(3).Sub(UintNumber(5)), FloatNumber(-2)},
		{"mixed to uint", IntNumber(1).Add(UintNumber(math.MaxUint64 - 1)), UintNumber(math.MaxUint64)},
		{"mul", IntNumber(-4).Mul(IntNumber(5)), IntNumber(-20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %#v, want %#v", tt.got, tt.want)
			}
		})
	}
}

func TestNumberDivision(t *testing.T) {
	tests := []struct {
		name    string
		op      func() (Number, error)
		want    Number
		wantErr bool
	}{
		{"inexact", func() (Number, error) { return IntNumber(7).Div(IntNumber(2)) }, FloatNumber(3.5), false},
		{"exact", func() (Number, error) { return IntNumber(6).Div(IntNumber(-3)) }, IntNumber(-2), false},
		{"by zero", func() (Number, error) { return IntNumber(1).Div(UintNumber(0)) }, Number{}, true},
		{"float by zero", func() (Number, error) { return FloatNumber(1).Div(IntNumber(0)) }, FloatNumber(math.Inf(1)), false},
		{"mod truncates", func() (Number, error) { return IntNumber(-7).Mod(IntNumber(3)) }, IntNumber(-1), false},
		{"mod by zero", func() (Number, error) { return UintNumber(7).Mod(UintNumber(0)) }, Number{}, true},
		{"float mod", func() (Number, error) { return FloatNumber(5.5).Mod(IntNumber(2)) }, FloatNumber(1.5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op()
			if tt.wantErr {
				var de *DataError
				if !errors.As(err, &de) || de.Kind != DivisionByZero {
					t.Fatalf("expected DivisionByZero, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestNumberString(t *testing.T) {
	tests := []struct {
		n    Number
		want string
	}{
		{IntNumber(-3), "-3"},
		{UintNumber(math.MaxUint64), "18446744073709551615"},
		{FloatNumber(2.5), "2.5"},
		{FloatNumber(1e21), "1000000000000000000000"},
		{FloatNumber(math.Inf(-1)), "-inf"},
		{IntNumber(math.MaxInt64).Add(IntNumber(1)), "9223372036854776000"},
	}
	for _, tt := range tests {
		if got := tt.n.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestParseIntLiteral(t *testing.T) {
	tests := []struct {
		src  string
		want Number
	}{
		{"0", IntNumber(0)},
		{"0x1F", IntNumber(31)},
		{"0o17", IntNumber(15)},
		{"0b101", IntNumber(5)},
		{"1_000", IntNumber(1000)},
		{"017", IntNumber(17)},
		{"18446744073709551615", UintNumber(math.MaxUint64)},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := parseIntLiteral(tt.src)
			if err != nil {
				t.Fatalf("parseIntLiteral(%q) error: %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
	if _, err := parseIntLiteral("18446744073709551616"); err == nil {
		t.Errorf("expected out of range error")
	}
}

func TestComparable(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name         string
		a, b         Comparable
		want         int
		ok           bool
		incomparable bool
	}{
		{"negative int below uint", CmpOfInt(-1), CmpOfUint(0), -1, true, false},
		{"large uint above int", CmpOfUint(math.MaxUint64), CmpOfInt(math.MaxInt64), 1, true, false},
		{"equal across kinds", CmpOfUint(7), CmpOfInt(7), 0, true, false},
		{"int and float", CmpOfInt(2), CmpOfFloat(2.5), -1, true, false},
		{"strings", CmpOfStr("b"), CmpOfStr("a"), 1, true, false},
		{"bools", CmpOfBool(false), CmpOfBool(true), -1, true, false},
		{"nan", CmpOfFloat(nan), CmpOfInt(1), 0, false, false},
		{"string and number", CmpOfStr("1"), CmpOfInt(1), 0, false, true},
		{"bool and number", CmpOfBool(true), CmpOfInt(1), 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := tt.a.Compare(tt.b)
			if tt.incomparable {
				var de *DataError
				if !errors.As(err, &de) || de.Kind != IncomparableTypes {
					t.Fatalf("expected IncomparableTypes, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || ok != tt.ok {
				t.Errorf("got (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCompareVariables(t *testing.T) {
	nan := Float(math.NaN())
	tests := []struct {
		op   string
		a, b Variable
		want bool
	}{
		{"==", None{}, Undefined{}, true},
		{"!=", None{}, Undefined{}, false},
		{"==", Undefined{}, Int(0), false},
		{"!=", None{}, Str(""), true},
		{"==", nan, nan, false},
		{"!=", nan, nan, true},
		{"<", nan, Int(1), false},
		{"<=", Int(-1), Uint(0), true},
		{">=", Str("b"), Str("a"), true},
		{"==", Int(2), Float(2), true},
	}
	for _, tt := range tests {
		got, err := Compare(tt.op, tt.a, tt.b)
		if err != nil {
			t.Errorf("Compare(%s, %v, %v) error: %v", tt.op, tt.a, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Compare(%s, %v, %v) = %v, want %v", tt.op, tt.a, tt.b, got, tt.want)
		}
	}

	if _, err := Compare("<", None{}, Int(1)); err == nil {
		t.Errorf("ordering none should fail")
	}
	if _, err := Compare("<", Str("a"), Int(1)); err == nil {
		t.Errorf("ordering string with int should fail")
	}
}
