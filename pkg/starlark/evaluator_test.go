package starlark

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/neurodesk/trimmer/pkg/trimmer"
	"go.starlark.net/starlark"
)

func TestToStarlark(t *testing.T) {
	tests := []struct {
		name     string
		input    trimmer.Variable
		expected starlark.Value
	}{
		{
			name:     "string value",
			input:    trimmer.Str("hello"),
			expected: starlark.String("hello"),
		},
		{
			name:     "int value",
			input:    trimmer.Int(42),
			expected: starlark.MakeInt64(42),
		},
		{
			name:     "uint value",
			input:    trimmer.Uint(7),
			expected: starlark.MakeUint64(7),
		},
		{
			name:     "float value",
			input:    trimmer.Float(3.14),
			expected: starlark.Float(3.14),
		},
		{
			name:     "bool value true",
			input:    trimmer.Bool(true),
			expected: starlark.Bool(true),
		},
		{
			name:     "none value",
			input:    trimmer.None{},
			expected: starlark.None,
		},
		{
			name:     "undefined value",
			input:    trimmer.Undefined{},
			expected: starlark.None,
		},
		{
			name:     "nil value",
			input:    nil,
			expected: starlark.None,
		},
		{
			name:     "list value",
			input:    trimmer.List{trimmer.Int(1), trimmer.Str("a")},
			expected: starlark.NewList([]starlark.Value{starlark.MakeInt(1), starlark.String("a")}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToStarlark(tt.input)
			if result.String() != tt.expected.String() {
				t.Errorf("ToStarlark() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestToStarlarkMap(t *testing.T) {
	result := ToStarlark(trimmer.Map{"b": trimmer.Int(2), "a": trimmer.Str("x")})
	dict, ok := result.(*starlark.Dict)
	if !ok {
		t.Fatalf("expected *starlark.Dict, got %T", result)
	}
	if got := dict.String(); got != `{"a": "x", "b": 2}` {
		t.Errorf("dict = %s", got)
	}
}

func TestFromStarlark(t *testing.T) {
	tests := []struct {
		name     string
		input    starlark.Value
		expected string
	}{
		{
			name:     "string value",
			input:    starlark.String("hello"),
			expected: "hello",
		},
		{
			name:     "int value",
			input:    starlark.MakeInt64(42),
			expected: "42",
		},
		{
			name:     "negative int value",
			input:    starlark.MakeInt64(-3),
			expected: "-3",
		},
		{
			name:     "float value",
			input:    starlark.Float(2.5),
			expected: "2.5",
		},
		{
			name:     "bool value",
			input:    starlark.Bool(true),
			expected: "true",
		},
		{
			name:     "none value",
			input:    starlark.None,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FromStarlark(tt.input)
			out, err := trimmer.Output(result)
			if err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			if out != tt.expected {
				t.Errorf("FromStarlark() output = %q, want %q", out, tt.expected)
			}
		})
	}
}

func TestValueCapabilities(t *testing.T) {
	e := NewEvaluator()
	if _, err := e.ExecString(`
config = {"name": "web", "ports": [80, 443]}
empty = []
`); err != nil {
		t.Fatalf("ExecString() error: %v", err)
	}

	config, ok := e.GetGlobal("config")
	if !ok {
		t.Fatal("config not defined")
	}
	name, err := trimmer.Attr(config, "name")
	if err != nil {
		t.Fatalf("Attr(name) error: %v", err)
	}
	if out, _ := trimmer.Output(name); out != "web" {
		t.Errorf("config.name = %q, want %q", out, "web")
	}

	if _, err := trimmer.Attr(config, "missing"); !isKind(err, trimmer.AttrNotFound) {
		t.Errorf("Attr(missing) error = %v, want AttrNotFound", err)
	}

	ports, _ := trimmer.Attr(config, "ports")
	second, err := trimmer.Index(ports, trimmer.Int(1))
	if err != nil {
		t.Fatalf("Index(1) error: %v", err)
	}
	if out, _ := trimmer.Output(second); out != "443" {
		t.Errorf("ports[1] = %q, want %q", out, "443")
	}
	if _, err := trimmer.Index(ports, trimmer.Int(5)); !isKind(err, trimmer.IndexNotFound) {
		t.Errorf("Index(5) error = %v, want IndexNotFound", err)
	}

	items, err := trimmer.Iterate(ports)
	if err != nil {
		t.Fatalf("Iterate() error: %v", err)
	}
	var sum int64
	for item := range items {
		n, err := trimmer.AsNumber(item)
		if err != nil {
			t.Fatalf("AsNumber() error: %v", err)
		}
		sum += n.Int
	}
	if sum != 523 {
		t.Errorf("sum = %d, want 523", sum)
	}

	empty, _ := e.GetGlobal("empty")
	if b, _ := trimmer.AsBool(empty); b {
		t.Error("empty list should be falsy")
	}
	if _, err := trimmer.Output(config); !isKind(err, trimmer.OutputUnsupported) {
		t.Errorf("Output(dict) error = %v, want OutputUnsupported", err)
	}
}

func TestEvaluatorEval(t *testing.T) {
	e := NewEvaluator()
	e.SetGlobal("base", trimmer.Int(10))

	tests := []struct {
		expr     string
		expected string
	}{
		{"base + 5", "15"},
		{`"a" + "b"`, "ab"},
		{`getenv("TRIMMER_TEST_UNSET", "fallback")`, "fallback"},
		{`" ".join(split_words("  x  y "))`, "x y"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			result, err := e.Eval(tt.expr)
			if err != nil {
				t.Fatalf("Eval() error: %v", err)
			}
			out, err := trimmer.Output(result)
			if err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			if out != tt.expected {
				t.Errorf("Eval(%q) = %q, want %q", tt.expr, out, tt.expected)
			}
		})
	}

	if _, err := e.Eval("undefined_name"); err == nil {
		t.Error("expected error for undefined name")
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("TRIMMER_TEST_VAR", "set")
	e := NewEvaluator()
	result, err := e.Eval(`getenv("TRIMMER_TEST_VAR")`)
	if err != nil {
		t.Fatalf("Eval() error: %v", err)
	}
	if out, _ := trimmer.Output(result); out != "set" {
		t.Errorf("getenv = %q, want %q", out, "set")
	}
}

func TestExecContext(t *testing.T) {
	script := []byte(`
def _double(x):
    return x * 2

def helper():
    return 1

replicas = _double(count)
labels = {"app": name}
_private = "hidden"
`)
	defined := trimmer.Context{"count": trimmer.Int(3), "name": trimmer.Str("api")}

	ctx, err := ExecContext("vars.star", script, defined, nil)
	if err != nil {
		t.Fatalf("ExecContext() error: %v", err)
	}

	for _, key := range []string{"helper", "_double", "_private", "getenv"} {
		if _, ok := ctx[key]; ok {
			t.Errorf("%s should not be exported", key)
		}
	}

	tpl, err := trimmer.Parse("{{ replicas }} {{ labels.app }} {{ count }}")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	out, err := tpl.Render(ctx)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != "6 api 3" {
		t.Errorf("Render() = %q, want %q", out, "6 api 3")
	}
}

func TestPrintLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if _, err := ExecContext("print.star", []byte(`print("hello", 42)`), nil, logger); err != nil {
		t.Fatalf("ExecContext() error: %v", err)
	}
	for _, want := range []string{"level=DEBUG", `msg="starlark print"`, `msg="hello 42"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	quiet := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if _, err := ExecContext("print.star", []byte(`print("hidden")`), nil, quiet); err != nil {
		t.Fatalf("ExecContext() error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("print logged above debug level: %s", buf.String())
	}
}

func TestExecContextError(t *testing.T) {
	if _, err := ExecContext("bad.star", []byte("x = "), nil, nil); err == nil {
		t.Error("expected syntax error")
	}
}

func isKind(err error, kind trimmer.DataErrorKind) bool {
	de, ok := err.(*trimmer.DataError)
	return ok && de.Kind == kind
}
