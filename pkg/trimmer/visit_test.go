package trimmer

import (
	"errors"
	"slices"
	"testing"
)

func TestVariables(t *testing.T) {
	tpl, err := Parse("## let y = a\n## for i in items\n{{ i }} {{ y }} {{ b.c }}\n## endfor\n{{ a }}")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	got := Variables(tpl)
	want := []string{"a", "items", "b"}
	if !slices.Equal(got, want) {
		t.Errorf("Variables() = %v, want %v", got, want)
	}
}

func TestWalk(t *testing.T) {
	tpl, err := Parse("## if a > 1\n{{ b[c] }}\n## else\n{{ [d, {'k': e}] }}\n## endif\n")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	var refs []string
	err = Walk(VisitorFunc(func(n Node) error {
		if r, ok := n.(*VarRef); ok {
			refs = append(refs, r.Name)
		}
		return nil
	}), tpl.Body())
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if want := []string{"a", "b", "c", "d", "e"}; !slices.Equal(refs, want) {
		t.Errorf("visited %v, want %v", refs, want)
	}

	stop := errors.New("stop")
	visited := 0
	err = Walk(VisitorFunc(func(n Node) error {
		visited++
		if _, ok := n.(*CompareExpr); ok {
			return stop
		}
		return nil
	}), tpl.Body())
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want stop", err)
	}
	if visited != 3 {
		t.Errorf("visited %d nodes before stopping, want 3", visited)
	}
}

func TestExprString(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a.b[0]", "a.b[0]"},
		{"1 + 2 * x", "(1 + (2 * x))"},
		{"not a or b", "((not a) or b)"},
		{"1 < x <= 3", "(1 < x <= 3)"},
		{"..n", "..n"},
		{"1..", "1.."},
		{"[1, 'two']", `[1, "two"]`},
		{"{'k': v}", `{"k": v}`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := ExprString(parseExpr(t, tt.src)); got != tt.want {
				t.Errorf("ExprString() = %q, want %q", got, tt.want)
			}
		})
	}
}
