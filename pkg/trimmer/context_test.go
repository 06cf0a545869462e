package trimmer

import (
	"errors"
	"testing"
)

func TestContext(t *testing.T) {
	ctx := NewContext(map[string]any{"a": 1, "b": "x"})
	ctx.Set("c", []int{1, 2})
	ctx.Merge(Context{"a": Str("over"), "d": Bool(true)})

	out := renderString(t, "{{ a }} {{ b }} {{ c[1] }} {{ d }}", ctx)
	if out != "over x 2 true" {
		t.Errorf("got %q", out)
	}

	var keys []string
	pairs, err := IteratePairs(ctx)
	if err != nil {
		t.Fatalf("IteratePairs() error: %v", err)
	}
	for k := range pairs {
		keys = append(keys, string(k.(Str)))
	}
	if len(keys) != 4 || keys[0] != "a" || keys[3] != "d" {
		t.Errorf("keys = %v", keys)
	}
}

func TestScope(t *testing.T) {
	root := newScope(Context{"a": Int(1)})
	root.set("b", Int(2))
	child := root.sub()
	child.set("a", Int(10))

	tests := []struct {
		s    *scope
		name string
		want Variable
	}{
		{root, "a", Int(1)},
		{root, "b", Int(2)},
		{child, "a", Int(10)},
		{child, "b", Int(2)},
	}
	for _, tt := range tests {
		got, err := tt.s.lookup(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("lookup(%q) = %v, %v, want %v", tt.name, got, err, tt.want)
		}
	}

	var de *DataError
	if _, err := child.lookup("zzz"); !errors.As(err, &de) || de.Kind != VariableNotFound {
		t.Errorf("lookup(zzz) error = %v", err)
	}
	if _, err := newScope(nil).lookup("a"); !errors.As(err, &de) || de.Kind != VariableNotFound {
		t.Errorf("lookup without root error = %v", err)
	}
}

func TestRenderNonContextRoot(t *testing.T) {
	out := renderString(t, "{{ name }}", Map{"name": Str("m")})
	if out != "m" {
		t.Errorf("got %q", out)
	}
	tpl, err := Parse("{{ name }}")
	if err != nil {
		t.Fatal(err)
	}
	_, err = tpl.Render(Int(1))
	var de *DataError
	if !errors.As(err, &de) || de.Kind != VariableNotFound {
		t.Errorf("render against int root error = %v", err)
	}
}

func TestContextIndexAndBool(t *testing.T) {
	root := Context{
		"sub":  Context{"a": Int(1)},
		"none": Context{},
	}
	tests := []struct {
		src  string
		want string
	}{
		{"{{ sub['a'] }} {{ sub.a }}", "1 1"},
		{"[{{ sub['missing'] }}]", "[]"},
		{"## if sub\nyes\n## endif\n## if none\nno\n## endif\n", "yes\n"},
		{"{{ not none }}", "true"},
	}
	for _, tt := range tests {
		if got := renderString(t, tt.src, root); got != tt.want {
			t.Errorf("render %q = %q, want %q", tt.src, got, tt.want)
		}
	}

	var de *DataError
	if _, err := (Context{}).Index(Str("x")); !errors.As(err, &de) || de.Kind != IndexNotFound {
		t.Errorf("Index(missing) error = %v", err)
	}
	if _, err := (Context{}).Index(Int(1)); !errors.As(err, &de) || de.Kind != StrKeyUnsupported {
		t.Errorf("Index(int) error = %v", err)
	}
}
