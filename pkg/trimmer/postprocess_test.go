package trimmer

import (
	"errors"
	"strings"
	"testing"
)

func renderString(t *testing.T, src string, ctx Variable) string {
	t.Helper()
	tpl, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	out, err := tpl.Render(ctx)
	if err != nil {
		t.Fatalf("Render(%q) error: %v", src, err)
	}
	return out
}

func TestIndent(t *testing.T) {
	ctx := Context{
		"items": List{Int(1), Int(2), Int(3)},
		"yes":   Bool(true),
		"x":     Str("x"),
	}
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "loop body",
			src:  "## syntax: indent\n## for x in items\n    - {{ x }}\n## endfor\n",
			want: "- 1\n- 2\n- 3\n",
		},
		{
			name: "nested block keeps its own indent",
			src: "## syntax: indent\nroot:\n## for x in items\n    ## if x > 1\n" +
				"        item{{ x }}\n    ## endif\n## endfor\n",
			want: "root:\n    item2\n    item3\n",
		},
		{
			name: "relative indent preserved",
			src:  "## syntax: indent\n## if yes\n    a:\n      b\n## endif\n",
			want: "a:\n  b\n",
		},
		{
			name: "whitespace-only lines",
			src:  "## syntax: indent\n## if yes\n    a\n  \n    b\n## endif\n",
			want: "a\n\nb\n",
		},
		{
			name: "top level dedented",
			src:  "## syntax: indent\n  a\n  b\n",
			want: "a\nb\n",
		},
		{
			name: "plain keeps indentation",
			src:  "## if yes\n    a\n## endif\n",
			want: "    a\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderString(t, tt.src, ctx); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIndentErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "under-indented text",
			src:  "## syntax: indent\n## for x in items\n    ## if x\n  a\n    ## endif\n## endfor\n",
			want: "4:1: line is under-indented in 'indent' syntax mode, expected 4 but is 2",
		},
		{
			name: "under-indented output",
			src:  "## syntax: indent\n## if yes\n    ## if yes\n{{ x }}\n    ## endif\n## endif\n",
			want: "4:1: line is under-indented in 'indent' syntax mode, expected 4 but is 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			var perr *ParseError
			if !errors.As(err, &perr) || perr.Kind != InvalidSyntax {
				t.Fatalf("expected InvalidSyntax error, got %v", err)
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}
}

func TestOneline(t *testing.T) {
	ctx := Context{
		"x":     Str("1"),
		"hello": Int(1),
		"world": Int(2),
		"items": List{Int(1), Int(2), Int(3)},
		"m":     Map{"k1": Str("v")},
		"l":     List{Str("v1"), Str("v2")},
	}
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"text only", "\n        just some\n            text\n    ", "just some text"},
		{"var and whitespace", "   {{ x }} ", "1"},
		{"var at start", "{{ x }}x", "1x"},
		{"var at end", "x{{ x }}", "x1"},
		{"leading spaces", "  x{{ x }}", "x1"},
		{"spaces before var", "  x  {{ x }}", "x 1"},
		{"trailing spaces", "{{ x }}x   ", "1x"},
		{"spaces after var", "{{ x }}  x   ", "1 x"},
		{"between vars", "{{ x }}   {{ x }}", "1 1"},
		{"few vars", "\n        {{ hello }} /\n        8 -\n\n        {{ world }}+{{ x }}\n    ", "1 / 8 - 2+1"},
		{"conditional", "\n## if x\n            {{ x }}\n## endif\n    ", "1"},
		{"loop", "## for i in items\n  {{ i }},\n## endfor\n", "1,2,3,"},
		{"undefined attrs", "\n        k: {{ m.k1 }},\n        k2: {{ m.k2 }},\n        k3.b: {{ m.k3.b }}\n    ", "k: v, k2: , k3.b: "},
		{"undefined str index", "\n        k: {{ m['k1'] }},\n        k2: {{ m['k2'] }},\n        k3.b: {{ m['k3'].b }}\n    ", "k: v, k2: , k3.b: "},
		{"undefined int index", "\n        2: {{ l[1] }},\n        3: {{ l[2] }},\n        3.b: {{ l[2].b }}\n    ", "2: v2, 3: , 3.b: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderString(t, "## syntax: oneline\n"+tt.src, ctx)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if strings.Contains(got, "  ") {
				t.Errorf("output %q has consecutive spaces", got)
			}
		})
	}
}

func TestOptimize(t *testing.T) {
	body := Body{Statements: []Statement{
		&RawStmt{Text: "a"},
		&LineJoinStmt{},
		&RawStmt{Text: "b"},
		&AliasStmt{Name: "x", Value: num(1)},
		&RawStmt{Text: "\n  "},
		&AliasStmt{Name: "y", Value: num(2)},
		&RawStmt{Text: " "},
	}}
	want := Body{Statements: []Statement{
		&RawStmt{Text: "ab"},
		&AliasStmt{Name: "x", Value: num(1)},
		&AliasStmt{Name: "y", Value: num(2)},
	}}
	assertAST(t, optimize(body), want)
}

func TestOptimizeIdempotent(t *testing.T) {
	templates := []string{
		"hello\n  world",
		"a ##\nb {{ x }} c\n\n## let y = 1\n\n## let z = 2\n",
		"## for x in xs\n  {{ x }}\n\n## if x\n\n  y\n\n## endif\n## endfor\n",
		"## syntax: indent\n## if a\n    b\n## else\n    c\n## endif\n",
		"## syntax: oneline\n  a  {{ b }}  c\n",
	}
	for _, src := range templates {
		tpl, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", src, err)
		}
		assertAST(t, optimize(tpl.body), tpl.body)
		assertAST(t, optimize(optimize(tpl.body)), optimize(tpl.body))
	}
}

func TestRawTextRoundTrip(t *testing.T) {
	texts := []string{
		"",
		"hello",
		"hello\n  world\n",
		"  leading and trailing  \n\n\t",
		"a { b } c } # not a comment",
		"unicode: çé ✓\n",
	}
	for _, text := range texts {
		if got := renderString(t, text, nil); got != text {
			t.Errorf("got %q, want %q", got, text)
		}
	}
}

func TestBrackets(t *testing.T) {
	curly := DefaultOptions()
	curly.Curly = true
	square := DefaultOptions()
	square.Square = true
	round := DefaultOptions()
	round.Round = true

	tests := []struct {
		name string
		opts Options
		src  string
		want string
	}{
		{"balanced", curly, "f() { {{ x }} }", ""},
		{"unbalanced close", curly, "a }", "1:3: unbalanced `}`"},
		{"unclosed", curly, "{ a", "1:1: unclosed `{` in block ending at 1:4"},
		{"per block", curly, "## if x\n{\n## endif\n}\n", "2:1: unclosed `{`"},
		{"nested body checked in order", curly, "## for i in x\n}\n## endfor\n{\n", "2:1: unbalanced `}`"},
		{"expressions ignored", curly, "{{ {'a': 1}.a }}", ""},
		{"square", square, "[a]] ", "1:4: unbalanced `]`"},
		{"round", round, "(a\n", "1:1: unclosed `(`"},
		{"other styles ignored", round, "{[", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWithOptions(tt.opts, tt.src)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestBlankTemplate(t *testing.T) {
	for _, src := range []string{"", " ", "  \n\t\n", "\n\n"} {
		if got := renderString(t, src, Context{}); got != "" {
			t.Errorf("render %q = %q, want empty output", src, got)
		}
	}
	if got := renderString(t, "  a\n\t\n", Context{}); got != "  a\n\t\n" {
		t.Errorf("text with content changed: %q", got)
	}
}
