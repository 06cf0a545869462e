package trimmer

import (
	"errors"
	"testing"
)

func TestPreparse(t *testing.T) {
	opts, err := Preparse("# generated\n\n## syntax: oneline\n## validate num: [0-9]+  # digits\n## filter default: builtin.html_entities\nbody", DefaultOptions())
	if err != nil {
		t.Fatalf("Preparse() error: %v", err)
	}
	if opts.Syntax != SyntaxOneline {
		t.Errorf("syntax = %s, want oneline", opts.Syntax)
	}
	v, ok := opts.Filters["num"].(*RegexValidator)
	if !ok {
		t.Fatalf("num filter = %#v, want *RegexValidator", opts.Filters["num"])
	}
	if v.Source != "[0-9]+" {
		t.Errorf("validator source = %q", v.Source)
	}
	if f, ok := opts.DefaultFilter.(EscapeFilter); !ok || f.Name != "builtin.html_entities" {
		t.Errorf("default filter = %#v", opts.DefaultFilter)
	}
}

func TestPreparseDefaults(t *testing.T) {
	defaults := DefaultOptions().WithSyntax(SyntaxIndent)
	opts, err := Preparse("no directives here\n", defaults)
	if err != nil {
		t.Fatalf("Preparse() error: %v", err)
	}
	if opts.Syntax != SyntaxIndent {
		t.Errorf("syntax = %s, want indent", opts.Syntax)
	}

	// directives do not leak into the defaults
	if _, err := Preparse("## validate x: a\n", defaults); err != nil {
		t.Fatalf("Preparse() error: %v", err)
	}
	if len(defaults.Filters) != 0 {
		t.Errorf("defaults were modified: %v", defaults.Filters)
	}
}

func TestScanPreamble(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
		pos    Pos
	}{
		{"empty", "", 0, Pos{1, 1}},
		{"no directive", "# title\nbody", 0, Pos{1, 1}},
		{"directive", "## syntax: indent\nbody", 18, Pos{2, 1}},
		{"comments before directive", "# c\n\n## syntax: indent\n\nbody", 23, Pos{4, 1}},
		{"directive at eof", "## syntax: indent", 17, Pos{1, 18}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pre, err := scanPreamble(tt.text, DefaultOptions())
			if err != nil {
				t.Fatalf("scanPreamble() error: %v", err)
			}
			if pre.offset != tt.offset || pre.pos != tt.pos {
				t.Errorf("preamble = %d at %s, want %d at %s", pre.offset, pre.pos, tt.offset, tt.pos)
			}
		})
	}
}

func TestPreparseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind ParseErrorKind
		want string
	}{
		{"unknown syntax", "## syntax: fancy\n", InvalidSyntaxDirective,
			`1:1: invalid syntax directive: unknown syntax "fancy", expected plain, indent or oneline`},
		{"duplicate syntax", "## syntax: indent\n## syntax: plain\n", DuplicateSyntaxDirective,
			"2:1: syntax is already set"},
		{"bad regex", "## validate x: [a-\n", BadRegexValidator, ""},
		{"unknown filter", "## filter x: builtin.nope\n", BadFilter,
			`1:1: unknown filter "builtin.nope" for x, expected builtin.html_entities or builtin.quoted_shell_argument`},
		{"malformed", "## validate: x\n", InvalidSyntaxDirective, "1:1: malformed directive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Preparse(tt.text, DefaultOptions())
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if perr.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", perr.Kind, tt.kind)
			}
			if tt.want != "" && err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}
}

func TestStripComment(t *testing.T) {
	tests := map[string]string{
		"[0-9]+":          "[0-9]+",
		"[0-9]+  # digit": "[0-9]+",
		"a#b":             "a#b",
		" x ":             "x",
	}
	for in, want := range tests {
		if got := stripComment(in); got != want {
			t.Errorf("stripComment(%q) = %q, want %q", in, got, want)
		}
	}
}
