package trimmer

import (
	"strings"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2f;",
	"`", "&#x96;",
)

// EscapeHTML replaces characters that are unsafe in HTML text and
// attribute values with entities.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// QuoteShellArgument wraps s in single quotes so a POSIX shell reads it
// as exactly one word.
func QuoteShellArgument(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

var builtinFilters = map[string]func(string) string{
	"builtin.html_entities":         EscapeHTML,
	"builtin.quoted_shell_argument": QuoteShellArgument,
}

// BuiltinFilter returns the escape filter registered under name, e.g.
// "builtin.html_entities".
func BuiltinFilter(name string) (Filter, bool) {
	fn, ok := builtinFilters[name]
	if !ok {
		return nil, false
	}
	return EscapeFilter{Name: name, Escape: fn}, true
}
