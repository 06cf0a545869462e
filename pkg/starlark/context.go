package starlark

import (
	"log/slog"

	"github.com/neurodesk/trimmer/pkg/trimmer"
	"go.starlark.net/starlark"
)

// LoadContext makes every variable of ctx a Starlark global
func (e *Evaluator) LoadContext(ctx trimmer.Context) {
	for key, value := range ctx {
		e.SetGlobal(key, value)
	}
}

// Context exports the script globals as template variables
func (e *Evaluator) Context() trimmer.Context {
	ctx := make(trimmer.Context)
	for key, value := range e.globals {
		if !e.isExportable(key, value) {
			continue
		}
		ctx[key] = FromStarlark(value)
	}
	return ctx
}

// isExportable skips builtins, private names and functions
func (e *Evaluator) isExportable(key string, value starlark.Value) bool {
	if _, ok := e.builtins[key]; ok || key == "" || key[0] == '_' {
		return false
	}
	_, callable := value.(starlark.Callable)
	return !callable
}

// ExecContext runs a variable script and returns the variables it defines.
// Variables already set with SetGlobal or LoadContext are visible to the
// script and are exported too. print() output goes to logger.
func ExecContext(filename string, src []byte, defined trimmer.Context, logger *slog.Logger) (trimmer.Context, error) {
	e := NewEvaluator()
	e.Logger = logger
	e.LoadContext(defined)
	if _, err := e.ExecFile(filename, src); err != nil {
		return nil, err
	}
	return e.Context(), nil
}
