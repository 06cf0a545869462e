package starlark

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/neurodesk/trimmer/pkg/trimmer"
	"go.starlark.net/starlark"
)

// Evaluator runs Starlark scripts that compute template variables
type Evaluator struct {
	// Logger receives print() output at debug level. Nil means slog.Default().
	Logger *slog.Logger

	thread   *starlark.Thread
	builtins starlark.StringDict
	globals  starlark.StringDict
}

// NewEvaluator creates a new Starlark evaluator
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		builtins: CreateBuiltins(),
		globals:  make(starlark.StringDict),
	}
	e.thread = &starlark.Thread{
		Name: "trimmer",
		Print: func(_ *starlark.Thread, msg string) {
			e.log().Debug("starlark print", "msg", msg)
		},
	}
	return e
}

func (e *Evaluator) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// SetGlobal sets a global variable in the Starlark environment
func (e *Evaluator) SetGlobal(name string, value trimmer.Variable) {
	e.globals[name] = ToStarlark(value)
}

func (e *Evaluator) predeclared() starlark.StringDict {
	predeclared := make(starlark.StringDict, len(e.builtins)+len(e.globals))
	maps.Copy(predeclared, e.builtins)
	maps.Copy(predeclared, e.globals)
	return predeclared
}

// Eval evaluates a Starlark expression
func (e *Evaluator) Eval(expr string) (trimmer.Variable, error) {
	val, err := starlark.Eval(e.thread, "<eval>", expr, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark evaluation error: %w", err)
	}
	return FromStarlark(val), nil
}

// ExecFile executes a Starlark file and returns the globals it defined
func (e *Evaluator) ExecFile(filename string, src any) (starlark.StringDict, error) {
	globals, err := starlark.ExecFile(e.thread, filename, src, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}
	maps.Copy(e.globals, globals)
	return globals, nil
}

// ExecString executes a Starlark script from a string
func (e *Evaluator) ExecString(script string) (starlark.StringDict, error) {
	return e.ExecFile("<script>", script)
}

// GetGlobal retrieves a global variable
func (e *Evaluator) GetGlobal(name string) (trimmer.Variable, bool) {
	if val, ok := e.globals[name]; ok {
		return FromStarlark(val), true
	}
	return nil, false
}

// CreateBuiltins creates the functions available to every script
func CreateBuiltins() starlark.StringDict {
	return starlark.StringDict{
		"getenv": starlark.NewBuiltin("getenv", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name, def string
			if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "default?", &def); err != nil {
				return nil, err
			}
			if v, ok := os.LookupEnv(name); ok {
				return starlark.String(v), nil
			}
			return starlark.String(def), nil
		}),
		"split_words": starlark.NewBuiltin("split_words", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var s string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &s); err != nil {
				return nil, err
			}
			words := strings.Fields(s)
			items := make([]starlark.Value, len(words))
			for i, w := range words {
				items[i] = starlark.String(w)
			}
			return starlark.NewList(items), nil
		}),
	}
}
