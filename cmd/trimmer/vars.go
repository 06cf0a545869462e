package main

import (
	"fmt"
	"strings"

	"github.com/neurodesk/trimmer/pkg/errwrap"
	"github.com/neurodesk/trimmer/pkg/jsonvar"
	"github.com/neurodesk/trimmer/pkg/starlark"
	"github.com/neurodesk/trimmer/pkg/trimmer"
	"github.com/neurodesk/trimmer/pkg/yamlvar"
)

// context collects the render variables. Later sources override earlier
// ones: JSON objects, then YAML files, then Starlark scripts, then -D.
func (a *app) context() (trimmer.Context, error) {
	ctx := trimmer.Context{}

	for _, obj := range a.opts.jsonVars {
		vars, err := jsonvar.ParseObject([]byte(obj))
		if err != nil {
			return nil, errwrap.Wrapf(err, "can't parse json %q", obj)
		}
		ctx.Merge(vars)
	}

	for _, path := range a.opts.yamlFiles {
		data, err := a.readFile(path)
		if err != nil {
			return nil, errwrap.Wrapf(err, "can't read yaml file")
		}
		vars, err := yamlvar.ParseMapping(data)
		if err != nil {
			return nil, errwrap.Wrapf(err, "can't parse yaml file %q", path)
		}
		ctx.Merge(vars)
	}

	// Scripts see everything defined so far.
	for _, path := range a.opts.starFiles {
		data, err := a.readFile(path)
		if err != nil {
			return nil, errwrap.Wrapf(err, "can't read starlark file")
		}
		vars, err := starlark.ExecContext(path, data, ctx, a.logger)
		if err != nil {
			return nil, errwrap.Wrapf(err, "error running %q", path)
		}
		ctx.Merge(vars)
		a.logger.Debug("starlark variables", "path", path, "count", len(vars))
	}

	for _, pair := range a.opts.vars {
		name, value, err := parseVar(pair)
		if err != nil {
			return nil, err
		}
		ctx[name] = trimmer.Str(value)
	}
	return ctx, nil
}

func parseVar(pair string) (name, value string, err error) {
	name, value, ok := strings.Cut(pair, "=")
	if !ok {
		return "", "", fmt.Errorf("var %q must contain equals sign", pair)
	}
	if name == "" {
		return "", "", fmt.Errorf("var name must not be empty in %q", pair)
	}
	return name, value, nil
}
