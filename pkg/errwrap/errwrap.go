// Package errwrap contains helpers for wrapping and collecting errors.
package errwrap

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Wrapf annotates err with a message. A nil err stays nil.
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// Append adds err to reterr. Either side may be nil, so it can be used as
// `reterr += err`.
func Append(reterr, err error) error {
	if reterr == nil {
		return err
	}
	if err == nil {
		return reterr
	}
	return multierror.Append(reterr, err)
}

// Errors flattens an error built with Append into its parts.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	if merr, ok := err.(*multierror.Error); ok {
		return merr.WrappedErrors()
	}
	return []error{err}
}

// Lines formats every error collected in err on its own line.
func Lines(err error) string {
	errs := Errors(err)
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// String returns err.Error(), or an empty string for a nil error.
func String(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
