package validator

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

// MapDict applies f to every entry of items in key order.
func MapDict[T any](items map[string]T, f func(string, T) error, description string) error {
	for _, key := range slices.Sorted(maps.Keys(items)) {
		if err := f(key, items[key]); err != nil {
			return fmt.Errorf("%s: %w", description, err)
		}
	}
	return nil
}

func NotEmpty(field, description string) error {
	if field == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

// NotNil rejects nil interfaces and nil pointers, maps, slices and funcs.
func NotNil(field any, description string) error {
	if field == nil {
		return fmt.Errorf("%s must not be nil", description)
	}
	switch rv := reflect.ValueOf(field); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		if rv.IsNil() {
			return fmt.Errorf("%s must not be nil", description)
		}
	}
	return nil
}

func NoDuplicates[T comparable](slice []T, description string) error {
	seen := make(map[T]struct{})
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s contains duplicate value: %v", description, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	if !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

// Identifier requires field to be usable as a template variable name:
// a letter or underscore followed by letters, digits or underscores.
func Identifier(field, description string) error {
	if err := NotEmpty(field, description); err != nil {
		return err
	}
	for i, c := range field {
		letter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !letter && (i == 0 || c < '0' || c > '9') {
			return fmt.Errorf("%s %q is not a valid identifier", description, field)
		}
	}
	return nil
}
