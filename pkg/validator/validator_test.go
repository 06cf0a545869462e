package validator

import (
	"errors"
	"strings"
	"testing"
)

func TestAll(t *testing.T) {
	first := errors.New("first")
	if err := All(nil, first, errors.New("second")); err != first {
		t.Errorf("All() = %v, want first", err)
	}
	if err := All(nil, nil); err != nil {
		t.Errorf("All() = %v, want nil", err)
	}
}

func TestMapDict(t *testing.T) {
	var seen []string
	err := MapDict(map[string]int{"b": 2, "a": 1, "c": 3}, func(k string, v int) error {
		seen = append(seen, k)
		if v == 2 {
			return errors.New("two")
		}
		return nil
	}, "filters")
	if err == nil || err.Error() != "filters: two" {
		t.Errorf("MapDict() = %v", err)
	}
	if strings.Join(seen, ",") != "a,b" {
		t.Errorf("visited %v, want sorted prefix a,b", seen)
	}
}

func TestNotNil(t *testing.T) {
	var p *int
	var m map[string]int
	for _, v := range []any{nil, p, m} {
		if err := NotNil(v, "value"); err == nil {
			t.Errorf("NotNil(%#v) = nil", v)
		}
	}
	if err := NotNil(struct{}{}, "value"); err != nil {
		t.Errorf("NotNil(struct) = %v", err)
	}
}

func TestNoDuplicates(t *testing.T) {
	if err := NoDuplicates([]string{"a", "b"}, "names"); err != nil {
		t.Errorf("NoDuplicates() = %v", err)
	}
	err := NoDuplicates([]string{"a", "b", "a"}, "names")
	if err == nil || err.Error() != "names contains duplicate value: a" {
		t.Errorf("NoDuplicates() = %v", err)
	}
}

func TestMatchesAllowed(t *testing.T) {
	if err := MatchesAllowed("indent", []string{"plain", "indent"}, "syntax"); err != nil {
		t.Errorf("MatchesAllowed() = %v", err)
	}
	err := MatchesAllowed("fancy", []string{"plain", "indent"}, "syntax")
	if err == nil || err.Error() != "syntax must be one of [plain indent], got fancy" {
		t.Errorf("MatchesAllowed() = %v", err)
	}
}

func TestIdentifier(t *testing.T) {
	for _, ok := range []string{"x", "_x", "html2", "Quoted_Arg"} {
		if err := Identifier(ok, "name"); err != nil {
			t.Errorf("Identifier(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "2x", "a-b", "a b", "é"} {
		if err := Identifier(bad, "name"); err == nil {
			t.Errorf("Identifier(%q) = nil", bad)
		}
	}
}
