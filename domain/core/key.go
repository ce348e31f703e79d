package core

import (
	"fmt"
	"strings"
)

// EvalKey identifies one evaluation unit: a model paired with one of its
// uncertainty types. Result maps are keyed by EvalKey rather than by the
// concatenated display string, so two (model, type) pairs can never collide.
type EvalKey struct {
	Model           ModelName       `json:"model"`
	UncertaintyType UncertaintyType `json:"uncertainty_type"`
}

// String renders the display form used in reports and summary sheets.
func (k EvalKey) String() string {
	return fmt.Sprintf("%s %s", k.Model, k.UncertaintyType)
}

// MarshalText lets result maps keyed by EvalKey serialize as JSON objects
// with "{model} {type}" keys, the display form consumers already know.
func (k EvalKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the display form. The uncertainty type is a single
// token, so the split happens at the last space; model names may contain
// spaces, types may not.
func (k *EvalKey) UnmarshalText(text []byte) error {
	s := string(text)
	i := strings.LastIndex(s, " ")
	if i <= 0 || i == len(s)-1 {
		return fmt.Errorf("malformed evaluation key %q", s)
	}
	k.Model = ModelName(s[:i])
	k.UncertaintyType = UncertaintyType(s[i+1:])
	return nil
}

// UncertaintyPair names an uncertainty type to evaluate plus an optional
// human-readable label consumed only by reporting.
type UncertaintyPair struct {
	Type  UncertaintyType `json:"type"`
	Label string          `json:"label,omitempty"`
}

// DisplayLabel returns the reporting label, falling back to the type name.
func (p UncertaintyPair) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return string(p.Type)
}
