package core

import (
	"github.com/google/uuid"
)

// UID is the opaque stable identity of a single sample.
// UIDs are assigned upstream (or by the testkit) and never reinterpreted.
type UID string

// NewUID generates a fresh random sample identity.
func NewUID() UID {
	return UID(uuid.New().String())
}

// ModelName identifies the predictive model a table of bin predictions
// belongs to.
type ModelName string

// UncertaintyType identifies which uncertainty estimator's error and bin
// columns to read (e.g. "S-MHA"). Multiple types coexist per sample table.
type UncertaintyType string
