package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input/configuration errors
	ErrMissingColumn   = errors.New("uncertainty type columns not found")
	ErrMissingBounds   = errors.New("estimated bounds required for bound evaluation")
	ErrMissingModel    = errors.New("model name required for bound evaluation")
	ErrNoFolds         = errors.New("number of folds must be positive")
	ErrNoBins          = errors.New("number of bins must be at least 2")
	ErrNoTargets       = errors.New("at least one target index required")
	ErrBoundsShape     = errors.New("bound table row has wrong number of thresholds")
	ErrMissingBoundRow = errors.New("no bound table row for fold")

	// Data-integrity errors
	ErrUIDMismatch = errors.New("uid present in bin table but missing from error table")
	ErrEmptyTarget = errors.New("no samples for target in fold")

	// Estimation errors
	ErrLengthMismatch     = errors.New("errors and uncertainties length mismatch")
	ErrUnknownBinningType = errors.New("unknown quantile binning type")
	ErrNotImplemented     = errors.New("not implemented")
)

// Error constructors with context
func NewColumnError(uncertaintyType string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, uncertaintyType)
}

func NewUIDMismatchError(uid UID, targetIdx int) error {
	return fmt.Errorf("%w: uid %s target %d", ErrUIDMismatch, uid, targetIdx)
}

func NewLengthMismatchError(numErrors, numUncertainties int) error {
	return fmt.Errorf("%w: errors is length %d and uncertainties is length %d",
		ErrLengthMismatch, numErrors, numUncertainties)
}

// Error checking helpers
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingBounds) ||
		errors.Is(err, ErrMissingModel) ||
		errors.Is(err, ErrNoFolds) ||
		errors.Is(err, ErrNoBins) ||
		errors.Is(err, ErrNoTargets)
}

func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrUIDMismatch) ||
		errors.Is(err, ErrEmptyTarget) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrBoundsShape) ||
		errors.Is(err, ErrMissingBoundRow)
}
