package analysis

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *InputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InputError reports configuration or arguments the pipeline cannot run with.
// Dirty data never produces one; only a request that makes no sense does.
type InputError struct {
	Op     string `json:"op"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(op, field, format string, args ...any) *InputError {
	return &InputError{Op: op, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Warning codes attached to results when a numeric fallback was applied.
const (
	WarnZeroVarianceColumn  = "zero_variance_column"
	WarnEqualEntropyWeights = "equal_entropy_weights"
	WarnKClamped            = "k_clamped"
	WarnKMeansNotConverged  = "kmeans_not_converged"
	WarnEmptyBatch          = "empty_batch"
)

// Warning is a non-fatal note about a degenerate case the pipeline worked around.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func warnf(code, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
