// Package server provides the HTTP REST API for the card analyzer.
package server

import (
	"fmt"
	"net/http"

	"github.com/jonathan/card-analyzer/internal/pipeline"
)

// Caller-facing error codes.
const (
	ErrCodeImageNotSupported = "image_not_supported"
	ErrCodeModelOverloaded   = "model_overloaded"
)

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// failureStatus maps a pipeline failure to the HTTP status and error code
// the caller sees. Transient provider trouble surfaces as 503 so clients
// know a retry is worthwhile; everything else about the input is 400.
func failureStatus(f *pipeline.Failure) (int, string) {
	if pipeline.IsTransientReason(f.Reason) {
		return http.StatusServiceUnavailable, ErrCodeModelOverloaded
	}
	switch f.Kind {
	case pipeline.FailureStorage:
		// Storage trouble is reported inline, not as an error status; the
		// analysis itself succeeded. Callers reaching this path use 500.
		return http.StatusInternalServerError, string(f.Kind)
	default:
		// The precise failure kind travels in the reason; the code stays
		// within the caller-facing vocabulary.
		return http.StatusBadRequest, ErrCodeImageNotSupported
	}
}
