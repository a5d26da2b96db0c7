package pipeline

import (
	"fmt"
	"strings"
)

// FailureKind tags a pipeline failure with its category.
type FailureKind string

// Failure kinds. The orchestrator only checks for presence of a failure;
// kinds exist so the boundary layer can map them to caller-facing signals.
const (
	FailureUnsupportedInput     FailureKind = "unsupported_input"
	FailureDomainMismatch       FailureKind = "domain_mismatch"
	FailureMissingFields        FailureKind = "missing_fields"
	FailureMissingCertification FailureKind = "missing_certification"
	FailureMissingInputs        FailureKind = "missing_inputs"
	FailureStorage              FailureKind = "storage_error"
)

// Failure is the uniform error shape every stage normalizes to before
// crossing its boundary. Stage records which stage produced it.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
	Stage  string      `json:"stage,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

// NewFailure builds a failure with the given kind and formatted reason.
func NewFailure(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// transientSignatures are substrings in upstream error messages that
// indicate a retriable condition rather than a permanently bad input.
var transientSignatures = []string{
	"overloaded",
	"unavailable",
	"rate limit",
	"resource exhausted",
	"timeout",
	"deadline exceeded",
	"429",
	"503",
}

// IsTransientReason reports whether a failure reason looks like a
// temporary upstream condition worth retrying with backoff.
func IsTransientReason(reason string) bool {
	lower := strings.ToLower(reason)
	for _, sig := range transientSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
