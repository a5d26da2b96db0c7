package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/card-analyzer/internal/pipeline"
)

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		name       string
		failure    *pipeline.Failure
		wantStatus int
		wantCode   string
	}{
		{
			name:       "transient overload is 503",
			failure:    &pipeline.Failure{Kind: pipeline.FailureUnsupportedInput, Reason: "The model is overloaded"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeModelOverloaded,
		},
		{
			name:       "transient 429 is 503 regardless of kind",
			failure:    &pipeline.Failure{Kind: pipeline.FailureMissingInputs, Reason: "upstream returned 429"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeModelOverloaded,
		},
		{
			name:       "unsupported input is 400 image_not_supported",
			failure:    &pipeline.Failure{Kind: pipeline.FailureUnsupportedInput, Reason: "not a trading card"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeImageNotSupported,
		},
		{
			name:       "domain mismatch stays in the caller vocabulary",
			failure:    &pipeline.Failure{Kind: pipeline.FailureDomainMismatch, Reason: "not an NBA card"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeImageNotSupported,
		},
		{
			name:       "missing fields stays in the caller vocabulary",
			failure:    &pipeline.Failure{Kind: pipeline.FailureMissingFields, Reason: "missing: brand"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeImageNotSupported,
		},
		{
			name:       "missing certification stays in the caller vocabulary",
			failure:    &pipeline.Failure{Kind: pipeline.FailureMissingCertification, Reason: "cert not found"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeImageNotSupported,
		},
		{
			name:       "storage error is 500",
			failure:    &pipeline.Failure{Kind: pipeline.FailureStorage, Reason: "qdrant write failed"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "storage_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := failureStatus(tt.failure)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestErrValidation_Message(t *testing.T) {
	err := &ErrValidation{Field: "file", Message: "no file provided"}
	assert.Equal(t, "validation error: file - no file provided", err.Error())
}
