package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code ErrorCode
		want int
	}{
		{"missing fields", ErrCodeMissingRequiredFields, http.StatusBadRequest},
		{"invalid request", ErrCodeInvalidRequest, http.StatusBadRequest},
		{"not found", ErrCodeRecordNotFound, http.StatusNotFound},
		{"image timeout", ErrCodeImageGenerationTimeout, http.StatusRequestTimeout},
		{"not configured", ErrCodeProviderNotConfigured, http.StatusInternalServerError},
		{"invalid provider shape", ErrCodeProviderResponseInvalid, http.StatusInternalServerError},
		{"rate limited", ErrCodeProviderRateLimited, http.StatusTooManyRequests},
		{"prediction failed", ErrCodePredictionFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestAsStandard(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, AsStandard(nil))
	})

	t.Run("wrapped standard error", func(t *testing.T) {
		orig := NewRecordNotFoundError("local:abc")
		got := AsStandard(fmt.Errorf("rate: %w", orig))
		require.NotNil(t, got)
		assert.Same(t, orig, got)
	})

	t.Run("plain error", func(t *testing.T) {
		cause := stderrors.New("boom")
		got := AsStandard(cause)
		assert.Equal(t, ErrCodeInternal, got.Code)
		assert.Equal(t, "boom", got.Details)
		assert.True(t, stderrors.Is(got, cause))
	})
}

func TestPredictionFailedUnwrapsCause(t *testing.T) {
	cause := stderrors.New("provider exploded")
	err := NewPredictionFailedError(cause)

	assert.Equal(t, "prediction generation failed", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable code keeps retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewProviderRequestFailedError("text", stderrors.New("502")))
		assert.Equal(t, "PROVIDER_REQUEST_FAILED", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.Equal(t, "PROVIDER_REQUEST_FAILED", bpmn.ToErrorVariables()["originalErrorCode"])
	})

	t.Run("business error has no retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewMissingRequiredFieldsError([]string{"breed"}))
		assert.Equal(t, 0, bpmn.Retries)
		assert.False(t, bpmn.Retryable)
	})

	t.Run("unknown code falls back to itself", func(t *testing.T) {
		bpmn := ConvertToBPMNError(&StandardError{Code: "SOMETHING_NEW", Retryable: true})
		assert.Equal(t, "SOMETHING_NEW", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
	})
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "PROVIDER", GetErrorCategory(ErrCodeProviderRateLimited))
	assert.Equal(t, "IMAGE", GetErrorCategory(ErrCodeImageGenerationTimeout))
	assert.Equal(t, "PERSISTENCE", GetErrorCategory(ErrCodeRecordNotFound))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeMissingRequiredFields))
	assert.Equal(t, "PIPELINE", GetErrorCategory(ErrCodePredictionFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestMissingRequiredFieldsMetadata(t *testing.T) {
	err := NewMissingRequiredFieldsError([]string{"breed", "gender"})
	assert.Equal(t, "breed, gender", err.Details)
	assert.Equal(t, []string{"breed", "gender"}, err.Metadata["fields"])
}
