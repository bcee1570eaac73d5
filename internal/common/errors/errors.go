package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeProviderRateLimited     ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderRequestFailed   ErrorCode = "PROVIDER_REQUEST_FAILED"
	ErrCodeProviderResponseInvalid ErrorCode = "PROVIDER_RESPONSE_INVALID"
	ErrCodeProviderNotConfigured   ErrorCode = "PROVIDER_NOT_CONFIGURED"

	ErrCodeImageGenerationFailed  ErrorCode = "IMAGE_GENERATION_FAILED"
	ErrCodeImageGenerationTimeout ErrorCode = "IMAGE_GENERATION_TIMEOUT"

	ErrCodePersistenceTierFailed ErrorCode = "PERSISTENCE_TIER_FAILED"
	ErrCodeRecordNotFound        ErrorCode = "RECORD_NOT_FOUND"

	ErrCodeMissingRequiredFields ErrorCode = "MISSING_REQUIRED_FIELDS"
	ErrCodeInvalidRequest        ErrorCode = "INVALID_REQUEST"
	ErrCodePredictionFailed      ErrorCode = "PREDICTION_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e after attaching key/value.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewProviderRateLimitedError(provider string, attempts int, cause error) *StandardError {
	return newError(ErrCodeProviderRateLimited, "Provider rate limit exhausted",
		fmt.Sprintf("provider: %s, attempts: %d", provider, attempts), true, cause)
}

func NewProviderRequestFailedError(provider string, cause error) *StandardError {
	details := fmt.Sprintf("provider: %s", provider)
	if cause != nil {
		details = fmt.Sprintf("provider: %s, error: %s", provider, cause.Error())
	}
	return newError(ErrCodeProviderRequestFailed, "Provider request failed", details, true, cause)
}

func NewProviderResponseInvalidError(provider, details string) *StandardError {
	return newError(ErrCodeProviderResponseInvalid, "Unexpected provider response",
		fmt.Sprintf("provider: %s, %s", provider, details), false, nil)
}

func NewProviderNotConfiguredError(provider string) *StandardError {
	return newError(ErrCodeProviderNotConfigured, "Provider credentials are not configured",
		fmt.Sprintf("provider: %s", provider), false, nil)
}

func NewImageGenerationFailedError(jobID, details string) *StandardError {
	return newError(ErrCodeImageGenerationFailed, "Image generation failed",
		fmt.Sprintf("jobId: %s, %s", jobID, details), false, nil)
}

func NewImageGenerationTimeoutError(jobID string, polls int) *StandardError {
	return newError(ErrCodeImageGenerationTimeout, "Image generation timed out",
		fmt.Sprintf("jobId: %s, polls: %d", jobID, polls), true, nil)
}

func NewPersistenceTierFailedError(tier string, cause error) *StandardError {
	details := fmt.Sprintf("tier: %s", tier)
	if cause != nil {
		details = fmt.Sprintf("tier: %s, error: %s", tier, cause.Error())
	}
	return newError(ErrCodePersistenceTierFailed, "Persistence tier rejected the write", details, true, cause)
}

func NewRecordNotFoundError(id string) *StandardError {
	return newError(ErrCodeRecordNotFound, "Record not found",
		fmt.Sprintf("recordId: %s", id), false, nil)
}

func NewMissingRequiredFieldsError(fields []string) *StandardError {
	return newError(ErrCodeMissingRequiredFields, "Missing required fields",
		strings.Join(fields, ", "), false, nil).WithMetadata("fields", fields)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false, nil)
}

func NewPredictionFailedError(cause error) *StandardError {
	return newError(ErrCodePredictionFailed, "prediction generation failed", "", false, cause)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeProviderRateLimited:     "PROVIDER_RATE_LIMITED",
	ErrCodeProviderRequestFailed:   "PROVIDER_REQUEST_FAILED",
	ErrCodeProviderResponseInvalid: "PROVIDER_RESPONSE_INVALID",
	ErrCodeProviderNotConfigured:   "PROVIDER_NOT_CONFIGURED",
	ErrCodeImageGenerationFailed:   "IMAGE_GENERATION_FAILED",
	ErrCodeImageGenerationTimeout:  "IMAGE_GENERATION_TIMEOUT",
	ErrCodePersistenceTierFailed:   "PERSISTENCE_TIER_FAILED",
	ErrCodeRecordNotFound:          "RECORD_NOT_FOUND",
	ErrCodeMissingRequiredFields:   "MISSING_REQUIRED_FIELDS",
	ErrCodeInvalidRequest:          "INVALID_REQUEST",
	ErrCodePredictionFailed:        "PREDICTION_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderRateLimited,
		ErrCodeProviderRequestFailed,
		ErrCodePersistenceTierFailed:
		return 3
	case ErrCodeImageGenerationTimeout:
		return 1
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PROVIDER"):
		return "PROVIDER"
	case strings.HasPrefix(codeStr, "IMAGE"):
		return "IMAGE"
	case strings.HasPrefix(codeStr, "PERSISTENCE") || strings.HasPrefix(codeStr, "RECORD"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "MISSING") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "PREDICTION"):
		return "PIPELINE"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status returned by the HTTP surface.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMissingRequiredFields, ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeRecordNotFound:
		return http.StatusNotFound
	case ErrCodeImageGenerationTimeout:
		return http.StatusRequestTimeout
	case ErrCodeProviderRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeProviderRequestFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AsStandard returns the first StandardError in err's chain, or wraps err as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}
