// File: internal/services/ai/errors.go
package ai

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeRateLimit  ErrorType = "RATE_LIMIT"
	ErrTypeQuota      ErrorType = "QUOTA"
	ErrTypeModel      ErrorType = "MODEL"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type AIError struct {
	Type      ErrorType
	Code      int
	Message   string
	Model     string
	Operation string
	Cause     error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("AI %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("AI %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AIError) Unwrap() error {
	return e.Cause
}

func NewConfigError(msg string) *AIError {
	return &AIError{Type: ErrTypeConfig, Message: msg, Operation: "config"}
}

func NewProviderError(operation, msg string, cause error) *AIError {
	return &AIError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}

// classify turns a go-openai error into an AIError with a retry-relevant type.
func classify(operation, model string, err error) *AIError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := &AIError{Code: apiErr.HTTPStatusCode, Message: apiErr.Message, Model: model, Operation: operation, Cause: err}
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			e.Type = ErrTypeRateLimit
			if apiErr.Type == "insufficient_quota" {
				e.Type = ErrTypeQuota
			}
		case http.StatusUnauthorized, http.StatusForbidden:
			e.Type = ErrTypeConfig
		case http.StatusBadRequest, http.StatusNotFound:
			e.Type = ErrTypeModel
		default:
			e.Type = ErrTypeProvider
		}
		return e
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &AIError{Type: ErrTypeNetwork, Code: reqErr.HTTPStatusCode, Message: "request failed", Model: model, Operation: operation, Cause: err}
	}
	return &AIError{Type: ErrTypeNetwork, Message: "request failed", Model: model, Operation: operation, Cause: err}
}
