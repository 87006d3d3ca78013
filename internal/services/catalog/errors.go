// File: internal/services/catalog/errors.go
package catalog

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeUpstream   ErrorType = "UPSTREAM"
	ErrTypeDecode     ErrorType = "DECODE"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type CatalogError struct {
	Type      ErrorType
	Code      int
	Operation string
	Message   string
	Cause     error
}

func (e *CatalogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("catalog %s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("catalog %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether another attempt could succeed.
func (e *CatalogError) Retryable() bool {
	switch e.Type {
	case ErrTypeNetwork:
		return true
	case ErrTypeUpstream:
		return e.Code >= 500 || e.Code == 429
	default:
		return false
	}
}
