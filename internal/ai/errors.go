package ai

import (
	"fmt"
	"strings"
)

// ErrorType categorizes provider failures.
type ErrorType string

const (
	// ErrTypeProvider indicates a backend-reported error.
	ErrTypeProvider ErrorType = "provider"

	// ErrTypeConfiguration indicates invalid provider configuration.
	ErrTypeConfiguration ErrorType = "configuration"

	// ErrTypeAuthentication indicates authentication failures.
	ErrTypeAuthentication ErrorType = "authentication"

	// ErrTypeNetwork indicates connectivity failures.
	ErrTypeNetwork ErrorType = "network"

	// ErrTypeTimeout indicates a request deadline was exceeded.
	ErrTypeTimeout ErrorType = "timeout"

	// ErrTypeValidation indicates invalid request input.
	ErrTypeValidation ErrorType = "validation"

	// ErrTypeRegistration indicates provider registration conflicts.
	ErrTypeRegistration ErrorType = "registration"

	// ErrTypeNotFound indicates an unknown provider or model.
	ErrTypeNotFound ErrorType = "not_found"

	// ErrTypeInternal indicates request encoding/decoding failures.
	ErrTypeInternal ErrorType = "internal"
)

// ProviderError is the error type returned by provider implementations.
type ProviderError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Provider   string    `json:"provider,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Cause      error     `json:"-"`
}

func (e *ProviderError) Error() string {
	var parts []string

	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}

	parts = append(parts, fmt.Sprintf("type=%s", e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is matches provider errors by type.
func (e *ProviderError) Is(target error) bool {
	if pe, ok := target.(*ProviderError); ok {
		return e.Type == pe.Type
	}
	return false
}

// ValidationError represents invalid request input.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ConfigurationError represents invalid provider configuration.
type ConfigurationError struct {
	Provider string `json:"provider"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for provider '%s', field '%s': %s",
		e.Provider, e.Field, e.Message)
}

// NewProviderError creates a provider error.
func NewProviderError(errType ErrorType, message, provider string) *ProviderError {
	return &ProviderError{
		Type:     errType,
		Message:  message,
		Provider: provider,
	}
}

// NewProviderErrorWithCause creates a provider error wrapping an underlying cause.
func NewProviderErrorWithCause(errType ErrorType, message, provider string, cause error) *ProviderError {
	return &ProviderError{
		Type:     errType,
		Message:  message,
		Provider: provider,
		Cause:    cause,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(provider, field, message string) *ConfigurationError {
	return &ConfigurationError{
		Provider: provider,
		Field:    field,
		Message:  message,
	}
}

// IsConfigurationError checks whether err is a configuration error.
func IsConfigurationError(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Type == ErrTypeConfiguration
	}
	_, ok := err.(*ConfigurationError)
	return ok
}

// IsValidationError checks whether err is a validation error.
func IsValidationError(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Type == ErrTypeValidation
	}
	_, ok := err.(*ValidationError)
	return ok
}
