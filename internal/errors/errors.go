// Package errors carries the application error taxonomy. Unavailable KPI
// data is not an error and never flows through here; this package covers
// source failures, configuration problems, and caller contract violations.
package errors

import (
	"fmt"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	ErrTypeSource   ErrorType = "SOURCE"
	ErrTypeParsing  ErrorType = "PARSING"
	ErrTypeConfig   ErrorType = "CONFIG"
	ErrTypeContract ErrorType = "CONTRACT"
	ErrTypeNotFound ErrorType = "NOT_FOUND"
	ErrTypeTimeout  ErrorType = "TIMEOUT"
)

// AppError is an application error with a type, a message, and an optional
// cause and context.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap lets errors.Is and errors.As reach the cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key-value pair to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// SourceError wraps a fetch collaborator failure for one alias.
func SourceError(alias string, cause error) *AppError {
	return NewAppError(ErrTypeSource, fmt.Sprintf("source fetch failed for alias %q", alias), cause).
		WithContext("alias", alias)
}

// ContractError marks a caller bug, such as re-aggregating a rollup. These
// are the only errors treated as fast-failing defects.
func ContractError(message string, cause error) *AppError {
	return NewAppError(ErrTypeContract, message, cause)
}
