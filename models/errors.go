package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and across the job pipeline.
const (
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeSession       = "SESSION_ACQUISITION_FAILED"
	ErrCodeScrape        = "SCRAPE_FAILED"
	ErrCodeTimeout       = "SCRAPE_TIMEOUT"
	ErrCodeNotification  = "NOTIFICATION_FAILED"

	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Step    string `json:"step,omitempty"`
}

// Error is the internal error type carrying an error code and, for scrape
// failures, the name of the step that failed.
type Error struct {
	Code    string
	Step    string
	Message string
	Err     error // wrapped original error
}

func (e *Error) Error() string {
	prefix := e.Code
	if e.Step != "" {
		prefix += " [" + e.Step + "]"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error.
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NewStepError creates a scrape-family Error tagged with the failing step.
func NewStepError(code, step, message string, err error) *Error {
	return &Error{Code: code, Step: step, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *Error) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message, Step: e.Step}
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// StepOf returns the failing step recorded in err's chain, if any.
func StepOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Step
	}
	return ""
}
