package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimited is returned when the request budget blocks a request.
	ErrRateLimited = errors.New("request blocked: rate limit critical")
)

// ErrorClass represents a classification of failed calls.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a response that could not be decoded.
	ErrorClassDecode ErrorClass = "decode"
)

// APIError is a failed procedure call with the details the API reported.
type APIError struct {
	Procedure  string
	StatusCode int
	ErrorClass ErrorClass

	// Code is the API error code (e.g., "NOT_FOUND", "BAD_REQUEST").
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed API %s error calling %s (status %d): %s: %v",
			e.ErrorClass, e.Procedure, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("feed API %s error calling %s (status %d): %s",
		e.ErrorClass, e.Procedure, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an API error for a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.StatusCode == 404 || apiErr.Code == "NOT_FOUND")
}

// classOf extracts the error class of err, or "" if unknown.
func classOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ""
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient, ErrorClassDecode:
		// Retrying will not change the answer
		return false
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
