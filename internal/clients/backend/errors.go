package backend

import (
	"errors"
	"fmt"
)

// The client maps every HTTP and transport outcome into this closed set.
// Callers branch with errors.Is on the sentinels and errors.As on the
// structured kinds; nothing else escapes the package.
var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrNoData       = errors.New("no data in response")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// DecodingError is returned when a 2xx body does not match the expected
// shape. FieldPath carries the offending field when the decoder exposes it.
type DecodingError struct {
	FieldPath string
	Err       error
}

func (e *DecodingError) Error() string {
	if e.FieldPath != "" {
		return fmt.Sprintf("decoding error at %q: %v", e.FieldPath, e.Err)
	}
	return fmt.Sprintf("decoding error: %v", e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// NetworkError wraps transport-level failures (DNS, timeout, refused).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is any non-2xx status outside the mapped set. Message holds
// the response body "error" field when present.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (status %d)", e.Status)
}

// UnknownError wraps failures that fit no other kind.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown error: %v", e.Err)
}

func (e *UnknownError) Unwrap() error {
	return e.Err
}
