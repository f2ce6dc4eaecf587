package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned for malformed or schemeless input URLs.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrUnreachable means the root document could not be fetched.
	ErrUnreachable = errors.New("could not reach site")
	// ErrInternal covers every other capture failure.
	ErrInternal = errors.New("internal error")
)

// CaptureError is returned by a capture. Kind is ErrUnreachable or ErrInternal.
type CaptureError struct {
	Kind error
	URL  string
	Err  error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.URL, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *CaptureError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Unreachable wraps err as an ErrUnreachable capture failure.
func Unreachable(url string, err error) error {
	return &CaptureError{Kind: ErrUnreachable, URL: url, Err: err}
}

// Internal wraps err as an ErrInternal capture failure.
func Internal(url string, err error) error {
	return &CaptureError{Kind: ErrInternal, URL: url, Err: err}
}
