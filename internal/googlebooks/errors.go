package googlebooks

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest indicates the search request could not be turned into a URL.
var ErrInvalidRequest = errors.New("invalid Google Books request")

// ErrCancelled indicates the caller cancelled the request. It is expected
// during type-ahead search and should not be reported to users.
var ErrCancelled = errors.New("Google Books request cancelled")

// UnexpectedResponseError represents a non-2xx answer from the API.
type UnexpectedResponseError struct {
	StatusCode int
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected Google Books response: HTTP %d", e.StatusCode)
}

// DecodingError wraps a failure to decode the response body.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode Google Books response: %v", e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// UnderlyingError wraps a transport failure other than cancellation.
type UnderlyingError struct {
	Err error
}

func (e *UnderlyingError) Error() string {
	return fmt.Sprintf("Google Books request failed: %v", e.Err)
}

func (e *UnderlyingError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is the cancellation classification.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
