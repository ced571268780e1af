package invoicer

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrConfig   = errors.New("invalid configuration")
	ErrAuth     = errors.New("authorization failed")
	ErrNotFound = errors.New("not found")
	ErrAPI      = errors.New("processor api error")
	ErrParse    = errors.New("failed parse processor response")
)

// APIError failed call to the payment processor: either a non-success
// HTTP status or a transport failure (StatusCode is zero, Err is set).
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrAPI, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: %s returned status %d: %s", ErrAPI, e.Endpoint, e.StatusCode, e.Body)
}

// Is reports APIError as ErrAPI.
func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Unauthorized is true when the processor rejected the bearer token,
// usually because it expired.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == 401
}
