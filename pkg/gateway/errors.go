package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Error describes a failed backend call. StatusCode is zero when the request
// never produced a response.
type Error struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Title      string
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
	}

	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}

	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("%s: %s %s returned %d: %s", e.Op, e.Method, e.Path, e.StatusCode, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of a gateway error, or zero.
func StatusCode(err error) int {
	var gatewayErr *Error
	if errors.As(err, &gatewayErr) {
		return gatewayErr.StatusCode
	}

	return 0
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether the backend rejected the caller's credentials.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)

	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
