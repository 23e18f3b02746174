package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTimeout is returned when a call exceeds the configured timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrMalformedResponse is returned when a response body does not match the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNotAuthenticated is returned by calls that need a session token when there is none.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// HTTPError is a non-2xx response. Message is taken from the body's
// detail, error or message field when present.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// NetworkError means no response was received from any configured base URL.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Describe turns any client error into a message fit to show a user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var httpErr *HTTPError
	var netErr *NetworkError
	switch {
	case errors.Is(err, ErrTimeout):
		return "The server took too long to respond. Please try again."
	case errors.Is(err, ErrNotAuthenticated):
		return "Please log in first."
	case errors.Is(err, ErrMalformedResponse):
		return "The server sent an unexpected response."
	case errors.As(err, &netErr):
		return "Cannot reach the server. Check your connection and the API URL."
	case errors.As(err, &httpErr):
		switch {
		case httpErr.StatusCode == http.StatusUnauthorized:
			if httpErr.Message != "" {
				return httpErr.Message
			}
			return "Your session has expired. Please log in again."
		case httpErr.StatusCode == http.StatusForbidden:
			return "You do not have permission to do that."
		case httpErr.StatusCode == http.StatusNotFound:
			return "Not found."
		case httpErr.StatusCode >= 500:
			return "The server had a problem. Please try again later."
		case httpErr.Message != "":
			return httpErr.Message
		}
		return http.StatusText(httpErr.StatusCode)
	}
	return err.Error()
}
