package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("api: not found")
)

// Error is a non-2xx response from the API. Message is the server-provided
// message when the body carried one.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s %s: %s", e.Method, e.Path, e.Message)
}

// Is lets errors.Is match status sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

func newError(method, path string, status int, body []byte) *Error {
	return &Error{
		Method:  method,
		Path:    path,
		Status:  status,
		Message: serverMessage(status, body),
	}
}

// serverMessage extracts {"message": ...} or {"error": ...} from an error
// body, falling back to the status text.
func serverMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}

// NetworkError is a transport failure: the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Message returns the best user-facing text for err: the server message for
// API errors, the transport cause for network errors.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
