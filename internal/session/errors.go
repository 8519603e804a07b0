package session

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/ngodash/internal/api"
)

var (
	// ErrAuth matches every *AuthError.
	ErrAuth = errors.New("session: authentication failed")
	// ErrNotAuthenticated is returned by Require when there is no valid session.
	ErrNotAuthenticated = errors.New("session: not logged in")
	// ErrForbidden is returned by Require when the user lacks the role.
	ErrForbidden = errors.New("session: insufficient role")
)

// AuthError reports a failed login, registration, or token validation.
// Message is user-facing and prefers the server's wording.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("session: %s: %s", e.Op, msg)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAuth) true for any AuthError.
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

func authError(op string, err error) *AuthError {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return &AuthError{Op: op, Message: apiErr.Message, Err: err}
	}
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return &AuthError{Op: op, Message: "auth endpoint unreachable: " + api.Message(err), Err: err}
	}
	return &AuthError{Op: op, Err: err}
}
