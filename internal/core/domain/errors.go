package domain

import (
	"errors"
	"strings"
)

var (
	// ErrAuthenticationRequired means there is no valid session. Recoverable
	// by signing in.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAuthorizationDenied means the session is valid but lacks the role.
	// Retrying does not help.
	ErrAuthorizationDenied = errors.New("access denied")
	// ErrSignatureInvalid is a payment callback that failed HMAC verification.
	ErrSignatureInvalid = errors.New("payment signature invalid")
	// ErrRoleGrantFailed is a network or server failure while adding a role.
	ErrRoleGrantFailed = errors.New("role grant failed")
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrRoleNotGrantable   = errors.New("role cannot be self-granted")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// ConfigurationError reports missing operator configuration. It is a
// deployment defect, never a request-level condition.
type ConfigurationError struct {
	Component string
	Missing   []string
}

func (e *ConfigurationError) Error() string {
	return e.Component + ": missing configuration: " + strings.Join(e.Missing, ", ")
}

// Is makes errors.Is(err, ErrConfiguration) hold for every ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
