package tokenauth

import "errors"

var (
	// ErrUsernameRequired is returned when a credential carries no username.
	ErrUsernameRequired = errors.New("username must be informed")
	// ErrUsernameInvalid is returned when a username fails shape checks.
	ErrUsernameInvalid = errors.New("username is invalid")
	// ErrUserNotFound is returned by UserStore implementations when no record matches.
	ErrUserNotFound = errors.New("User not found")
	// ErrUserIDRequired is returned when a signed token would be issued for a
	// user record without an ID.
	ErrUserIDRequired = errors.New("user id must be informed")
	// ErrPasswordRequired is returned when a credential carries no password.
	ErrPasswordRequired = errors.New("password must be informed")
	// ErrIncorrectPassword is returned when the password does not match the stored hash.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrLoginThrottled is returned when a username or client IP has used up
	// its failed login budget.
	ErrLoginThrottled = errors.New("too many failed login attempts")
	// ErrTokenRequired is returned when an access token is empty or missing.
	ErrTokenRequired = errors.New("access token must be informed")
	// ErrTokenInvalid is returned for absent, revoked, malformed or tampered tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a signed token is past its expiration.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenDataCorrupt is returned when a stored opaque token payload cannot be decoded.
	ErrTokenDataCorrupt = errors.New("token data corrupt")
	// ErrEngineNotReady is returned when an Engine method is called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError reports a caller input problem: a missing password or
// token, or a user that does not exist. Transports map it to a client fault.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "validation failed"
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthenticationError reports a token that is present but not valid:
// absent from the store, expired, tampered, or undecodable.
// Transports map it to an unauthorized response.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "authentication failed"
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsAuthenticationError reports whether err carries an *AuthenticationError.
func IsAuthenticationError(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

func validationErr(sentinel error) error {
	return &ValidationError{Message: sentinel.Error(), Err: sentinel}
}

func authenticationErr(sentinel error, cause error) error {
	msg := sentinel.Error()
	if cause != nil {
		msg = msg + ": " + cause.Error()
	}
	return &AuthenticationError{Message: msg, Err: sentinel}
}
