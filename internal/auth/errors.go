package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid username or password")

	// ErrAccountDisabled is distinct from a credential failure: the
	// credentials were fine but the account has been deactivated.
	ErrAccountDisabled = errors.New("auth: account is deactivated")

	// ErrInvalidToken indicates a malformed or tampered token.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrTokenExpired indicates the token was validly issued but its
	// lifetime has elapsed. Callers use this to prompt a refresh rather
	// than a re-login.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrInvalidRefreshToken covers every refresh failure: bad signature,
	// expiry, and a subject that no longer exists or is inactive.
	ErrInvalidRefreshToken = errors.New("auth: invalid refresh token")

	ErrConflict     = errors.New("auth: already exists")
	ErrNotFound     = errors.New("auth: not found")
	ErrUnauthorized = errors.New("auth: authentication required")
	ErrForbidden    = errors.New("auth: insufficient permissions")
	ErrInvalidInput = errors.New("auth: invalid input")
)
