package protocol

const (
	// Request/transport validation.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrRateLimit  = "E_RATE_LIMIT"

	// Authentication.
	ErrBadCredentials = "E_BAD_CREDENTIALS"
	ErrTokenInvalid   = "E_TOKEN_INVALID"

	// Accounts/state.
	ErrUsernameTaken = "E_CONFLICT"
	ErrNotFound      = "E_NOT_FOUND"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:     {},
	ErrRateLimit:      {},
	ErrBadCredentials: {},
	ErrTokenInvalid:   {},
	ErrUsernameTaken:  {},
	ErrNotFound:       {},
	ErrInternal:       {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
