// Package protocol defines the JSON payloads exchanged over the HTTP API and
// the event stream, plus the error-code vocabulary.
package protocol

// POST /signup (client -> server)
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignupResponse struct {
	Success bool  `json:"success"`
	UserID  int64 `json:"userId"`
}

// POST /login (client -> server)
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries everything the client needs to reconstruct the
// aggregate without a second round trip.
type LoginResponse struct {
	Success   bool           `json:"success"`
	Token     string         `json:"token"`
	Username  string         `json:"username"`
	UserID    int64          `json:"userId"`
	Stats     map[string]int `json:"stats"`
	Inventory map[string]int `json:"inventory"`
}

// POST /saveProgress (bearer-authenticated). A full-snapshot overwrite:
// the server clamps every value and ignores unmapped inventory keys, so
// replayed or reordered saves stay idempotent.
type SaveProgressRequest struct {
	Stats     map[string]int `json:"stats"`
	Inventory map[string]int `json:"inventory"`
}

type SaveProgressResponse struct {
	Success bool `json:"success"`
}

// GET /progress (bearer-authenticated)
type ProgressResponse struct {
	Success   bool           `json:"success"`
	Username  string         `json:"username"`
	UserID    int64          `json:"userId"`
	Stats     map[string]int `json:"stats"`
	Inventory map[string]int `json:"inventory"`
}

// ErrorResponse is the uniform failure envelope. Error is the human-readable
// message; Code is one of the E_* constants.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
