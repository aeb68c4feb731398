// Package auth issues and verifies the bearer tokens carrying account
// identity, and owns password hashing. Identity for every authenticated
// operation comes from the token, never from a request body.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ironvale.gg/internal/protocol"
)

// TokenTTL bounds how long an issued session token stays valid.
const TokenTTL = 24 * time.Hour

// Identity is the authenticated account, as embedded in the token.
type Identity struct {
	UserID   int64
	Username string
}

type Service struct {
	secret []byte
}

// NewService builds the token service. An empty secret is refused; callers
// treat that as startup-fatal.
func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	return &Service{secret: []byte(secret)}, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the identity, expiring after TokenTTL.
func (s *Service) IssueToken(id Identity) (string, error) {
	now := time.Now()
	c := claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// VerifyToken parses and validates a token, returning the embedded identity.
func (s *Service) VerifyToken(token string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}
	uid, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return Identity{}, errors.New("auth: invalid token subject")
	}
	return Identity{UserID: uid, Username: c.Username}, nil
}

type ctxKey struct{}

// FromContext returns the identity RequireAuth stored on the request.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// RequireAuth rejects requests without a valid bearer token and stores the
// verified identity in the request context. The token is read from the
// Authorization header, falling back to a token query parameter for
// websocket clients.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			rejectJSON(w, http.StatusUnauthorized, "missing token")
			return
		}
		id, err := s.VerifyToken(token)
		if err != nil {
			rejectJSON(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func rejectJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: msg, Code: protocol.ErrTokenInvalid})
}
