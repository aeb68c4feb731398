// Package httpapi serves the account and progress endpoints consumed by the
// game client: signup, login, save and load, plus static asset serving with
// an SPA fallback.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"ironvale.gg/internal/auth"
	"ironvale.gg/internal/persistence/archive"
	"ironvale.gg/internal/persistence/gamedb"
	"ironvale.gg/internal/protocol"
	"ironvale.gg/internal/sim/catalogs"
	"ironvale.gg/internal/sim/player"
	"ironvale.gg/internal/sim/session"
	"ironvale.gg/internal/sim/tuning"
)

// Metrics carries request counters for the /metrics exposition.
type Metrics struct {
	Signups      atomic.Int64
	Logins       atomic.Int64
	LoginDenied  atomic.Int64
	Saves        atomic.Int64
	SaveFailures atomic.Int64
}

// Notifier pushes session events to an account's live event stream.
type Notifier interface {
	Publish(userID int64, ev session.Event)
}

type Server struct {
	logger  *log.Logger
	auth    *auth.Service
	db      *gamedb.DB
	t       tuning.Tuning
	cats    *catalogs.Catalogs
	archive *archive.Writer
	notify  Notifier
	metrics *Metrics

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New wires the API surface. archive and notify may be nil.
func New(logger *log.Logger, authSvc *auth.Service, db *gamedb.DB, t tuning.Tuning, cats *catalogs.Catalogs, arch *archive.Writer, notify Notifier, m *Metrics) *Server {
	if m == nil {
		m = &Metrics{}
	}
	return &Server{
		logger:   logger,
		auth:     authSvc,
		db:       db,
		t:        t,
		cats:     cats,
		archive:  arch,
		notify:   notify,
		metrics:  m,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *Server) Metrics() *Metrics { return s.metrics }

// Register installs the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/login", s.handleLogin)
	mux.Handle("/saveProgress", s.auth.RequireAuth(http.HandlerFunc(s.handleSaveProgress)))
	mux.Handle("/progress", s.auth.RequireAuth(http.HandlerFunc(s.handleProgress)))
}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,24}$`)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, protocol.ErrBadRequest, "POST required")
		return
	}
	if !s.allow(r) {
		writeError(w, http.StatusTooManyRequests, protocol.ErrRateLimit, "too many attempts")
		return
	}
	var req protocol.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrBadRequest, "invalid JSON body")
		return
	}
	if !usernameRe.MatchString(req.Username) || len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, protocol.ErrBadRequest, "username must be 3-24 word characters and password at least 6")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Printf("signup: hash: %v", err)
		writeError(w, http.StatusInternalServerError, protocol.ErrInternal, "internal error")
		return
	}
	id, err := s.db.CreateUser(r.Context(), req.Username, hash)
	if errors.Is(err, gamedb.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, protocol.ErrUsernameTaken, "username already taken")
		return
	}
	if err != nil {
		s.logger.Printf("signup: create user %q: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, protocol.ErrInternal, "internal error")
		return
	}
	s.metrics.Signups.Add(1)
	writeJSON(w, http.StatusOK, protocol.SignupResponse{Success: true, UserID: id})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, protocol.ErrBadRequest, "POST required")
		return
	}
	if !s.allow(r) {
		writeError(w, http.StatusTooManyRequests, protocol.ErrRateLimit, "too many attempts")
		return
	}
	var req protocol.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrBadRequest, "invalid JSON body")
		return
	}

	id, hash, err := s.db.Credentials(r.Context(), req.Username)
	if errors.Is(err, gamedb.ErrNotFound) || (err == nil && !auth.CheckPassword(hash, req.Password)) {
		s.metrics.LoginDenied.Add(1)
		writeError(w, http.StatusUnauthorized, protocol.ErrBadCredentials, "invalid credentials")
		return
	}
	if err != nil {
		s.logger.Printf("login: credentials %q: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, protocol.ErrInternal, "internal error")
		return
	}

	if err := s.db.EnsureInventoryRows(r.Context(), id); err != nil {
		s.logger.Printf("login: inventory fixup user %d: %v", id, err)
	}
	snap, err := s.loadNormalized(r, id, req.Username)
	if err != nil {
		s.logger.Printf("login: load progress user %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, protocol.ErrInternal, "failed to load progress")
		return
	}

	token, err := s.auth.IssueToken(auth.Identity{UserID: id, Username: req.Username})
	if err != nil {
		s.logger.Printf("login: issue token user %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, protocol.ErrInternal, "internal error")
		return
	}
	s.metrics.Logins.Add(1)
	writeJSON(w, http.StatusOK, protocol.LoginResponse{
		Success:   true,
		Token:     token,
		Username:  req.Username,
		UserID:    id,
		Stats:     snap.Stats,
		Inventory: snap.Inventory,
	})
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, protocol.ErrBadRequest, "POST required")
		return
	}
	// Identity comes from the verified token only. A username in the body is
	// ignored so one account can never write another's rows.
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, protocol.ErrTokenInvalid, "missing identity")
		return
	}
	var req protocol.SaveProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrBadRequest, "invalid JSON body")
		return
	}

	snap := player.Snapshot{Stats: req.Stats, Inventory: req.Inventory}
	if err := s.db.SaveProgress(r.Context(), id.UserID, snap); err != nil {
		s.metrics.SaveFailures.Add(1)
		if errors.Is(err, gamedb.ErrNotFound) {
			writeError(w, http.StatusNotFound, protocol.ErrNotFound, "no stats row for account")
			return
		}
		s.logger.Printf("saveProgress: user %d: %v", id.UserID, err)
		writeError(w, http.StatusInternalServerError, protocol.ErrInternal, "failed to save progress")
		return
	}
	s.metrics.Saves.Add(1)
	if s.archive != nil {
		s.archive.Archive(id.UserID, id.Username, snap)
	}
	if s.notify != nil {
		s.notify.Publish(id.UserID, session.Event{Type: "progress_saved"})
	}
	writeJSON(w, http.StatusOK, protocol.SaveProgressResponse{Success: true})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, protocol.ErrBadRequest, "GET required")
		return
	}
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, protocol.ErrTokenInvalid, "missing identity")
		return
	}
	snap, err := s.loadNormalized(r, id.UserID, id.Username)
	if errors.Is(err, gamedb.ErrNotFound) {
		writeError(w, http.StatusNotFound, protocol.ErrNotFound, "no stats row for account")
		return
	}
	if err != nil {
		s.logger.Printf("progress: user %d: %v", id.UserID, err)
		writeError(w, http.StatusInternalServerError, protocol.ErrInternal, "failed to load progress")
		return
	}
	writeJSON(w, http.StatusOK, protocol.ProgressResponse{
		Success:   true,
		Username:  id.Username,
		UserID:    id.UserID,
		Stats:     snap.Stats,
		Inventory: snap.Inventory,
	})
}

// loadNormalized loads the persisted rows and round-trips them through the
// aggregate so missing fields come back defaulted and upgrade costs fresh.
func (s *Server) loadNormalized(r *http.Request, userID int64, username string) (player.Snapshot, error) {
	raw, err := s.db.LoadProgress(r.Context(), userID)
	if err != nil {
		return player.Snapshot{}, err
	}
	p := player.FromSnapshot(s.t, s.cats, userID, username, raw)
	return p.Snapshot(), nil
}

// RegisterStatic serves client assets from dir with an index.html fallback
// for client-side routes. No-op when dir is empty.
func RegisterStatic(mux *http.ServeMux, dir string) {
	if dir == "" {
		return
	}
	fs := http.FileServer(http.Dir(dir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		p := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}

// allow applies the per-IP credential rate limit: one attempt per second,
// burst of five.
func (s *Server) allow(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	s.mu.Lock()
	lim, ok := s.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(1), 5)
		s.limiters[host] = lim
	}
	s.mu.Unlock()
	return lim.Allow()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, protocol.ErrorResponse{Error: msg, Code: code})
}
