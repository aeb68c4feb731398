package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ironvale.gg/internal/auth"
	"ironvale.gg/internal/persistence/gamedb"
	"ironvale.gg/internal/protocol"
	"ironvale.gg/internal/sim/catalogs"
	"ironvale.gg/internal/sim/tuning"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	logger := log.New(os.Stdout, "[test] ", 0)
	tn := tuning.Defaults()
	cats := catalogs.Defaults()

	db, err := gamedb.Open(filepath.Join(t.TempDir(), "game.db"), tn, cats, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.EnsureBaseItems(context.Background()); err != nil {
		t.Fatalf("ensure items: %v", err)
	}

	authSvc, err := auth.NewService("test-secret")
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	New(logger, authSvc, db, tn, cats, nil, nil, nil).Register(mux)
	return mux
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestSignup(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/signup", protocol.SignupRequest{Username: "miner_joe", Password: "hunter22"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("signup status = %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode[protocol.SignupResponse](t, rec)
	if !resp.Success || resp.UserID <= 0 {
		t.Fatalf("signup response = %+v", resp)
	}

	rec = postJSON(t, mux, "/signup", protocol.SignupRequest{Username: "miner_joe", Password: "hunter22"}, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d", rec.Code)
	}
	if e := decode[protocol.ErrorResponse](t, rec); e.Code != protocol.ErrUsernameTaken {
		t.Fatalf("duplicate signup code = %q", e.Code)
	}

	rec = postJSON(t, mux, "/signup", protocol.SignupRequest{Username: "x", Password: "hunter22"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short username status = %d", rec.Code)
	}
	rec = postJSON(t, mux, "/signup", protocol.SignupRequest{Username: "valid_name", Password: "short"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password status = %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	mux := newTestMux(t)
	postJSON(t, mux, "/signup", protocol.SignupRequest{Username: "miner_joe", Password: "hunter22"}, "")

	rec := postJSON(t, mux, "/login", protocol.LoginRequest{Username: "miner_joe", Password: "wrong!"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", rec.Code)
	}
	rec = postJSON(t, mux, "/login", protocol.LoginRequest{Username: "ghost", Password: "hunter22"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user status = %d", rec.Code)
	}

	rec = postJSON(t, mux, "/login", protocol.LoginRequest{Username: "miner_joe", Password: "hunter22"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode[protocol.LoginResponse](t, rec)
	if !resp.Success || resp.Token == "" || resp.Username != "miner_joe" {
		t.Fatalf("login response = %+v", resp)
	}
	if resp.Stats["combatLevel"] != 1 || resp.Stats["swordTier"] != 1 {
		t.Fatalf("default stats = %v", resp.Stats)
	}
	if resp.Inventory["coins"] != 0 {
		t.Fatalf("default inventory = %v", resp.Inventory)
	}
	if _, ok := resp.Inventory["goldBar"]; !ok {
		t.Fatalf("snapshot must cover every catalog item, got %v", resp.Inventory)
	}
}

func TestSaveAndLoadProgress(t *testing.T) {
	mux := newTestMux(t)
	postJSON(t, mux, "/signup", protocol.SignupRequest{Username: "miner_joe", Password: "hunter22"}, "")
	login := decode[protocol.LoginResponse](t,
		postJSON(t, mux, "/login", protocol.LoginRequest{Username: "miner_joe", Password: "hunter22"}, ""))

	save := protocol.SaveProgressRequest{
		Stats: map[string]int{
			"combatLevel": 7, "combatXp": 120,
			"swordTier": 2,
			// Hostile value the server must clamp.
			"miningLevel": 150,
		},
		Inventory: map[string]int{"coins": 250, "ironBar": 300},
	}

	rec := postJSON(t, mux, "/saveProgress", save, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated save status = %d", rec.Code)
	}

	rec = postJSON(t, mux, "/saveProgress", save, login.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d body %s", rec.Code, rec.Body.String())
	}
	if resp := decode[protocol.SaveProgressResponse](t, rec); !resp.Success {
		t.Fatalf("save response = %+v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec2.Code)
	}
	prog := decode[protocol.ProgressResponse](t, rec2)
	if prog.Stats["combatLevel"] != 7 || prog.Stats["swordTier"] != 2 {
		t.Fatalf("progress stats = %v", prog.Stats)
	}
	if prog.Stats["miningLevel"] != 99 {
		t.Fatalf("miningLevel = %d, want clamp to 99", prog.Stats["miningLevel"])
	}
	if prog.Inventory["coins"] != 250 || prog.Inventory["ironBar"] != 300 {
		t.Fatalf("progress inventory = %v", prog.Inventory)
	}
}

func TestRateLimit_CredentialEndpoints(t *testing.T) {
	mux := newTestMux(t)

	var limited bool
	for i := 0; i < 10; i++ {
		rec := postJSON(t, mux, "/login", protocol.LoginRequest{Username: "ghost", Password: "nope00"}, "")
		if rec.Code == http.StatusTooManyRequests {
			if e := decode[protocol.ErrorResponse](t, rec); e.Code != protocol.ErrRateLimit {
				t.Fatalf("limit code = %q", e.Code)
			}
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("10 rapid attempts from one address must trip the limiter")
	}
}
