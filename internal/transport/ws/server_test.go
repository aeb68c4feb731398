package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ironvale.gg/internal/auth"
	"ironvale.gg/internal/sim/session"
)

func TestHub_PublishReachesOwnAccountOnly(t *testing.T) {
	logger := log.New(os.Stdout, "[test] ", 0)
	authSvc, err := auth.NewService("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	hub := NewHub(logger)

	srv := httptest.NewServer(authSvc.RequireAuth(hub.Handler()))
	defer srv.Close()

	dial := func(userID int64, name string) *websocket.Conn {
		t.Helper()
		token, err := authSvc.IssueToken(auth.Identity{UserID: userID, Username: name})
		if err != nil {
			t.Fatal(err)
		}
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		return conn
	}

	alice := dial(1, "alice")
	defer alice.Close()
	bob := dial(2, "bob")
	defer bob.Close()

	// Registration races the dial response; wait for both clients.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ActiveClients() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want 2", hub.ActiveClients())
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(1, session.Event{Type: session.EventLevelUp, Skill: "combat", Level: 5})

	_ = alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := alice.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev session.Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("unmarshal %q: %v", msg, err)
	}
	if ev.Type != session.EventLevelUp || ev.Skill != "combat" || ev.Level != 5 {
		t.Fatalf("event = %+v", ev)
	}

	// Bob must not see Alice's event.
	_ = bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := bob.ReadMessage(); err == nil {
		t.Fatalf("bob received another account's event")
	}
}

func TestHub_RejectsUnauthenticated(t *testing.T) {
	logger := log.New(os.Stdout, "[test] ", 0)
	authSvc, _ := auth.NewService("test-secret")
	hub := NewHub(logger)

	srv := httptest.NewServer(authSvc.RequireAuth(hub.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
