// Package ws streams gameplay events to authenticated clients over a
// websocket. The hub fans session events out per account; slow consumers
// drop events instead of stalling the game loop.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ironvale.gg/internal/auth"
	"ironvale.gg/internal/sim/session"
)

type client struct {
	id     string
	userID int64
	out    chan []byte
}

type Hub struct {
	log *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client

	active atomic.Int64
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		log:     logger,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8 * 1024,
			WriteBufferSize: 8 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// ActiveClients reports the current connection count for /metrics.
func (h *Hub) ActiveClients() int64 { return h.active.Load() }

// Publish sends an event to every connection of one account. Full client
// queues drop the event.
func (h *Hub) Publish(userID int64, ev session.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if c.userID != userID {
			continue
		}
		select {
		case c.out <- b:
		default:
		}
	}
}

// Handler upgrades an authenticated request to an event stream. The identity
// must already be on the context via auth.RequireAuth.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(rw, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{
			id:     uuid.NewString(),
			userID: id.UserID,
			out:    make(chan []byte, 64),
		}
		h.mu.Lock()
		h.clients[c.id] = c
		h.mu.Unlock()
		h.active.Add(1)
		defer func() {
			h.mu.Lock()
			delete(h.clients, c.id)
			h.mu.Unlock()
			h.active.Add(-1)
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-c.out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Clients send nothing meaningful; reading drives
		// keepalive and close detection.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}
}
