// Package sse streams fault-bus events to diagnostic consumers over
// server-sent events. The hub is the in-process observer side of the
// fault reporting bus; producers never know it exists.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ovestreet/storefront-backend/internal/faultbus"
	"github.com/ovestreet/storefront-backend/internal/observability"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
)

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan faultbus.Event
	done     chan struct{}
}

type Hub struct {
	mu      sync.RWMutex
	log     *logger.Logger
	clients map[*Client]bool
	dispose func()
}

// NewHub subscribes to the permission-error channel on bus and fans every
// event out to connected diagnostic clients.
func NewHub(log *logger.Logger, bus *faultbus.Bus) *Hub {
	hub := &Hub{
		log:     log.With("component", "FaultStreamHub"),
		clients: make(map[*Client]bool),
	}
	hub.dispose = bus.Subscribe(faultbus.ChannelPermissionError, hub.broadcast)
	return hub
}

func (hub *Hub) NewClient(userID uuid.UUID) *Client {
	client := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan faultbus.Event, 16),
		done:     make(chan struct{}),
	}
	hub.mu.Lock()
	hub.clients[client] = true
	n := len(hub.clients)
	hub.mu.Unlock()
	observability.Current().SetSSEClients(n)
	hub.log.Debug("Diagnostic client connected", "client_id", client.ID)
	return client
}

func (hub *Hub) CloseClient(client *Client) {
	hub.mu.Lock()
	if !hub.clients[client] {
		hub.mu.Unlock()
		return
	}
	delete(hub.clients, client)
	n := len(hub.clients)
	hub.mu.Unlock()
	observability.Current().SetSSEClients(n)
	close(client.done)
	hub.log.Debug("Diagnostic client disconnected", "client_id", client.ID)
}

func (hub *Hub) Close() {
	if hub.dispose != nil {
		hub.dispose()
		hub.dispose = nil
	}
}

// broadcast runs on the fault-bus publisher's goroutine and must not
// block; a client with a full buffer loses the event.
func (hub *Hub) broadcast(ev faultbus.Event) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for client := range hub.clients {
		select {
		case client.Outbound <- ev:
		default:
			hub.log.Warn("Dropping fault event; client buffer full", "client_id", client.ID)
		}
	}
}

func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.log.Debug("Diagnostic client context done", "client_id", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-client.Outbound:
			raw, err := json.Marshal(ev)
			if err != nil {
				hub.log.Warn("Failed to marshal fault event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\n", faultbus.ChannelPermissionError)
			fmt.Fprintf(w, "data: %s\n\n", raw)
			flusher.Flush()
		}
	}
}
