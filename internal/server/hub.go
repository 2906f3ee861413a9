// Package server coordinates connection registration, room-scoped broadcast,
// and connection cleanup via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sketchdeck/sketchdeck/internal/session"
)

// RoomMessage is one payload queued for fan-out to every current member of a
// room. The payload is serialized exactly once by the sender.
type RoomMessage struct {
	RoomID  string
	Payload []byte
}

// Hub owns the connection lifecycle and the broadcast loop. Registration,
// unregistration, and fan-out all pass through one goroutine, so a broadcast
// always observes a consistent membership snapshot.
type Hub struct {
	registry   *session.Registry
	register   chan *Client
	unregister chan *Client
	broadcast  chan RoomMessage
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub fanning out over the given registry.
func NewHub(registry *session.Registry) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   registry,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan RoomMessage, 64),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Registry returns the session registry the hub fans out over.
func (h *Hub) Registry() *session.Registry {
	return h.registry
}

// Admit hands a freshly authenticated client to the hub, which registers it
// and starts its pumps.
func (h *Hub) Admit(client *Client) {
	h.register <- client
}

// Broadcast queues a payload for delivery to every current member of a room.
func (h *Hub) Broadcast(roomID string, payload []byte) {
	select {
	case h.broadcast <- RoomMessage{RoomID: roomID, Payload: payload}:
	case <-h.ctx.Done():
	}
}

// Run starts the hub's main event loop. This method should be called in a
// separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				slog.Warn("nil client registration skipped")
				continue
			}
			if err := h.registry.Register(client); err != nil {
				slog.Error("client registration failed", "addr", client.addr, "error", err)
				_ = client.Close()
				continue
			}
			slog.Info("client registered",
				"connId", client.ID(), "userId", client.UserID(),
				"addr", client.addr, "total", h.registry.Len())

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.registry.Unregister(client.ID())
			client.shutdownSend()
			slog.Info("client unregistered",
				"connId", client.ID(), "total", h.registry.Len())

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// fanOut delivers one payload to every current member of a room. A failed
// delivery never aborts the others: the member is closed and pruned, and its
// read pump completes the cleanup.
func (h *Hub) fanOut(msg RoomMessage) {
	members := h.registry.MembersOf(msg.RoomID)

	var failed []session.Conn
	for _, member := range members {
		if !h.safeSend(member, msg.Payload) {
			failed = append(failed, member)
		}
	}

	for _, member := range failed {
		slog.Warn("dropping unreachable room member",
			"connId", member.ID(), "roomId", msg.RoomID)
		h.registry.Unregister(member.ID())
		_ = member.Close()
	}
}

func (h *Hub) safeSend(conn session.Conn, payload []byte) (delivered bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("recovered from send on closing connection", "recover", r)
			delivered = false
		}
	}()
	return conn.TrySend(payload)
}

// shutdownClients closes every registered connection during hub shutdown.
func (h *Hub) shutdownClients() {
	conns := h.registry.Conns()
	for _, conn := range conns {
		_ = conn.Close()
	}
	slog.Info("closed client connections", "count", len(conns))
}

// Shutdown stops the hub loop and waits for the client pumps to finish, or
// until the timeout elapses.
func (h *Hub) Shutdown(timeout time.Duration) error {
	slog.Info("hub shutdown initiated")
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		slog.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		slog.Warn("hub shutdown timed out")
		return context.DeadlineExceeded
	}
}
