// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client represents one live WebSocket connection of an authenticated user.
// It owns the socket and the outbound send queue; room membership lives in
// the session registry, keyed by the client's id.
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	router *Router
	addr   string

	closed    atomic.Bool
	closeOnce sync.Once

	maxMessageSize int64
	limiter        *rateLimiter
}

// NewClient creates a Client for an authenticated connection. The send
// channel is buffered so a slow reader does not stall broadcasts to others.
func NewClient(id, userID string, conn *websocket.Conn, hub *Hub, router *Router, addr string, maxMessageSize int64, limiter *rateLimiter) *Client {
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		id:             id,
		userID:         userID,
		conn:           conn,
		send:           make(chan []byte, 256),
		hub:            hub,
		router:         router,
		addr:           addr,
		maxMessageSize: maxMessageSize,
		limiter:        limiter,
	}
}

// ID returns the opaque connection id.
func (c *Client) ID() string { return c.id }

// UserID returns the authenticated user this connection belongs to.
func (c *Client) UserID() string { return c.userID }

// TrySend queues a payload for delivery without blocking. It reports false if
// the connection is closing or its send buffer is full; the caller decides
// whether that means pruning.
func (c *Client) TrySend(payload []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close closes the underlying socket. The read pump notices and drives the
// rest of the teardown.
func (c *Client) Close() error {
	c.closed.Store(true)
	return c.conn.Close()
}

// shutdownSend marks the client closed and closes the send channel exactly
// once, letting the write pump flush its close frame and exit.
func (c *Client) shutdownSend() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.send)
	})
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("set read deadline failed", "addr", c.addr, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// handleReadError classifies a read failure and reports whether the pump
// should stop. Every failure stops the pump; the distinction is log noise.
func (c *Client) handleReadError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, websocket.ErrReadLimit):
		slog.Warn("frame exceeded maximum size",
			"addr", c.addr, "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		slog.Debug("client disconnected", "addr", c.addr, "error", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		slog.Debug("connection closed", "addr", c.addr, "error", err)
	default:
		slog.Warn("websocket read error", "addr", c.addr, "error", err)
	}
	return true
}

// checkRateLimit reports whether the frame may be processed.
func (c *Client) checkRateLimit() bool {
	if c.limiter != nil && !c.limiter.allow() {
		slog.Warn("rate limit exceeded, frame discarded",
			"addr", c.addr, "connId", c.id)
		return false
	}
	return true
}

// readPump consumes inbound frames one at a time, which is what guarantees
// per-connection processing order.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			slog.Warn("close in read pump failed", "addr", c.addr, "error", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if c.handleReadError(err) {
			return
		}
		if !c.checkRateLimit() {
			continue
		}
		c.router.Dispatch(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			slog.Warn("close in write pump failed", "addr", c.addr, "error", err)
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !c.writeOutbound(payload, ok) {
				return
			}
		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeOutbound writes one queued payload, or the close frame when the send
// channel has been shut down. It reports false when the pump should stop.
func (c *Client) writeOutbound(payload []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		slog.Warn("set write deadline failed", "addr", c.addr, "error", err)
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
			slog.Warn("write close frame failed", "addr", c.addr, "error", err)
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if !isExpectedCloseError(err) {
			slog.Warn("write frame failed", "addr", c.addr, "error", err)
		}
		return false
	}
	return true
}

func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil) == nil
}
