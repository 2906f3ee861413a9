// Package server exposes the WebSocket upgrade handler, which performs
// connection admission before any protocol interaction.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sketchdeck/sketchdeck/internal/auth"
	"github.com/sketchdeck/sketchdeck/internal/config"
)

// Close reasons sent with the 1008 policy-violation status. All rejected
// credentials look the same to the peer beyond missing versus present.
const (
	closeReasonInvalidURL   = "Invalid URL"
	closeReasonTokenMissing = "Token missing"
	closeReasonInvalidToken = "Invalid token"
)

// WSHandler upgrades HTTP requests to WebSocket connections, authenticates
// the bearer token from the "token" query parameter, and hands admitted
// clients to the hub. No partially initialized client is ever registered: a
// rejected handshake closes with 1008 before the first frame is read.
type WSHandler struct {
	hub      *Hub
	router   *Router
	tokens   *auth.TokenManager
	cfg      config.Config
	upgrader websocket.Upgrader
}

// NewWSHandler creates the realtime endpoint handler.
func NewWSHandler(hub *Hub, router *Router, tokens *auth.TokenManager, cfg config.Config) *WSHandler {
	origins := NewOriginPolicy(cfg.Origins())
	return &WSHandler{
		hub:    hub,
		router: router,
		tokens: tokens,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.CheckRequest,
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	if r.URL == nil {
		h.reject(conn, r.RemoteAddr, closeReasonInvalidURL)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		h.reject(conn, r.RemoteAddr, closeReasonTokenMissing)
		return
	}

	userID, err := h.tokens.Verify(token)
	if err != nil {
		h.reject(conn, r.RemoteAddr, closeReasonInvalidToken)
		return
	}

	limiter := newRateLimiter(h.cfg.RateLimit.Burst, h.cfg.RateLimit.RefillInterval)
	client := NewClient(uuid.NewString(), userID, conn, h.hub, h.router, r.RemoteAddr, h.cfg.MaxMessageSize, limiter)
	h.hub.Admit(client)
}

// reject closes a just-upgraded connection with a policy-violation status and
// a short reason, before any frame is processed.
func (h *WSHandler) reject(conn *websocket.Conn, addr, reason string) {
	slog.Warn("connection rejected", "addr", addr, "reason", reason)

	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil && !isExpectedCloseError(err) {
		slog.Debug("write close frame failed", "addr", addr, "error", err)
	}
	if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
		slog.Debug("close rejected connection failed", "addr", addr, "error", err)
	}
}
