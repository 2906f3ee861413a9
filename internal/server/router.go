// Package server dispatches inbound frames to their handlers. The Router is
// the protocol state machine: it validates each tagged frame, touches the
// registry and the store, and hands successful mutations to the hub for
// fan-out.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sketchdeck/sketchdeck/internal/store"
)

// Gateway is the slice of the persistence layer the realtime core depends on.
// *store.Store satisfies it; tests substitute fakes.
type Gateway interface {
	UpsertRoom(ctx context.Context, id, slug, adminID string) (*store.Room, error)
	AppendChat(ctx context.Context, roomID, authorID, message string) error
	AppendDrawing(ctx context.Context, roomID, authorID string, shape json.RawMessage) error
	ListShapeHistory(ctx context.Context, roomID string) ([]json.RawMessage, error)
}

// Router parses and dispatches inbound frames. One Router serves all
// connections; per-connection ordering comes from each connection's single
// read pump calling Dispatch sequentially.
type Router struct {
	hub   *Hub
	rooms *RoomResolver
	store Gateway
}

// NewRouter creates a Router over the given hub, resolver, and store.
func NewRouter(hub *Hub, rooms *RoomResolver, gw Gateway) *Router {
	return &Router{hub: hub, rooms: rooms, store: gw}
}

// Dispatch processes one raw inbound frame from a connection. Malformed JSON
// and unknown tags produce an error frame to the sender only; the connection
// always survives.
func (r *Router) Dispatch(c *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.sendError(c, ErrMsgInvalidJSON)
		return
	}

	// Storage calls below run on the connection's read pump, so a slow
	// store stalls only this connection, never the hub loop.
	ctx := context.Background()

	switch frame.Type {
	case TypeJoinRoom:
		r.handleJoin(ctx, c, frame)
	case TypeLeaveRoom:
		r.handleLeave(c, frame)
	case TypeChat:
		r.handleChat(ctx, c, frame)
	case TypeDrawing:
		r.handleDrawing(ctx, c, frame)
	case TypeEraseShape:
		r.handleErase(c, frame)
	default:
		r.sendError(c, ErrMsgUnknownType)
	}
}

// handleJoin resolves (creating if needed) the room, records membership, and
// replays the persisted shape history to the joiner before acknowledging.
// Nothing is broadcast to other members.
func (r *Router) handleJoin(ctx context.Context, c *Client, frame Frame) {
	if frame.RoomID == "" {
		r.sendError(c, ErrMsgMissingRoomID)
		return
	}

	if _, err := r.rooms.Resolve(ctx, frame.RoomID, frame.Slug, c.UserID()); err != nil {
		slog.Error("room resolution failed",
			"roomId", frame.RoomID, "connId", c.ID(), "error", err)
		r.sendError(c, ErrMsgRoomResolve)
		return
	}

	r.hub.Registry().Join(c.ID(), frame.RoomID)

	shapes, err := r.store.ListShapeHistory(ctx, frame.RoomID)
	if err != nil {
		slog.Error("shape history fetch failed",
			"roomId", frame.RoomID, "connId", c.ID(), "error", err)
		r.sendError(c, ErrMsgPersistence)
		return
	}
	if shapes == nil {
		shapes = []json.RawMessage{}
	}

	r.reply(c, ExistingShapesFrame{Type: TypeExistingShapes, RoomID: frame.RoomID, Shapes: shapes})
	r.reply(c, JoinedFrame{Type: TypeJoinedRoom, RoomID: frame.RoomID})
}

func (r *Router) handleLeave(c *Client, frame Frame) {
	if frame.RoomID == "" {
		r.sendError(c, ErrMsgMissingRoomID)
		return
	}
	r.hub.Registry().Leave(c.ID(), frame.RoomID)
	r.reply(c, LeftFrame{Type: TypeLeftRoom, RoomID: frame.RoomID})
}

// handleChat persists the message, then broadcasts it to every current member
// of the room, sender included. On a persistence failure the sender gets an
// error frame and no broadcast happens.
func (r *Router) handleChat(ctx context.Context, c *Client, frame Frame) {
	if frame.RoomID == "" {
		r.sendError(c, ErrMsgMissingRoomID)
		return
	}
	if frame.Message == "" {
		r.sendError(c, ErrMsgMissingField)
		return
	}

	if _, err := r.rooms.Resolve(ctx, frame.RoomID, frame.Slug, c.UserID()); err != nil {
		slog.Error("room resolution failed",
			"roomId", frame.RoomID, "connId", c.ID(), "error", err)
		r.sendError(c, ErrMsgRoomResolve)
		return
	}

	if err := r.store.AppendChat(ctx, frame.RoomID, c.UserID(), frame.Message); err != nil {
		slog.Error("chat persist failed",
			"roomId", frame.RoomID, "connId", c.ID(), "error", err)
		r.sendError(c, ErrMsgPersistence)
		return
	}

	r.broadcast(c, frame.RoomID, ChatFrame{
		Type:     TypeChat,
		RoomID:   frame.RoomID,
		Message:  frame.Message,
		AuthorID: c.UserID(),
	})
}

// handleDrawing persists the shape, then broadcasts it to every current
// member of the room, sender included.
func (r *Router) handleDrawing(ctx context.Context, c *Client, frame Frame) {
	if frame.RoomID == "" {
		r.sendError(c, ErrMsgMissingRoomID)
		return
	}
	if len(frame.Shape) == 0 {
		r.sendError(c, ErrMsgMissingField)
		return
	}

	if _, err := r.rooms.Resolve(ctx, frame.RoomID, frame.Slug, c.UserID()); err != nil {
		slog.Error("room resolution failed",
			"roomId", frame.RoomID, "connId", c.ID(), "error", err)
		r.sendError(c, ErrMsgRoomResolve)
		return
	}

	if err := r.store.AppendDrawing(ctx, frame.RoomID, c.UserID(), frame.Shape); err != nil {
		slog.Error("drawing persist failed",
			"roomId", frame.RoomID, "connId", c.ID(), "error", err)
		r.sendError(c, ErrMsgPersistence)
		return
	}

	r.broadcast(c, frame.RoomID, DrawingFrame{
		Type:     TypeDrawing,
		RoomID:   frame.RoomID,
		Shape:    frame.Shape,
		AuthorID: c.UserID(),
	})
}

// handleErase broadcasts the erase to every current member, sender included.
// Erasures carry no durable record; reconnecting clients replay history as
// persisted.
func (r *Router) handleErase(c *Client, frame Frame) {
	if frame.RoomID == "" {
		r.sendError(c, ErrMsgMissingRoomID)
		return
	}
	if frame.ShapeID == "" {
		r.sendError(c, ErrMsgMissingField)
		return
	}

	r.broadcast(c, frame.RoomID, EraseShapeFrame{
		Type:    TypeEraseShape,
		RoomID:  frame.RoomID,
		ShapeID: frame.ShapeID,
	})
}

// broadcast serializes the frame once and queues it for room fan-out.
func (r *Router) broadcast(c *Client, roomID string, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		slog.Error("frame marshal failed", "roomId", roomID, "error", err)
		r.sendError(c, ErrMsgPersistence)
		return
	}
	r.hub.Broadcast(roomID, payload)
}

// reply sends a frame to a single connection. Delivery is best effort: a
// full or closing peer simply misses the reply.
func (r *Router) reply(c *Client, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		slog.Error("reply marshal failed", "connId", c.ID(), "error", err)
		return
	}
	if !c.TrySend(payload) {
		slog.Debug("reply dropped, connection closing", "connId", c.ID())
	}
}

func (r *Router) sendError(c *Client, message string) {
	r.reply(c, ErrorFrame{Type: TypeError, Message: message})
}
