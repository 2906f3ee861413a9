// Package server defines the tagged frame types exchanged over the realtime
// endpoint. Every frame in both directions is one JSON object whose "type"
// field selects the variant.
package server

import "encoding/json"

// Inbound frame tags.
const (
	TypeJoinRoom   = "join_room"
	TypeLeaveRoom  = "leave_room"
	TypeChat       = "chat"
	TypeDrawing    = "drawing"
	TypeEraseShape = "erase_shape"
)

// Outbound frame tags.
const (
	TypeJoinedRoom     = "joined_room"
	TypeLeftRoom       = "left_room"
	TypeExistingShapes = "existing_shapes"
	TypeError          = "error"
)

// Error frame messages. ErrMsgInvalidJSON is part of the wire contract and
// must not change.
const (
	ErrMsgInvalidJSON   = "Invalid JSON format"
	ErrMsgUnknownType   = "Unknown message type"
	ErrMsgMissingRoomID = "Missing roomId"
	ErrMsgMissingField  = "Missing required field"
	ErrMsgPersistence   = "Failed to persist event"
	ErrMsgRoomResolve   = "Failed to resolve room"
)

// Frame is the decoded form of an inbound message. Only the fields relevant
// to the tagged type are populated; the router validates per-type presence.
type Frame struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId"`
	Slug    string          `json:"slug,omitempty"`
	Message string          `json:"message,omitempty"`
	Shape   json.RawMessage `json:"shape,omitempty"`
	ShapeID string          `json:"shapeId,omitempty"`
}

// ErrorFrame is sent to a single connection when its frame could not be
// processed. The connection stays open.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// JoinedFrame acknowledges a successful join to the joining connection only.
type JoinedFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// LeftFrame acknowledges a leave to the leaving connection only.
type LeftFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// ExistingShapesFrame replays a room's persisted shape history to a joining
// connection, oldest shape first.
type ExistingShapesFrame struct {
	Type   string            `json:"type"`
	RoomID string            `json:"roomId"`
	Shapes []json.RawMessage `json:"shapes"`
}

// ChatFrame is fanned out to every member of a room, including the sender.
type ChatFrame struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	AuthorID string `json:"authorId"`
}

// DrawingFrame carries one persisted shape to every member of a room.
type DrawingFrame struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"roomId"`
	Shape    json.RawMessage `json:"shape"`
	AuthorID string          `json:"authorId"`
}

// EraseShapeFrame tells every member of a room to drop a shape by id.
type EraseShapeFrame struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	ShapeID string `json:"shapeId"`
}
