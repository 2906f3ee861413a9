package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

// historyLimit caps how many chat entries a single history query returns.
const historyLimit = 1000

// AppendChat persists a text message in a room's event log.
func (s *Store) AppendChat(ctx context.Context, roomID, authorID, message string) error {
	entry := Chat{
		RoomID:    roomID,
		UserID:    authorID,
		Message:   message,
		CreatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// AppendDrawing persists a shape payload in a room's event log.
func (s *Store) AppendDrawing(ctx context.Context, roomID, authorID string, shape json.RawMessage) error {
	entry := Chat{
		RoomID:    roomID,
		UserID:    authorID,
		Shape:     []byte(shape),
		CreatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// ListShapeHistory returns the shape payloads of a room in creation order,
// oldest first, skipping text-only entries.
func (s *Store) ListShapeHistory(ctx context.Context, roomID string) ([]json.RawMessage, error) {
	var entries []Chat
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND shape IS NOT NULL AND length(shape) > 0", roomID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(entry Chat, _ int) json.RawMessage {
		return json.RawMessage(entry.Shape)
	}), nil
}

// ListChatHistory returns the most recent entries of a room's log, newest
// first, capped at historyLimit.
func (s *Store) ListChatHistory(ctx context.Context, roomID string) ([]Chat, error) {
	var entries []Chat
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		Limit(historyLimit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
