package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateRoom creates a new room with a generated id.
func (s *Store) CreateRoom(ctx context.Context, slug, adminID string) (*Room, error) {
	room := Room{
		ID:        uuid.NewString(),
		Slug:      slug,
		AdminID:   adminID,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoom looks up a room by id.
func (s *Store) GetRoom(ctx context.Context, id string) (*Room, error) {
	var room Room
	err := s.db.WithContext(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// RoomBySlug looks up a room by its slug.
func (s *Store) RoomBySlug(ctx context.Context, slug string) (*Room, error) {
	var room Room
	err := s.db.WithContext(ctx).First(&room, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// UpsertRoom returns the room with the given id, creating it if absent with
// the provided slug and admin. The insert uses ON CONFLICT DO NOTHING so two
// callers racing on the same unknown id both succeed and see a single record;
// whoever wins the insert decides slug and admin.
func (s *Store) UpsertRoom(ctx context.Context, id, slug, adminID string) (*Room, error) {
	if slug == "" {
		slug = id
	}
	room := Room{
		ID:        id,
		Slug:      slug,
		AdminID:   adminID,
		CreatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&room).Error
	if err != nil {
		return nil, err
	}
	return s.GetRoom(ctx, id)
}
