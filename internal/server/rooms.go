package server

import (
	"context"
	"sync"

	"github.com/sketchdeck/sketchdeck/internal/store"
)

// RoomResolver maps room ids to durable room records, creating a record the
// first time an unknown id is referenced. The storage upsert makes concurrent
// first references converge on a single record, so the resolver needs no
// locking around the create itself; the mutex only guards the cache.
type RoomResolver struct {
	store Gateway

	mu    sync.RWMutex
	known map[string]*store.Room
}

// NewRoomResolver creates a resolver backed by the given gateway.
func NewRoomResolver(gw Gateway) *RoomResolver {
	return &RoomResolver{
		store: gw,
		known: make(map[string]*store.Room),
	}
}

// Resolve returns the room with the given id, creating it with
// slug (falling back to the id) and admin = userID when absent. Rooms already
// resolved by this process are served from cache without a storage round trip.
func (r *RoomResolver) Resolve(ctx context.Context, roomID, slug, userID string) (*store.Room, error) {
	r.mu.RLock()
	room, ok := r.known[roomID]
	r.mu.RUnlock()
	if ok {
		return room, nil
	}

	room, err := r.store.UpsertRoom(ctx, roomID, slug, userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.known[roomID] = room
	r.mu.Unlock()
	return room, nil
}
