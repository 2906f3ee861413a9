// Package session tracks live connections and their room memberships. The
// Registry is the single in-memory index the broadcaster fans out over.
package session

import (
	"fmt"
	"sync"
)

// Conn is the registry's view of one live connection. Implementations must
// make TrySend non-blocking: it reports false instead of waiting when the
// peer cannot accept the payload.
type Conn interface {
	ID() string
	UserID() string
	TrySend(payload []byte) bool
	Close() error
}

type idSet map[string]struct{}

// Registry is a bidirectional membership index: connection to joined rooms,
// and room to member connections. Every operation holds the mutex for its
// whole duration, so the two sides can never be observed out of sync.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]Conn
	connRooms map[string]idSet
	roomConns map[string]idSet
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:     make(map[string]Conn),
		connRooms: make(map[string]idSet),
		roomConns: make(map[string]idSet),
	}
}

// Register inserts a new connection with an empty room set. Registering the
// same connection id twice is a programming error and fails loudly.
func (r *Registry) Register(conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.ID()
	if _, exists := r.conns[id]; exists {
		return fmt.Errorf("connection %s already registered", id)
	}
	r.conns[id] = conn
	r.connRooms[id] = make(idSet)
	return nil
}

// Join adds the connection to the room's member set and the room to the
// connection's room set. Joining a room twice is a no-op. Joining with an
// unregistered connection id is ignored; the close path may already have run.
func (r *Registry) Join(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, registered := r.connRooms[connID]
	if !registered {
		return
	}
	rooms[roomID] = struct{}{}

	members, ok := r.roomConns[roomID]
	if !ok {
		members = make(idSet)
		r.roomConns[roomID] = members
	}
	members[connID] = struct{}{}
}

// Leave removes the connection from the room on both sides of the index.
// Leaving a room never joined is a no-op.
func (r *Registry) Leave(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, roomID)
}

func (r *Registry) leaveLocked(connID, roomID string) {
	if rooms, ok := r.connRooms[connID]; ok {
		delete(rooms, roomID)
	}
	if members, ok := r.roomConns[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.roomConns, roomID)
		}
	}
}

// Unregister removes the connection from every room it belongs to and deletes
// its record. Safe to call for an id that never completed registration.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.connRooms[connID] {
		r.leaveLocked(connID, roomID)
	}
	delete(r.connRooms, connID)
	delete(r.conns, connID)
}

// MembersOf returns a snapshot of the connections currently joined to the
// room. The snapshot may go stale immediately; callers must tolerate members
// disconnecting mid-iteration.
func (r *Registry) MembersOf(roomID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomConns[roomID]
	if !ok {
		return nil
	}
	conns := make([]Conn, 0, len(members))
	for connID := range members {
		if conn, exists := r.conns[connID]; exists {
			conns = append(conns, conn)
		}
	}
	return conns
}

// Conns returns a snapshot of every registered connection, regardless of
// room membership.
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
