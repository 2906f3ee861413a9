package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     string
	userID string
	sent   [][]byte
	closed bool
	full   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.NewString(), userID: uuid.NewString()}
}

func (f *fakeConn) ID() string     { return f.id }
func (f *fakeConn) UserID() string { return f.userID }
func (f *fakeConn) Close() error   { f.closed = true; return nil }

func (f *fakeConn) TrySend(payload []byte) bool {
	if f.full {
		return false
	}
	f.sent = append(f.sent, payload)
	return true
}

func TestRegistry_RegisterAndJoin(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newFakeConn()

	req.Zero(registry.Len())

	req.NoError(registry.Register(conn))
	req.Equal(1, registry.Len())
	req.Empty(registry.MembersOf("room-1"))

	registry.Join(conn.ID(), "room-1")

	members := registry.MembersOf("room-1")
	req.Len(members, 1)
	req.Equal(conn.ID(), members[0].ID())
}

func TestRegistry_RegisterTwiceFails(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newFakeConn()

	req.NoError(registry.Register(conn))
	req.Error(registry.Register(conn))
	req.Equal(1, registry.Len())
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newFakeConn()
	req.NoError(registry.Register(conn))

	registry.Join(conn.ID(), "room-1")
	registry.Join(conn.ID(), "room-1")

	req.Len(registry.MembersOf("room-1"), 1)
}

func TestRegistry_JoinUnregisteredConnIsIgnored(t *testing.T) {
	registry := NewRegistry()

	registry.Join("ghost", "room-1")

	require.Empty(t, registry.MembersOf("room-1"))
}

func TestRegistry_LeaveRemovesMembership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	a, b := newFakeConn(), newFakeConn()
	req.NoError(registry.Register(a))
	req.NoError(registry.Register(b))
	registry.Join(a.ID(), "room-1")
	registry.Join(b.ID(), "room-1")

	registry.Leave(a.ID(), "room-1")

	members := registry.MembersOf("room-1")
	req.Len(members, 1)
	req.Equal(b.ID(), members[0].ID())

	// Leaving a room never joined is a no-op.
	registry.Leave(a.ID(), "room-2")
	registry.Leave(a.ID(), "room-1")
	req.Len(registry.MembersOf("room-1"), 1)
}

func TestRegistry_UnregisterPrunesEveryRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := newFakeConn()
	other := newFakeConn()
	req.NoError(registry.Register(conn))
	req.NoError(registry.Register(other))
	registry.Join(conn.ID(), "room-1")
	registry.Join(conn.ID(), "room-2")
	registry.Join(other.ID(), "room-1")

	registry.Unregister(conn.ID())

	req.Equal(1, registry.Len())
	req.Len(registry.MembersOf("room-1"), 1)
	req.Empty(registry.MembersOf("room-2"))

	// A second unregister, or one for a never-registered id, is safe.
	registry.Unregister(conn.ID())
	registry.Unregister("ghost")
	req.Equal(1, registry.Len())
}

func TestRegistry_ConnsSnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	a, b := newFakeConn(), newFakeConn()
	req.NoError(registry.Register(a))
	req.NoError(registry.Register(b))

	conns := registry.Conns()
	req.Len(conns, 2)

	registry.Unregister(a.ID())
	req.Len(conns, 2, "snapshot must not shrink after unregister")
	req.Len(registry.Conns(), 1)
}
