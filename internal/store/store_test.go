package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})
	return st
}

func TestUpsertRoom_CreatesOnFirstReference(t *testing.T) {
	req := require.New(t)
	st := openTestStore(t)
	ctx := context.Background()

	room, err := st.UpsertRoom(ctx, "room-1", "doodles", "user-a")
	req.NoError(err)
	req.Equal("room-1", room.ID)
	req.Equal("doodles", room.Slug)
	req.Equal("user-a", room.AdminID)

	found, err := st.GetRoom(ctx, "room-1")
	req.NoError(err)
	req.Equal(room.ID, found.ID)
}

func TestUpsertRoom_SlugFallsBackToID(t *testing.T) {
	req := require.New(t)
	st := openTestStore(t)

	room, err := st.UpsertRoom(context.Background(), "room-2", "", "user-a")
	req.NoError(err)
	req.Equal("room-2", room.Slug)
}

func TestUpsertRoom_SecondCallerKeepsFirstRecord(t *testing.T) {
	req := require.New(t)
	st := openTestStore(t)
	ctx := context.Background()

	first, err := st.UpsertRoom(ctx, "room-3", "original", "user-a")
	req.NoError(err)

	second, err := st.UpsertRoom(ctx, "room-3", "other", "user-b")
	req.NoError(err)
	req.Equal(first.ID, second.ID)
	req.Equal("original", second.Slug)
	req.Equal("user-a", second.AdminID)
}

func TestUpsertRoom_ConcurrentFirstReferences(t *testing.T) {
	req := require.New(t)
	st := openTestStore(t)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = st.UpsertRoom(ctx, "contested", "contested", fmt.Sprintf("user-%d", i))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		req.NoError(err)
	}

	var count int64
	req.NoError(st.db.Model(&Room{}).Where("id = ?", "contested").Count(&count).Error)
	req.EqualValues(1, count)
}

func TestGetRoom_NotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.GetRoom(context.Background(), "nope")
	require.ErrorIs(t, err, ErrRoomNotFound)

	_, err = st.RoomBySlug(context.Background(), "nope")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestShapeHistory_OrderAndFiltering(t *testing.T) {
	req := require.New(t)
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.UpsertRoom(ctx, "room-1", "", "user-a")
	req.NoError(err)

	shapes := []string{
		`{"id":"s1","kind":"rect"}`,
		`{"id":"s2","kind":"circle"}`,
		`{"id":"s3","kind":"triangle"}`,
	}
	for _, shape := range shapes {
		req.NoError(st.AppendDrawing(ctx, "room-1", "user-a", json.RawMessage(shape)))
	}
	// Text messages must not appear in shape history.
	req.NoError(st.AppendChat(ctx, "room-1", "user-a", "hello"))

	history, err := st.ListShapeHistory(ctx, "room-1")
	req.NoError(err)
	req.Len(history, 3)
	for i, shape := range shapes {
		req.JSONEq(shape, string(history[i]))
	}
}

func TestShapeHistory_EmptyRoom(t *testing.T) {
	st := openTestStore(t)

	history, err := st.ListShapeHistory(context.Background(), "empty")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestChatHistory_NewestFirst(t *testing.T) {
	req := require.New(t)
	st := openTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		req.NoError(st.AppendChat(ctx, "room-1", "user-a", fmt.Sprintf("msg-%d", i)))
	}

	entries, err := st.ListChatHistory(ctx, "room-1")
	req.NoError(err)
	req.Len(entries, 5)
	req.Equal("msg-4", entries[0].Message)
	req.Equal("msg-0", entries[4].Message)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	st := openTestStore(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "alice", "alice@example.com", "hash")
	req.NoError(err)
	req.NotEmpty(user.ID)

	_, err = st.CreateUser(ctx, "alice2", "alice@example.com", "hash2")
	req.ErrorIs(err, ErrEmailTaken)

	found, err := st.UserByEmail(ctx, "alice@example.com")
	req.NoError(err)
	req.Equal(user.ID, found.ID)

	_, err = st.UserByEmail(ctx, "bob@example.com")
	req.ErrorIs(err, ErrUserNotFound)
}

func TestCreateRoom_GeneratesID(t *testing.T) {
	req := require.New(t)
	st := openTestStore(t)

	room, err := st.CreateRoom(context.Background(), "sketching", "user-a")
	req.NoError(err)
	req.NotEmpty(room.ID)

	found, err := st.RoomBySlug(context.Background(), "sketching")
	req.NoError(err)
	req.Equal(room.ID, found.ID)
}
