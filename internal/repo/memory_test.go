package repo

import (
	"context"
	"testing"
	"time"

	"Next_Express/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	r := NewMemoryUserRepository(SequentialIDs(2), RelationalDemoUsers(now)...)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Jane Smith", list[0].Name)

	u := &model.User{Name: "Alice", Email: "alice@example.com", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.Create(ctx, u))
	assert.Equal(t, "3", u.ID)
	assert.ErrorIs(t, r.Create(ctx, &model.User{Name: "A2", Email: "ALICE@example.com"}), ErrDuplicate)

	email := "john@example.com"
	_, err = r.Update(ctx, u.ID, model.UserPatch{Email: &email, UpdatedAt: now})
	assert.ErrorIs(t, err, ErrDuplicate)

	name := "Alicia"
	updated, err := r.Update(ctx, u.ID, model.UserPatch{Name: &name, UpdatedAt: now.Add(time.Second)})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)

	found, err := r.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	require.NoError(t, r.Delete(ctx, u.ID))
	assert.ErrorIs(t, r.Delete(ctx, u.ID), ErrNotFound)
	_, err = r.Get(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyValueDemoUsers(t *testing.T) {
	users := KeyValueDemoUsers(time.Now())
	require.Len(t, users, 2)
	assert.Equal(t, "dynamo-1", users[0].ID)
	assert.Equal(t, "Alice Johnson", users[0].Name)
	assert.Empty(t, users[0].ProfilePictureKey)
}

func TestMemoryFileRepositoryDropsURL(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryFileRepository(SequentialIDs(0))
	url := "https://signed"
	f := &model.File{Name: "a", Key: "files/1-a", URL: &url}
	require.NoError(t, r.Create(ctx, f))

	got, err := r.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got.URL)
	assert.ErrorIs(t, r.Create(ctx, &model.File{Name: "b", Key: "files/1-a"}), ErrDuplicate)
}

func TestEmailGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	guard := NewEmailGuard(rdb, "users", time.Minute)
	release, err := guard.Reserve(ctx, " Alice@Example.com ")
	require.NoError(t, err)
	assert.True(t, mr.Exists("email:reserve:users:alice@example.com"))

	_, err = guard.Reserve(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrLockBusy)

	other := NewEmailGuard(rdb, "dynamo-users", time.Minute)
	releaseOther, err := other.Reserve(ctx, "alice@example.com")
	require.NoError(t, err)
	releaseOther()

	release()
	assert.False(t, mr.Exists("email:reserve:users:alice@example.com"))
	again, err := guard.Reserve(ctx, "alice@example.com")
	require.NoError(t, err)
	again()
}

func TestRedisLockUnlockOnlyOwnToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	first := NewRedisLock(rdb, "lock:x", time.Minute)
	require.NoError(t, first.Lock(ctx))

	// simulate expiry and takeover by another holder
	mr.FastForward(2 * time.Minute)
	second := NewRedisLock(rdb, "lock:x", time.Minute)
	require.NoError(t, second.Lock(ctx))

	require.NoError(t, first.Unlock(ctx))
	assert.True(t, mr.Exists("lock:x"))
	require.NoError(t, second.Unlock(ctx))
	assert.False(t, mr.Exists("lock:x"))
}
