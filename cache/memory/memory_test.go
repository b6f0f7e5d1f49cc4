package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeilh/sentiscope/cache"
)

func TestStore_SetGet(t *testing.T) {
	mock := clock.NewMock()
	s := NewStore(WithClock(mock))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "/entities?", []byte("[]"), time.Minute))

	val, storedAt, err := s.Get(ctx, "/entities?")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), val)
	assert.Equal(t, mock.Now(), storedAt)
}

func TestStore_LazyExpiry(t *testing.T) {
	mock := clock.NewMock()
	s := NewStore(WithClock(mock))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 5*time.Minute))

	mock.Add(5*time.Minute - time.Nanosecond)
	_, _, err := s.Get(ctx, "k")
	require.NoError(t, err)

	mock.Add(time.Nanosecond)
	_, _, err = s.Get(ctx, "k")
	assert.True(t, errors.Is(err, cache.ErrNotFound))

	// Stale entries are ignored, not removed.
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Set(ctx, "k", []byte("v2"), 5*time.Minute))
	val, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)
	assert.Equal(t, 1, s.Len())
}

func TestStore_NonPositiveTTL(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), 0))
	assert.Equal(t, 0, s.Len())
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, s.Delete(ctx, "k"))
	assert.ErrorIs(t, s.Delete(ctx, "k"), cache.ErrNotFound)
}

func TestStore_DeletePrefix(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	for _, k := range []string{"/articles?limit=5", "/articles?limit=20", "/entities?"} {
		require.NoError(t, s.Set(ctx, k, []byte("[]"), time.Minute))
	}

	require.NoError(t, s.DeletePrefix(ctx, "/articles"))
	assert.Equal(t, 1, s.Len())
	_, _, err := s.Get(ctx, "/entities?")
	assert.NoError(t, err)

	require.NoError(t, s.DeletePrefix(ctx, ""))
	assert.Equal(t, 0, s.Len())
}
