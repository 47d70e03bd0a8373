package snapshot

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-attention-agent/internal/blackboard"
)

func TestSaveLoadThroughBlackboard(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	store := blackboard.NewRedisStore(&redis.Options{Addr: mr.Addr()}, nil)
	defer store.Close()

	ctx := context.Background()
	want := Stub()
	require.NoError(t, Save(ctx, store, want))

	got, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, want.Components, got.Components)
	assert.Equal(t, want.Layout[TaskFuel].Rect, got.Layout[TaskFuel].Rect)
	assert.Equal(t, want.Layout[TaskSystem].Components, got.Layout[TaskSystem].Components)
}

func TestLoadMissingSnapshot(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	store := blackboard.NewRedisStore(&redis.Options{Addr: mr.Addr()}, nil)
	defer store.Close()

	_, err = Load(context.Background(), store)
	require.ErrorIs(t, err, blackboard.ErrNotFound)
}
