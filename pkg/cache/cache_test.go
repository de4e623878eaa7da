package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilStore_IsPermanentMiss(t *testing.T) {
	var s *Store
	ctx := context.Background()

	var out string
	assert.False(t, s.Get(ctx, "catalog:product:1", &out))
	assert.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, s.Del(ctx, "k"))
	assert.NoError(t, s.DelPrefix(ctx, "catalog:"))
	assert.Error(t, s.Ping(ctx))
	assert.Nil(t, s.Client())
}

func TestRemember_LoadsOnMiss(t *testing.T) {
	var s *Store
	calls := 0

	var out []string
	err := s.Remember(context.Background(), "catalog:categories", time.Minute, &out, func() error {
		calls++
		out = []string{"lawn", "kurta"}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"lawn", "kurta"}, out)
}

func TestRemember_PropagatesLoadError(t *testing.T) {
	var s *Store
	boom := errors.New("db down")

	var out int
	err := s.Remember(context.Background(), "k", time.Minute, &out, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestFamily(t *testing.T) {
	assert.Equal(t, "catalog:product", family("catalog:product:42"))
	assert.Equal(t, "plain", family("plain"))
}
