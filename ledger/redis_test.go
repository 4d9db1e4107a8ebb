package ledger

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	s, err := New(context.Background(), Options{Driver: DriverRedis, Addr: mr.Addr(), Key: "test:attempts"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	rs, ok := s.(*RedisStore)
	require.True(t, ok)
	return rs, mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	for i := 0; i < 3; i++ {
		run := "a"
		if i == 1 {
			run = "b"
		}
		require.NoError(t, s.Record(ctx, &Entry{RunID: run, Index: i, Signature: "sig", Success: i != 1}))
	}

	raw, err := mr.List("test:attempts")
	require.NoError(t, err)
	require.Len(t, raw, 3)
	assert.Contains(t, raw[0], `"run_id":"a"`)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 0, all[0].Index)
	assert.Equal(t, 2, all[2].Index)

	last, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, 1, last[0].Index)

	runA, err := s.Run(ctx, "a")
	require.NoError(t, err)
	require.Len(t, runA, 2)
	assert.True(t, runA[1].Success)

	runB, err := s.Run(ctx, "b")
	require.NoError(t, err)
	require.Len(t, runB, 1)
	assert.False(t, runB[0].Success)
}

func TestRedisStore_Trims(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	fill := make([]string, MaxEntries)
	for i := range fill {
		fill[i] = "{}"
	}
	_, err := mr.Push("test:attempts", fill...)
	require.NoError(t, err)

	require.NoError(t, s.Record(ctx, &Entry{RunID: "new", Index: 7}))

	raw, err := mr.List("test:attempts")
	require.NoError(t, err)
	assert.Len(t, raw, MaxEntries)

	last, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "new", last[0].RunID)
}

func TestRedisStore_SkipsMalformed(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	_, err := mr.Push("test:attempts", "not json")
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, &Entry{RunID: "r"}))

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "r", all[0].RunID)
}

func TestRedisStore_Empty(t *testing.T) {
	s, _ := newTestRedisStore(t)

	all, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), Options{Addr: addr})
	assert.ErrorContains(t, err, "failed to connect to redis")
}
