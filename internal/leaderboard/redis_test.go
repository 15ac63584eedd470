package leaderboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/arcadelab/relay/internal/domain"
	"github.com/arcadelab/relay/internal/leaderboard"
)

func makeRedisStore(t *testing.T) *leaderboard.RedisStore {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")
	t.Cleanup(func() { rc.Close() })

	return leaderboard.NewRedisStore(rc, "test")
}

func TestRedisStore_AppendAndTop(t *testing.T) {
	t.Parallel()

	store := makeRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "alice", 10))
	require.NoError(t, store.Append(ctx, "bob", 30))
	require.NoError(t, store.Append(ctx, "carol", 20))

	entries, err := store.Top(ctx, 50)
	require.NoError(t, err)

	want := []domain.LeaderboardEntry{
		{Name: "bob", Score: 30},
		{Name: "carol", Score: 20},
		{Name: "alice", Score: 10},
	}
	require.Equal(t, want, entries)
}

func TestRedisStore_KeepsDuplicateNames(t *testing.T) {
	t.Parallel()

	store := makeRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "alice", 10))
	require.NoError(t, store.Append(ctx, "alice", 20))
	require.NoError(t, store.Append(ctx, "alice", 10))

	entries, err := store.Top(ctx, 50)
	require.NoError(t, err)

	require.Len(t, entries, 3, "submissions are appended, never overwritten")
	require.Equal(t, domain.LeaderboardEntry{Name: "alice", Score: 20}, entries[0])
	require.Equal(t, 10.0, entries[1].Score)
	require.Equal(t, 10.0, entries[2].Score)
}

func TestRedisStore_TopLimits(t *testing.T) {
	t.Parallel()

	store := makeRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "p", float64(i)))
	}

	entries, err := store.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, 4.0, entries[0].Score)

	entries, err = store.Top(ctx, 50)
	require.NoError(t, err)
	require.Len(t, entries, 5, "fewer entries than the limit come back as-is")
}

func TestRedisStore_NamesWithSeparator(t *testing.T) {
	t.Parallel()

	store := makeRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "team#7", 11))

	entries, err := store.Top(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []domain.LeaderboardEntry{{Name: "team#7", Score: 11}}, entries)
}
