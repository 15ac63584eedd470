package leaderboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/arcadelab/relay/internal/domain"
)

// RedisStore keeps the leaderboard in a sorted set. Sorted-set members are
// unique, so each submission gets a sequence suffix; that preserves the
// append-only, no-dedup contract at the cost of ordering equal scores
// lexicographically by member instead of by insertion.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisStore(rc redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		redis:  rc,
		prefix: prefix,
	}
}

func (r *RedisStore) Append(ctx context.Context, name string, score float64) error {
	seq, err := r.redis.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("next entry seq: %w", err)
	}

	member := fmt.Sprintf("%s#%d", name, seq)
	if err := r.redis.ZAdd(ctx, r.boardKey(), redis.Z{
		Score:  score,
		Member: member,
	}).Err(); err != nil {
		return fmt.Errorf("zadd entry: %w", err)
	}

	return nil
}

func (r *RedisStore) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	res, err := r.redis.ZRevRangeWithScores(ctx, r.boardKey(), 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(res))
	for _, z := range res {
		member, _ := z.Member.(string)
		name := member
		if i := strings.LastIndex(member, "#"); i >= 0 {
			name = member[:i]
		}
		entries = append(entries, domain.LeaderboardEntry{
			Name:  name,
			Score: z.Score,
		})
	}

	return entries, nil
}

func (r *RedisStore) boardKey() string {
	return fmt.Sprintf("%s:leaderboard", r.prefix)
}

func (r *RedisStore) seqKey() string {
	return fmt.Sprintf("%s:leaderboard:seq", r.prefix)
}
