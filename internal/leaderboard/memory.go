package leaderboard

import (
	"context"
	"sort"
	"sync"

	"github.com/arcadelab/relay/internal/domain"
)

// MemoryStore is the default backend: a process-lifetime slice re-sorted
// descending after every append. The stable sort keeps equal scores in
// insertion order.
type MemoryStore struct {
	mu      sync.Mutex
	entries []domain.LeaderboardEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, name string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, domain.LeaderboardEntry{Name: name, Score: score})
	sort.SliceStable(m.entries, func(i, j int) bool {
		return m.entries[i].Score > m.entries[j].Score
	})

	return nil
}

func (m *MemoryStore) Top(_ context.Context, n int) ([]domain.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n > len(m.entries) {
		n = len(m.entries)
	}

	top := make([]domain.LeaderboardEntry, n)
	copy(top, m.entries[:n])
	return top, nil
}
