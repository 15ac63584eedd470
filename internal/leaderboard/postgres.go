package leaderboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcadelab/relay/internal/domain"
)

// PostgresStore persists entries in a single table:
//
//	CREATE TABLE leaderboard_entries (
//	    entry_id    BIGSERIAL PRIMARY KEY,
//	    name        TEXT NOT NULL,
//	    score       DOUBLE PRECISION NOT NULL,
//	    create_time TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// The serial entry_id doubles as the tie-breaker, so equal scores come
// back in insertion order.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Append(ctx context.Context, name string, score float64) error {
	const stmt = `INSERT INTO leaderboard_entries (name, score) VALUES ($1, $2);`

	if _, err := p.db.Exec(ctx, stmt, name, score); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	return nil
}

func (p *PostgresStore) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	const stmt = `
SELECT name, score
FROM leaderboard_entries
ORDER BY score DESC, entry_id
LIMIT $1;`

	rows, err := p.db.Query(ctx, stmt, n)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.LeaderboardEntry, error) {
		var e domain.LeaderboardEntry
		if err := r.Scan(&e.Name, &e.Score); err != nil {
			return domain.LeaderboardEntry{}, err
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect entries: %w", err)
	}

	return entries, nil
}
