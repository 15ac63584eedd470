package leaderboard

import (
	"context"
	"fmt"

	"github.com/arcadelab/relay/internal/domain"
	"github.com/arcadelab/relay/internal/errors"
	"github.com/arcadelab/relay/internal/event"
)

// MaxTop caps how many entries a read returns, regardless of how many
// submissions the store holds.
const MaxTop = 50

// Store holds submitted scores in descending score order. Entries are
// append-only: never updated, deduplicated or trimmed, so the store grows
// without bound.
type Store interface {
	Append(ctx context.Context, name string, score float64) error
	Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
}

type Config struct {
	EventBus *event.Bus
	Store    Store
}

type Service struct {
	eb    *event.Bus
	store Store
}

func NewService(c Config) *Service {
	return &Service{
		eb:    c.EventBus,
		store: c.Store,
	}
}

type SubmitScoreRequest struct {
	Name  string
	Score float64
}

// SubmitScore validates and records one submission.
func (s *Service) SubmitScore(ctx context.Context, req SubmitScoreRequest) error {
	if req.Name == "" {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("leaderboard: name is required"))
	}

	if err := s.store.Append(ctx, req.Name, req.Score); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventScoreSubmitted{
			Entry: domain.LeaderboardEntry{Name: req.Name, Score: req.Score},
		})
	}

	return nil
}

type TopRequest struct {
	// Limit below 1 or above MaxTop falls back to MaxTop.
	Limit int
}

// Top returns the highest-scoring entries, at most min(limit, stored).
func (s *Service) Top(ctx context.Context, req TopRequest) ([]domain.LeaderboardEntry, error) {
	n := req.Limit
	if n < 1 || n > MaxTop {
		n = MaxTop
	}

	entries, err := s.store.Top(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("read top entries: %w", err)
	}

	return entries, nil
}
