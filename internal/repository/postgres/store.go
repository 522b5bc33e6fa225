package postgres

import (
	"context"

	"voltbay/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

var _ repository.Store = (*Store)(nil)

// Store implements repository.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, fn)
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
