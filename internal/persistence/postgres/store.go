// Package postgres keeps the document in a JSONB row of PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/worktime/internal/persistence"
)

// Store is a persistence.Store backed by a pgx pool. Writers take a row lock
// on the document, so concurrent updates from any number of processes queue
// up behind each other.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ persistence.Store = (*Store)(nil)

// Open connects to url and makes sure the document row exists. The schema
// must already be migrated.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &Store{pool: pool, now: time.Now}
	if err := s.ensureRow(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// WithClock overrides the time source used to stamp saves.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// PoolStats reports connection pool usage for metrics.
func (s *Store) PoolStats() (total, idle, acquired int32) {
	stat := s.pool.Stat()
	return stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns()
}

func (s *Store) ensureRow(ctx context.Context) error {
	body, err := persistence.Encode(persistence.NewSnapshot())
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, body, revision, updated_at)
		 VALUES (1, $1, 0, $2)
		 ON CONFLICT (id) DO NOTHING`,
		body, s.now(),
	)
	if err != nil {
		return fmt.Errorf("postgres: seed document (is the schema migrated?): %w", err)
	}
	return nil
}

// Load returns the stored document.
func (s *Store) Load(ctx context.Context) (*persistence.Snapshot, error) {
	var (
		body     []byte
		revision int64
	)
	err := s.pool.QueryRow(ctx, `SELECT body, revision FROM snapshots WHERE id = 1`).Scan(&body, &revision)
	if err != nil {
		return nil, mapError("load", err)
	}
	return decode(body, revision)
}

// Save overwrites the stored document.
func (s *Store) Save(ctx context.Context, snapshot *persistence.Snapshot) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var current int64
		err := tx.QueryRow(ctx, `SELECT revision FROM snapshots WHERE id = 1 FOR UPDATE`).Scan(&current)
		if err != nil {
			return mapError("save", err)
		}
		snapshot.Revision = current
		return s.write(ctx, tx, snapshot)
	})
}

// Update locks the document row, applies fn and writes the result.
func (s *Store) Update(ctx context.Context, fn func(*persistence.Snapshot) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var (
			body     []byte
			revision int64
		)
		err := tx.QueryRow(ctx, `SELECT body, revision FROM snapshots WHERE id = 1 FOR UPDATE`).Scan(&body, &revision)
		if err != nil {
			return mapError("update", err)
		}
		snapshot, err := decode(body, revision)
		if err != nil {
			return err
		}
		if err := fn(snapshot); err != nil {
			return err
		}
		return s.write(ctx, tx, snapshot)
	})
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) write(ctx context.Context, tx pgx.Tx, snapshot *persistence.Snapshot) error {
	now := s.now()
	snapshot.Stamp(now)
	body, err := persistence.Encode(snapshot)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE snapshots SET body = $1, revision = $2, updated_at = $3 WHERE id = 1`,
		body, snapshot.Revision, now,
	); err != nil {
		return fmt.Errorf("postgres: write document: %w", err)
	}
	return nil
}

func decode(body []byte, revision int64) (*persistence.Snapshot, error) {
	snapshot, err := persistence.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	snapshot.Revision = revision
	return snapshot, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("postgres: %s: document row missing: %w", op, persistence.ErrNotFound)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}
