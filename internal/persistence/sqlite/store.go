// Package sqlite keeps the document in a single row of an embedded SQLite
// database (modernc.org/sqlite, accessed through sqlx).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/example/worktime/internal/persistence"
)

const driverName = "sqlite"

// Store is a persistence.Store backed by the snapshots table. The pool is
// limited to one connection, so writers are serialized by the driver.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ persistence.Store = (*Store)(nil)

type snapshotRow struct {
	Body     string `db:"body"`
	Revision int64  `db:"revision"`
}

// Open connects to the database and makes sure the document row exists. The
// schema must already be migrated.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create directory: %w", err)
	}

	db, err := sqlx.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.ensureRow(ctx); err != nil {
		db.Close()
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

func (s *Store) ensureRow(ctx context.Context) error {
	body, err := persistence.Encode(persistence.NewSnapshot())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, body, revision, updated_at)
		 VALUES (1, ?, 0, ?)
		 ON CONFLICT (id) DO NOTHING`,
		string(body), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: seed document (is the schema migrated?): %w", err)
	}
	return nil
}

// Load returns the stored document.
func (s *Store) Load(ctx context.Context) (*persistence.Snapshot, error) {
	var row snapshotRow
	if err := s.db.GetContext(ctx, &row, `SELECT body, revision FROM snapshots WHERE id = 1`); err != nil {
		return nil, mapError("load", err)
	}
	return decodeRow(row)
}

// Save overwrites the stored document.
func (s *Store) Save(ctx context.Context, snapshot *persistence.Snapshot) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var current int64
		if err := tx.GetContext(ctx, &current, `SELECT revision FROM snapshots WHERE id = 1`); err != nil {
			return mapError("save", err)
		}
		snapshot.Revision = current
		return s.write(ctx, tx, snapshot)
	})
}

// Update loads, mutates and saves the document in one transaction.
func (s *Store) Update(ctx context.Context, fn func(*persistence.Snapshot) error) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var row snapshotRow
		if err := tx.GetContext(ctx, &row, `SELECT body, revision FROM snapshots WHERE id = 1`); err != nil {
			return mapError("update", err)
		}
		snapshot, err := decodeRow(row)
		if err != nil {
			return err
		}
		if err := fn(snapshot); err != nil {
			return err
		}
		return s.write(ctx, tx, snapshot)
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) write(ctx context.Context, tx *sqlx.Tx, snapshot *persistence.Snapshot) error {
	now := s.now()
	snapshot.Stamp(now)
	body, err := persistence.Encode(snapshot)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE snapshots SET body = ?, revision = ?, updated_at = ? WHERE id = 1`,
		string(body), snapshot.Revision, now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: write document: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: rollback failed (%v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func decodeRow(row snapshotRow) (*persistence.Snapshot, error) {
	snapshot, err := persistence.Decode([]byte(row.Body))
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	snapshot.Revision = row.Revision
	return snapshot, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: %s: document row missing: %w", op, persistence.ErrNotFound)
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}
