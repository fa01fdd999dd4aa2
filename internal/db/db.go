package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"journey-tracker/internal/feed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// keepSnapshots is how many progress snapshots are retained.
const keepSnapshots = 50

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS progress_snapshots (
  id       BIGSERIAL PRIMARY KEY,
  taken_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  payload  JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS progress_snapshots_taken_at_idx ON progress_snapshots (taken_at DESC);
`

// EnsureSchema creates the snapshot table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create progress_snapshots: %w", err)
	}
	return nil
}

// ProgressStore persists the last fetched progress records in PostgreSQL. It
// implements feed.Cache.
type ProgressStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewProgressStore(db *sql.DB) *ProgressStore {
	return &ProgressStore{db: db, now: time.Now}
}

// Load returns the newest snapshot, or feed.ErrCacheEmpty.
func (s *ProgressStore) Load(ctx context.Context) ([]feed.Record, time.Time, error) {
	q := `SELECT taken_at, payload FROM progress_snapshots ORDER BY taken_at DESC, id DESC LIMIT 1`

	var takenAt time.Time
	var payload []byte
	err := s.db.QueryRowContext(ctx, q).Scan(&takenAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, feed.ErrCacheEmpty
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query progress snapshot: %w", err)
	}
	records, err := decodeRecords(payload)
	if err != nil {
		return nil, time.Time{}, err
	}
	return records, takenAt, nil
}

// Store writes a new snapshot and prunes all but the most recent ones.
func (s *ProgressStore) Store(ctx context.Context, records []feed.Record) (err error) {
	payload, err := encodeRecords(records)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO progress_snapshots (taken_at, payload) VALUES ($1, $2)`,
		s.now().UTC(), payload); err != nil {
		return fmt.Errorf("insert progress snapshot: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
DELETE FROM progress_snapshots
WHERE id NOT IN (SELECT id FROM progress_snapshots ORDER BY taken_at DESC, id DESC LIMIT $1)`,
		keepSnapshots); err != nil {
		return fmt.Errorf("prune progress snapshots: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

func encodeRecords(records []feed.Record) ([]byte, error) {
	if records == nil {
		records = []feed.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode progress snapshot: %w", err)
	}
	return b, nil
}

func decodeRecords(payload []byte) ([]feed.Record, error) {
	var records []feed.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("decode progress snapshot: %w", err)
	}
	return records, nil
}
