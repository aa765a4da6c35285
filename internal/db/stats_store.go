package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// OpCount is the usage of one operation
type OpCount struct {
	Op       string `json:"op"`
	Count    int64  `json:"count"`
	LastUsed int64  `json:"last_used"`
}

// StatsStore counts how often each operation fired. It stores operation names
// only, never anything read from the page.
type StatsStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewStatsStore creates a stats store from a base store
func NewStatsStore(store *Store) *StatsStore {
	if store == nil {
		return nil
	}
	return &StatsStore{db: store.DB(), now: time.Now}
}

// Increment bumps the lifetime and today's counter for op
func (s *StatsStore) Increment(ctx context.Context, op string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("stats store not initialized")
	}
	if strings.TrimSpace(op) == "" {
		return fmt.Errorf("operation name cannot be empty")
	}
	now := s.now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO op_counts(op, count, last_used) VALUES(?, 1, ?)
ON CONFLICT(op) DO UPDATE SET count = count + 1, last_used = excluded.last_used;`, op, now.Unix())
	if err == nil {
		_, err = tx.ExecContext(ctx, `INSERT INTO op_daily(op, day, count) VALUES(?, ?, 1)
ON CONFLICT(op, day) DO UPDATE SET count = count + 1;`, op, now.Format("2006-01-02"))
	}
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("increment %s: %w", op, err)
	}
	return tx.Commit()
}

// Counts returns lifetime counters, most used first
func (s *StatsStore) Counts(ctx context.Context) ([]OpCount, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("stats store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT op, count, last_used FROM op_counts ORDER BY count DESC, op ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OpCount
	for rows.Next() {
		var c OpCount
		if err := rows.Scan(&c.Op, &c.Count, &c.LastUsed); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountsSince returns per-operation totals over the last days days, today
// included, most used first
func (s *StatsStore) CountsSince(ctx context.Context, days int) ([]OpCount, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("stats store not initialized")
	}
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive")
	}
	from := s.now().AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	rows, err := s.db.QueryContext(ctx, `SELECT op, SUM(count) AS total FROM op_daily WHERE day >= ?
GROUP BY op ORDER BY total DESC, op ASC`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OpCount
	for rows.Next() {
		var c OpCount
		if err := rows.Scan(&c.Op, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Reset drops every counter
func (s *StatsStore) Reset(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("stats store not initialized")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM op_counts`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM op_daily`)
	return err
}

// Recorder binds the store to ctx so it can be handed to code that counts
// operations without carrying a context
func (s *StatsStore) Recorder(ctx context.Context) *Recorder {
	return &Recorder{ctx: ctx, store: s}
}

// Recorder increments counters under a fixed context
type Recorder struct {
	ctx   context.Context
	store *StatsStore
}

// Increment counts one use of op
func (r *Recorder) Increment(op string) error {
	return r.store.Increment(r.ctx, op)
}
