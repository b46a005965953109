package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
	"github.com/okian/scoreline/pkg/metrics"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schemaSQL string

const defaultTimelineCacheSize = 16

// SQLiteStore persists matches and their stamps in SQLite. Rebuilt timelines
// are kept in a small in-memory cache.
type SQLiteStore struct {
	sqlDB     *sql.DB
	cacheSize int
	timelines *timelineCache
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens a SQLite match store at path and ensures the schema.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s := &SQLiteStore{sqlDB: sqlDB, cacheSize: defaultTimelineCacheSize}
	for _, opt := range opts {
		opt(s)
	}
	s.timelines = newTimelineCache(s.cacheSize)
	s.publishGauges(context.Background())
	return s, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put inserts the match row and all of its stamps in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, m Match) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(metrics.SinceMs(start)) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if m.ID == "" || m.Timeline == nil {
		metrics.RecordErrorByComponent("repository", "invalid_match")
		return ErrInvalidMatch
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO matches (
		   id, name, digest, stamp_count, max_offset, final_home, final_away, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Digest, m.Stamps, m.MaxOffset, m.Final.Home, m.Final.Away, toMillis(m.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			metrics.RecordErrorByComponent("repository", "exists")
			return ErrExists
		}
		return fmt.Errorf("insert match: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stamps (match_id, stamp_offset, home, away) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare stamps: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < m.Timeline.Len(); i++ {
		st := m.Timeline.At(i)
		if _, err = stmt.ExecContext(ctx, m.ID, st.Offset, st.Score.Home, st.Score.Away); err != nil {
			return fmt.Errorf("insert stamp %d: %w", st.Offset, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	s.timelines.add(m.ID, m.Timeline)
	s.publishGauges(ctx)
	return nil
}

// Get loads the match row and rebuilds its timeline in offset order.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Match, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(metrics.SinceMs(start)) }()

	if err := ctx.Err(); err != nil {
		return Match{}, err
	}

	info, err := scanInfo(s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, digest, stamp_count, max_offset, final_home, final_away, created_at
		   FROM matches WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.RecordErrorByComponent("repository", "not_found")
			return Match{}, ErrNotFound
		}
		return Match{}, fmt.Errorf("get match: %w", err)
	}
	if tl, ok := s.timelines.get(id); ok {
		return Match{Info: info, Timeline: tl}, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT stamp_offset, home, away FROM stamps WHERE match_id = ? ORDER BY stamp_offset`, id)
	if err != nil {
		return Match{}, fmt.Errorf("query stamps: %w", err)
	}
	defer rows.Close()

	b := timeline.NewBuilder(info.Stamps)
	for rows.Next() {
		var st model.Stamp
		if err := rows.Scan(&st.Offset, &st.Score.Home, &st.Score.Away); err != nil {
			return Match{}, fmt.Errorf("scan stamp: %w", err)
		}
		if err := b.Append(st); err != nil {
			return Match{}, fmt.Errorf("rebuild timeline %s: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return Match{}, fmt.Errorf("iterate stamps: %w", err)
	}
	tl, err := b.Build()
	if err != nil {
		return Match{}, fmt.Errorf("rebuild timeline %s: %w", id, err)
	}
	s.timelines.add(id, tl)
	return Match{Info: info, Timeline: tl}, nil
}

// Delete removes the match row and its stamps.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(metrics.SinceMs(start)) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM stamps WHERE match_id = ?`, id); err != nil {
		return fmt.Errorf("delete stamps: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if n == 0 {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	s.timelines.remove(id)
	s.publishGauges(ctx)
	return nil
}

// List returns match rows newest first without loading stamps.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Info, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(metrics.SinceMs(start)) }()

	if limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, digest, stamp_count, max_offset, final_home, final_away, created_at
		   FROM matches ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	out := make([]Info, 0, limit)
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}

// Count returns the number of stored matches, or 0 when the query fails.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *SQLiteStore) publishGauges(ctx context.Context) {
	var matches, stamps int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(stamp_count), 0) FROM matches`).Scan(&matches, &stamps)
	if err != nil {
		return
	}
	metrics.UpdateMatchesStored(matches)
	metrics.UpdateStampsStored(stamps)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInfo(row rowScanner) (Info, error) {
	var (
		info      Info
		createdAt int64
	)
	err := row.Scan(&info.ID, &info.Name, &info.Digest, &info.Stamps, &info.MaxOffset,
		&info.Final.Home, &info.Final.Away, &createdAt)
	if err != nil {
		return Info{}, err
	}
	info.CreatedAt = fromMillis(createdAt)
	return info, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ Store = (*SQLiteStore)(nil)
