package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLite)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name           TEXT PRIMARY KEY,
	initialized_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	collection TEXT    NOT NULL,
	id         TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	version    INTEGER NOT NULL,
	data       TEXT    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS records_position_idx ON records (collection, position);
`

// SQLite stores records in a local database file.
type SQLite struct {
	sqlDB *sql.DB
	q     queries
	now   func() time.Time
}

// OpenSQLite opens (creating when needed) the database file at path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; readers share the connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB, q: newQueries(sq.Question), now: time.Now}, nil
}

func (s *SQLite) List(ctx context.Context, c Collection) ([]Record, error) {
	query, args, err := s.q.list(c).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var r Record
		var data string
		if err := rows.Scan(&r.ID, &r.Version, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c, err)
		}
		r.Data = []byte(data)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, c Collection, id string) (Record, error) {
	query, args, err := s.q.get(c, id).ToSql()
	if err != nil {
		return Record{}, err
	}
	var r Record
	var data string
	err = s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&r.ID, &r.Version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", c, id, err)
	}
	r.Data = []byte(data)
	return r, nil
}

func (s *SQLite) Put(ctx context.Context, c Collection, rec Record) (Record, error) {
	if err := validate(c, rec); err != nil {
		return Record{}, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	out, err := s.putTx(ctx, tx, c, rec, now)
	if err != nil {
		return Record{}, err
	}
	if err := execTx(ctx, tx, s.q.markInitialized(c, now), nil); err != nil {
		return Record{}, fmt.Errorf("mark %s initialized: %w", c, err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (s *SQLite) putTx(ctx context.Context, tx *sql.Tx, c Collection, rec Record, now time.Time) (Record, error) {
	query, args, err := s.q.version(c, rec.ID).ToSql()
	if err != nil {
		return Record{}, err
	}
	var stored int64
	exists := true
	err = tx.QueryRowContext(ctx, query, args...).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return Record{}, fmt.Errorf("read version %s/%s: %w", c, rec.ID, err)
	}
	if err := checkVersion(rec.Version, stored, exists); err != nil {
		return Record{}, err
	}

	data := string(rec.Data)
	if !exists {
		if err := execTx(ctx, tx, s.q.insert(c, rec.ID, data, now), nil); err != nil {
			return Record{}, fmt.Errorf("insert %s/%s: %w", c, rec.ID, err)
		}
		return Record{ID: rec.ID, Version: 1, Data: rec.Data}, nil
	}

	var affected int64
	if err := execTx(ctx, tx, s.q.update(c, rec.ID, stored, data, now), &affected); err != nil {
		return Record{}, fmt.Errorf("update %s/%s: %w", c, rec.ID, err)
	}
	if affected != 1 {
		return Record{}, ErrVersionConflict
	}
	return Record{ID: rec.ID, Version: stored + 1, Data: rec.Data}, nil
}

func (s *SQLite) Init(ctx context.Context, c Collection, seed []Record) (bool, error) {
	for _, rec := range seed {
		if err := validate(c, rec); err != nil {
			return false, err
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	var affected int64
	if err := execTx(ctx, tx, s.q.markInitialized(c, now), &affected); err != nil {
		return false, fmt.Errorf("mark %s initialized: %w", c, err)
	}
	if affected == 0 {
		return false, nil
	}
	for _, rec := range seed {
		rec.Version = Unversioned
		if _, err := s.putTx(ctx, tx, c, rec, now); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// Close releases the underlying SQLite connection.
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func execTx(ctx context.Context, tx *sql.Tx, q sq.Sqlizer, affected *int64) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected != nil {
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		*affected = n
	}
	return nil
}
