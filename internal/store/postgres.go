package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Store = (*Postgres)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name           TEXT PRIMARY KEY,
	initialized_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	collection TEXT   NOT NULL,
	id         TEXT   NOT NULL,
	position   BIGINT NOT NULL,
	version    BIGINT NOT NULL,
	data       JSONB  NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS records_position_idx ON records (collection, position);
`

/* ===================== CONNECT ===================== */

// ConnectPostgres opens a pool and keeps retrying until the database answers
// a ping or the deadline passes.
func ConnectPostgres(ctx context.Context, url string, maxConns int32, deadline time.Duration, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	giveUp := time.Now().Add(deadline)
	for {
		attemptCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		pool, err := pgxpool.NewWithConfig(attemptCtx, cfg)
		if err == nil {
			if err = pool.Ping(attemptCtx); err == nil {
				cancel()
				return pool, nil
			}
			pool.Close()
		}
		cancel()

		if time.Now().After(giveUp) {
			return nil, fmt.Errorf("connect to postgres after retries: %w", err)
		}
		logger.Warn("postgres not ready, retrying", "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// Postgres stores records in a JSONB column.
type Postgres struct {
	db  *pgxpool.Pool
	q   queries
	now func() time.Time
}

// NewPostgres creates the schema when missing and takes ownership of db.
func NewPostgres(ctx context.Context, db *pgxpool.Pool) (*Postgres, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{db: db, q: newQueries(sq.Dollar), now: time.Now}, nil
}

func (p *Postgres) List(ctx context.Context, c Collection) ([]Record, error) {
	rows, err := qQuery(ctx, p.db, p.q.list(c))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var r Record
		var data []byte
		if err := rows.Scan(&r.ID, &r.Version, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c, err)
		}
		r.Data = data
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) Get(ctx context.Context, c Collection, id string) (Record, error) {
	var r Record
	var data []byte
	err := qRow(ctx, p.db, p.q.get(c, id)).Scan(&r.ID, &r.Version, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", c, id, err)
	}
	r.Data = data
	return r, nil
}

func (p *Postgres) Put(ctx context.Context, c Collection, rec Record) (Record, error) {
	if err := validate(c, rec); err != nil {
		return Record{}, err
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	now := p.now()
	out, err := p.putTx(ctx, tx, c, rec, now)
	if err != nil {
		return Record{}, err
	}
	if _, err := qExecTx(ctx, tx, p.q.markInitialized(c, now)); err != nil {
		return Record{}, fmt.Errorf("mark %s initialized: %w", c, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (p *Postgres) putTx(ctx context.Context, tx pgx.Tx, c Collection, rec Record, now time.Time) (Record, error) {
	var stored int64
	err := qRowTx(ctx, tx, p.q.version(c, rec.ID).Suffix("FOR UPDATE")).Scan(&stored)
	exists := true
	if errors.Is(err, pgx.ErrNoRows) {
		exists = false
	} else if err != nil {
		return Record{}, fmt.Errorf("read version %s/%s: %w", c, rec.ID, err)
	}
	if err := checkVersion(rec.Version, stored, exists); err != nil {
		return Record{}, err
	}

	data := json.RawMessage(rec.Data)
	if !exists {
		if _, err := qExecTx(ctx, tx, p.q.insert(c, rec.ID, data, now)); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return Record{}, ErrVersionConflict
			}
			return Record{}, fmt.Errorf("insert %s/%s: %w", c, rec.ID, err)
		}
		return Record{ID: rec.ID, Version: 1, Data: rec.Data}, nil
	}

	tag, err := qExecTx(ctx, tx, p.q.update(c, rec.ID, stored, data, now))
	if err != nil {
		return Record{}, fmt.Errorf("update %s/%s: %w", c, rec.ID, err)
	}
	if tag.RowsAffected() != 1 {
		return Record{}, ErrVersionConflict
	}
	return Record{ID: rec.ID, Version: stored + 1, Data: rec.Data}, nil
}

func (p *Postgres) Init(ctx context.Context, c Collection, seed []Record) (bool, error) {
	for _, rec := range seed {
		if err := validate(c, rec); err != nil {
			return false, err
		}
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	now := p.now()
	tag, err := qExecTx(ctx, tx, p.q.markInitialized(c, now))
	if err != nil {
		return false, fmt.Errorf("mark %s initialized: %w", c, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	for _, rec := range seed {
		rec.Version = Unversioned
		if _, err := p.putTx(ctx, tx, c, rec, now); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

/* ===================== SQUIRREL HELPERS ===================== */

// ----------- NON-TX -----------

func qQuery(ctx context.Context, db *pgxpool.Pool, q sq.SelectBuilder) (pgx.Rows, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return db.Query(ctx, sql, args...)
}

func qRow(ctx context.Context, db *pgxpool.Pool, q sq.SelectBuilder) pgx.Row {
	sql, args, _ := q.ToSql()
	return db.QueryRow(ctx, sql, args...)
}

// ----------- TX -----------

func qExecTx(ctx context.Context, tx pgx.Tx, q sq.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return tx.Exec(ctx, sql, args...)
}

func qRowTx(ctx context.Context, tx pgx.Tx, q sq.SelectBuilder) pgx.Row {
	sql, args, _ := q.ToSql()
	return tx.QueryRow(ctx, sql, args...)
}
