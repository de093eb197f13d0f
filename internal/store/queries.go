package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

const (
	recordsTable     = "records"
	collectionsTable = "collections"
)

// queries builds the statements shared by the SQL backends. Only the
// placeholder format and the value passed for the data column differ.
type queries struct {
	b sq.StatementBuilderType
}

func newQueries(f sq.PlaceholderFormat) queries {
	return queries{b: sq.StatementBuilder.PlaceholderFormat(f)}
}

func (q queries) list(c Collection) sq.SelectBuilder {
	return q.b.Select("id", "version", "data").
		From(recordsTable).
		Where(sq.Eq{"collection": string(c)}).
		OrderBy("position ASC", "id ASC")
}

func (q queries) get(c Collection, id string) sq.SelectBuilder {
	return q.b.Select("id", "version", "data").
		From(recordsTable).
		Where(sq.Eq{"collection": string(c), "id": id})
}

func (q queries) version(c Collection, id string) sq.SelectBuilder {
	return q.b.Select("version").
		From(recordsTable).
		Where(sq.Eq{"collection": string(c), "id": id})
}

func (q queries) insert(c Collection, id string, data any, now time.Time) sq.InsertBuilder {
	return q.b.Insert(recordsTable).
		Columns("collection", "id", "position", "version", "data", "updated_at").
		Values(
			string(c),
			id,
			sq.Expr("(SELECT COALESCE(MAX(position), 0) + 1 FROM "+recordsTable+" WHERE collection = ?)", string(c)),
			1,
			data,
			now.UnixMilli(),
		)
}

func (q queries) update(c Collection, id string, stored int64, data any, now time.Time) sq.UpdateBuilder {
	return q.b.Update(recordsTable).
		Set("data", data).
		Set("version", stored+1).
		Set("updated_at", now.UnixMilli()).
		Where(sq.Eq{"collection": string(c), "id": id, "version": stored})
}

func (q queries) markInitialized(c Collection, now time.Time) sq.InsertBuilder {
	return q.b.Insert(collectionsTable).
		Columns("name", "initialized_at").
		Values(string(c), now.UnixMilli()).
		Suffix("ON CONFLICT (name) DO NOTHING")
}
