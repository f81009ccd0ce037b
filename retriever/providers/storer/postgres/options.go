package postgres

import (
	"context"
	"database/sql"

	"github.com/w-h-a/tutor/retriever/providers/storer"
)

type dbKey struct{}

// WithDB supplies an open connection instead of dialing Location.
func WithDB(db *sql.DB) storer.Option {
	return func(o *storer.Options) {
		o.Context = context.WithValue(o.Context, dbKey{}, db)
	}
}

func DBFrom(ctx context.Context) (*sql.DB, bool) {
	db, ok := ctx.Value(dbKey{}).(*sql.DB)
	return db, ok && db != nil
}
