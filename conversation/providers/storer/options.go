package storer

import (
	"context"
	"database/sql"
)

type Option func(*Options)

type Options struct {
	Location string
	Context  context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

type dbKey struct{}

// WithDB supplies an open SQL connection instead of dialing Location.
func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.Context = context.WithValue(o.Context, dbKey{}, db)
	}
}

func DBFrom(ctx context.Context) (*sql.DB, bool) {
	db, ok := ctx.Value(dbKey{}).(*sql.DB)
	return db, ok && db != nil
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
