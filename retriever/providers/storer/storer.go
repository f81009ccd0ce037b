package storer

import (
	"context"
	"errors"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

// Storer is a vector index partitioned into named collections of fixed
// dimension.
type Storer interface {
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]Record, error)
	Upsert(ctx context.Context, collection string, records ...Record) error
	Describe(ctx context.Context, collection string) (Collection, error)
	Create(ctx context.Context, collection string, dimension int) error
	Ping(ctx context.Context) error
}
