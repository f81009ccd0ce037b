package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/w-h-a/tutor/retriever/providers/storer"
)

type collection struct {
	dimension int
	records   map[string]storer.Record
}

type memoryStorer struct {
	options     storer.Options
	collections map[string]*collection
	mtx         sync.RWMutex
}

func (s *memoryStorer) Search(ctx context.Context, name string, vector []float32, limit int) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storer.ErrCollectionNotFound, name)
	}

	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: collection %s expects %d, got %d", storer.ErrDimensionMismatch, name, c.dimension, len(vector))
	}

	candidates := make([]storer.Record, 0, len(c.records))

	for _, rec := range c.records {
		rec.Score = float32(storer.CosineSimilarity(vector, rec.Vector))
		rec.Payload = maps.Clone(rec.Payload)
		candidates = append(candidates, rec)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].Id < candidates[j].Id
		}
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

func (s *memoryStorer) Upsert(ctx context.Context, name string, records ...storer.Record) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", storer.ErrCollectionNotFound, name)
	}

	for _, rec := range records {
		if len(rec.Vector) != c.dimension {
			return fmt.Errorf("%w: collection %s expects %d, got %d", storer.ErrDimensionMismatch, name, c.dimension, len(rec.Vector))
		}
	}

	for _, rec := range records {
		if len(rec.Id) == 0 {
			rec.Id = uuid.New().String()
		}

		cpy := make([]float32, len(rec.Vector))
		copy(cpy, rec.Vector)

		c.records[rec.Id] = storer.Record{
			Id:      rec.Id,
			Payload: maps.Clone(rec.Payload),
			Vector:  cpy,
		}
	}

	return nil
}

func (s *memoryStorer) Describe(ctx context.Context, name string) (storer.Collection, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return storer.Collection{}, fmt.Errorf("%w: %s", storer.ErrCollectionNotFound, name)
	}

	return storer.Collection{
		Name:      name,
		Dimension: c.dimension,
		Points:    uint64(len(c.records)),
	}, nil
}

func (s *memoryStorer) Create(ctx context.Context, name string, dimension int) error {
	if dimension < 1 {
		return fmt.Errorf("invalid dimension %d for collection %s", dimension, name)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if c, ok := s.collections[name]; ok {
		if c.dimension != dimension {
			return fmt.Errorf("%w: collection %s exists with %d", storer.ErrDimensionMismatch, name, c.dimension)
		}
		return nil
	}

	s.collections[name] = &collection{
		dimension: dimension,
		records:   map[string]storer.Record{},
	}

	return nil
}

func (s *memoryStorer) Ping(ctx context.Context) error {
	return nil
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	s := &memoryStorer{
		options:     options,
		collections: map[string]*collection{},
		mtx:         sync.RWMutex{},
	}

	return s
}
