package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/tutor/retriever/providers/storer"
)

func TestSearchRanksByCosine(t *testing.T) {
	ctx := context.Background()
	s := NewStorer()

	require.NoError(t, s.Create(ctx, "book", 2))
	require.NoError(t, s.Upsert(ctx, "book",
		storer.Record{Id: "a", Vector: []float32{1, 0}, Payload: map[string]any{"text": "east"}},
		storer.Record{Id: "b", Vector: []float32{0, 1}, Payload: map[string]any{"text": "north"}},
		storer.Record{Id: "c", Vector: []float32{1, 1}, Payload: map[string]any{"text": "north-east"}},
	))

	got, err := s.Search(ctx, "book", []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Id)
	assert.Equal(t, "c", got[1].Id)
	assert.Greater(t, got[0].Score, got[1].Score)

	info, err := s.Describe(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, storer.Collection{Name: "book", Dimension: 2, Points: 3}, info)
}

func TestSearchErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStorer()

	_, err := s.Search(ctx, "missing", []float32{1}, 1)
	assert.ErrorIs(t, err, storer.ErrCollectionNotFound)

	require.NoError(t, s.Create(ctx, "book", 384))
	_, err = s.Search(ctx, "book", make([]float32, 1024), 5)
	assert.ErrorIs(t, err, storer.ErrDimensionMismatch)

	got, err := s.Search(ctx, "book", make([]float32, 384), 0)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateAndUpsertValidateDimension(t *testing.T) {
	ctx := context.Background()
	s := NewStorer()

	require.NoError(t, s.Create(ctx, "book", 3))
	require.NoError(t, s.Create(ctx, "book", 3))
	assert.ErrorIs(t, s.Create(ctx, "book", 4), storer.ErrDimensionMismatch)
	assert.Error(t, s.Create(ctx, "other", 0))

	err := s.Upsert(ctx, "book", storer.Record{Vector: []float32{1, 2}})
	assert.ErrorIs(t, err, storer.ErrDimensionMismatch)

	assert.ErrorIs(t, s.Upsert(ctx, "nope", storer.Record{Vector: []float32{1}}), storer.ErrCollectionNotFound)
	assert.NoError(t, s.Ping(ctx))
}

func TestUpsertCopiesInput(t *testing.T) {
	ctx := context.Background()
	s := NewStorer()
	require.NoError(t, s.Create(ctx, "book", 2))

	vec := []float32{1, 0}
	payload := map[string]any{"text": "original"}
	require.NoError(t, s.Upsert(ctx, "book", storer.Record{Id: "a", Vector: vec, Payload: payload}))

	vec[0] = 0
	payload["text"] = "mutated"

	got, err := s.Search(ctx, "book", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "original", got[0].Payload["text"])
	assert.InDelta(t, 1.0, float64(got[0].Score), 1e-6)
}
