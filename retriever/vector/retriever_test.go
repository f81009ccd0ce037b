package vector

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/tutor/retriever"
	"github.com/w-h-a/tutor/retriever/providers/storer"
	"github.com/w-h-a/tutor/retriever/providers/storer/memory"
	qdrantstorer "github.com/w-h-a/tutor/retriever/providers/storer/qdrant"
)

// bagEmbedder hashes words into a fixed number of buckets.
type bagEmbedder struct {
	dim int
	err error
}

func (e bagEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, e.dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(e.dim)] += 1
	}
	return vec, nil
}

func (e bagEmbedder) Dimension() int { return e.dim }

type panicStorer struct{ storer.Storer }

func (panicStorer) Search(ctx context.Context, collection string, vector []float32, limit int) ([]storer.Record, error) {
	panic("nil payload")
}

func seed(t *testing.T, e bagEmbedder, texts ...string) storer.Storer {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStorer()
	require.NoError(t, s.Create(ctx, "humanoid_ai_book_new", e.dim))
	for _, text := range texts {
		vec, err := e.Embed(ctx, text)
		require.NoError(t, err)
		require.NoError(t, s.Upsert(ctx, "humanoid_ai_book_new", storer.Record{
			Vector:  vec,
			Payload: map[string]any{"text": text, "metadata": map[string]any{"title": "Intro"}},
		}))
	}
	return s
}

func TestRetrieveFindsMatchingChunk(t *testing.T) {
	e := bagEmbedder{dim: 384}
	s := seed(t, e,
		"what is humanoid robotics and why it matters",
		"servo motors convert electrical signals into motion",
		"sensor fusion combines lidar and camera data",
	)

	r := NewRetriever(retriever.WithEmbedder(e), retriever.WithStorer(s))

	got := r.Retrieve(context.Background(), "what is humanoid robotics", "humanoid_ai_book_new", 2)
	require.NotEmpty(t, got)
	assert.Equal(t, "what is humanoid robotics and why it matters", got[0].Content)
	assert.Equal(t, map[string]any{"title": "Intro"}, got[0].Metadata)
	assert.LessOrEqual(t, len(got), 2)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestRetrieveNeverFails(t *testing.T) {
	ctx := context.Background()
	e := bagEmbedder{dim: 384}
	s := seed(t, e, "what is humanoid robotics")

	tests := []struct {
		name       string
		retriever  retriever.Retriever
		collection string
	}{
		{"embedding failure", NewRetriever(retriever.WithEmbedder(bagEmbedder{dim: 384, err: errors.New("model unavailable")}), retriever.WithStorer(s)), "humanoid_ai_book_new"},
		{"missing collection", NewRetriever(retriever.WithEmbedder(e), retriever.WithStorer(s)), "nope"},
		{"dimension mismatch", NewRetriever(retriever.WithEmbedder(bagEmbedder{dim: 1024}), retriever.WithStorer(s)), "humanoid_ai_book_new"},
		{"storer panic", NewRetriever(retriever.WithEmbedder(e), retriever.WithStorer(panicStorer{s})), "humanoid_ai_book_new"},
		{"unreachable qdrant", NewRetriever(retriever.WithEmbedder(e), retriever.WithStorer(qdrantstorer.NewStorer(storer.WithLocation("127.0.0.1:1")))), "humanoid_ai_book_new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []retriever.Chunk
			assert.NotPanics(t, func() {
				got = tt.retriever.Retrieve(ctx, "what is humanoid robotics", tt.collection, 5)
			})
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestRetrieveIgnoresEmptyQueryAndLimit(t *testing.T) {
	e := bagEmbedder{dim: 8}
	s := seed(t, e, "gait")
	r := NewRetriever(retriever.WithEmbedder(e), retriever.WithStorer(s))

	assert.Empty(t, r.Retrieve(context.Background(), "   ", "humanoid_ai_book_new", 3))
	assert.Empty(t, r.Retrieve(context.Background(), "gait", "humanoid_ai_book_new", 0))
}

func TestNewRetrieverRequiresCollaborators(t *testing.T) {
	assert.Panics(t, func() { NewRetriever() })
}
