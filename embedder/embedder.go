package embedder

import "context"

// Embedder turns text into a fixed-length vector. Dimension reports the
// length of every vector Embed returns.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
