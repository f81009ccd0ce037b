package retriever

import "context"

// Retriever returns up to limit chunks from collection ranked by descending
// score. It never fails: an unavailable index yields no chunks.
type Retriever interface {
	Retrieve(ctx context.Context, query string, collection string, limit int) []Chunk
}
