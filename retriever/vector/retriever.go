package vector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/w-h-a/tutor/retriever"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/w-h-a/tutor/retriever/vector")

type vectorRetriever struct {
	options retriever.Options
}

func (r *vectorRetriever) Retrieve(ctx context.Context, query string, collection string, limit int) (chunks []retriever.Chunk) {
	chunks = []retriever.Chunk{}

	if limit < 1 || len(strings.TrimSpace(query)) == 0 {
		return chunks
	}

	ctx, span := tracer.Start(ctx, "retriever.Retrieve")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("limit", limit),
	)

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic during retrieval: %v", rec)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.ErrorContext(ctx, "retrieval failed", "collection", collection, "error", err)
			chunks = []retriever.Chunk{}
		}
	}()

	if r.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.options.Timeout)
		defer cancel()
	}

	vec, err := r.options.Embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embed failed")
		slog.WarnContext(ctx, "retrieval skipped, embedding failed", "collection", collection, "error", err)
		return chunks
	}

	records, err := r.options.Storer.Search(ctx, collection, vec, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		slog.WarnContext(ctx, "retrieval returned no results, search failed", "collection", collection, "dimension", len(vec), "error", err)
		return chunks
	}

	for _, rec := range records {
		chunks = append(chunks, retriever.NewChunk(rec.Payload, rec.Score))
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	if len(chunks) > limit {
		chunks = chunks[:limit]
	}

	span.SetAttributes(attribute.Int("results", len(chunks)))
	span.SetStatus(codes.Ok, "success")

	slog.DebugContext(ctx, "retrieved chunks", "collection", collection, "count", len(chunks))

	return chunks
}

func NewRetriever(opts ...retriever.Option) retriever.Retriever {
	options := retriever.NewOptions(opts...)

	if options.Embedder == nil || options.Storer == nil {
		detail := "vector retriever requires an embedder and a storer"
		slog.ErrorContext(context.Background(), detail)
		panic(detail)
	}

	r := &vectorRetriever{
		options: options,
	}

	return r
}
