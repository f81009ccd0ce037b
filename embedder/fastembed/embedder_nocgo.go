//go:build !cgo

package fastembed

import (
	"context"
	"log/slog"

	"github.com/w-h-a/tutor/embedder"
)

// NewEmbedder fails on binaries built without cgo since the ONNX runtime
// cannot be loaded.
func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)
	detail := "fastembed requires a cgo build, use the openai or google embedder instead"
	slog.ErrorContext(context.Background(), detail, "model", options.Model)
	panic(detail)
}
