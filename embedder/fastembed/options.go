package fastembed

import (
	"context"

	"github.com/w-h-a/tutor/embedder"
)

type cacheDirKey struct{}

func WithCacheDir(dir string) embedder.Option {
	return func(o *embedder.Options) {
		o.Context = context.WithValue(o.Context, cacheDirKey{}, dir)
	}
}

func CacheDirFrom(ctx context.Context) (string, bool) {
	dir, ok := ctx.Value(cacheDirKey{}).(string)
	return dir, ok
}

type maxLengthKey struct{}

func WithMaxLength(n int) embedder.Option {
	return func(o *embedder.Options) {
		o.Context = context.WithValue(o.Context, maxLengthKey{}, n)
	}
}

func MaxLengthFrom(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(maxLengthKey{}).(int)
	return n, ok
}

const DefaultModel = "BAAI/bge-small-en-v1.5"

var dimensions = map[string]int{
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
}

// ModelDimension reports the output length of a supported local model.
func ModelDimension(model string) (int, bool) {
	dim, ok := dimensions[model]
	return dim, ok
}
