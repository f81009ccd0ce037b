//go:build cgo

package fastembed

import (
	"context"
	"log/slog"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
	"github.com/w-h-a/tutor/embedder"
	"github.com/w-h-a/tutor/internal/fault"
)

const op = "embedder.fastembed.Embed"

var models = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembed.BGEBaseEN,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
}

// model is the part of *fastembed.FlagEmbedding the embedder uses.
type model interface {
	Embed(input []string, batchSize int) ([][]float32, error)
	Destroy() error
}

type fastEmbedder struct {
	options   embedder.Options
	model     model
	dimension int
	mtx       sync.Mutex
}

func (e *fastEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fault.Wrap(fault.KindEmbedding, op, err)
	}

	// the ONNX session is not safe for concurrent use
	e.mtx.Lock()
	defer e.mtx.Unlock()

	// the collection was indexed from raw text, so no "query: " prefix
	vecs, err := e.model.Embed([]string{text}, 1)
	if err != nil {
		return nil, fault.Wrap(fault.KindEmbedding, op, err)
	}

	if len(vecs) == 0 {
		return nil, fault.New(fault.KindEmbedding, op, "model %s returned no vectors", e.options.Model)
	}

	return vecs[0], nil
}

func (e *fastEmbedder) Dimension() int {
	return e.dimension
}

func (e *fastEmbedder) Close() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.model.Destroy()
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	if len(options.Model) == 0 {
		options.Model = DefaultModel
	}

	id, ok := models[options.Model]
	if !ok {
		detail := "unsupported fastembed model"
		slog.ErrorContext(context.Background(), detail, "model", options.Model)
		panic(detail)
	}

	dim, _ := ModelDimension(options.Model)

	initOpts := &fastembed.InitOptions{
		Model: id,
	}

	if dir, ok := CacheDirFrom(options.Context); ok && len(dir) > 0 {
		initOpts.CacheDir = dir
	}

	if n, ok := MaxLengthFrom(options.Context); ok && n > 0 {
		initOpts.MaxLength = n
	}

	showProgress := false
	initOpts.ShowDownloadProgress = &showProgress

	flag, err := fastembed.NewFlagEmbedding(initOpts)
	if err != nil {
		detail := "failed to initialize fastembed model"
		slog.ErrorContext(context.Background(), detail, "model", options.Model, "error", err)
		panic(detail)
	}

	return &fastEmbedder{
		options:   options,
		model:     flag,
		dimension: dim,
	}
}
