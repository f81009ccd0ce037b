package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/tutor/embedder"
	"github.com/w-h-a/tutor/internal/fault"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	op = "embedder.openai.Embed"

	defaultModel = "text-embedding-3-small"
)

type openAIEmbedder struct {
	options embedder.Options
	client  *openai.Client
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.options.Model),
	}
	if e.options.Dimension > 0 {
		req.Dimensions = e.options.Dimension
	}

	rsp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fault.Wrap(fault.KindEmbedding, op, err)
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, fault.Wrap(fault.KindEmbedding, op, errors.New("no response from OpenAI"))
	}

	vec := rsp.Data[0].Embedding

	if e.options.Dimension > 0 && len(vec) != e.options.Dimension {
		return nil, fault.New(fault.KindEmbedding, op, "model %s returned %d dimensions, want %d", e.options.Model, len(vec), e.options.Dimension)
	}

	return vec, nil
}

func (e *openAIEmbedder) Dimension() int {
	return e.options.Dimension
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	if len(options.Model) == 0 {
		options.Model = defaultModel
	}

	if options.Dimension <= 0 {
		detail := "openai embedder requires a positive dimension"
		slog.ErrorContext(context.Background(), detail, "model", options.Model)
		panic(detail)
	}

	e := &openAIEmbedder{
		options: options,
	}

	cfg := openai.DefaultConfig(options.ApiKey)
	if len(options.BaseURL) > 0 {
		cfg.BaseURL = options.BaseURL
	}
	cfg.HTTPClient = otelhttp.DefaultClient

	e.client = openai.NewClientWithConfig(cfg)

	return e
}
