package google

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/tutor/embedder"
	"github.com/w-h-a/tutor/internal/fault"
	genaiopt "google.golang.org/api/option"
)

const (
	op = "embedder.google.Embed"

	defaultModel     = "text-embedding-004"
	defaultDimension = 768
)

type googleEmbedder struct {
	options embedder.Options
	client  *genai.Client
}

func (e *googleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.options.Model)
	model.TaskType = genai.TaskTypeRetrievalQuery

	rsp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fault.Wrap(fault.KindEmbedding, op, err)
	}

	if rsp == nil || rsp.Embedding == nil || len(rsp.Embedding.Values) == 0 {
		return nil, fault.Wrap(fault.KindEmbedding, op, errors.New("no response from Google"))
	}

	if len(rsp.Embedding.Values) != e.options.Dimension {
		return nil, fault.New(fault.KindEmbedding, op, "model %s returned %d dimensions, want %d", e.options.Model, len(rsp.Embedding.Values), e.options.Dimension)
	}

	return rsp.Embedding.Values, nil
}

func (e *googleEmbedder) Dimension() int {
	return e.options.Dimension
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	if len(options.Model) == 0 {
		options.Model = defaultModel
	}

	if options.Dimension <= 0 {
		options.Dimension = defaultDimension
	}

	e := &googleEmbedder{
		options: options,
	}

	client, err := genai.NewClient(
		context.Background(),
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		detail := "failed to create google embedder client"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	e.client = client

	return e
}
