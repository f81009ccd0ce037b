package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/tutor/generator"
	"github.com/w-h-a/tutor/internal/fault"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	op       = "generator.openai.Generate"
	provider = "openai"
)

type openAIGenerator struct {
	options generator.Options
	client  *openai.Client
}

func (g *openAIGenerator) Generate(ctx context.Context, messages []generator.Message, opts ...generator.GenerateOption) (generator.Completion, error) {
	if len(g.options.ApiKey) == 0 {
		return generator.Completion{}, fault.New(fault.KindConfiguration, op, "api key is not configured")
	}

	options := generator.NewGenerateOptions(opts...)

	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       g.options.Model,
		Messages:    msgs,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}

	rsp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return generator.Completion{}, classify(err)
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return generator.Completion{}, fault.Wrap(fault.KindUnknown, op, errors.New("no response from OpenAI"))
	}

	model := rsp.Model
	if len(model) == 0 {
		model = g.options.Model
	}

	return generator.Completion{
		Text: rsp.Choices[0].Message.Content,
		Usage: generator.Usage{
			Model:            model,
			Provider:         g.provider(),
			PromptTokens:     rsp.Usage.PromptTokens,
			CompletionTokens: rsp.Usage.CompletionTokens,
			TotalTokens:      rsp.Usage.TotalTokens,
		},
	}, nil
}

func (g *openAIGenerator) provider() string {
	if name, ok := ProviderNameFrom(g.options.Context); ok {
		return name
	}
	return provider
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return fault.Wrap(fault.FromHTTPStatus(apiErr.HTTPStatusCode), op, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return fault.Wrap(fault.FromHTTPStatus(reqErr.HTTPStatusCode), op, err)
	}

	return generator.Classify(op, err)
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &openAIGenerator{
		options: options,
	}

	cfg := openai.DefaultConfig(options.ApiKey)
	if len(options.BaseURL) > 0 {
		cfg.BaseURL = options.BaseURL
	}
	cfg.HTTPClient = otelhttp.DefaultClient

	g.client = openai.NewClientWithConfig(cfg)

	return g
}
