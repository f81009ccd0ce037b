package anthropic

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/w-h-a/tutor/generator"
	"github.com/w-h-a/tutor/internal/fault"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	op       = "generator.anthropic.Generate"
	provider = "anthropic"
)

type anthropicGenerator struct {
	options generator.Options
	client  *anthropic.Client
}

func (g *anthropicGenerator) Generate(ctx context.Context, messages []generator.Message, opts ...generator.GenerateOption) (generator.Completion, error) {
	if len(g.options.ApiKey) == 0 {
		return generator.Completion{}, fault.New(fault.KindConfiguration, op, "api key is not configured")
	}

	options := generator.NewGenerateOptions(opts...)

	system, turns := generator.SplitSystem(messages)

	params := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == generator.RoleAssistant {
			params = append(params, anthropic.NewAssistantMessage(block))
		} else {
			params = append(params, anthropic.NewUserMessage(block))
		}
	}

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.options.Model),
		MaxTokens:   int64(options.MaxTokens),
		Messages:    params,
		Temperature: anthropic.Float(float64(options.Temperature)),
	}

	if len(system) > 0 {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}

	rsp, err := g.client.Messages.New(ctx, req)
	if err != nil {
		return generator.Completion{}, classify(err)
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	result := b.String()
	if len(result) == 0 {
		return generator.Completion{}, fault.Wrap(fault.KindUnknown, op, errors.New("no response from Anthropic"))
	}

	input := int(rsp.Usage.InputTokens)
	output := int(rsp.Usage.OutputTokens)

	return generator.Completion{
		Text: result,
		Usage: generator.Usage{
			Model:            string(rsp.Model),
			Provider:         provider,
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
	}, nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		return fault.Wrap(fault.FromHTTPStatus(apiErr.StatusCode), op, err)
	}
	return generator.Classify(op, err)
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &anthropicGenerator{
		options: options,
	}

	reqOpts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(options.ApiKey),
		anthropicopt.WithHTTPClient(otelhttp.DefaultClient),
		// retries are owned by the chat service
		anthropicopt.WithMaxRetries(0),
	}
	if len(options.BaseURL) > 0 {
		reqOpts = append(reqOpts, anthropicopt.WithBaseURL(options.BaseURL))
	}

	client := anthropic.NewClient(reqOpts...)

	g.client = &client

	return g
}
