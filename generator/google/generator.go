package google

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/tutor/generator"
	"github.com/w-h-a/tutor/internal/fault"
	"google.golang.org/api/googleapi"
	genaiopt "google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	op       = "generator.google.Generate"
	provider = "google"
)

type googleGenerator struct {
	options generator.Options
	client  *genai.Client
}

func (g *googleGenerator) Generate(ctx context.Context, messages []generator.Message, opts ...generator.GenerateOption) (generator.Completion, error) {
	if len(g.options.ApiKey) == 0 {
		return generator.Completion{}, fault.New(fault.KindConfiguration, op, "api key is not configured")
	}

	options := generator.NewGenerateOptions(opts...)

	system, turns := generator.SplitSystem(messages)
	if len(turns) == 0 {
		return generator.Completion{}, fault.New(fault.KindInvalidInput, op, "no user message to answer")
	}

	model := g.client.GenerativeModel(g.options.Model)
	model.SetTemperature(options.Temperature)
	model.SetMaxOutputTokens(int32(options.MaxTokens))

	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == generator.RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	rsp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return generator.Completion{}, classify(err)
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return generator.Completion{}, fault.Wrap(fault.KindUnknown, op, errors.New("no response from Google"))
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	usage := generator.Usage{
		Model:    g.options.Model,
		Provider: provider,
	}
	if md := rsp.UsageMetadata; md != nil {
		usage.PromptTokens = int(md.PromptTokenCount)
		usage.CompletionTokens = int(md.CandidatesTokenCount)
		usage.TotalTokens = int(md.TotalTokenCount)
	}

	return generator.Completion{
		Text:  b.String(),
		Usage: usage,
	}, nil
}

func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code > 0 {
		return fault.Wrap(fault.FromHTTPStatus(gerr.Code), op, err)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return fault.Wrap(FromCode(st.Code()), op, err)
	}

	return generator.Classify(op, err)
}

// FromCode maps a gRPC status code to a kind.
func FromCode(code codes.Code) fault.Kind {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fault.KindUnauthorized
	case codes.ResourceExhausted:
		return fault.KindRateLimited
	case codes.DeadlineExceeded:
		return fault.KindTimeout
	case codes.Unavailable, codes.Aborted, codes.Internal:
		return fault.KindUnavailable
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return fault.KindInvalidInput
	default:
		return fault.KindUnknown
	}
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &googleGenerator{
		options: options,
	}

	if len(options.ApiKey) == 0 {
		return g
	}

	client, err := genai.NewClient(
		context.Background(),
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		detail := "failed to create google generator client"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	g.client = client

	return g
}
