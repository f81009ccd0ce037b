package openai

import (
	"context"

	"github.com/w-h-a/tutor/generator"
)

const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	OpenRouterModel   = "mistralai/devstral-2512:free"
)

type providerNameKey struct{}

// WithProviderName labels usage reports when the client targets an
// OpenAI-compatible gateway such as OpenRouter.
func WithProviderName(name string) generator.Option {
	return func(o *generator.Options) {
		o.Context = context.WithValue(o.Context, providerNameKey{}, name)
	}
}

func ProviderNameFrom(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(providerNameKey{}).(string)
	return name, ok && len(name) > 0
}
