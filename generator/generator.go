package generator

import "context"

type Generator interface {
	Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (Completion, error)
}
