package qdrant

import (
	"context"

	"github.com/w-h-a/tutor/retriever/providers/storer"
)

type tlsKey struct{}

func WithTLS(useTLS bool) storer.Option {
	return func(o *storer.Options) {
		o.Context = context.WithValue(o.Context, tlsKey{}, useTLS)
	}
}

func TLSFrom(ctx context.Context) (bool, bool) {
	useTLS, ok := ctx.Value(tlsKey{}).(bool)
	return useTLS, ok
}
