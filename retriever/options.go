package retriever

import (
	"context"
	"time"

	"github.com/w-h-a/tutor/embedder"
	"github.com/w-h-a/tutor/retriever/providers/storer"
)

type Option func(*Options)

type Options struct {
	Storer   storer.Storer
	Embedder embedder.Embedder
	Timeout  time.Duration
	Context  context.Context
}

func WithStorer(s storer.Storer) Option {
	return func(o *Options) {
		o.Storer = s
	}
}

func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

// WithTimeout bounds one embed plus search round trip.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Timeout: 15 * time.Second,
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
