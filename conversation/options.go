package conversation

import (
	"context"
	"time"

	"github.com/w-h-a/tutor/conversation/providers/storer"
)

type Option func(*Options)

type Options struct {
	Durable  storer.Storer
	Attempts int
	Backoff  time.Duration
	Context  context.Context
}

// WithDurable sets the backing store tried before the in-process cache.
func WithDurable(s storer.Storer) Option {
	return func(o *Options) {
		o.Durable = s
	}
}

func WithAttempts(n int) Option {
	return func(o *Options) {
		o.Attempts = n
	}
}

// WithBackoff sets the base interval; attempt n waits base * 2^n.
func WithBackoff(d time.Duration) Option {
	return func(o *Options) {
		o.Backoff = d
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Attempts: 3,
		Backoff:  100 * time.Millisecond,
		Context:  context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Attempts < 1 {
		options.Attempts = 1
	}
	return options
}
