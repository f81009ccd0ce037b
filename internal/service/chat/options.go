package chat

import "time"

type Option func(*Options)

type Options struct {
	Collection   string
	RateLimit    int
	RateWindow   time.Duration
	HistoryLimit int
	Attempts     int
	Backoff      time.Duration
	Timeout      time.Duration
	Temperature  float32
	MaxTokens    int
	Now          func() time.Time
}

// WithCollection names the vector collection answers are grounded on.
func WithCollection(name string) Option {
	return func(o *Options) {
		o.Collection = name
	}
}

// WithRateLimit admits n requests per origin within each trailing window.
func WithRateLimit(n int, window time.Duration) Option {
	return func(o *Options) {
		o.RateLimit = n
		o.RateWindow = window
	}
}

func WithHistoryLimit(n int) Option {
	return func(o *Options) {
		o.HistoryLimit = n
	}
}

// WithCompletionRetry sets how often an unavailable provider is retried and
// the base of the exponential wait between tries.
func WithCompletionRetry(attempts int, base time.Duration) Option {
	return func(o *Options) {
		o.Attempts = attempts
		o.Backoff = base
	}
}

// WithTimeout bounds a whole request, lock wait included.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

func WithSampling(temperature float32, maxTokens int) Option {
	return func(o *Options) {
		o.Temperature = temperature
		o.MaxTokens = maxTokens
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Collection:   "humanoid_ai_book_new",
		RateLimit:    10,
		RateWindow:   60 * time.Second,
		HistoryLimit: 10,
		Attempts:     3,
		Backoff:      time.Second,
		Timeout:      60 * time.Second,
		Temperature:  0.3,
		MaxTokens:    1000,
		Now:          time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
