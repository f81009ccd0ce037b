package generator

import "context"

type Option func(*Options)

type Options struct {
	ApiKey  string
	Model   string
	BaseURL string
	Context context.Context
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type GenerateOption func(*GenerateOptions)

type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

func WithTemperature(t float32) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = t
	}
}

func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = n
	}
}

func NewGenerateOptions(opts ...GenerateOption) GenerateOptions {
	options := GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   1000,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
