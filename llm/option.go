package llm

import (
	"time"

	"github.com/dreamerjackson/extractra/limiter"
	"go.uber.org/zap"
)

type options struct {
	logger   *zap.Logger
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
	limit    limiter.RateLimiter
	retries  int
}

var defaultOptions = options{
	logger:  zap.NewNop(),
	model:   "gemini-2.0-flash",
	timeout: 60 * time.Second,
	retries: 1,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.endpoint = endpoint
	}
}

func WithAPIKey(key string) Option {
	return func(opts *options) {
		opts.apiKey = key
	}
}

func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

func WithLimiter(l limiter.RateLimiter) Option {
	return func(opts *options) {
		opts.limit = l
	}
}

// WithRetries sets how many extra attempts are made on transient failures
// (5xx or timeout). Default is one.
func WithRetries(n int) Option {
	return func(opts *options) {
		if n >= 0 {
			opts.retries = n
		}
	}
}
