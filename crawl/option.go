package crawl

import (
	"time"

	"github.com/dreamerjackson/extractra/limiter"
	"github.com/dreamerjackson/extractra/proxy"
	"go.uber.org/zap"
)

type options struct {
	logger      *zap.Logger
	timeout     time.Duration
	proxy       proxy.Func
	userAgent   string
	rendering   bool
	maxParallel int
	limit       limiter.RateLimiter
	robots      bool
}

var defaultOptions = options{
	logger:      zap.NewNop(),
	timeout:     30 * time.Second,
	userAgent:   "extractra/1.0 (+https://github.com/dreamerjackson/extractra)",
	maxParallel: 5,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

func WithProxy(p proxy.Func) Option {
	return func(opts *options) {
		opts.proxy = p
	}
}

func WithUserAgent(ua string) Option {
	return func(opts *options) {
		opts.userAgent = ua
	}
}

// WithRendering switches page loading to a headless browser for sites that
// assemble their content in JavaScript.
func WithRendering(rendering bool) Option {
	return func(opts *options) {
		opts.rendering = rendering
	}
}

// WithMaxParallel caps concurrent fetches inside FetchAll.
func WithMaxParallel(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.maxParallel = n
		}
	}
}

func WithLimiter(l limiter.RateLimiter) Option {
	return func(opts *options) {
		opts.limit = l
	}
}

func WithRobots(respect bool) Option {
	return func(opts *options) {
		opts.robots = respect
	}
}
