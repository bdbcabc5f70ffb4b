package api

import (
	"time"

	"github.com/dreamerjackson/extractra/limiter"
	"go.uber.org/zap"
)

type Option func(opts *options)

type options struct {
	Logger       *zap.Logger
	Addr         string
	Throttle     *limiter.Bucket
	PollInterval time.Duration
	Heartbeat    time.Duration
}

var defaultOptions = options{
	Logger:       zap.NewNop(),
	Addr:         ":8080",
	PollInterval: 500 * time.Millisecond,
	Heartbeat:    15 * time.Second,
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.Logger = logger
	}
}

func WithAddr(addr string) Option {
	return func(opts *options) {
		opts.Addr = addr
	}
}

// WithThrottle caps the request rate across all endpoints; requests beyond
// the bucket get 429.
func WithThrottle(b *limiter.Bucket) Option {
	return func(opts *options) {
		opts.Throttle = b
	}
}

// WithPollInterval sets how often the progress stream re-reads the task.
func WithPollInterval(d time.Duration) Option {
	return func(opts *options) {
		opts.PollInterval = d
	}
}

// WithHeartbeat sets the idle-comment interval on progress streams.
func WithHeartbeat(d time.Duration) Option {
	return func(opts *options) {
		opts.Heartbeat = d
	}
}
