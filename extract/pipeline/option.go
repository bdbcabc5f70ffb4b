package pipeline

import (
	"time"

	"github.com/dreamerjackson/extractra/crawl"
	"github.com/dreamerjackson/extractra/extract"
	"github.com/dreamerjackson/extractra/llm"
	"go.uber.org/zap"
)

type options struct {
	Logger           *zap.Logger
	Store            *extract.TaskStore
	Fetcher          crawl.Fetcher
	LLM              llm.Service
	Storage          extract.DataRepository
	Reconciler       Reconciler
	WorkCount        int
	PageTimeout      time.Duration
	DiscoveryTimeout time.Duration
}

var defaultOptions = options{
	Logger:           zap.NewNop(),
	Storage:          extract.EmptyDataRepository{},
	WorkCount:        5,
	PageTimeout:      30 * time.Second,
	DiscoveryTimeout: 60 * time.Second,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.Logger = logger
	}
}

func WithStore(store *extract.TaskStore) Option {
	return func(opts *options) {
		opts.Store = store
	}
}

func WithFetcher(fetcher crawl.Fetcher) Option {
	return func(opts *options) {
		opts.Fetcher = fetcher
	}
}

func WithLLM(svc llm.Service) Option {
	return func(opts *options) {
		opts.LLM = svc
	}
}

func WithStorage(storage extract.DataRepository) Option {
	return func(opts *options) {
		opts.Storage = storage
	}
}

func WithReconciler(r Reconciler) Option {
	return func(opts *options) {
		opts.Reconciler = r
	}
}

// WithWorkCount caps concurrent per-page LLM extractions.
func WithWorkCount(workCount int) Option {
	return func(opts *options) {
		if workCount > 0 {
			opts.WorkCount = workCount
		}
	}
}

// WithPageTimeout bounds each per-page crawl/LLM call during extraction.
func WithPageTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.PageTimeout = timeout
	}
}

// WithDiscoveryTimeout bounds the whole discovery stage, whose main-page
// crawl has no per-page fallback.
func WithDiscoveryTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.DiscoveryTimeout = timeout
	}
}
