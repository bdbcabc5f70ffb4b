package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dreamerjackson/extractra/crawl"
	"github.com/dreamerjackson/extractra/llm"
)

// fakeFetcher serves canned markdown per URL; URLs in fail error out.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]bool
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{},
		fail:  map[string]bool{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, format crawl.Format) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.fail[url] {
		return "", fmt.Errorf("fetch %s: connection refused", url)
	}
	if content, ok := f.pages[url]; ok {
		return content, nil
	}
	return "", fmt.Errorf("fetch %s: not found", url)
}

func (f *fakeFetcher) FetchAll(ctx context.Context, urls []string, format crawl.Format) []crawl.Result {
	results := make([]crawl.Result, len(urls))
	for i, u := range urls {
		content, err := f.Fetch(ctx, u, format)
		results[i] = crawl.Result{URL: u, Content: content, Err: err}
	}
	return results
}

// fakeLLM routes every call through fn.
type fakeLLM struct {
	fn func(req llm.Request) (json.RawMessage, error)
}

func (f *fakeLLM) Run(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fn(req)
}

// staticLLM always answers with the same payload.
func staticLLM(payload string) *fakeLLM {
	return &fakeLLM{fn: func(llm.Request) (json.RawMessage, error) {
		return json.RawMessage(payload), nil
	}}
}
