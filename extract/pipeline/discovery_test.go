package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dreamerjackson/extractra/extract"
	"github.com/dreamerjackson/extractra/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, f *fakeFetcher, svc llm.Service, opts ...Option) *Orchestrator {
	t.Helper()
	store, err := extract.NewTaskStore(1)
	require.NoError(t, err)

	base := []Option{WithStore(store), WithFetcher(f), WithLLM(svc)}
	o, err := NewOrchestrator(append(base, opts...)...)
	require.NoError(t, err)
	return o
}

func TestDiscoverIncludesTargetFirst(t *testing.T) {
	f := newFakeFetcher()
	f.pages["https://example.com/shop"] = "# Shop"

	// model echoes the target back plus one sub-page
	svc := staticLLM(`{"links": [
		{"url": "https://example.com/shop", "title": "Shop"},
		{"url": "https://example.com/shop/items", "title": "Items"}
	]}`)

	o := newTestOrchestrator(t, f, svc)
	pages, err := o.discover(context.Background(), "https://example.com/shop", "all items")
	require.NoError(t, err)

	require.Len(t, pages, 2)
	assert.Equal(t, "https://example.com/shop", pages[0].URL)
	assert.Equal(t, "https://example.com/shop/items", pages[1].URL)
}

func TestDiscoverPaginationGapFree(t *testing.T) {
	f := newFakeFetcher()
	f.pages["https://example.com/archive"] = "# Archive\n... 75"

	svc := staticLLM(`{"pagination": {"pattern": "https://example.com/archive?page={page}", "max_page": 75}}`)

	o := newTestOrchestrator(t, f, svc)
	pages, err := o.discover(context.Background(), "https://example.com/archive", "list of all archived posts")
	require.NoError(t, err)

	require.Len(t, pages, 75)
	assert.Equal(t, "https://example.com/archive", pages[0].URL)
	for n := 2; n <= 75; n++ {
		assert.Equal(t, fmt.Sprintf("https://example.com/archive?page=%d", n), pages[n-1].URL)
	}
}

func TestDiscoverCrawlFailure(t *testing.T) {
	f := newFakeFetcher()
	f.fail["https://example.com"] = true

	o := newTestOrchestrator(t, f, staticLLM(`{}`))
	_, err := o.discover(context.Background(), "https://example.com", "r")
	assert.ErrorIs(t, err, extract.ErrDiscoveryFailed)
}

func TestDiscoverLLMFailure(t *testing.T) {
	f := newFakeFetcher()
	f.pages["https://example.com"] = "# x"

	svc := &fakeLLM{fn: func(llm.Request) (json.RawMessage, error) {
		return nil, errors.New("model overloaded")
	}}

	o := newTestOrchestrator(t, f, svc)
	_, err := o.discover(context.Background(), "https://example.com", "r")
	assert.ErrorIs(t, err, extract.ErrDiscoveryFailed)
}

func TestDiscoverUnparsableOutput(t *testing.T) {
	f := newFakeFetcher()
	f.pages["https://example.com"] = "# x"

	o := newTestOrchestrator(t, f, staticLLM(`the page has some links on it`))
	_, err := o.discover(context.Background(), "https://example.com", "r")
	assert.ErrorIs(t, err, extract.ErrDiscoveryFailed)
}

func TestExpandPages(t *testing.T) {
	tests := []struct {
		name   string
		out    discoveryOutput
		want   []string
		target string
	}{
		{
			name:   "no links",
			target: "https://example.com",
			want:   []string{"https://example.com"},
		},
		{
			name:   "dedup keeps first occurrence",
			target: "https://example.com",
			out: mustDiscoveryOutput(`{"links": [
				{"url": "https://example.com/a", "title": "a"},
				{"url": "https://example.com/a", "title": "a again"},
				{"url": "https://example.com/b", "title": "b"}
			]}`),
			want: []string{"https://example.com", "https://example.com/a", "https://example.com/b"},
		},
		{
			name:   "pagination without placeholder ignored",
			target: "https://example.com",
			out:    mustDiscoveryOutput(`{"pagination": {"pattern": "https://example.com/page2", "max_page": 9}}`),
			want:   []string{"https://example.com"},
		},
		{
			name:   "links and pagination overlap",
			target: "https://example.com/list",
			out: mustDiscoveryOutput(`{
				"links": [{"url": "https://example.com/list?page=2", "title": "next"}],
				"pagination": {"pattern": "https://example.com/list?page={page}", "max_page": 3}
			}`),
			want: []string{
				"https://example.com/list",
				"https://example.com/list?page=2",
				"https://example.com/list?page=3",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := expandPages(tt.target, tt.out)
			var got []string
			for _, p := range pages {
				got = append(got, p.URL)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustDiscoveryOutput(raw string) discoveryOutput {
	var out discoveryOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		panic(err)
	}
	return out
}
