package crawl

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsGate caches robots.txt per host. Fetch problems fall open: a site
// we cannot read rules for is treated as allowed, matching robotstxt's
// status-code semantics.
type robotsGate struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	hosts map[string]*robotstxt.RobotsData
}

func newRobotsGate(client *http.Client, userAgent string) *robotsGate {
	return &robotsGate{
		client:    client,
		userAgent: userAgent,
		hosts:     make(map[string]*robotstxt.RobotsData),
	}
}

func (g *robotsGate) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data := g.rules(ctx, u)
	if data == nil {
		return true
	}

	return data.FindGroup(g.userAgent).Test(u.Path)
}

func (g *robotsGate) rules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host

	g.mu.Lock()
	defer g.mu.Unlock()

	if data, ok := g.hosts[key]; ok {
		return data
	}

	data := g.fetch(ctx, key+"/robots.txt")
	g.hosts[key] = data

	return data
}

func (g *robotsGate) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}

	return data
}
