package crawl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Result is one entry of a batch fetch. Err is set per URL; a failed URL
// never aborts the rest of the batch.
type Result struct {
	URL     string
	Content string
	Err     error
}

// Fetcher is the crawler capability the pipeline depends on.
type Fetcher interface {
	Fetch(ctx context.Context, url string, format Format) (string, error)
	FetchAll(ctx context.Context, urls []string, format Format) []Result
}

var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// Service fetches pages over plain HTTP or a headless browser and normalizes
// them to markdown.
type Service struct {
	options
	client *http.Client
	gate   *robotsGate
}

func NewService(opts ...Option) *Service {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if options.proxy != nil {
		transport.Proxy = options.proxy
	}
	client := &http.Client{
		Timeout:   options.timeout,
		Transport: transport,
	}

	s := &Service{options: options, client: client}
	if options.robots {
		s.gate = newRobotsGate(client, options.userAgent)
	}

	return s
}

func (s *Service) Fetch(ctx context.Context, rawURL string, format Format) (string, error) {
	if s.limit != nil {
		if err := s.limit.Wait(ctx); err != nil {
			return "", err
		}
	}

	if s.gate != nil && !s.gate.Allowed(ctx, rawURL) {
		return "", fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	var (
		raw string
		err error
	)
	if s.rendering {
		raw, err = s.render(ctx, rawURL)
	} else {
		raw, err = s.get(ctx, rawURL)
	}
	if err != nil {
		return "", err
	}

	if format == FormatHTML {
		return raw, nil
	}

	return Markdown(raw, rawURL)
}

// FetchAll crawls every URL with bounded parallelism and returns results in
// input order.
func (s *Service) FetchAll(ctx context.Context, urls []string, format Format) []Result {
	results := make([]Result, len(urls))
	sem := make(chan struct{}, s.maxParallel)

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			content, err := s.Fetch(ctx, u, format)
			if err != nil {
				s.logger.Warn("fetch failed",
					zap.String("url", u),
					zap.Error(err),
				)
			}
			results[i] = Result{URL: u, Content: content, Err: err}
		}(i, u)
	}
	wg.Wait()

	return results
}

func (s *Service) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error status code:%d", resp.StatusCode)
	}

	bodyReader := bufio.NewReader(resp.Body)
	e := determineEncoding(s.logger, bodyReader)
	utf8Reader := transform.NewReader(bodyReader, e.NewDecoder())

	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

func determineEncoding(logger *zap.Logger, r *bufio.Reader) encoding.Encoding {
	bytes, err := r.Peek(1024)
	if err != nil && err != io.EOF {
		logger.Debug("peek body failed", zap.Error(err))

		return unicode.UTF8
	}

	e, _, _ := charset.DetermineEncoding(bytes, "")

	return e
}
