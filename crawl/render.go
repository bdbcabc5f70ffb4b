package crawl

import (
	"context"

	"github.com/chromedp/chromedp"
)

// render loads the page in headless Chrome and returns the DOM after
// scripts have run. One browser per call keeps sessions isolated; overall
// concurrency is already bounded by FetchAll.
func (s *Service) render(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(s.userAgent),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, execOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var outerHTML string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &outerHTML),
	)
	if err != nil {
		return "", err
	}

	return outerHTML, nil
}
