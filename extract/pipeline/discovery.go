package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dreamerjackson/extractra/crawl"
	"github.com/dreamerjackson/extractra/extract"
	"github.com/dreamerjackson/extractra/llm"
)

// pagePlaceholder is the token the discovery model substitutes page numbers
// into when it reports a pagination pattern.
const pagePlaceholder = "{page}"

const discoveryInstructions = `You are a web page discovery specialist.
Given the markdown content of a target page and the user's data requirements,
identify the sub-pages that must be visited to satisfy the requirements.

Report:
- "links": relevant sub-page links as {"url", "title"} objects, absolute URLs only.
- "pagination": if the page is paginated, the URL pattern with a ` + pagePlaceholder + `
  placeholder for the page number, and the highest page number visible in the
  pagination controls (even if no direct link to it exists). Omit otherwise.

Do not include navigation chrome, login pages or external domains.`

const discoverySchema = `{"links": [{"url": "string", "title": "string"}], "pagination": {"pattern": "string", "max_page": 0}}`

type discoveryOutput struct {
	Links []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"links"`
	Pagination *struct {
		Pattern string `json:"pattern"`
		MaxPage int    `json:"max_page"`
	} `json:"pagination"`
}

// discover produces the full ordered page set for a target URL. Any
// crawler or model failure here fails the stage; there is nothing useful to
// extract without a page set.
func (o *Orchestrator) discover(ctx context.Context, targetURL, requirements string) ([]extract.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, o.DiscoveryTimeout)
	defer cancel()

	content, err := o.Fetcher.Fetch(ctx, targetURL, crawl.FormatMarkdown)
	if err != nil {
		return nil, fmt.Errorf("%w: crawl target: %v", extract.ErrDiscoveryFailed, err)
	}

	raw, err := o.LLM.Run(ctx, llm.Request{
		Content:      content,
		Instructions: discoveryInstructions + "\n\nRequirements: " + requirements,
		SchemaHint:   discoverySchema,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: analyze target: %v", extract.ErrDiscoveryFailed, err)
	}

	var out discoveryOutput
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: unexpected model output: %v", extract.ErrDiscoveryFailed, err)
	}

	return expandPages(targetURL, out), nil
}

// expandPages merges the target URL, discovered links and generated
// pagination URLs. The target is always first and counts as page 1 of any
// pagination; pattern pages 2..max are generated without gaps. Exact-URL
// duplicates keep their first occurrence.
func expandPages(targetURL string, out discoveryOutput) []extract.Page {
	seen := map[string]bool{}
	var pages []extract.Page

	add := func(u, title string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		pages = append(pages, extract.Page{URL: u, Title: title})
	}

	add(targetURL, "target page")

	for _, l := range out.Links {
		add(l.URL, l.Title)
	}

	if p := out.Pagination; p != nil && p.MaxPage >= 2 && strings.Contains(p.Pattern, pagePlaceholder) {
		for n := 2; n <= p.MaxPage; n++ {
			u := strings.ReplaceAll(p.Pattern, pagePlaceholder, strconv.Itoa(n))
			add(u, fmt.Sprintf("page %d", n))
		}
	}

	return pages
}
