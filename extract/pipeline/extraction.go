package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dreamerjackson/extractra/crawl"
	"github.com/dreamerjackson/extractra/extract"
	"github.com/dreamerjackson/extractra/llm"
	"go.uber.org/zap"
)

const extractionInstructions = `You are a content extraction specialist.
From the markdown content of a single page, extract the data the user asked
for. Return one flat JSON object mapping field names to values. Use simple
descriptive snake_case field names. Return {} when the page holds nothing
relevant.`

const extractionSchema = `{"field_name": "value"}`

// extractAll crawls every discovered page and runs per-page extraction on a
// bounded worker pool. A single page failing — crawl or model — becomes an
// issue, not a stage failure; only a full wipeout fails the stage.
func (o *Orchestrator) extractAll(ctx context.Context, pages []extract.Page, requirements string) (*extract.Extraction, error) {
	urls := make([]string, len(pages))
	for i, p := range pages {
		urls[i] = p.URL
	}

	crawled := o.Fetcher.FetchAll(ctx, urls, crawl.FormatMarkdown)

	records := make([]*extract.Record, len(pages))
	var (
		mu     sync.Mutex
		issues []string
	)
	addIssue := func(format string, args ...interface{}) {
		mu.Lock()
		issues = append(issues, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < o.WorkCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec, err := o.extractPage(ctx, crawled[i], requirements)
				if err != nil {
					o.Logger.Warn("page extraction failed",
						zap.String("url", crawled[i].URL),
						zap.Error(err),
					)
					addIssue("extract %s: %v", crawled[i].URL, err)
					continue
				}
				records[i] = rec
			}
		}()
	}

	for i, res := range crawled {
		if res.Err != nil {
			addIssue("crawl %s: %v", res.URL, res.Err)
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.Strings(issues)

	out := &extract.Extraction{Issues: issues}
	var succeeded int
	for i, rec := range records {
		if rec == nil {
			continue
		}
		succeeded++
		if i == 0 {
			out.Main = rec
			continue
		}
		out.Subs = append(out.Subs, *rec)
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("%w: all %d pages failed", extract.ErrExtractionFailed, len(pages))
	}

	o.Logger.Info("extraction done",
		zap.Int("pages", len(pages)),
		zap.Int("records", succeeded),
		zap.Int("issues", len(issues)),
	)

	return out, nil
}

// extractPage runs one model call over already-crawled content, bounded by
// the per-page timeout.
func (o *Orchestrator) extractPage(ctx context.Context, page crawl.Result, requirements string) (*extract.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, o.PageTimeout)
	defer cancel()

	start := time.Now()
	raw, err := o.LLM.Run(ctx, llm.Request{
		Content:      page.Content,
		Instructions: extractionInstructions + "\n\nRequirements: " + requirements,
		SchemaHint:   extractionSchema,
	})
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := llm.DecodeJSON(raw, &fields); err != nil {
		return nil, fmt.Errorf("unexpected model output: %w", err)
	}

	rec := &extract.Record{
		SourceURL: page.URL,
		Fields:    make(map[string]string, len(fields)),
		Meta: extract.RecordMeta{
			DurationMs: time.Since(start).Milliseconds(),
			ByteSize:   len(page.Content),
		},
	}
	for k, v := range fields {
		rec.Fields[k] = fieldValue(v)
	}
	if len(rec.Fields) == 0 {
		rec.Issues = append(rec.Issues, "no fields extracted")
	}

	return rec, nil
}

// fieldValue flattens a JSON value to a string cell; nested values are kept
// as compact JSON.
func fieldValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var null interface{}
	if err := json.Unmarshal(raw, &null); err == nil && null == nil {
		return ""
	}
	return string(raw)
}
