package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dreamerjackson/extractra/extract"
	"github.com/dreamerjackson/extractra/llm"
)

// ConflictSuffix marks a field that kept both sides of an unresolvable
// disagreement: the winning value stays under the field name, the losing
// value moves under "<field>" + ConflictSuffix.
const ConflictSuffix = "#conflict"

// Reconciler merges per-page records into one dataset. Rule-based and
// LLM-assisted implementations are interchangeable; a reconciler error is
// the only thing that fails the integration stage.
type Reconciler interface {
	Reconcile(ctx context.Context, records []extract.Record) (*extract.Dataset, error)
}

func (o *Orchestrator) integrate(ctx context.Context, ext *extract.Extraction) (*extract.Dataset, error) {
	ds, err := o.Reconciler.Reconcile(ctx, ext.Records())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrIntegrationFailed, err)
	}

	// per-page extraction issues stay visible on the final result
	ds.Summary.Issues = append(ds.Summary.Issues, ext.Issues...)

	return ds, nil
}

// RuleReconciler is the default deterministic merge policy: normalize field
// names, key records by their identity fields, first-seen record wins unless
// a later one has strictly more populated fields, conflicts keep both values.
type RuleReconciler struct{}

func NewRuleReconciler() *RuleReconciler {
	return &RuleReconciler{}
}

func (r *RuleReconciler) Reconcile(_ context.Context, records []extract.Record) (*extract.Dataset, error) {
	ds := &extract.Dataset{}
	index := map[string]int{}

	for _, rec := range records {
		fields := normalizeFields(rec.Fields)
		if len(fields) == 0 {
			continue
		}

		key := entityKey(fields)
		at, dup := index[key]
		if !dup {
			index[key] = len(ds.Records)
			ds.Records = append(ds.Records, fields)
			continue
		}

		ds.Summary.DuplicatesRemoved++
		ds.Records[at] = merge(ds.Records[at], fields, &ds.Summary.ConflictsResolved)
	}

	ds.Summary.TotalRecords = len(ds.Records)

	return ds, nil
}

// merge folds a duplicate record into the kept one. The more populated
// record wins; on a tie the first-seen one does. Fields only the loser has
// are copied over; disagreeing fields keep the loser's value under a
// conflict marker.
func merge(kept, incoming map[string]string, conflicts *int) map[string]string {
	winner, loser := kept, incoming
	if populated(incoming) > populated(kept) {
		winner, loser = incoming, kept
	}

	for k, v := range loser {
		if v == "" {
			continue
		}
		if strings.HasSuffix(k, ConflictSuffix) {
			// carry earlier markers over instead of re-judging them
			if winner[k] == "" {
				winner[k] = v
			}
			continue
		}
		switch cur := winner[k]; {
		case cur == "":
			winner[k] = v
		case cur != v:
			winner[k+ConflictSuffix] = v
			*conflicts++
		}
	}

	return winner
}

func populated(fields map[string]string) int {
	var n int
	for _, v := range fields {
		if v != "" {
			n++
		}
	}
	return n
}

// identityFields are tried in order when keying a record; records from
// different pages that describe the same entity usually agree on one of
// these even when the rest of their fields drift.
var identityFields = []string{"id", "sku", "url", "link", "name", "title"}

func entityKey(fields map[string]string) string {
	for _, f := range identityFields {
		if v := fields[f]; v != "" {
			return f + "=" + strings.ToLower(strings.TrimSpace(v))
		}
	}

	// no identity field: key on the whole record
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k + "=" + strings.ToLower(strings.TrimSpace(fields[k])) + ";")
	}
	return b.String()
}

// normalizeFields maps inconsistent per-page field naming onto one
// convention: lower snake_case, trimmed values.
func normalizeFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		k = strings.ToLower(strings.TrimSpace(k))
		k = strings.Join(strings.FieldsFunc(k, func(r rune) bool {
			return r == ' ' || r == '-' || r == '.'
		}), "_")
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// LLMReconciler delegates the merge to the model, for datasets whose
// field-name drift defeats rule-based normalization.
type LLMReconciler struct {
	svc llm.Service
}

func NewLLMReconciler(svc llm.Service) *LLMReconciler {
	return &LLMReconciler{svc: svc}
}

const reconcileInstructions = `You are a data integration specialist. You are
given JSON records extracted from different pages of the same site. Unify
field names that mean the same thing, remove records describing the same
entity (keep the more complete one), and count what you removed or resolved.`

const reconcileSchema = `{"records": [{"field": "value"}], "summary": {"total_records": 0, "duplicates_removed": 0, "conflicts_resolved": 0}}`

func (r *LLMReconciler) Reconcile(ctx context.Context, records []extract.Record) (*extract.Dataset, error) {
	content, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}

	raw, err := r.svc.Run(ctx, llm.Request{
		Content:      string(content),
		Instructions: reconcileInstructions,
		SchemaHint:   reconcileSchema,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Records []map[string]string    `json:"records"`
		Summary extract.DatasetSummary `json:"summary"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return nil, fmt.Errorf("unexpected model output: %w", err)
	}

	ds := &extract.Dataset{Records: out.Records, Summary: out.Summary}
	ds.Summary.TotalRecords = len(out.Records)

	return ds, nil
}
