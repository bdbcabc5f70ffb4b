package extract

// Page is one URL selected by the discovery stage.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type RecordMeta struct {
	DurationMs int64 `json:"duration_ms"`
	ByteSize   int   `json:"byte_size"`
}

// Record holds the fields extracted from a single page. Pages that fail
// completely produce no Record; the failure is kept as a stage issue instead.
type Record struct {
	SourceURL string            `json:"source_url"`
	Fields    map[string]string `json:"fields"`
	Meta      RecordMeta        `json:"meta"`
	Issues    []string          `json:"issues,omitempty"`
}

// Populated counts non-empty field values, the measure used when two
// records compete for the same entity.
func (r *Record) Populated() int {
	var n int
	for _, v := range r.Fields {
		if v != "" {
			n++
		}
	}
	return n
}

// Extraction is the output of the content extraction stage: the main page
// record (nil when the main page itself failed), sub-page records in
// discovery order, and the per-page problems hit along the way.
type Extraction struct {
	Main   *Record  `json:"main,omitempty"`
	Subs   []Record `json:"subs"`
	Issues []string `json:"issues,omitempty"`
}

// Records flattens main + subs preserving discovery order.
func (e *Extraction) Records() []Record {
	out := make([]Record, 0, len(e.Subs)+1)
	if e.Main != nil {
		out = append(out, *e.Main)
	}
	out = append(out, e.Subs...)
	return out
}

type DatasetSummary struct {
	TotalRecords      int      `json:"total_records"`
	DuplicatesRemoved int      `json:"duplicates_removed"`
	ConflictsResolved int      `json:"conflicts_resolved"`
	Issues            []string `json:"issues,omitempty"`
}

// Dataset is the integrated result of a completed task.
type Dataset struct {
	Records []map[string]string `json:"records"`
	Summary DatasetSummary      `json:"summary"`
}

// Clone deep-copies the dataset so store readers never share mutable state
// with the pipeline.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{Summary: d.Summary}
	out.Summary.Issues = append([]string(nil), d.Summary.Issues...)
	out.Records = make([]map[string]string, 0, len(d.Records))
	for _, r := range d.Records {
		m := make(map[string]string, len(r))
		for k, v := range r {
			m[k] = v
		}
		out.Records = append(out.Records, m)
	}
	return out
}
