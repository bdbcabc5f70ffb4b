// Package sqlstorage persists completed datasets to mysql, one table per
// task with columns derived from the extracted field names.
package sqlstorage

import (
	"sort"
	"strings"

	"github.com/dreamerjackson/extractra/extract"
	"github.com/dreamerjackson/extractra/sqldb"
	"go.uber.org/zap"
)

type DatasetStorage struct {
	options
	db sqldb.DBer
}

var _ extract.DataRepository = (*DatasetStorage)(nil)

func New(opts ...Option) (*DatasetStorage, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	db, err := sqldb.New(
		sqldb.WithConnURL(options.sqlURL),
		sqldb.WithLogger(options.logger),
	)
	if err != nil {
		return nil, err
	}

	return &DatasetStorage{options: options, db: db}, nil
}

// Save writes every dataset record into dataset_<taskID>. Records may
// carry different field subsets; missing fields store as empty strings.
func (s *DatasetStorage) Save(taskID string, ds *extract.Dataset) error {
	if ds == nil || len(ds.Records) == 0 {
		return nil
	}

	columns := columnSet(ds.Records)
	fields := make([]sqldb.Field, 0, len(columns))
	for _, c := range columns {
		fields = append(fields, sqldb.Field{Title: c, Type: "MEDIUMTEXT"})
	}

	table := sqldb.TableData{
		TableName:   "dataset_" + sanitize(taskID),
		ColumnNames: fields,
		AutoKey:     true,
	}

	if err := s.db.CreateTable(table); err != nil {
		return err
	}

	for from := 0; from < len(ds.Records); from += s.BatchCount {
		to := from + s.BatchCount
		if to > len(ds.Records) {
			to = len(ds.Records)
		}

		batch := table
		batch.DataCount = to - from
		for _, rec := range ds.Records[from:to] {
			for _, c := range columns {
				batch.Args = append(batch.Args, valueOf(rec, c))
			}
		}

		if err := s.db.Insert(batch); err != nil {
			return err
		}
	}

	s.logger.Info("dataset saved",
		zap.String("task", taskID),
		zap.Int("records", len(ds.Records)),
	)

	return nil
}

// columnSet is the sorted union of field names across all records,
// sanitized for use as column names.
func columnSet(records []map[string]string) []string {
	seen := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			seen[sanitize(k)] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for c := range seen {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	return columns
}

// valueOf reads a record field by sanitized column name.
func valueOf(rec map[string]string, column string) string {
	for k, v := range rec {
		if sanitize(k) == column {
			return v
		}
	}
	return ""
}

// sanitize maps arbitrary field names onto mysql-safe identifiers.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "field"
	}
	return b.String()
}
