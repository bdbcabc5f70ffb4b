// Package sqldb is a thin mysql layer: dynamic table creation and batched
// inserts driven by TableData descriptors.
package sqldb

import (
	"database/sql"
	"errors"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

type DBer interface {
	CreateTable(t TableData) error
	Insert(t TableData) error
}

type Field struct {
	Title string
	Type  string
}

// TableData describes one DDL or batched-insert statement. Args holds
// DataCount rows worth of values, row-major, in ColumnNames order.
type TableData struct {
	TableName   string
	ColumnNames []Field
	Args        []interface{}
	DataCount   int
	AutoKey     bool
}

type Sqldb struct {
	options
	db *sql.DB
}

func New(opts ...Option) (*Sqldb, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	d := &Sqldb{}
	d.options = options

	if err := d.OpenDB(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Sqldb) OpenDB() error {
	db, err := sql.Open("mysql", d.connURL)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(d.maxOpenConns)
	db.SetMaxIdleConns(d.maxOpenConns)

	if err = db.Ping(); err != nil {
		return err
	}

	d.db = db

	return nil
}

func (d *Sqldb) CreateTable(t TableData) error {
	stmt, err := CreateTableSQL(t)
	if err != nil {
		return err
	}

	d.logger.Debug("create table", zap.String("sql", stmt))
	_, err = d.db.Exec(stmt)

	return err
}

func (d *Sqldb) DropTable(t TableData) error {
	stmt := `DROP TABLE ` + "`" + t.TableName + "`"

	d.logger.Debug("drop table", zap.String("sql", stmt))
	_, err := d.db.Exec(stmt)

	return err
}

func (d *Sqldb) Insert(t TableData) error {
	stmt, err := InsertSQL(t)
	if err != nil {
		return err
	}

	d.logger.Debug("insert table", zap.String("sql", stmt))
	_, err = d.db.Exec(stmt, t.Args...)

	return err
}

// CreateTableSQL renders the CREATE TABLE statement for t. Column names are
// backquoted since they come from extracted field names.
func CreateTableSQL(t TableData) (string, error) {
	if len(t.ColumnNames) == 0 {
		return "", errors.New("column can not be empty")
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS `" + t.TableName + "` (")

	if t.AutoKey {
		b.WriteString("id INT(12) NOT NULL PRIMARY KEY AUTO_INCREMENT,")
	}

	for i, c := range t.ColumnNames {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("`" + c.Title + "` " + c.Type)
	}

	b.WriteString(") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;")

	return b.String(), nil
}

// InsertSQL renders the multi-row INSERT statement for t, with one
// placeholder group per row.
func InsertSQL(t TableData) (string, error) {
	if len(t.ColumnNames) == 0 {
		return "", errors.New("empty column")
	}
	if t.DataCount <= 0 {
		return "", errors.New("empty rows")
	}

	var b strings.Builder
	b.WriteString("INSERT INTO `" + t.TableName + "` (")

	for i, c := range t.ColumnNames {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("`" + c.Title + "`")
	}

	b.WriteString(") VALUES ")

	row := "(" + strings.Repeat(",?", len(t.ColumnNames))[1:] + ")"
	b.WriteString(strings.Repeat(","+row, t.DataCount)[1:] + ";")

	return b.String(), nil
}
