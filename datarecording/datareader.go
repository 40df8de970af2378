package datarecording

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// ErrUnknownTable is returned when a recording has no table of that name.
var ErrUnknownTable = errors.New("datarecording: unknown table")

// A Filter narrows down the rows read from a table. The zero value selects
// every row in the order it was recorded.
type Filter struct {
	// Where is an SQL condition with ? placeholders, filled from Args.
	Where string
	Args  []any

	OrderBy string
	Limit   int
}

func (f Filter) where() string {
	if f.Where == "" {
		return ""
	}

	return " WHERE " + f.Where
}

func (f Filter) clause() string {
	var b strings.Builder

	b.WriteString(f.where())

	if f.OrderBy != "" {
		b.WriteString(" ORDER BY " + f.OrderBy)
	} else {
		b.WriteString(" ORDER BY rowid")
	}

	if f.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", f.Limit)
	}

	return b.String()
}

// Reader reads back a recording written by a DataRecorder.
type Reader struct {
	db *sql.DB
}

// OpenReader opens a recording file for reading. The file is never
// modified.
func OpenReader(filename string) (*Reader, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+filename+"?mode=ro")
	if err != nil {
		return nil, err
	}

	return &Reader{db: db}, nil
}

// NewReaderWithDB creates a Reader over an open database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Tables lists the tables of the recording in the order they were created.
func (r *Reader) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// HasTable tells if the recording contains a table.
func (r *Reader) HasTable(ctx context.Context, table string) (bool, error) {
	var n int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		table).Scan(&n)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Count returns the number of rows of a table that pass the filter. Order
// and limit are ignored.
func (r *Reader) Count(
	ctx context.Context,
	table string,
	f Filter,
) (int, error) {
	if err := r.mustHaveTable(ctx, table); err != nil {
		return 0, err
	}

	var n int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+f.where(), f.Args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}

	return n, nil
}

// Close closes the recording.
func (r *Reader) Close() error {
	return r.db.Close()
}

func (r *Reader) mustHaveTable(ctx context.Context, table string) error {
	ok, err := r.HasTable(ctx, table)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	return nil
}

// Read decodes the rows of a table into values of T, the struct type that
// was used to create the table. Columns are matched to fields by name and
// columns without a field are skipped.
func Read[T any](
	ctx context.Context,
	r *Reader,
	table string,
	f Filter,
) ([]T, error) {
	var sample T
	if err := checkStructFields(sample); err != nil {
		return nil, err
	}

	if err := r.mustHaveTable(ctx, table); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM "+table+f.clause(), f.Args...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fields := fieldIndices(reflect.TypeOf(sample), columns)

	var results []T

	for rows.Next() {
		var entry T

		if err := rows.Scan(scanTargets(&entry, fields)...); err != nil {
			return nil, fmt.Errorf("reading %s: %w", table, err)
		}

		results = append(results, entry)
	}

	return results, rows.Err()
}

// fieldIndices maps each column to the index of the field with the same
// name, or -1.
func fieldIndices(t reflect.Type, columns []string) []int {
	indices := make([]int, len(columns))

	for i, column := range columns {
		indices[i] = -1

		if field, ok := t.FieldByName(column); ok {
			indices[i] = field.Index[0]
		}
	}

	return indices
}

func scanTargets(entry any, fields []int) []any {
	v := reflect.ValueOf(entry).Elem()
	targets := make([]any, len(fields))

	for i, field := range fields {
		if field < 0 {
			targets[i] = new(any)
			continue
		}

		targets[i] = v.Field(field).Addr().Interface()
	}

	return targets
}
