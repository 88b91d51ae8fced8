package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// QueryParams narrows and orders a query. Where and OrderBy are SQL
// fragments without their keywords. Where marks arguments with "?" for
// every backend.
type QueryParams struct {
	Where   string // "BitErrors > ? AND RunID = ?"
	Args    []any
	OrderBy string // "DecayCycles DESC"

	// Limit of 0 returns every row. Offset only applies with a limit.
	Limit  int
	Offset int
}

// DataReader reads recorded tables back into Go structs.
type DataReader interface {
	// MapTable tells the reader which struct the rows of a table fill.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the mapped tables.
	ListTables() []string

	// Query returns pointers to structs of the mapped type, along with the
	// number of rows matching params.Where regardless of the limit.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

type sqlReader struct {
	*sql.DB
	dialect dialect

	typeMap map[string]reflect.Type
}

// NewReader opens a SQLite file for reading.
func NewReader(dbFilename string) DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return NewReaderWithDB(db)
}

// NewReaderWithDB creates a DataReader on an open SQLite database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return newReader(db, sqliteDialect{})
}

// NewPostgresReader creates a DataReader on an open Postgres database.
func NewPostgresReader(db *sql.DB) DataReader {
	return newReader(db, postgresDialect{})
}

func newReader(db *sql.DB, d dialect) *sqlReader {
	return &sqlReader{
		DB:      db,
		dialect: d,
		typeMap: make(map[string]reflect.Type),
	}
}

func (r *sqlReader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqlReader) ListTables() []string {
	tables := make([]string, 0, len(r.typeMap))
	for table := range r.typeMap {
		tables = append(tables, table)
	}

	return tables
}

func (r *sqlReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	structType, ok := r.typeMap[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("no mapping found for table: %s", tableName)
	}

	where := ""
	if params.Where != "" {
		where = " WHERE " + bindPlaceholders(params.Where, r.dialect)
	}

	var total int

	err := r.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+where, params.Args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM " + tableName + where
	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)

		if params.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", params.Offset)
		}
	}

	rows, err := r.QueryContext(ctx, query, params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := scanRowsToSlice(rows, structType)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", tableName, err)
	}

	return results, total, nil
}

// bindPlaceholders numbers the "?" of a fragment the way the backend wants.
// Question marks inside quoted literals are left alone.
func bindPlaceholders(fragment string, d dialect) string {
	var b strings.Builder

	n := 0
	quoted := false

	for _, c := range fragment {
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteRune(c)
		case c == '?' && !quoted:
			n++
			b.WriteString(d.placeholder(n))
		default:
			b.WriteRune(c)
		}
	}

	return b.String()
}

// scanRowsToSlice matches columns to fields by name, ignoring case because
// Postgres folds unquoted identifiers to lower case. Columns without a field
// are skipped.
func scanRowsToSlice(rows *sql.Rows, structType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldIndex := make(map[string]int, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		fieldIndex[strings.ToLower(structType.Field(i).Name)] = i
	}

	var results []any

	for rows.Next() {
		entry := reflect.New(structType)
		targets := make([]any, len(columns))

		for i, col := range columns {
			idx, ok := fieldIndex[strings.ToLower(col)]
			if !ok {
				targets[i] = new(any)
				continue
			}

			targets[i] = entry.Elem().Field(idx).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, entry.Interface())
	}

	return results, rows.Err()
}

func (r *sqlReader) Close() error {
	return r.DB.Close()
}
