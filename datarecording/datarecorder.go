// Package datarecording stores sweep results in a SQL database: SQLite by
// default, or a Postgres or ClickHouse server.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of
	// sampleEntry. An existing table is reused.
	CreateTable(tableName string, sampleEntry any)

	// InsertData writes a same-type entry into a table that already exists
	InsertData(tableName string, entry any)

	// ListTables returns a slice containing names of all tables
	ListTables() []string

	// Flush flushes all the buffered entries into database
	Flush()

	// Close flushes and closes the database.
	Close() error
}

// ErrFileExists is returned by Create when the SQLite file is already there.
var ErrFileExists = errors.New("database file already exists")

// New creates a DataRecorder writing into a new SQLite file and panics if it
// cannot. See Create for how the file is named.
func New(path string) DataRecorder {
	r, err := Create(path)
	if err != nil {
		panic(err)
	}

	return r
}

// Create creates a DataRecorder writing into a new SQLite file. A path
// without an extension gets ".sqlite3" appended, and an empty path picks a
// unique name. An existing file is never reused.
func Create(path string) (DataRecorder, error) {
	w := newWriter(nil, sqliteDialect{})
	w.dbName = path

	if err := w.Init(); err != nil {
		return nil, err
	}

	atexit.Register(func() { w.Flush() })

	return w, nil
}

// SQLiteFilename returns the file Create writes for path.
func SQLiteFilename(path string) string {
	if path == "" {
		path = "retention_" + xid.New().String()
	}

	if filepath.Ext(path) == "" {
		path += ".sqlite3"
	}

	return path
}

// NewWithDB creates a DataRecorder writing into an open SQLite database.
func NewWithDB(db *sql.DB) DataRecorder {
	w := newWriter(db, sqliteDialect{})

	atexit.Register(func() { w.Flush() })

	return w
}

// NewClickHouse creates a DataRecorder writing into an open ClickHouse
// database.
func NewClickHouse(db *sql.DB) DataRecorder {
	w := newWriter(db, clickhouseDialect{})

	atexit.Register(func() { w.Flush() })

	return w
}

// NewPostgres creates a DataRecorder writing into an open Postgres database.
func NewPostgres(db *sql.DB) DataRecorder {
	w := newWriter(db, postgresDialect{})

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqlWriter buffers entries and writes them in batches.
type sqlWriter struct {
	*sql.DB
	dialect dialect

	dbName     string
	tables     map[string]*table
	batchSize  int
	entryCount int
}

func newWriter(db *sql.DB, d dialect) *sqlWriter {
	return &sqlWriter{
		DB:        db,
		dialect:   d,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}
}

// Init creates the SQLite file.
func (t *sqlWriter) Init() error {
	filename := SQLiteFilename(t.dbName)

	_, err := os.Stat(filename)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrFileExists, filename)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", filename, err)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filename, err)
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	t.dbName = filename
	t.DB = db

	return nil
}

// isAllowedType reports whether every backend has a column type for kind.
func isAllowedType(kind reflect.Kind) bool {
	switch {
	case kind == reflect.Bool, kind == reflect.String:
		return true
	case kind >= reflect.Int && kind <= reflect.Float64:
		return kind != reflect.Uintptr
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	st := reflect.TypeOf(entry)
	if st == nil || st.Kind() != reflect.Struct {
		return fmt.Errorf("entry of type %T is not a struct", entry)
	}

	for _, f := range reflect.VisibleFields(st) {
		if !f.IsExported() || !isAllowedType(f.Type.Kind()) {
			return fmt.Errorf("entry field %s of type %s cannot be stored",
				f.Name, f.Type)
		}
	}

	return nil
}

func (t *sqlWriter) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	structType := reflect.TypeOf(sampleEntry)
	t.mustExecute(t.createTableStatement(tableName, structType))

	t.tables[tableName] = &table{
		structType: structType,
		entries:    []any{},
	}
}

func (t *sqlWriter) createTableStatement(
	tableName string,
	structType reflect.Type,
) string {
	columns := make([]string, 0, structType.NumField())

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		columns = append(columns,
			field.Name+" "+t.dialect.columnType(field.Type.Kind()))
	}

	return "CREATE TABLE IF NOT EXISTS " + tableName +
		" (\n\t" + strings.Join(columns, ",\n\t") + "\n)" +
		t.dialect.tableOptions()
}

func (t *sqlWriter) InsertData(tableName string, entry any) {
	table, exists := t.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		panic(fmt.Sprintf("entry of type %T does not fit table %s",
			entry, tableName))
	}

	table.entries = append(table.entries, entry)

	t.entryCount++
	if t.entryCount >= t.batchSize {
		t.Flush()
	}
}

func (t *sqlWriter) ListTables() []string {
	tables := make([]string, 0, len(t.tables))
	for table := range t.tables {
		tables = append(tables, table)
	}

	return tables
}

// Flush writes each table in its own transaction. The ClickHouse driver
// sends only one batch per transaction.
func (t *sqlWriter) Flush() {
	if t.entryCount == 0 {
		return
	}

	for tableName, table := range t.tables {
		if len(table.entries) == 0 {
			continue
		}

		t.insertAll(tableName, table.entries)
		table.entries = nil
	}

	t.entryCount = 0
}

func (t *sqlWriter) insertAll(tableName string, entries []any) {
	tx, err := t.Begin()
	if err != nil {
		panic(err)
	}

	stmt, err := tx.Prepare(t.insertStatement(tableName, entries[0]))
	if err != nil {
		panic(err)
	}

	for _, entry := range entries {
		values := structs.Values(entry)
		for i := range values {
			values[i] = t.dialect.arg(values[i])
		}

		if _, err := stmt.Exec(values...); err != nil {
			panic(err)
		}
	}

	if err := stmt.Close(); err != nil {
		panic(err)
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}
}

func (t *sqlWriter) insertStatement(table string, entry any) string {
	n := structs.Names(entry)
	for i := range n {
		n[i] = t.dialect.placeholder(i + 1)
	}

	entryToFill := "(" + strings.Join(n, ", ") + ")"

	return "INSERT INTO " + table + " VALUES " + entryToFill
}

func (t *sqlWriter) Close() error {
	t.Flush()
	return t.DB.Close()
}

func (t *sqlWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}
