package datarecording

import (
	"reflect"
	"strconv"
)

// dialect covers what differs between the SQL backends.
type dialect interface {
	placeholder(n int) string
	columnType(kind reflect.Kind) string

	// tableOptions is appended to CREATE TABLE.
	tableOptions() string

	// arg converts a field value into what the driver accepts.
	arg(v any) any
}

type sqliteDialect struct{}

func (sqliteDialect) placeholder(int) string {
	return "?"
}

func (sqliteDialect) columnType(kind reflect.Kind) string {
	switch kind {
	case reflect.Float32, reflect.Float64:
		return "REAL"
	case reflect.String:
		return "TEXT"
	default:
		return "INTEGER"
	}
}

func (sqliteDialect) tableOptions() string { return "" }

func (sqliteDialect) arg(v any) any { return v }

type postgresDialect struct{}

func (postgresDialect) placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (postgresDialect) columnType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Float32, reflect.Float64:
		return "DOUBLE PRECISION"
	case reflect.String:
		return "TEXT"
	default:
		return "BIGINT"
	}
}

func (postgresDialect) tableOptions() string { return "" }

func (postgresDialect) arg(v any) any { return v }

// clickhouseDialect maps every kind to the column type of the same width,
// because the driver does not convert between integer widths.
type clickhouseDialect struct{}

func (clickhouseDialect) placeholder(int) string {
	return "?"
}

var clickhouseTypes = map[reflect.Kind]string{
	reflect.Bool:    "Bool",
	reflect.Int:     "Int64",
	reflect.Int8:    "Int8",
	reflect.Int16:   "Int16",
	reflect.Int32:   "Int32",
	reflect.Int64:   "Int64",
	reflect.Uint:    "UInt64",
	reflect.Uint8:   "UInt8",
	reflect.Uint16:  "UInt16",
	reflect.Uint32:  "UInt32",
	reflect.Uint64:  "UInt64",
	reflect.Float32: "Float32",
	reflect.Float64: "Float64",
	reflect.String:  "String",
}

func (clickhouseDialect) columnType(kind reflect.Kind) string {
	return clickhouseTypes[kind]
}

func (clickhouseDialect) tableOptions() string {
	return " ENGINE = MergeTree ORDER BY tuple()"
}

func (clickhouseDialect) arg(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case uint:
		return uint64(x)
	default:
		return v
	}
}
