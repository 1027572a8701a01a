// Package sqladapter implements the soci backend contract on top of
// database/sql. A driver package parameterizes it with a Dialect — bind
// style, metadata queries, type mapping, auto-id strategy and the quirk
// hooks — and registers the resulting backend under its name.
package sqladapter

import (
	"strings"

	"github.com/pthis/soci"
)

// Dialect carries everything driver-specific the adapter needs. Zero
// fields fall back to portable defaults (information_schema metadata,
// PostgreSQL-baseline DDL syntax, question-mark placeholders).
type Dialect struct {
	// Name is the backend name used for registration and connect strings.
	Name string

	// DriverName is the database/sql driver to open.
	DriverName string

	// BindStyle selects the native placeholder form.
	BindStyle soci.BindStyle

	// QuotedIdentifiers enables pass-through of "quoted identifiers"
	// during parameter parsing.
	QuotedIdentifiers bool

	// DummyTable is the table used in "select ... from <dummy>"; empty
	// when the database accepts a from-less select.
	DummyTable string

	// TableNamesQuery overrides the information_schema table listing.
	TableNamesQuery string

	// ColumnDescriptionsQuery overrides the information_schema column
	// listing; it takes one :t parameter.
	ColumnDescriptionsQuery string

	// ColumnType maps a driver-reported database type name (as returned
	// by sql.ColumnType.DatabaseTypeName) onto a fine type tag.
	ColumnType func(databaseTypeName string) (soci.DBType, bool)

	// ExchangeDBTypeFor widens or corrects a deduced column type before
	// dynamic fetching; SQLite needs this because its column types are
	// inferred.
	ExchangeDBTypeFor func(soci.DBType) soci.DBType

	// ToDataType overrides the projection onto legacy coarse tags for
	// drivers with historical deviations. The driver-reported type name of
	// the most recently described column is passed along because some
	// deviations (MySQL's MEDIUMINT UNSIGNED) are invisible in the fine
	// tag alone.
	ToDataType func(dbt soci.DBType, lastDescribedTypeName string) soci.DataType

	// SequenceValueQuery returns the query producing the next value of a
	// sequence; nil when the database has no sequences.
	SequenceValueQuery func(sequence string) string

	// LastInsertIDQuery returns the query producing the last
	// auto-generated id for a table; nil when unsupported.
	LastInsertIDQuery func(table string) string

	// RewriteProcedureCall maps "proc(:a, :b)" onto the native call
	// syntax.
	RewriteProcedureCall func(query string) string

	// ConnString translates connection parameters into the driver's DSN.
	// nil passes the connect string through untouched.
	ConnString func(params soci.ConnectionParameters) (string, error)

	// CreateColumnType overrides the DDL column-type syntax for tags the
	// PostgreSQL-baseline default gets wrong for this driver.
	CreateColumnType func(dt soci.DBType, precision, scale int) (string, bool)

	// EmptyBlob is the expression creating an empty large object.
	EmptyBlob string

	// Nvl is the name of the null-coalescing function.
	Nvl string
}

const (
	defaultTableNamesQuery = `select table_name as "TABLE_NAME"` +
		` from information_schema.tables` +
		` where table_schema = 'public'`

	defaultColumnDescriptionsQuery = `select column_name as "COLUMN_NAME",` +
		` data_type as "DATA_TYPE",` +
		` character_maximum_length as "CHARACTER_MAXIMUM_LENGTH",` +
		` numeric_precision as "NUMERIC_PRECISION",` +
		` numeric_scale as "NUMERIC_SCALE",` +
		` is_nullable as "IS_NULLABLE"` +
		` from information_schema.columns` +
		` where table_schema = 'public' and table_name = :t`
)

func (d *Dialect) tableNamesQuery() string {
	if d.TableNamesQuery != "" {
		return d.TableNamesQuery
	}
	return defaultTableNamesQuery
}

func (d *Dialect) columnDescriptionsQuery() string {
	if d.ColumnDescriptionsQuery != "" {
		return d.ColumnDescriptionsQuery
	}
	return defaultColumnDescriptionsQuery
}

func (d *Dialect) emptyBlob() string {
	if d.EmptyBlob != "" {
		return d.EmptyBlob
	}
	return "x''"
}

func (d *Dialect) nvl() string {
	if d.Nvl != "" {
		return d.Nvl
	}
	return "coalesce"
}

// columnTypeFor resolves a driver-reported type name, falling back to a
// portable name table shared by all ANSI-ish drivers.
func (d *Dialect) columnTypeFor(databaseTypeName string) (soci.DBType, bool) {
	if d.ColumnType != nil {
		if dbt, ok := d.ColumnType(databaseTypeName); ok {
			return dbt, true
		}
	}
	return standardColumnType(databaseTypeName)
}

// standardColumnType maps the ANSI and common vendor type names onto fine
// type tags.
func standardColumnType(name string) (soci.DBType, bool) {
	switch strings.ToUpper(name) {
	case "CHAR", "VARCHAR", "TEXT", "CLOB", "CHARACTER", "CHARACTER VARYING",
		"NAME", "ENUM", "SET", "UUID", "JSON", "JSONB":
		return soci.DBString, true
	case "NCHAR", "NVARCHAR", "NTEXT", "NCLOB":
		return soci.DBWString, true
	case "TINYINT":
		return soci.DBInt8, true
	case "TINYINT UNSIGNED", "UNSIGNED TINYINT":
		return soci.DBUint8, true
	case "SMALLINT", "INT2":
		return soci.DBInt16, true
	case "SMALLINT UNSIGNED", "UNSIGNED SMALLINT":
		return soci.DBUint16, true
	case "INT", "INTEGER", "INT4", "MEDIUMINT", "SERIAL":
		return soci.DBInt32, true
	case "INT UNSIGNED", "INTEGER UNSIGNED", "UNSIGNED INT", "MEDIUMINT UNSIGNED":
		return soci.DBUint32, true
	case "BIGINT", "INT8", "BIGSERIAL":
		return soci.DBInt64, true
	case "BIGINT UNSIGNED", "UNSIGNED BIGINT":
		return soci.DBUint64, true
	case "FLOAT", "REAL", "DOUBLE", "DOUBLE PRECISION", "FLOAT4", "FLOAT8",
		"NUMERIC", "DECIMAL", "NUMBER", "MONEY":
		return soci.DBDouble, true
	case "DATE", "TIME", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ",
		"TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITHOUT TIME ZONE":
		return soci.DBDate, true
	case "BLOB", "BYTEA", "BINARY", "VARBINARY", "LONGBLOB", "MEDIUMBLOB",
		"TINYBLOB", "IMAGE", "OID":
		return soci.DBBlob, true
	case "XML", "XMLTYPE":
		return soci.DBXML, true
	}
	return 0, false
}
