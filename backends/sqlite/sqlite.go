// Package sqlite registers the SQLite backend, built on mattn/go-sqlite3.
// Importing it for side effects makes "sqlite:..." connect strings work:
//
//	import _ "github.com/pthis/soci/backends/sqlite"
package sqlite

import (
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pthis/soci"
	"github.com/pthis/soci/backends/sqladapter"
)

// Dialect is the SQLite parameterization of the generic adapter.
var Dialect = sqladapter.Dialect{
	Name:              "sqlite",
	DriverName:        "sqlite3",
	BindStyle:         soci.BindQuestionMark,
	QuotedIdentifiers: true,

	TableNamesQuery: `select name as "TABLE_NAME" from sqlite_master where type = 'table'`,

	ColumnDescriptionsQuery: `select name as "COLUMN_NAME",` +
		` type as "DATA_TYPE",` +
		` null as "CHARACTER_MAXIMUM_LENGTH",` +
		` null as "NUMERIC_PRECISION",` +
		` null as "NUMERIC_SCALE",` +
		` case when "notnull" = 0 then 'YES' else 'NO' end as "IS_NULLABLE"` +
		` from pragma_table_info(:t)`,

	ColumnType: columnType,

	// SQLite column types are declarations, not constraints: any integer
	// column can hold a 64-bit value and any text column arbitrary text,
	// so dynamic fetching widens the deduced tag.
	ExchangeDBTypeFor: func(dbt soci.DBType) soci.DBType {
		switch dbt {
		case soci.DBInt8, soci.DBInt16, soci.DBInt32:
			return soci.DBInt64
		case soci.DBUint8, soci.DBUint16, soci.DBUint32:
			return soci.DBUint64
		}
		return dbt
	},

	LastInsertIDQuery: func(string) string {
		return "select last_insert_rowid()"
	},

	// SQLite has no stored procedures; the helper text runs as-is.
	RewriteProcedureCall: func(query string) string { return query },

	CreateColumnType: func(dt soci.DBType, precision, scale int) (string, bool) {
		switch dt {
		case soci.DBBlob:
			return "blob", true
		case soci.DBXML:
			return "text", true
		}
		return "", false
	},

	EmptyBlob: "x''",
	Nvl:       "ifnull",
}

// columnType maps declared SQLite column types onto fine tags. The
// declared type is free text, so matching is by affinity-style substring
// only; an undeclared column, and one whose declared type matches no
// affinity, defaults to string, like the C API's text fallback. Every name
// is reported as known, so the adapter's shared type table is never used.
func columnType(name string) (soci.DBType, bool) {
	if name == "" {
		return soci.DBString, true
	}
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "INT"):
		if strings.Contains(upper, "BIG") {
			return soci.DBInt64, true
		}
		return soci.DBInt32, true
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "TEXT"),
		strings.Contains(upper, "CLOB"):
		return soci.DBString, true
	case strings.Contains(upper, "BLOB"):
		return soci.DBBlob, true
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"),
		strings.Contains(upper, "DOUB"), strings.Contains(upper, "NUMERIC"),
		strings.Contains(upper, "DECIMAL"):
		return soci.DBDouble, true
	case strings.Contains(upper, "DATE"), strings.Contains(upper, "TIME"):
		return soci.DBDate, true
	}
	return soci.DBString, true
}

func init() {
	soci.RegisterBackend(&sqladapter.Backend{Dialect: Dialect})
}
