// Package mysql registers the MySQL backend, built on go-sql-driver/mysql.
// Importing it for side effects makes "mysql://..." connect strings work:
//
//	import _ "github.com/pthis/soci/backends/mysql"
package mysql

import (
	_ "github.com/go-sql-driver/mysql"

	"github.com/pthis/soci"
	"github.com/pthis/soci/backends/sqladapter"
)

// Dialect is the MySQL parameterization of the generic adapter.
var Dialect = sqladapter.Dialect{
	Name:       "mysql",
	DriverName: "mysql",
	BindStyle:  soci.BindQuestionMark,
	// MySQL quotes identifiers with backticks; double quotes are plain
	// strings unless ANSI_QUOTES is on, so the parser must not treat them
	// specially.
	QuotedIdentifiers: false,

	DummyTable: "dual",

	TableNamesQuery: `select table_name as "TABLE_NAME"` +
		` from information_schema.tables` +
		` where table_schema = database()`,

	ColumnDescriptionsQuery: `select column_name as "COLUMN_NAME",` +
		` data_type as "DATA_TYPE",` +
		` character_maximum_length as "CHARACTER_MAXIMUM_LENGTH",` +
		` numeric_precision as "NUMERIC_PRECISION",` +
		` numeric_scale as "NUMERIC_SCALE",` +
		` is_nullable as "IS_NULLABLE"` +
		` from information_schema.columns` +
		` where table_schema = database() and table_name = :t`,

	ColumnType: columnType,

	ToDataType: toDataType,

	LastInsertIDQuery: func(string) string {
		return "select last_insert_id()"
	},

	RewriteProcedureCall: func(query string) string {
		return "call " + query
	},

	CreateColumnType: func(dt soci.DBType, precision, scale int) (string, bool) {
		switch dt {
		case soci.DBDate:
			return "datetime", true
		case soci.DBBlob:
			return "blob", true
		case soci.DBXML:
			return "text", true
		}
		return "", false
	},

	EmptyBlob: "''",
	Nvl:       "ifnull",
}

// columnType adds the driver type names the shared table does not cover.
func columnType(name string) (soci.DBType, bool) {
	switch name {
	case "UNSIGNED MEDIUMINT":
		return soci.DBUint32, true
	case "YEAR":
		return soci.DBInt16, true
	case "BIT":
		return soci.DBBlob, true
	case "GEOMETRY":
		return soci.DBBlob, true
	case "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "VARSTRING", "STRING":
		return soci.DBString, true
	}
	return 0, false
}

// toDataType keeps the historical coarse projection: MEDIUMINT UNSIGNED
// maps to the plain integer tag even though its fine tag is uint32,
// because its whole value range fits and callers depended on it.
func toDataType(dbt soci.DBType, lastDescribedTypeName string) soci.DataType {
	if dbt == soci.DBUint32 && lastDescribedTypeName == "UNSIGNED MEDIUMINT" {
		return soci.DTInteger
	}
	return soci.StandardToDataType(dbt)
}

func init() {
	soci.RegisterBackend(&sqladapter.Backend{Dialect: Dialect})
}
