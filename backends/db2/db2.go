// Package db2 registers the DB2 backend, built on ibmdb/go_ibm_db.
// Importing it for side effects makes "db2:DATABASE=...;HOSTNAME=..."
// connect strings work:
//
//	import _ "github.com/pthis/soci/backends/db2"
package db2

import (
	"fmt"
	"strings"

	_ "github.com/ibmdb/go_ibm_db"

	"github.com/pthis/soci"
	"github.com/pthis/soci/backends/sqladapter"
)

// Dialect is the DB2 parameterization of the generic adapter.
var Dialect = sqladapter.Dialect{
	Name:              "db2",
	DriverName:        "go_ibm_db",
	BindStyle:         soci.BindQuestionMark,
	QuotedIdentifiers: true,

	DummyTable: "sysibm.sysdummy1",

	TableNamesQuery: `select tabname as "TABLE_NAME"` +
		` from syscat.tables` +
		` where tabschema = current_schema`,

	ColumnDescriptionsQuery: `select colname as "COLUMN_NAME",` +
		` typename as "DATA_TYPE",` +
		` length as "CHARACTER_MAXIMUM_LENGTH",` +
		` length as "NUMERIC_PRECISION",` +
		` scale as "NUMERIC_SCALE",` +
		` case when nulls = 'Y' then 'YES' else 'NO' end as "IS_NULLABLE"` +
		` from syscat.columns` +
		` where tabname = :t`,

	ColumnType: columnType,

	ConnString: connString,

	SequenceValueQuery: func(sequence string) string {
		return fmt.Sprintf("select next value for %s from sysibm.sysdummy1", sequence)
	},

	LastInsertIDQuery: func(string) string {
		return "select identity_val_local() from sysibm.sysdummy1"
	},

	RewriteProcedureCall: func(query string) string {
		return "call " + query
	},

	CreateColumnType: func(dt soci.DBType, precision, scale int) (string, bool) {
		switch dt {
		case soci.DBBlob:
			return "blob", true
		case soci.DBXML:
			return "xml", true
		}
		return "", false
	},

	EmptyBlob: "blob('')",
	Nvl:       "coalesce",
}

// columnType adds the DB2 catalog type names the shared table does not
// cover.
func columnType(name string) (soci.DBType, bool) {
	switch strings.ToUpper(name) {
	case "VARGRAPHIC", "GRAPHIC", "DBCLOB":
		return soci.DBWString, true
	case "DECFLOAT":
		return soci.DBDouble, true
	case "TIMESTMP":
		return soci.DBDate, true
	}
	return 0, false
}

// connString strips the library's own options out of the key=value connect
// string; the remaining pairs go to the driver as-is.
func connString(params soci.ConnectionParameters) (string, error) {
	pairs := sqladapter.ParseKeyValuePairs(params.ConnectString)
	kept := pairs[:0]
	for _, p := range pairs {
		switch strings.ToLower(p.Key) {
		case soci.OptionReconnect, soci.OptionDriverComplete:
			continue
		}
		kept = append(kept, p)
	}
	return sqladapter.JoinKeyValuePairs(kept), nil
}

func init() {
	soci.RegisterBackend(&sqladapter.Backend{Dialect: Dialect})
}
