// Package postgres registers the PostgreSQL backend, built on lib/pq.
// Importing it for side effects makes "postgres://..." connect strings
// work:
//
//	import _ "github.com/pthis/soci/backends/postgres"
package postgres

import (
	"fmt"

	_ "github.com/lib/pq"

	"github.com/pthis/soci"
	"github.com/pthis/soci/backends/sqladapter"
)

// Dialect is the PostgreSQL parameterization of the generic adapter. The
// portable defaults (information_schema metadata, the baseline DDL syntax)
// were modeled on PostgreSQL in the first place, so only the placeholder
// style, sequences and the procedure syntax need saying.
var Dialect = sqladapter.Dialect{
	Name:              "postgres",
	DriverName:        "postgres",
	BindStyle:         soci.BindDollarN,
	QuotedIdentifiers: true,

	ColumnType: columnType,

	SequenceValueQuery: func(sequence string) string {
		return fmt.Sprintf("select nextval('%s')", sequence)
	},

	LastInsertIDQuery: func(string) string {
		return "select lastval()"
	},

	// Functions are invoked through select; there is no call keyword for
	// the procedure helper to target on older servers.
	RewriteProcedureCall: func(query string) string {
		return "select " + query
	},

	EmptyBlob: "lo_creat(-1)",
	Nvl:       "coalesce",
}

// columnType adds the lib/pq internal type names the shared table does not
// cover.
func columnType(name string) (soci.DBType, bool) {
	switch name {
	case "BOOL":
		return soci.DBInt8, true
	case "BPCHAR":
		return soci.DBString, true
	case "TIMETZ", "TIME":
		return soci.DBDate, true
	case "INTERVAL":
		return soci.DBString, true
	}
	return 0, false
}

func init() {
	soci.RegisterBackend(&sqladapter.Backend{Dialect: Dialect})
}
