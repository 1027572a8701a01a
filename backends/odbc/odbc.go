// Package odbc registers the ODBC bridge backend, built on
// alexbrainman/odbc. Importing it for side effects makes "odbc:DSN=..."
// connect strings work:
//
//	import _ "github.com/pthis/soci/backends/odbc"
package odbc

import (
	"strings"

	_ "github.com/alexbrainman/odbc"

	"github.com/pthis/soci"
	"github.com/pthis/soci/backends/sqladapter"
)

// Dialect is the ODBC parameterization of the generic adapter. The bridge
// serves whatever database the DSN points at, so the metadata defaults stay
// on information_schema and the coarse type mapping on the shared table.
var Dialect = sqladapter.Dialect{
	Name:              "odbc",
	DriverName:        "odbc",
	BindStyle:         soci.BindQuestionMark,
	QuotedIdentifiers: true,

	ConnString: connString,

	// Works across the drivers that matter for the bridge (SQL Server,
	// Access); databases with sequences are reachable through plain SQL.
	LastInsertIDQuery: func(string) string {
		return "select @@identity"
	},

	RewriteProcedureCall: func(query string) string {
		return "{call " + query + "}"
	},
}

// connString strips the library's own key=value options out of the
// semicolon-separated ODBC connect string before handing it to the driver
// manager. The prompt-completion option has no effect here: the Go driver
// always connects without a dialog, which is also what the option's
// no-prompt mode asks for after a reconnect.
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
