package sqladapter

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/pthis/soci"
)

// StatementBackend implements soci.StatementBackend. It rewrites :name
// parameters to the dialect's placeholder form, executes through the
// session link, and emulates windowed fetching over the streaming
// database/sql row set: each Fetch(n) buffers up to n driver rows and the
// binders distribute them into the bound host variables.
type StatementBackend struct {
	sb *SessionBackend

	query  string   // rewritten text
	names  []string // parameter names per placeholder occurrence
	stType soci.StatementType

	intos  []*intoBinder
	vintos []*vectorIntoBinder
	uses   []*useBinder
	vuses  []*vectorUseBinder

	hasIntoElements       bool
	hasVectorIntoElements bool
	hasUseElements        bool
	hasVectorUseElements  bool

	rows     *sql.Rows
	colTypes []*sql.ColumnType

	window       [][]any // driver rows buffered by the last fetch window
	rowsThisTime int     // rows delivered by the last window
	endOfRowset  bool

	affectedRows  int64
	described     bool   // a describe ran the query; next Execute reuses it
	lastDescribed string // driver type name of the last described column
}

// Alloc implements soci.StatementBackend.
func (st *StatementBackend) Alloc() error { return nil }

// CleanUp implements soci.StatementBackend. Errors closing the driver row
// set are suppressed: clean-up commonly runs while a primary error is
// already propagating.
func (st *StatementBackend) CleanUp() {
	if st.rows != nil {
		_ = st.rows.Close()
		st.rows = nil
	}
	st.window = nil
	st.colTypes = nil
}

// Prepare implements soci.StatementBackend.
func (st *StatementBackend) Prepare(query string, stType soci.StatementType) error {
	parsed := soci.ParseQuery(query, st.sb.dialect.BindStyle, st.sb.dialect.QuotedIdentifiers)
	st.query = parsed.Text
	st.names = parsed.Names
	st.stType = stType
	return nil
}

// RewrittenQuery returns the query in the driver's placeholder form.
func (st *StatementBackend) RewrittenQuery() string { return st.query }

// ParameterName implements soci.StatementBackend.
func (st *StatementBackend) ParameterName(index int) (string, error) {
	if index < 0 || index >= len(st.names) {
		return "", &soci.Error{Category: soci.ErrUsage, Message: "parameter index out of range"}
	}
	return st.names[index], nil
}

// distinctNames returns the parameter names deduplicated in order of first
// occurrence; positional binding assigns one binder per distinct name.
func (st *StatementBackend) distinctNames() []string {
	seen := make(map[string]bool, len(st.names))
	var out []string
	for _, n := range st.names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// buildArgs produces the driver argument list for one execution, resolving
// named binders through the name list and positional binders through the
// distinct occurrence order. bulkRow selects the logical row for vector
// use bindings, -1 for scalar execution.
func (st *StatementBackend) buildArgs(bulkRow int) ([]any, error) {
	if len(st.names) == 0 {
		// The query had native placeholders or none at all; positional
		// binders map one to one.
		var args []any
		for _, u := range st.uses {
			args = append(args, u.arg())
		}
		for _, u := range st.vuses {
			a, err := u.arg(bulkRow)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return args, nil
	}

	byName := make(map[string]argSource)
	named := false
	for _, u := range st.uses {
		if u.name != "" {
			byName[u.name] = u
			named = true
		}
	}
	for _, u := range st.vuses {
		if u.name != "" {
			byName[u.name] = u
			named = true
		}
	}

	if !named {
		// Positional: binder k serves the k-th distinct parameter.
		distinct := st.distinctNames()
		total := len(st.uses) + len(st.vuses)
		if total < len(distinct) {
			return nil, &soci.Error{
				Category: soci.ErrBind,
				Message:  "not enough use elements for the statement parameters",
			}
		}
		for i, n := range distinct {
			if i < len(st.uses) {
				byName[n] = st.uses[i]
			} else {
				byName[n] = st.vuses[i-len(st.uses)]
			}
		}
	}

	args := make([]any, 0, len(st.names))
	for _, n := range st.names {
		src, ok := byName[n]
		if !ok {
			return nil, &soci.Error{
				Category: soci.ErrBind,
				Message:  "no use element bound for parameter \"" + n + "\"",
			}
		}
		switch u := src.(type) {
		case *useBinder:
			args = append(args, u.arg())
		case *vectorUseBinder:
			a, err := u.arg(bulkRow)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
	}
	return args, nil
}

// argSource is either a scalar or a vector use binder.
type argSource any

// producesRows decides whether this statement is executed through the
// query path: anything with output bindings, a dynamic row describe, or a
// select-like first keyword streams rows.
func (st *StatementBackend) producesRows() bool {
	if st.hasIntoElements || st.hasVectorIntoElements || st.described {
		return true
	}
	q := strings.TrimSpace(strings.ToLower(st.query))
	for _, kw := range []string{"select", "with", "values", "show", "pragma", "explain"} {
		if strings.HasPrefix(q, kw) {
			return true
		}
	}
	return false
}

// Execute implements soci.StatementBackend.
func (st *StatementBackend) Execute(number int) (soci.ExecFetchResult, error) {
	// A describe already ran the query with a one-row limit; the open row
	// set carries on serving this execution.
	if st.described && st.rows != nil {
		st.described = false
		if number > 0 {
			return st.Fetch(number)
		}
		return soci.Success, nil
	}
	st.described = false
	st.closeRows()
	st.affectedRows = -1

	if st.hasVectorUseElements {
		return st.executeBulk(number)
	}

	args, err := st.buildArgs(-1)
	if err != nil {
		return 0, err
	}

	if st.producesRows() {
		rows, err := st.sb.link().QueryContext(st.sb.ctx, st.query, args...)
		if err != nil {
			return 0, &soci.Error{Category: soci.ErrExecute, Message: "executing query", Cause: errors.WithStack(err)}
		}
		st.rows = rows
		st.endOfRowset = false
		if st.colTypes, err = rows.ColumnTypes(); err != nil {
			st.closeRows()
			return 0, &soci.Error{Category: soci.ErrExecute, Message: "describing result", Cause: errors.WithStack(err)}
		}
		if number > 0 {
			return st.Fetch(number)
		}
		return soci.Success, nil
	}

	res, err := st.sb.link().ExecContext(st.sb.ctx, st.query, args...)
	if err != nil {
		return 0, &soci.Error{Category: soci.ErrExecute, Message: "executing statement", Cause: errors.WithStack(err)}
	}
	if n, err := res.RowsAffected(); err == nil {
		st.affectedRows = n
	}
	return soci.Success, nil
}

// executeBulk runs the statement once per logical row of the vector use
// bindings, accumulating affected-row counts, which emulates array binding
// for drivers without native support.
func (st *StatementBackend) executeBulk(number int) (soci.ExecFetchResult, error) {
	rowCount := number
	for _, u := range st.vuses {
		if n := u.size(); rowCount <= 0 || n < rowCount {
			rowCount = n
		}
	}
	st.affectedRows = 0
	for r := 0; r < rowCount; r++ {
		args, err := st.buildArgs(r)
		if err != nil {
			return 0, err
		}
		res, err := st.sb.link().ExecContext(st.sb.ctx, st.query, args...)
		if err != nil {
			return 0, &soci.Error{Category: soci.ErrExecute, Message: "executing bulk statement", Cause: errors.WithStack(err)}
		}
		if n, err := res.RowsAffected(); err == nil {
			st.affectedRows += n
		}
	}
	return soci.Success, nil
}

// Fetch implements soci.StatementBackend: it buffers up to number driver
// rows into the current window. NoData reports end of rowset; rows
// delivered in the same window remain valid and are counted by
// NumberOfRows.
func (st *StatementBackend) Fetch(number int) (soci.ExecFetchResult, error) {
	if st.rows == nil {
		return soci.NoData, nil
	}
	if number <= 0 {
		number = 1
	}

	st.window = st.window[:0]
	for len(st.window) < number {
		if !st.rows.Next() {
			if err := st.rows.Err(); err != nil {
				return 0, &soci.Error{Category: soci.ErrFetch, Message: "fetching rows", Cause: errors.WithStack(err)}
			}
			st.endOfRowset = true
			break
		}
		values := make([]any, len(st.colTypes))
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := st.rows.Scan(ptrs...); err != nil {
			return 0, &soci.Error{Category: soci.ErrFetch, Message: "scanning row", Cause: errors.WithStack(err)}
		}
		st.window = append(st.window, values)
	}
	st.rowsThisTime = len(st.window)

	if st.rowsThisTime < number {
		return soci.NoData, nil
	}
	return soci.Success, nil
}

// AffectedRows implements soci.StatementBackend.
func (st *StatementBackend) AffectedRows() (int64, error) {
	return st.affectedRows, nil
}

// NumberOfRows implements soci.StatementBackend.
func (st *StatementBackend) NumberOfRows() int { return st.rowsThisTime }

// RewriteForProcedureCall implements soci.StatementBackend.
func (st *StatementBackend) RewriteForProcedureCall(query string) string {
	if st.sb.dialect.RewriteProcedureCall != nil {
		return st.sb.dialect.RewriteProcedureCall(query)
	}
	return "call " + query
}

// PrepareForDescribe implements soci.StatementBackend: the query is
// actually executed so the driver reports column metadata; the open row
// set is kept for the next Execute to reuse.
func (st *StatementBackend) PrepareForDescribe() (int, error) {
	if st.rows == nil {
		args, err := st.buildArgs(-1)
		if err != nil {
			return 0, err
		}
		rows, err := st.sb.link().QueryContext(st.sb.ctx, st.query, args...)
		if err != nil {
			return 0, &soci.Error{Category: soci.ErrExecute, Message: "executing query for describe", Cause: errors.WithStack(err)}
		}
		st.rows = rows
		st.endOfRowset = false
		if st.colTypes, err = rows.ColumnTypes(); err != nil {
			st.closeRows()
			return 0, &soci.Error{Category: soci.ErrExecute, Message: "describing result", Cause: errors.WithStack(err)}
		}
	}
	st.described = true
	return len(st.colTypes), nil
}

// DescribeColumn implements soci.StatementBackend.
func (st *StatementBackend) DescribeColumn(index int) (soci.DBType, string, error) {
	if index < 0 || index >= len(st.colTypes) {
		return 0, "", &soci.Error{Category: soci.ErrUsage, Message: "column index out of range"}
	}
	ct := st.colTypes[index]
	st.lastDescribed = ct.DatabaseTypeName()
	dbt, ok := st.sb.dialect.columnTypeFor(ct.DatabaseTypeName())
	if !ok {
		return 0, "", &soci.Error{
			Category: soci.ErrType,
			Message:  "unknown database type " + ct.DatabaseTypeName() + " for column \"" + ct.Name() + "\"",
		}
	}
	return dbt, ct.Name(), nil
}

// ToDataType implements soci.StatementBackend.
func (st *StatementBackend) ToDataType(dbt soci.DBType) soci.DataType {
	if st.sb.dialect.ToDataType != nil {
		return st.sb.dialect.ToDataType(dbt, st.lastDescribed)
	}
	return soci.StandardToDataType(dbt)
}

// ExchangeDBTypeFor implements soci.StatementBackend.
func (st *StatementBackend) ExchangeDBTypeFor(dbt soci.DBType) soci.DBType {
	if st.sb.dialect.ExchangeDBTypeFor != nil {
		return st.sb.dialect.ExchangeDBTypeFor(dbt)
	}
	return dbt
}

// MakeIntoTypeBackend implements soci.StatementBackend.
func (st *StatementBackend) MakeIntoTypeBackend() soci.IntoTypeBackend {
	st.hasIntoElements = true
	b := &intoBinder{st: st}
	st.intos = append(st.intos, b)
	return b
}

// MakeUseTypeBackend implements soci.StatementBackend.
func (st *StatementBackend) MakeUseTypeBackend() soci.UseTypeBackend {
	st.hasUseElements = true
	b := &useBinder{st: st}
	st.uses = append(st.uses, b)
	return b
}

// MakeVectorIntoTypeBackend implements soci.StatementBackend.
func (st *StatementBackend) MakeVectorIntoTypeBackend() soci.VectorIntoTypeBackend {
	st.hasVectorIntoElements = true
	b := &vectorIntoBinder{st: st}
	st.vintos = append(st.vintos, b)
	return b
}

// MakeVectorUseTypeBackend implements soci.StatementBackend.
func (st *StatementBackend) MakeVectorUseTypeBackend() soci.VectorUseTypeBackend {
	st.hasVectorUseElements = true
	b := &vectorUseBinder{st: st}
	st.vuses = append(st.vuses, b)
	return b
}

func (st *StatementBackend) closeRows() {
	if st.rows != nil {
		_ = st.rows.Close()
		st.rows = nil
	}
	st.colTypes = nil
	st.window = nil
	st.rowsThisTime = 0
	st.endOfRowset = false
}

// removeIntoBinder detaches a binder on clean-up.
func (st *StatementBackend) removeIntoBinder(b *intoBinder) {
	for i, x := range st.intos {
		if x == b {
			st.intos = append(st.intos[:i], st.intos[i+1:]...)
			return
		}
	}
}

func (st *StatementBackend) removeVectorIntoBinder(b *vectorIntoBinder) {
	for i, x := range st.vintos {
		if x == b {
			st.vintos = append(st.vintos[:i], st.vintos[i+1:]...)
			return
		}
	}
}

func (st *StatementBackend) removeUseBinder(b *useBinder) {
	for i, x := range st.uses {
		if x == b {
			st.uses = append(st.uses[:i], st.uses[i+1:]...)
			return
		}
	}
}

func (st *StatementBackend) removeVectorUseBinder(b *vectorUseBinder) {
	for i, x := range st.vuses {
		if x == b {
			st.vuses = append(st.vuses[:i], st.vuses[i+1:]...)
			return
		}
	}
}
