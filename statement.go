package soci

import "strings"

// Statement is a prepared (or one-time) SQL command together with its
// bound into and use descriptors. It coordinates prepare, execute and fetch
// with the backend statement and runs the per-row type conversions.
//
// A statement is owned by exactly one session and, like the session, must
// not be shared across goroutines.
type Statement struct {
	sess    *Session
	backEnd StatementBackend
	query   string
	gen     uint64 // session generation at creation, for reconnect invalidation

	intos    []intoBinding
	uses     []useBinding
	row      *Row
	rowIntos []intoBinding // bindings created for dynamic row columns

	hasIntoElements       bool
	hasVectorIntoElements bool
	hasUseElements        bool
	hasVectorUseElements  bool

	defined          bool
	prepared         bool
	describedColumns []ColumnProperties
}

// newStatement allocates a backend statement for the session.
func newStatement(sess *Session) (*Statement, error) {
	backEnd, err := sess.backEnd.MakeStatement(sess)
	if err != nil {
		return nil, err
	}
	if err := backEnd.Alloc(); err != nil {
		return nil, err
	}
	return &Statement{sess: sess, backEnd: backEnd, gen: sess.generation}, nil
}

// Prepare parses and readies the query for repeated execution.
func (st *Statement) Prepare(query string) error {
	return st.prepare(query, RepeatableQuery)
}

func (st *Statement) prepare(query string, stType StatementType) error {
	if err := st.checkLiveness(); err != nil {
		return err
	}
	st.query = query
	if err := st.backEnd.Prepare(query, stType); err != nil {
		st.sess.logger().Error("Statement prepare failed", "query", query, "error", err)
		return err
	}
	st.prepared = true
	return nil
}

// Query returns the original SQL text of the statement.
func (st *Statement) Query() string { return st.query }

// ExchangeInto attaches an output descriptor. Descriptors bind in
// attachment order.
func (st *Statement) ExchangeInto(d *IntoDescriptor) {
	st.intos = append(st.intos, d)
}

// ExchangeUse attaches an input descriptor.
func (st *Statement) ExchangeUse(d *UseDescriptor) {
	st.uses = append(st.uses, d)
}

// ExchangeRow attaches a dynamic row. Its column bindings are created from
// the described result set on first execution.
func (st *Statement) ExchangeRow(r *Row) {
	st.row = r
}

// binder factories; each records that a binder of its category exists.

func (st *Statement) makeIntoTypeBackend() IntoTypeBackend {
	st.hasIntoElements = true
	return st.backEnd.MakeIntoTypeBackend()
}

func (st *Statement) makeVectorIntoTypeBackend() VectorIntoTypeBackend {
	st.hasVectorIntoElements = true
	return st.backEnd.MakeVectorIntoTypeBackend()
}

func (st *Statement) makeUseTypeBackend() UseTypeBackend {
	st.hasUseElements = true
	return st.backEnd.MakeUseTypeBackend()
}

func (st *Statement) makeVectorUseTypeBackend() VectorUseTypeBackend {
	st.hasVectorUseElements = true
	return st.backEnd.MakeVectorUseTypeBackend()
}

// checkLiveness rejects statements that outlived their session's backend.
func (st *Statement) checkLiveness() error {
	if st.sess == nil || st.backEnd == nil {
		return newError(ErrUsage, "statement used after clean-up")
	}
	if st.gen != st.sess.generation {
		return newError(ErrUsage, "statement invalidated by session reconnect")
	}
	return nil
}

// defineAndBind runs bind on every use descriptor and define on every into
// descriptor, assigning positions in attachment order, and validates that
// use bindings are homogeneously named or positional. Uses bind first so
// that the describe a dynamic row triggers already sees its parameters.
func (st *Statement) defineAndBind() error {
	if st.defined {
		return nil
	}

	named, positional := 0, 0
	position := 1
	for _, d := range st.uses {
		if d.bindName() == "" {
			positional++
		} else {
			named++
		}
		if err := d.bind(st, &position); err != nil {
			return err
		}
	}
	if named > 0 && positional > 0 {
		return newError(ErrBind, "binding for use elements must be either all positional or all named")
	}

	if st.row != nil {
		if err := st.bindRow(); err != nil {
			return err
		}
	}

	position = 1
	for _, d := range st.intos {
		if err := d.define(st, &position); err != nil {
			return err
		}
	}
	for _, d := range st.rowIntos {
		if err := d.define(st, &position); err != nil {
			return err
		}
	}
	st.defined = true
	return nil
}

// bindRow describes the result set and creates one holder-backed binding
// per column.
func (st *Statement) bindRow() error {
	props, err := st.DescribeColumns()
	if err != nil {
		return err
	}
	st.row.cleanUp()
	holders := make([]*holder, len(props))
	for i := range props {
		dbt := st.backEnd.ExchangeDBTypeFor(props[i].DBType())
		holders[i] = newHolder(ExchangeTypeFor(dbt))
		st.row.addColumn(props[i], holders[i])
	}
	for i, h := range holders {
		st.rowIntos = append(st.rowIntos,
			&IntoDescriptor{data: h.addr(), kind: h.kind, ind: st.row.indicatorPtr(i)})
	}
	return nil
}

// intosFetchSize returns the logical batch size of the into bindings and
// validates their consistency.
func (st *Statement) intosFetchSize() (int, error) {
	size := -1
	for _, d := range st.intos {
		if !d.isVector() {
			continue
		}
		n := d.size()
		if n == 0 {
			return 0, newError(ErrUsage, "vectors of size 0 are not allowed")
		}
		if size >= 0 && n != size {
			return 0, newError(ErrUsage, "bulk into sizes differ: %d and %d", size, n)
		}
		size = n
	}
	if size < 0 {
		return 1, nil
	}
	return size, nil
}

// usesBulkSize returns the logical row count of the use bindings and
// validates their consistency.
func (st *Statement) usesBulkSize() (int, error) {
	size := -1
	for _, d := range st.uses {
		if !d.isVector() {
			continue
		}
		n := d.size()
		if n == 0 {
			return 0, newError(ErrUsage, "vectors of size 0 are not allowed")
		}
		if size >= 0 && n != size {
			return 0, newError(ErrUsage, "bulk use sizes differ: %d and %d", size, n)
		}
		size = n
	}
	if size < 0 {
		return 1, nil
	}
	return size, nil
}

// Execute runs the statement. With withDataExchange false the statement
// only executes; with true it additionally exchanges one batch of data:
// input descriptors are consumed and, for queries, the first batch of rows
// lands in the output descriptors. The returned flag reports whether any
// data was exchanged.
func (st *Statement) Execute(withDataExchange bool) (bool, error) {
	if err := st.checkLiveness(); err != nil {
		return false, err
	}
	if err := st.defineAndBind(); err != nil {
		return false, err
	}

	if st.hasVectorIntoElements && st.hasUseElements && !st.hasVectorUseElements {
		return false, newError(ErrUsage, "bulk into cannot be combined with scalar use")
	}
	if st.hasUseElements && st.hasVectorUseElements {
		return false, newError(ErrUsage, "scalar and bulk use cannot be mixed in one statement")
	}

	fetchSize, err := st.intosFetchSize()
	if err != nil {
		return false, err
	}
	bulkSize, err := st.usesBulkSize()
	if err != nil {
		return false, err
	}

	num := 0
	if withDataExchange {
		num = 1
		if len(st.intos)+len(st.rowIntos) > 0 {
			num = fetchSize
		}
		if st.hasVectorUseElements {
			num = bulkSize
		}
	}

	for _, d := range st.allIntos() {
		if err := d.preExec(num); err != nil {
			return false, err
		}
	}
	for _, d := range st.uses {
		if err := d.preExec(num); err != nil {
			return false, err
		}
	}
	if num > 0 {
		for _, d := range st.uses {
			if err := d.preUse(); err != nil {
				return false, err
			}
		}
		for _, d := range st.allIntos() {
			if err := d.preFetch(); err != nil {
				return false, err
			}
		}
	}

	res, err := st.backEnd.Execute(num)
	if err != nil {
		st.sess.logger().Error("Statement execute failed",
			"query", st.query, "parameters", st.dumpUseValues(), "error", err)
		return false, err
	}

	gotData := false
	switch res {
	case Success:
		if num > 0 {
			gotData = true
			if err := st.postFetchAll(true, false); err != nil {
				return false, err
			}
		}
	case NoData:
		// End of rowset inside the first batch: some rows may still have
		// been delivered.
		if fetchSize > 1 {
			gotData, err = st.resizeIntosToDelivered()
			if err != nil {
				return false, err
			}
			if err := st.postFetchAll(gotData, false); err != nil {
				return false, err
			}
		}
	}

	if num > 0 {
		for _, d := range st.uses {
			if err := d.postUse(gotData); err != nil {
				return false, err
			}
		}
	}
	return gotData, nil
}

// Fetch retrieves the next batch of rows into the output descriptors.
// It returns false, without an error, when the rowset is exhausted; rows
// delivered in the same call are still written out (a short batch shrinks
// bulk destinations to the delivered count).
func (st *Statement) Fetch() (bool, error) {
	if err := st.checkLiveness(); err != nil {
		return false, err
	}
	if len(st.allIntos()) == 0 {
		return false, newError(ErrUsage, "fetch without output bindings")
	}

	fetchSize, err := st.intosFetchSize()
	if err != nil {
		return false, err
	}
	for _, d := range st.allIntos() {
		if err := d.preFetch(); err != nil {
			return false, err
		}
	}

	res, err := st.backEnd.Fetch(fetchSize)
	if err != nil {
		st.sess.logger().Error("Statement fetch failed", "query", st.query, "error", err)
		return false, err
	}

	gotData := false
	switch res {
	case Success:
		gotData = true
		if err := st.postFetchAll(true, true); err != nil {
			return false, err
		}
	case NoData:
		if fetchSize > 1 {
			gotData, err = st.resizeIntosToDelivered()
			if err != nil {
				return false, err
			}
		}
		if err := st.postFetchAll(gotData, true); err != nil {
			return false, err
		}
	}
	return gotData, nil
}

func (st *Statement) allIntos() []intoBinding {
	if len(st.rowIntos) == 0 {
		return st.intos
	}
	all := make([]intoBinding, 0, len(st.intos)+len(st.rowIntos))
	all = append(all, st.intos...)
	all = append(all, st.rowIntos...)
	return all
}

func (st *Statement) postFetchAll(gotData, calledFromFetch bool) error {
	for _, d := range st.allIntos() {
		if err := d.postFetch(gotData, calledFromFetch); err != nil {
			return err
		}
	}
	return nil
}

// resizeIntosToDelivered shrinks the bulk output bindings to the number of
// rows the backend actually delivered in the last window. It reports
// whether any rows were delivered.
func (st *Statement) resizeIntosToDelivered() (bool, error) {
	rows := st.backEnd.NumberOfRows()
	if rows < 0 {
		rows = 0
	}
	for _, d := range st.allIntos() {
		if !d.isVector() {
			continue
		}
		if err := d.resize(rows); err != nil {
			return false, err
		}
	}
	return rows > 0, nil
}

// AffectedRows returns the number of rows affected by the last execution,
// accumulated across bulk iterations.
func (st *Statement) AffectedRows() (int64, error) {
	if err := st.checkLiveness(); err != nil {
		return 0, err
	}
	return st.backEnd.AffectedRows()
}

// DescribeColumns runs the query with a one-row limit and reports the
// result columns. The next Execute reuses the pending execution instead of
// running the query again.
func (st *Statement) DescribeColumns() ([]ColumnProperties, error) {
	if err := st.checkLiveness(); err != nil {
		return nil, err
	}
	if st.describedColumns != nil {
		return st.describedColumns, nil
	}
	n, err := st.backEnd.PrepareForDescribe()
	if err != nil {
		return nil, err
	}
	props := make([]ColumnProperties, n)
	for i := 0; i < n; i++ {
		dbt, name, err := st.backEnd.DescribeColumn(i)
		if err != nil {
			return nil, err
		}
		props[i].SetName(name)
		props[i].SetDBType(dbt)
		props[i].SetDataType(st.backEnd.ToDataType(dbt))
	}
	st.describedColumns = props
	return props, nil
}

// ParameterName returns the name of the i-th parsed parameter of the
// prepared query.
func (st *Statement) ParameterName(index int) (string, error) {
	if err := st.checkLiveness(); err != nil {
		return "", err
	}
	return st.backEnd.ParameterName(index)
}

// RewriteForProcedureCall exposes the backend's procedure-call syntax; used
// by the Procedure helper.
func (st *Statement) RewriteForProcedureCall(query string) string {
	return st.backEnd.RewriteForProcedureCall(query)
}

// dumpUseValues renders all bound input values for diagnostics.
func (st *Statement) dumpUseValues() string {
	if len(st.uses) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range st.uses {
		if i > 0 {
			b.WriteString(", ")
		}
		if name := d.bindName(); name != "" {
			b.WriteString(":" + name + "=")
		}
		b.WriteString(d.dumpValue())
	}
	return b.String()
}

// CleanUp releases the descriptors' binders and the backend statement.
// It is safe to call more than once.
func (st *Statement) CleanUp() {
	for _, d := range st.allIntos() {
		d.cleanUp()
	}
	for _, d := range st.uses {
		d.cleanUp()
	}
	if st.backEnd != nil {
		st.backEnd.CleanUp()
		st.backEnd = nil
	}
}

// Close is an alias for CleanUp so statements satisfy the conventional
// closer shape.
func (st *Statement) Close() error {
	st.CleanUp()
	return nil
}
