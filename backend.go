package soci

// This file defines the contract between the statement/session front end and
// a driver. A driver implements the full interface set for one RDBMS and
// registers a Backend factory under its name; everything else in the library
// is written against these interfaces only.

// Backend creates session backends for one registered driver.
type Backend interface {
	// Name returns the registered backend name, e.g. "sqlite" or "postgres".
	Name() string

	// MakeSession connects to the database described by the parameters and
	// returns a live session backend.
	MakeSession(params ConnectionParameters) (SessionBackend, error)
}

// SessionBackend is one live connection as seen by the session facade.
type SessionBackend interface {
	// IsConnected reports whether the underlying connection is still usable.
	IsConnected() bool

	Begin() error
	Commit() error
	Rollback() error

	// GetNextSequenceValue returns the next value of the named sequence.
	// The second result is false when the driver has no sequence support;
	// every driver implements at least one of this pair so that
	// auto-generated keys can be read portably.
	GetNextSequenceValue(sess *Session, sequence string) (int64, bool, error)

	// GetLastInsertID returns the last automatically generated value for the
	// given table. The second result is false when the driver cannot do it.
	GetLastInsertID(sess *Session, table string) (int64, bool, error)

	// TableNamesQuery returns a parameterless query producing the table
	// names of the current schema.
	TableNamesQuery() string

	// ColumnDescriptionsQuery returns a query with a single :t parameter
	// producing the column descriptions of one table.
	ColumnDescriptionsQuery() string

	// DDL text producers. CreateColumnType reports an error for type tags
	// the target database cannot represent.
	CreateTable(table string) string
	DropTable(table string) string
	TruncateTable(table string) string
	CreateColumnType(dt DBType, precision, scale int) (string, error)
	AddColumn(table, column string, dt DBType, precision, scale int) (string, error)
	AlterColumn(table, column string, dt DBType, precision, scale int) (string, error)
	DropColumn(table, column string) string
	ConstraintUnique(name, columns string) string
	ConstraintPrimaryKey(name, columns string) string
	ConstraintForeignKey(name, columns, refTable, refColumns string) string

	// EmptyBlob returns the expression creating an empty large object.
	EmptyBlob() string

	// Nvl returns the name of the null-coalescing function.
	Nvl() string

	// GetDummyFromTable returns the table name to use in
	// "select ... from <dummy>" constructs, empty when the database accepts
	// a from-less select.
	GetDummyFromTable() string

	MakeStatement(sess *Session) (StatementBackend, error)
	MakeRowID(sess *Session) (RowIDBackend, error)
	MakeBlob(sess *Session) (BlobBackend, error)

	// BackendName returns the driver name, e.g. "sqlite3".
	BackendName() string

	Close() error
}

// StatementBackend is one driver-side statement.
type StatementBackend interface {
	Alloc() error
	CleanUp()

	// Prepare parses the :name parameters out of the query, rewrites them to
	// the driver's native placeholder form and readies the statement.
	Prepare(query string, st StatementType) error

	// Execute runs the statement. number == 0 runs without fetching;
	// number > 0 runs and then fetches up to that many rows. For bulk input
	// with number > 1 a driver without native array binding executes once
	// per logical row.
	Execute(number int) (ExecFetchResult, error)

	// Fetch delivers up to number rows into the defined into binders.
	// NoData is the non-fatal end-of-rowset result; rows delivered in the
	// same call are still valid.
	Fetch(number int) (ExecFetchResult, error)

	// AffectedRows returns the number of rows affected by the last
	// execution, summed over bulk iterations.
	AffectedRows() (int64, error)

	// NumberOfRows returns the number of rows remaining in the current
	// fetch window.
	NumberOfRows() int

	// ParameterName returns the name of the i-th parsed parameter.
	ParameterName(index int) (string, error)

	// RewriteForProcedureCall turns a procedure name plus arguments into the
	// driver's native call syntax.
	RewriteForProcedureCall(query string) string

	// PrepareForDescribe returns the number of result columns. As a side
	// effect the statement is executed with a row limit of one, so that a
	// following Execute can reuse the pending result.
	PrepareForDescribe() (int, error)

	// DescribeColumn reports the fine type tag and name of the i-th column
	// (0-based).
	DescribeColumn(index int) (DBType, string, error)

	// ToDataType projects a fine type tag onto the legacy coarse tag the
	// way this particular driver historically did.
	ToDataType(dbt DBType) DataType

	// ExchangeDBTypeFor lets a driver widen or correct the deduced column
	// type before it is used for dynamic fetching.
	ExchangeDBTypeFor(dbt DBType) DBType

	MakeIntoTypeBackend() IntoTypeBackend
	MakeUseTypeBackend() UseTypeBackend
	MakeVectorIntoTypeBackend() VectorIntoTypeBackend
	MakeVectorUseTypeBackend() VectorUseTypeBackend
}

// IntoTypeBackend binds one scalar output cell.
type IntoTypeBackend interface {
	// DefineByPos binds the user variable behind data (a pointer to the
	// exchange kind's host representation) at the given 1-based position and
	// increments it.
	DefineByPos(position *int, data any, x ExchangeType) error

	PreExec(num int) error
	PreFetch() error

	// PostFetch moves the fetched cell into the user variable. When gotData
	// is false and the call came from a fetch, the rowset simply ended and
	// nothing is written. A null cell with a nil indicator is an ErrType
	// error; otherwise the indicator receives the cell state.
	PostFetch(gotData, calledFromFetch bool, ind *Indicator) error

	CleanUp()
}

// VectorIntoTypeBackend binds one bulk output column.
type VectorIntoTypeBackend interface {
	DefineByPos(position *int, data any, x ExchangeType) error

	// DefineByPosBulk binds a [begin, *end) sub-range of the user slice.
	// end is written back by the backend when the rowset delivers fewer
	// rows than the range can hold.
	DefineByPosBulk(position *int, data any, x ExchangeType, begin int, end *int) error

	PreExec(num int) error
	PreFetch() error
	PostFetch(gotData bool, ind []Indicator) error

	// Resize grows or shrinks the bound user slice to sz logical elements.
	Resize(sz int) error

	// Size returns the current logical element count of the binding.
	Size() int

	CleanUp()
}

// UseTypeBackend binds one scalar input (or IN/OUT) parameter.
type UseTypeBackend interface {
	BindByPos(position *int, data any, x ExchangeType, readOnly bool) error
	BindByName(name string, data any, x ExchangeType, readOnly bool) error

	PreExec(num int) error

	// PreUse snapshots the user variable (honoring a null indicator) into
	// the driver-side parameter buffer.
	PreUse(ind *Indicator) error

	// PostUse copies an OUT value back into the user variable for stored
	// procedure IN/OUT parameters.
	PostUse(gotData bool, ind *Indicator) error

	CleanUp()
}

// VectorUseTypeBackend binds one bulk input column.
type VectorUseTypeBackend interface {
	BindByPos(position *int, data any, x ExchangeType) error
	BindByPosBulk(position *int, data any, x ExchangeType, begin int, end *int) error
	BindByName(name string, data any, x ExchangeType) error
	BindByNameBulk(name string, data any, x ExchangeType, begin int, end *int) error

	PreExec(num int) error
	PreUse(ind []Indicator) error

	// Size returns the number of logical rows in the binding.
	Size() int

	CleanUp()
}

// RowIDBackend is the driver-side representation of a row identifier.
type RowIDBackend interface {
	// Value returns the native identifier value.
	Value() any
}

// BlobBackend is the driver-side representation of a large object.
// Writes past the current length extend the object so that
// offset+len(buf) <= Len() holds after every successful call.
type BlobBackend interface {
	Len() (int64, error)
	ReadFromStart(buf []byte, offset int64) (int, error)
	WriteFromStart(buf []byte, offset int64) (int, error)
	Append(buf []byte) (int, error)
	Trim(newLen int64) error
}
