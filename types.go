package soci

// ExchangeType identifies the wire format used to move one value between a
// bound host variable and a backend. The set is closed: every binder, holder
// and conversion in the library dispatches over exactly these kinds.
type ExchangeType int

const (
	XChar ExchangeType = iota // single byte
	XString
	XWString
	XInt8
	XUint8
	XInt16
	XUint16
	XInt32
	XUint32
	XInt64
	XUint64
	XDouble
	XTime // broken-down date/time, second resolution
	XStatement
	XRowID
	XBlob
	XXML
	XLongString
)

// String returns the kind name, for diagnostics.
func (x ExchangeType) String() string {
	switch x {
	case XChar:
		return "char"
	case XString:
		return "string"
	case XWString:
		return "wstring"
	case XInt8:
		return "int8"
	case XUint8:
		return "uint8"
	case XInt16:
		return "int16"
	case XUint16:
		return "uint16"
	case XInt32:
		return "int32"
	case XUint32:
		return "uint32"
	case XInt64:
		return "int64"
	case XUint64:
		return "uint64"
	case XDouble:
		return "double"
	case XTime:
		return "time"
	case XStatement:
		return "statement"
	case XRowID:
		return "rowid"
	case XBlob:
		return "blob"
	case XXML:
		return "xml"
	case XLongString:
		return "longstring"
	}
	return "unknown"
}

// DBType is the fine-grained column type tag reported by DescribeColumn.
type DBType int

const (
	DBString DBType = iota
	DBWString
	DBInt8
	DBUint8
	DBInt16
	DBUint16
	DBInt32
	DBUint32
	DBInt64
	DBUint64
	DBDouble
	DBDate
	DBBlob
	DBXML
)

// String returns the tag name, for diagnostics.
func (d DBType) String() string {
	switch d {
	case DBString:
		return "string"
	case DBWString:
		return "wstring"
	case DBInt8:
		return "int8"
	case DBUint8:
		return "uint8"
	case DBInt16:
		return "int16"
	case DBUint16:
		return "uint16"
	case DBInt32:
		return "int32"
	case DBUint32:
		return "uint32"
	case DBInt64:
		return "int64"
	case DBUint64:
		return "uint64"
	case DBDouble:
		return "double"
	case DBDate:
		return "date"
	case DBBlob:
		return "blob"
	case DBXML:
		return "xml"
	}
	return "unknown"
}

// ExchangeTypeFor returns the exchange kind used to fetch a column of the
// given fine type tag when the caller did not supply a host variable, as in
// dynamic row binding.
func ExchangeTypeFor(dbt DBType) ExchangeType {
	switch dbt {
	case DBString:
		return XString
	case DBWString:
		return XWString
	case DBInt8:
		return XInt8
	case DBUint8:
		return XUint8
	case DBInt16:
		return XInt16
	case DBUint16:
		return XUint16
	case DBInt32:
		return XInt32
	case DBUint32:
		return XUint32
	case DBInt64:
		return XInt64
	case DBUint64:
		return XUint64
	case DBDouble:
		return XDouble
	case DBDate:
		return XTime
	case DBBlob:
		return XBlob
	case DBXML:
		return XXML
	}
	return XString
}

// DataType is the legacy coarse column type tag, preserved for callers
// written against the original eight-tag set.
//
// Deprecated: use DBType instead.
type DataType int

const (
	DTString DataType = iota
	DTDate
	DTDouble
	DTInteger
	DTLongLong
	DTUnsignedLongLong
	DTBlob
	DTXML
)

// ToDBType losslessly projects a legacy coarse tag onto the fine tag set.
func ToDBType(dt DataType) DBType {
	switch dt {
	case DTString:
		return DBString
	case DTDate:
		return DBDate
	case DTDouble:
		return DBDouble
	case DTInteger:
		return DBInt32
	case DTLongLong:
		return DBInt64
	case DTUnsignedLongLong:
		return DBUint64
	case DTBlob:
		return DBBlob
	case DTXML:
		return DBXML
	}
	return DBString
}

// StandardToDataType is the backend-independent projection from the fine tag
// set onto the legacy coarse tags. Backends with historical deviations (for
// example MySQL's MEDIUMINT UNSIGNED) override ToDataType on their statement
// backend instead of changing this mapping.
func StandardToDataType(dbt DBType) DataType {
	switch dbt {
	case DBWString, DBString:
		return DTString
	case DBDate:
		return DTDate
	case DBDouble:
		return DTDouble
	case DBInt8, DBUint8, DBInt16, DBUint16, DBInt32:
		return DTInteger
	case DBUint32, DBInt64:
		return DTLongLong
	case DBUint64:
		return DTUnsignedLongLong
	case DBBlob:
		return DTBlob
	case DBXML:
		return DTXML
	}
	return DTString
}

// Indicator reports the state of one bound cell after an exchange.
type Indicator int

const (
	IndOK Indicator = iota
	IndNull
	IndTruncated
)

// String returns the indicator name, for diagnostics.
func (i Indicator) String() string {
	switch i {
	case IndOK:
		return "ok"
	case IndNull:
		return "null"
	case IndTruncated:
		return "truncated"
	}
	return "unknown"
}

// StatementType tells the backend whether a query is worth preparing for
// reuse or will run exactly once.
type StatementType int

const (
	OneTimeQuery StatementType = iota
	RepeatableQuery
)

// ExecFetchResult is the outcome of a backend Execute or Fetch call.
// NoData is the non-fatal end-of-rowset condition.
type ExecFetchResult int

const (
	Success ExecFetchResult = iota
	NoData
)

// ColumnProperties describes one result column as reported by the backend.
type ColumnProperties struct {
	name     string
	dataType DataType // legacy projection, kept alongside the fine tag
	dbType   DBType
}

// Name returns the column name.
func (c *ColumnProperties) Name() string { return c.name }

// DBType returns the fine-grained column type tag.
func (c *ColumnProperties) DBType() DBType { return c.dbType }

// DataType returns the legacy coarse column type tag.
//
// Deprecated: use DBType instead.
func (c *ColumnProperties) DataType() DataType { return c.dataType }

// SetName sets the column name.
func (c *ColumnProperties) SetName(name string) { c.name = name }

// SetDBType sets the fine-grained column type tag.
func (c *ColumnProperties) SetDBType(t DBType) { c.dbType = t }

// SetDataType sets the legacy coarse column type tag.
func (c *ColumnProperties) SetDataType(t DataType) { c.dataType = t }
