package soci

import (
	"time"
)

// The fake backend used by the engine tests: statements execute against an
// in-memory result table configured per test, and every binder writes the
// way a real driver adapter would. It implements the full backend contract
// so the statement engine runs unmodified.

type fakeBackend struct{}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) MakeSession(params ConnectionParameters) (SessionBackend, error) {
	return &fakeSessionBackend{params: params, connected: true}, nil
}

type fakeSessionBackend struct {
	params    ConnectionParameters
	connected bool

	// test knobs
	nextResult  *fakeResult // the result the next statement serves
	execLog     []string    // queries the backend saw, in order
	beginCount  int
	commitCount int
	rbCount     int
}

// fakeResult is one configured result set: column metadata plus rows of
// already-typed values (nil means SQL NULL).
type fakeResult struct {
	colNames []string
	colTypes []DBType
	rows     [][]any
	affected int64
}

func (sb *fakeSessionBackend) IsConnected() bool { return sb.connected }
func (sb *fakeSessionBackend) Begin() error      { sb.beginCount++; return nil }
func (sb *fakeSessionBackend) Commit() error     { sb.commitCount++; return nil }
func (sb *fakeSessionBackend) Rollback() error   { sb.rbCount++; return nil }

func (sb *fakeSessionBackend) GetNextSequenceValue(*Session, string) (int64, bool, error) {
	return 0, false, nil
}

func (sb *fakeSessionBackend) GetLastInsertID(*Session, string) (int64, bool, error) {
	return 42, true, nil
}

func (sb *fakeSessionBackend) TableNamesQuery() string          { return "select t" }
func (sb *fakeSessionBackend) ColumnDescriptionsQuery() string  { return "select c where t = :t" }
func (sb *fakeSessionBackend) CreateTable(t string) string      { return "create table " + t + " (" }
func (sb *fakeSessionBackend) DropTable(t string) string        { return "drop table " + t }
func (sb *fakeSessionBackend) TruncateTable(t string) string    { return "truncate table " + t }
func (sb *fakeSessionBackend) DropColumn(t, c string) string    { return "alter table " + t + " drop column " + c }
func (sb *fakeSessionBackend) EmptyBlob() string                { return "x''" }
func (sb *fakeSessionBackend) Nvl() string                      { return "coalesce" }
func (sb *fakeSessionBackend) GetDummyFromTable() string        { return "" }
func (sb *fakeSessionBackend) BackendName() string              { return "fake" }
func (sb *fakeSessionBackend) Close() error                     { sb.connected = false; return nil }

func (sb *fakeSessionBackend) CreateColumnType(dt DBType, precision, scale int) (string, error) {
	return "text", nil
}

func (sb *fakeSessionBackend) AddColumn(t, c string, dt DBType, p, s int) (string, error) {
	return "alter table " + t + " add column " + c, nil
}

func (sb *fakeSessionBackend) AlterColumn(t, c string, dt DBType, p, s int) (string, error) {
	return "alter table " + t + " alter column " + c, nil
}

func (sb *fakeSessionBackend) ConstraintUnique(n, c string) string     { return "unique" }
func (sb *fakeSessionBackend) ConstraintPrimaryKey(n, c string) string { return "pk" }
func (sb *fakeSessionBackend) ConstraintForeignKey(n, c, rt, rc string) string {
	return "fk"
}

func (sb *fakeSessionBackend) MakeStatement(*Session) (StatementBackend, error) {
	return &fakeStatementBackend{sb: sb, result: sb.nextResult}, nil
}

func (sb *fakeSessionBackend) MakeRowID(*Session) (RowIDBackend, error) {
	return &fakeRowID{}, nil
}

func (sb *fakeSessionBackend) MakeBlob(*Session) (BlobBackend, error) {
	return &fakeBlob{}, nil
}

type fakeRowID struct{ v int64 }

func (r *fakeRowID) Value() any { return r.v }

type fakeBlob struct{ buf []byte }

func (b *fakeBlob) Len() (int64, error) { return int64(len(b.buf)), nil }

func (b *fakeBlob) ReadFromStart(buf []byte, offset int64) (int, error) {
	if offset > int64(len(b.buf)) {
		return 0, newError(ErrUsage, "blob read offset out of range")
	}
	return copy(buf, b.buf[offset:]), nil
}

func (b *fakeBlob) WriteFromStart(buf []byte, offset int64) (int, error) {
	need := int(offset) + len(buf)
	if need > len(b.buf) {
		grown := make([]byte, need)
		copy(grown, b.buf)
		b.buf = grown
	}
	copy(b.buf[offset:], buf)
	return len(buf), nil
}

func (b *fakeBlob) Append(buf []byte) (int, error) {
	b.buf = append(b.buf, buf...)
	return len(buf), nil
}

func (b *fakeBlob) Trim(newLen int64) error {
	b.buf = b.buf[:newLen]
	return nil
}

type fakeStatementBackend struct {
	sb     *fakeSessionBackend
	result *fakeResult
	query  string
	names  []string

	intos  []*fakeIntoBinder
	vintos []*fakeVectorIntoBinder
	uses   []*fakeUseBinder
	vuses  []*fakeVectorUseBinder

	cursor       int // next row to deliver
	window       [][]any
	rowsThisTime int
	executed     bool
	described    bool
	affected     int64
}

func (st *fakeStatementBackend) Alloc() error { return nil }
func (st *fakeStatementBackend) CleanUp()     {}

func (st *fakeStatementBackend) Prepare(query string, _ StatementType) error {
	parsed := ParseQuery(query, BindQuestionMark, true)
	st.query = parsed.Text
	st.names = parsed.Names
	return nil
}

func (st *fakeStatementBackend) Execute(number int) (ExecFetchResult, error) {
	if st.described && st.executed {
		st.described = false
		if number > 0 {
			return st.Fetch(number)
		}
		return Success, nil
	}
	st.sb.execLog = append(st.sb.execLog, st.query)
	st.executed = true
	st.cursor = 0
	if st.result != nil {
		st.affected = st.result.affected
	}
	if len(st.vuses) > 0 {
		// one driver execution per logical row
		n := number
		for range make([]struct{}, n) {
			st.sb.execLog = append(st.sb.execLog, "(bulk row)")
		}
		return Success, nil
	}
	if number > 0 && st.result != nil && len(st.result.rows) >= 0 && st.hasOutput() {
		return st.Fetch(number)
	}
	return Success, nil
}

func (st *fakeStatementBackend) hasOutput() bool {
	return len(st.intos)+len(st.vintos) > 0
}

func (st *fakeStatementBackend) Fetch(number int) (ExecFetchResult, error) {
	if st.result == nil {
		return NoData, nil
	}
	st.window = nil
	for len(st.window) < number && st.cursor < len(st.result.rows) {
		st.window = append(st.window, st.result.rows[st.cursor])
		st.cursor++
	}
	st.rowsThisTime = len(st.window)

	for _, b := range st.intos {
		if err := b.deliver(st.window); err != nil {
			return 0, err
		}
	}
	for _, b := range st.vintos {
		if err := b.deliver(st.window); err != nil {
			return 0, err
		}
	}

	if st.rowsThisTime < number {
		return NoData, nil
	}
	return Success, nil
}

func (st *fakeStatementBackend) AffectedRows() (int64, error) { return st.affected, nil }
func (st *fakeStatementBackend) NumberOfRows() int            { return st.rowsThisTime }

func (st *fakeStatementBackend) ParameterName(index int) (string, error) {
	if index < 0 || index >= len(st.names) {
		return "", newError(ErrUsage, "parameter index out of range")
	}
	return st.names[index], nil
}

func (st *fakeStatementBackend) RewriteForProcedureCall(query string) string {
	return "call " + query
}

func (st *fakeStatementBackend) PrepareForDescribe() (int, error) {
	st.described = true
	st.executed = true
	st.cursor = 0
	if st.result == nil {
		return 0, nil
	}
	return len(st.result.colNames), nil
}

func (st *fakeStatementBackend) DescribeColumn(index int) (DBType, string, error) {
	return st.result.colTypes[index], st.result.colNames[index], nil
}

func (st *fakeStatementBackend) ToDataType(dbt DBType) DataType { return StandardToDataType(dbt) }
func (st *fakeStatementBackend) ExchangeDBTypeFor(dbt DBType) DBType { return dbt }

func (st *fakeStatementBackend) MakeIntoTypeBackend() IntoTypeBackend {
	b := &fakeIntoBinder{}
	st.intos = append(st.intos, b)
	return b
}

func (st *fakeStatementBackend) MakeUseTypeBackend() UseTypeBackend {
	b := &fakeUseBinder{}
	st.uses = append(st.uses, b)
	return b
}

func (st *fakeStatementBackend) MakeVectorIntoTypeBackend() VectorIntoTypeBackend {
	b := &fakeVectorIntoBinder{}
	st.vintos = append(st.vintos, b)
	return b
}

func (st *fakeStatementBackend) MakeVectorUseTypeBackend() VectorUseTypeBackend {
	b := &fakeVectorUseBinder{}
	st.vuses = append(st.vuses, b)
	return b
}

// fakeIntoBinder delivers the window's first row into a scalar host
// variable.
type fakeIntoBinder struct {
	pos     int
	data    any
	kind    ExchangeType
	ind     *Indicator
	pending [][]any
}

func (b *fakeIntoBinder) DefineByPos(position *int, data any, x ExchangeType) error {
	b.pos = *position - 1
	b.data = data
	b.kind = x
	*position++
	return nil
}

func (b *fakeIntoBinder) PreExec(int) error { return nil }
func (b *fakeIntoBinder) PreFetch() error   { return nil }
func (b *fakeIntoBinder) CleanUp()          {}

func (b *fakeIntoBinder) deliver(window [][]any) error {
	b.pending = window
	return nil
}

func (b *fakeIntoBinder) PostFetch(gotData, calledFromFetch bool, ind *Indicator) error {
	if !gotData || len(b.pending) == 0 {
		return nil
	}
	value := b.pending[0][b.pos]
	if value == nil {
		if ind == nil {
			return newError(ErrType, "null value fetched and no indicator defined")
		}
		*ind = IndNull
		return nil
	}
	if err := fakeAssign(b.data, value); err != nil {
		return err
	}
	if ind != nil {
		*ind = IndOK
	}
	return nil
}

// fakeVectorIntoBinder delivers the whole window into a slice range.
type fakeVectorIntoBinder struct {
	pos     int
	data    any
	kind    ExchangeType
	begin   int
	end     *int
	pending [][]any
}

func (b *fakeVectorIntoBinder) DefineByPos(position *int, data any, x ExchangeType) error {
	return b.DefineByPosBulk(position, data, x, 0, nil)
}

func (b *fakeVectorIntoBinder) DefineByPosBulk(position *int, data any, x ExchangeType, begin int, end *int) error {
	b.pos = *position - 1
	b.data = data
	b.kind = x
	b.begin = begin
	b.end = end
	*position++
	return nil
}

func (b *fakeVectorIntoBinder) PreExec(int) error { return nil }
func (b *fakeVectorIntoBinder) PreFetch() error   { return nil }
func (b *fakeVectorIntoBinder) CleanUp()          {}

func (b *fakeVectorIntoBinder) deliver(window [][]any) error {
	b.pending = window
	return nil
}

func (b *fakeVectorIntoBinder) PostFetch(gotData bool, ind []Indicator) error {
	if !gotData {
		return nil
	}
	for i, row := range b.pending {
		value := row[b.pos]
		target := b.begin + i
		if value == nil {
			if ind == nil {
				return newError(ErrType, "null value fetched and no indicator defined")
			}
			ind[target] = IndNull
			continue
		}
		if err := fakeAssignIndex(b.data, target, value); err != nil {
			return err
		}
		if target < len(ind) {
			ind[target] = IndOK
		}
	}
	if b.end != nil {
		*b.end = b.begin + len(b.pending)
	}
	return nil
}

func (b *fakeVectorIntoBinder) Resize(sz int) error {
	if b.end != nil {
		*b.end = b.begin + sz
		return resizeSlice(b.data, b.begin+sz)
	}
	return resizeSlice(b.data, sz)
}

func (b *fakeVectorIntoBinder) Size() int {
	if b.end != nil {
		return *b.end - b.begin
	}
	return sliceLen(b.data)
}

// fakeUseBinder snapshots scalar parameters.
type fakeUseBinder struct {
	name  string
	data  any
	kind  ExchangeType
	value any
	null  bool
}

func (b *fakeUseBinder) BindByPos(position *int, data any, x ExchangeType, _ bool) error {
	b.data = data
	b.kind = x
	*position++
	return nil
}

func (b *fakeUseBinder) BindByName(name string, data any, x ExchangeType, _ bool) error {
	b.name = name
	b.data = data
	b.kind = x
	return nil
}

func (b *fakeUseBinder) PreExec(int) error { return nil }

func (b *fakeUseBinder) PreUse(ind *Indicator) error {
	if ind != nil && *ind == IndNull {
		b.null = true
		return nil
	}
	b.null = false
	b.value = fakeDeref(b.data)
	return nil
}

func (b *fakeUseBinder) PostUse(bool, *Indicator) error { return nil }
func (b *fakeUseBinder) CleanUp()                       {}

// fakeVectorUseBinder records bulk parameters.
type fakeVectorUseBinder struct {
	name  string
	data  any
	kind  ExchangeType
	begin int
	end   *int
}

func (b *fakeVectorUseBinder) BindByPos(position *int, data any, x ExchangeType) error {
	return b.BindByPosBulk(position, data, x, 0, nil)
}

func (b *fakeVectorUseBinder) BindByPosBulk(position *int, data any, x ExchangeType, begin int, end *int) error {
	b.data = data
	b.kind = x
	b.begin = begin
	b.end = end
	*position++
	return nil
}

func (b *fakeVectorUseBinder) BindByName(name string, data any, x ExchangeType) error {
	return b.BindByNameBulk(name, data, x, 0, nil)
}

func (b *fakeVectorUseBinder) BindByNameBulk(name string, data any, x ExchangeType, begin int, end *int) error {
	b.name = name
	b.data = data
	b.kind = x
	b.begin = begin
	b.end = end
	return nil
}

func (b *fakeVectorUseBinder) PreExec(int) error       { return nil }
func (b *fakeVectorUseBinder) PreUse([]Indicator) error { return nil }
func (b *fakeVectorUseBinder) CleanUp()                {}

func (b *fakeVectorUseBinder) Size() int {
	if b.end != nil {
		return *b.end - b.begin
	}
	return sliceLen(b.data)
}

// value plumbing helpers

func fakeAssign(dest, value any) error {
	switch p := dest.(type) {
	case *string:
		p2, ok := value.(string)
		if !ok {
			return newError(ErrType, "fake: want string, got %T", value)
		}
		*p = p2
	case *int32:
		switch v := value.(type) {
		case int32:
			*p = v
		case int64:
			*p = int32(v)
		case int:
			*p = int32(v)
		default:
			return newError(ErrType, "fake: want int32, got %T", value)
		}
	case *int64:
		switch v := value.(type) {
		case int64:
			*p = v
		case int32:
			*p = int64(v)
		case int:
			*p = int64(v)
		default:
			return newError(ErrType, "fake: want int64, got %T", value)
		}
	case *float64:
		v, ok := value.(float64)
		if !ok {
			return newError(ErrType, "fake: want float64, got %T", value)
		}
		*p = v
	case *time.Time:
		v, ok := value.(time.Time)
		if !ok {
			return newError(ErrType, "fake: want time, got %T", value)
		}
		*p = v
	case *[]byte:
		v, ok := value.([]byte)
		if !ok {
			return newError(ErrType, "fake: want blob, got %T", value)
		}
		*p = v
	default:
		return newError(ErrType, "fake: unsupported destination %T", dest)
	}
	return nil
}

func fakeAssignIndex(slicePtr any, index int, value any) error {
	switch p := slicePtr.(type) {
	case *[]string:
		v, ok := value.(string)
		if !ok {
			return newError(ErrType, "fake: want string, got %T", value)
		}
		(*p)[index] = v
	case *[]int32:
		switch v := value.(type) {
		case int32:
			(*p)[index] = v
		case int64:
			(*p)[index] = int32(v)
		case int:
			(*p)[index] = int32(v)
		default:
			return newError(ErrType, "fake: want int32, got %T", value)
		}
	case *[]int64:
		switch v := value.(type) {
		case int64:
			(*p)[index] = v
		case int:
			(*p)[index] = int64(v)
		default:
			return newError(ErrType, "fake: want int64, got %T", value)
		}
	case *[]float64:
		v, ok := value.(float64)
		if !ok {
			return newError(ErrType, "fake: want float64, got %T", value)
		}
		(*p)[index] = v
	default:
		return newError(ErrType, "fake: unsupported bulk destination %T", slicePtr)
	}
	return nil
}

func fakeDeref(data any) any {
	switch p := data.(type) {
	case *string:
		return *p
	case *int32:
		return *p
	case *int64:
		return *p
	case *int:
		return *p
	case *float64:
		return *p
	case *time.Time:
		return *p
	case *[]byte:
		return *p
	}
	return nil
}

func sliceLen(slicePtr any) int {
	switch p := slicePtr.(type) {
	case *[]string:
		return len(*p)
	case *[]int32:
		return len(*p)
	case *[]int64:
		return len(*p)
	case *[]float64:
		return len(*p)
	}
	return 0
}

func init() {
	RegisterBackend(&fakeBackend{})
}

// openFakeSession opens a session on the fake backend and hands back the
// backend for test configuration.
func openFakeSession() (*Session, *fakeSessionBackend, error) {
	sess, err := OpenBackend("fake", "test")
	if err != nil {
		return nil, nil, err
	}
	return sess, sess.Backend().(*fakeSessionBackend), nil
}
