package sqladapter

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/pthis/soci"
)

// link is the common surface of *sql.Conn and *sql.Tx that statements
// execute through. Inside a transaction everything routes through the
// transaction object so the driver sees one consistent session.
type link interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SessionBackend implements soci.SessionBackend over one reserved
// database/sql connection.
type SessionBackend struct {
	dialect Dialect
	db      *sql.DB
	conn    *sql.Conn
	tx      *sql.Tx
	ctx     context.Context
	closed  bool
}

// link returns the execution target for the current transaction state.
func (sb *SessionBackend) link() link {
	if sb.tx != nil {
		return sb.tx
	}
	return sb.conn
}

// IsConnected implements soci.SessionBackend.
func (sb *SessionBackend) IsConnected() bool {
	if sb.closed || sb.conn == nil {
		return false
	}
	return sb.conn.PingContext(sb.ctx) == nil
}

// Begin implements soci.SessionBackend.
func (sb *SessionBackend) Begin() error {
	if sb.tx != nil {
		return &soci.Error{Category: soci.ErrUsage, Message: "transaction already in progress"}
	}
	tx, err := sb.conn.BeginTx(sb.ctx, nil)
	if err != nil {
		return &soci.Error{Category: soci.ErrConnection, Message: "begin", Cause: errors.WithStack(err)}
	}
	sb.tx = tx
	return nil
}

// Commit implements soci.SessionBackend.
func (sb *SessionBackend) Commit() error {
	if sb.tx == nil {
		return &soci.Error{Category: soci.ErrUsage, Message: "commit without transaction"}
	}
	err := sb.tx.Commit()
	sb.tx = nil
	if err != nil {
		return &soci.Error{Category: soci.ErrExecute, Message: "commit", Cause: errors.WithStack(err)}
	}
	return nil
}

// Rollback implements soci.SessionBackend.
func (sb *SessionBackend) Rollback() error {
	if sb.tx == nil {
		return &soci.Error{Category: soci.ErrUsage, Message: "rollback without transaction"}
	}
	err := sb.tx.Rollback()
	sb.tx = nil
	if err != nil {
		return &soci.Error{Category: soci.ErrExecute, Message: "rollback", Cause: errors.WithStack(err)}
	}
	return nil
}

// GetNextSequenceValue implements soci.SessionBackend.
func (sb *SessionBackend) GetNextSequenceValue(_ *soci.Session, sequence string) (int64, bool, error) {
	if sb.dialect.SequenceValueQuery == nil {
		return 0, false, nil
	}
	var value int64
	rows, err := sb.link().QueryContext(sb.ctx, sb.dialect.SequenceValueQuery(sequence))
	if err != nil {
		return 0, true, &soci.Error{Category: soci.ErrExecute, Message: "reading sequence " + sequence, Cause: errors.WithStack(err)}
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, true, &soci.Error{Category: soci.ErrFetch, Message: "sequence " + sequence + " produced no value"}
	}
	if err := rows.Scan(&value); err != nil {
		return 0, true, &soci.Error{Category: soci.ErrFetch, Message: "reading sequence " + sequence, Cause: errors.WithStack(err)}
	}
	return value, true, nil
}

// GetLastInsertID implements soci.SessionBackend.
func (sb *SessionBackend) GetLastInsertID(_ *soci.Session, table string) (int64, bool, error) {
	if sb.dialect.LastInsertIDQuery == nil {
		return 0, false, nil
	}
	var value int64
	rows, err := sb.link().QueryContext(sb.ctx, sb.dialect.LastInsertIDQuery(table))
	if err != nil {
		return 0, true, &soci.Error{Category: soci.ErrExecute, Message: "reading last insert id", Cause: errors.WithStack(err)}
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, true, &soci.Error{Category: soci.ErrFetch, Message: "last insert id produced no value"}
	}
	if err := rows.Scan(&value); err != nil {
		return 0, true, &soci.Error{Category: soci.ErrFetch, Message: "reading last insert id", Cause: errors.WithStack(err)}
	}
	return value, true, nil
}

// TableNamesQuery implements soci.SessionBackend.
func (sb *SessionBackend) TableNamesQuery() string { return sb.dialect.tableNamesQuery() }

// ColumnDescriptionsQuery implements soci.SessionBackend.
func (sb *SessionBackend) ColumnDescriptionsQuery() string {
	return sb.dialect.columnDescriptionsQuery()
}

// CreateTable implements soci.SessionBackend.
func (sb *SessionBackend) CreateTable(table string) string {
	return "create table " + table + " ("
}

// DropTable implements soci.SessionBackend.
func (sb *SessionBackend) DropTable(table string) string {
	return "drop table " + table
}

// TruncateTable implements soci.SessionBackend.
func (sb *SessionBackend) TruncateTable(table string) string {
	return "truncate table " + table
}

// CreateColumnType implements soci.SessionBackend. The default syntax
// follows the PostgreSQL baseline; dialects override individual tags.
func (sb *SessionBackend) CreateColumnType(dt soci.DBType, precision, scale int) (string, error) {
	if sb.dialect.CreateColumnType != nil {
		if res, ok := sb.dialect.CreateColumnType(dt, precision, scale); ok {
			return res, nil
		}
	}
	switch dt {
	case soci.DBString, soci.DBWString:
		if precision == 0 {
			return "text", nil
		}
		return fmt.Sprintf("varchar(%d)", precision), nil
	case soci.DBDate:
		return "timestamp", nil
	case soci.DBDouble:
		if precision == 0 {
			return "numeric", nil
		}
		return fmt.Sprintf("numeric(%d, %d)", precision, scale), nil
	case soci.DBInt8, soci.DBUint8, soci.DBInt16, soci.DBUint16:
		return "smallint", nil
	case soci.DBInt32, soci.DBUint32:
		return "integer", nil
	case soci.DBInt64, soci.DBUint64:
		return "bigint", nil
	case soci.DBBlob:
		return "oid", nil
	case soci.DBXML:
		return "xml", nil
	}
	return "", &soci.Error{Category: soci.ErrUsage, Message: "type " + dt.String() + " is not supported in create_column"}
}

// AddColumn implements soci.SessionBackend.
func (sb *SessionBackend) AddColumn(table, column string, dt soci.DBType, precision, scale int) (string, error) {
	colType, err := sb.CreateColumnType(dt, precision, scale)
	if err != nil {
		return "", err
	}
	return "alter table " + table + " add column " + column + " " + colType, nil
}

// AlterColumn implements soci.SessionBackend.
func (sb *SessionBackend) AlterColumn(table, column string, dt soci.DBType, precision, scale int) (string, error) {
	colType, err := sb.CreateColumnType(dt, precision, scale)
	if err != nil {
		return "", err
	}
	return "alter table " + table + " alter column " + column + " type " + colType, nil
}

// DropColumn implements soci.SessionBackend.
func (sb *SessionBackend) DropColumn(table, column string) string {
	return "alter table " + table + " drop column " + column
}

// ConstraintUnique implements soci.SessionBackend.
func (sb *SessionBackend) ConstraintUnique(name, columns string) string {
	return "constraint " + name + " unique (" + columns + ")"
}

// ConstraintPrimaryKey implements soci.SessionBackend.
func (sb *SessionBackend) ConstraintPrimaryKey(name, columns string) string {
	return "constraint " + name + " primary key (" + columns + ")"
}

// ConstraintForeignKey implements soci.SessionBackend.
func (sb *SessionBackend) ConstraintForeignKey(name, columns, refTable, refColumns string) string {
	return "constraint " + name + " foreign key (" + columns + ")" +
		" references " + refTable + " (" + refColumns + ")"
}

// EmptyBlob implements soci.SessionBackend.
func (sb *SessionBackend) EmptyBlob() string { return sb.dialect.emptyBlob() }

// Nvl implements soci.SessionBackend.
func (sb *SessionBackend) Nvl() string { return sb.dialect.nvl() }

// GetDummyFromTable implements soci.SessionBackend.
func (sb *SessionBackend) GetDummyFromTable() string { return sb.dialect.DummyTable }

// MakeStatement implements soci.SessionBackend.
func (sb *SessionBackend) MakeStatement(_ *soci.Session) (soci.StatementBackend, error) {
	return &StatementBackend{sb: sb}, nil
}

// MakeRowID implements soci.SessionBackend.
func (sb *SessionBackend) MakeRowID(_ *soci.Session) (soci.RowIDBackend, error) {
	return &rowIDBackend{}, nil
}

// MakeBlob implements soci.SessionBackend.
func (sb *SessionBackend) MakeBlob(_ *soci.Session) (soci.BlobBackend, error) {
	return &blobBackend{}, nil
}

// BackendName implements soci.SessionBackend.
func (sb *SessionBackend) BackendName() string { return sb.dialect.Name }

// Close implements soci.SessionBackend.
func (sb *SessionBackend) Close() error {
	if sb.closed {
		return nil
	}
	sb.closed = true
	if sb.tx != nil {
		_ = sb.tx.Rollback()
		sb.tx = nil
	}
	var firstErr error
	if sb.conn != nil {
		if err := sb.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		sb.conn = nil
	}
	if sb.db != nil {
		if err := sb.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		sb.db = nil
	}
	if firstErr != nil {
		return &soci.Error{Category: soci.ErrConnection, Message: "close", Cause: errors.WithStack(firstErr)}
	}
	return nil
}
