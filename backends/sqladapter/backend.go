package sqladapter

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/pkg/errors"

	"github.com/pthis/soci"
)

// Pool-sizing options understood by every sqladapter-based backend.
const (
	OptionMaxOpenConns = "max_open_conns"
	OptionMaxIdleConns = "max_idle_conns"
)

// Backend adapts one Dialect into a registered soci backend.
type Backend struct {
	Dialect Dialect
}

// Name implements soci.Backend.
func (b *Backend) Name() string { return b.Dialect.Name }

// MakeSession implements soci.Backend: it opens a database/sql pool and
// reserves one connection on it, so that transaction state and session
// variables behave like a single database session.
func (b *Backend) MakeSession(params soci.ConnectionParameters) (soci.SessionBackend, error) {
	dsn := params.ConnectString
	if b.Dialect.ConnString != nil {
		var err error
		dsn, err = b.Dialect.ConnString(params)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(b.Dialect.DriverName, dsn)
	if err != nil {
		return nil, &soci.Error{
			Category: soci.ErrConnection,
			Message:  "opening " + b.Dialect.Name + " database",
			Cause:    errors.WithStack(err),
		}
	}
	applyPoolOptions(db, params)

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, &soci.Error{
			Category: soci.ErrConnection,
			Message:  "connecting to " + b.Dialect.Name,
			Cause:    errors.WithStack(err),
		}
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, &soci.Error{
			Category: soci.ErrConnection,
			Message:  "connecting to " + b.Dialect.Name,
			Cause:    errors.WithStack(err),
		}
	}

	return &SessionBackend{
		dialect: b.Dialect,
		db:      db,
		conn:    conn,
		ctx:     ctx,
	}, nil
}

func applyPoolOptions(db *sql.DB, params soci.ConnectionParameters) {
	if v, ok := params.Option(OptionMaxOpenConns); ok {
		if n, err := strconv.Atoi(v); err == nil {
			db.SetMaxOpenConns(n)
		}
	}
	if v, ok := params.Option(OptionMaxIdleConns); ok {
		if n, err := strconv.Atoi(v); err == nil {
			db.SetMaxIdleConns(n)
		}
	}
}
