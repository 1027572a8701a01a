package soci

// Session owns one live connection to a database, created from a registered
// backend. It is the factory for statements, the transaction boundary, and
// the place where connection lifecycle (close, reconnect) is managed.
//
// A session and everything derived from it (statements, rows, blobs) must
// not be shared across goroutines; concurrent use of one database needs one
// session per goroutine.
type Session struct {
	backend    Backend
	backEnd    SessionBackend
	params     ConnectionParameters
	log        Logger
	generation uint64
	txOpen     bool
	closed     bool
	failover   *FailoverCallback
}

// FailoverCallback is the seam a pooling or failover layer hooks into: the
// backend invokes the notifications around a connection loss. All fields
// are optional.
type FailoverCallback struct {
	// Started is called when a failover attempt begins.
	Started func()
	// Finished is called with the recovered session when failover
	// succeeded.
	Finished func(*Session)
	// Failed is consulted after an attempt fails; returning retry true
	// repeats the attempt, optionally against a new connect string.
	Failed func() (retry bool, newTarget string)
	// Aborted is called when the failover is given up.
	Aborted func()
}

// SessionOption configures a session at open time.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	logger  Logger
	options map[string]string
}

// WithLogger sets the logger for this session instead of the global one.
func WithLogger(logger Logger) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.logger = logger
	}
}

// WithOption passes one key=value connection option to the backend.
func WithOption(name, value string) SessionOption {
	return func(cfg *sessionConfig) {
		if cfg.options == nil {
			cfg.options = make(map[string]string)
		}
		cfg.options[name] = value
	}
}

// Open connects to a database. The connect string carries the backend name
// either as a URL scheme ("postgres://user@host/db") or as a prefix
// ("sqlite:file.db"); everything else is passed to the backend untouched.
func Open(connectString string, opts ...SessionOption) (*Session, error) {
	params, err := parseConnectString(connectString)
	if err != nil {
		return nil, err
	}
	return OpenParameters(params, opts...)
}

// OpenBackend connects through a named backend with a backend-specific
// connect string, bypassing connect-string parsing.
func OpenBackend(backendName, connectString string, opts ...SessionOption) (*Session, error) {
	return OpenParameters(ConnectionParameters{
		BackendName:   backendName,
		ConnectString: connectString,
	}, opts...)
}

// OpenParameters connects with fully prepared connection parameters.
func OpenParameters(params ConnectionParameters, opts ...SessionOption) (*Session, error) {
	cfg := sessionConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	for k, v := range cfg.options {
		params.SetOption(k, v)
	}

	backend, err := lookupBackend(params.BackendName)
	if err != nil {
		return nil, err
	}

	sess := &Session{backend: backend, params: params, log: cfg.logger}
	sess.logger().Info("Opening session", "backend", params.BackendName)
	backEnd, err := backend.MakeSession(params)
	if err != nil {
		sess.logger().Error("Session open failed", "backend", params.BackendName, "error", err)
		return nil, err
	}
	sess.backEnd = backEnd
	return sess, nil
}

// logger returns the session logger, falling back to the global one.
func (s *Session) logger() Logger {
	if s.log != nil {
		return s.log
	}
	return defaultLogger
}

// SetLogger overrides the session logger.
func (s *Session) SetLogger(logger Logger) {
	s.log = logger
}

// Backend exposes the driver-side session for backend-specific extensions.
func (s *Session) Backend() SessionBackend { return s.backEnd }

// BackendName returns the registered name of the session's backend.
func (s *Session) BackendName() string { return s.params.BackendName }

// IsConnected reports whether the underlying connection is still usable.
func (s *Session) IsConnected() bool {
	return s.backEnd != nil && s.backEnd.IsConnected()
}

// Close tears the session down. An open transaction is rolled back first;
// a failed rollback is logged and does not stop the teardown. An error from
// closing the backend is logged and returned.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.backEnd == nil {
		return nil
	}
	if s.txOpen {
		if err := s.backEnd.Rollback(); err != nil {
			s.logger().Warn("Rollback during close failed", "error", err)
		}
		s.txOpen = false
	}
	err := s.backEnd.Close()
	if err != nil {
		s.logger().Warn("Session close failed", "error", err)
	}
	return err
}

// Reconnect tears down the backend session and opens a fresh one with the
// preserved parameters. All statements created before the reconnect are
// invalidated and return a usage error afterwards. The reconnect option is
// set on the new connection so drivers suppress interactive prompts.
func (s *Session) Reconnect() error {
	if s.closed {
		return newError(ErrUsage, "reconnect on closed session")
	}
	s.logger().Info("Reconnecting session", "backend", s.params.BackendName)
	if s.txOpen {
		if err := s.backEnd.Rollback(); err != nil {
			s.logger().Warn("Rollback during reconnect failed", "error", err)
		}
		s.txOpen = false
	}
	if err := s.backEnd.Close(); err != nil {
		s.logger().Warn("Teardown during reconnect failed", "error", err)
	}

	params := s.params.clone()
	params.SetOption(OptionReconnect, "1")
	backEnd, err := s.backend.MakeSession(params)
	if err != nil {
		s.backEnd = nil
		return wrapError(ErrConnection, err, "reconnect failed")
	}
	s.backEnd = backEnd
	s.generation++
	return nil
}

// Begin starts a transaction.
func (s *Session) Begin() error {
	if s.backEnd == nil {
		return newError(ErrUsage, "session is not connected")
	}
	if err := s.backEnd.Begin(); err != nil {
		return err
	}
	s.txOpen = true
	return nil
}

// Commit commits the open transaction.
func (s *Session) Commit() error {
	if err := s.backEnd.Commit(); err != nil {
		return err
	}
	s.txOpen = false
	return nil
}

// Rollback rolls back the open transaction.
func (s *Session) Rollback() error {
	if err := s.backEnd.Rollback(); err != nil {
		return err
	}
	s.txOpen = false
	return nil
}

// Transaction runs fn inside a transaction, committing when it returns nil
// and rolling back when it returns an error or panics.
func (s *Session) Transaction(fn func(*Session) error) error {
	if err := s.Begin(); err != nil {
		return err
	}
	done := false
	defer func() {
		if !done {
			if err := s.Rollback(); err != nil {
				s.logger().Warn("Rollback after failed transaction", "error", err)
			}
		}
	}()
	if err := fn(s); err != nil {
		return err
	}
	done = true
	return s.Commit()
}

// NewStatement allocates an unprepared statement on this session.
func (s *Session) NewStatement() (*Statement, error) {
	if s.backEnd == nil {
		return nil, newError(ErrUsage, "session is not connected")
	}
	return newStatement(s)
}

// NextSequenceValue returns the next value of the named sequence. The
// feature is unsupported when the backend implements neither sequences nor
// last-insert-id.
func (s *Session) NextSequenceValue(sequence string) (int64, error) {
	v, ok, err := s.backEnd.GetNextSequenceValue(s, sequence)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, newError(ErrUsage, "backend %s has no sequence support", s.BackendName())
	}
	return v, nil
}

// LastInsertID returns the last automatically generated value for the
// given table.
func (s *Session) LastInsertID(table string) (int64, error) {
	v, ok, err := s.backEnd.GetLastInsertID(s, table)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, newError(ErrUsage, "backend %s cannot report last insert id", s.BackendName())
	}
	return v, nil
}

// SetFailoverCallback installs the failover notification seam.
func (s *Session) SetFailoverCallback(cb *FailoverCallback) {
	s.failover = cb
}

// FailoverCallbackHook returns the installed failover seam, nil when none.
func (s *Session) FailoverCallbackHook() *FailoverCallback { return s.failover }

// NewBlob creates an empty large-object handle on this session.
func (s *Session) NewBlob() (*Blob, error) {
	backEnd, err := s.backEnd.MakeBlob(s)
	if err != nil {
		return nil, err
	}
	return &Blob{backEnd: backEnd}, nil
}

// NewRowID creates a row-identifier handle on this session.
func (s *Session) NewRowID() (*RowID, error) {
	backEnd, err := s.backEnd.MakeRowID(s)
	if err != nil {
		return nil, err
	}
	return &RowID{backEnd: backEnd}, nil
}

// TableNames lists the tables of the current schema using the backend's
// metadata query.
func (s *Session) TableNames() ([]string, error) {
	var names []string
	var name string
	q := s.Query(s.backEnd.TableNamesQuery()).Into(&name)
	st, err := q.Prepare()
	if err != nil {
		return nil, err
	}
	defer st.CleanUp()
	gotData, err := st.Execute(true)
	if err != nil {
		return nil, err
	}
	for gotData {
		names = append(names, name)
		gotData, err = st.Fetch()
		if err != nil {
			return nil, err
		}
	}
	return names, nil
}

// ColumnDescription is one row of the portable column-metadata query.
type ColumnDescription struct {
	Name      string
	Type      string
	Length    int64
	Precision int64
	Scale     int64
	Nullable  bool
}

// ColumnDescriptions lists the columns of one table using the backend's
// metadata query.
func (s *Session) ColumnDescriptions(table string) ([]ColumnDescription, error) {
	var (
		out      []ColumnDescription
		name     string
		dataType string
		length   int64
		prec     int64
		scale    int64
		nullable string

		lengthInd Indicator
		precInd   Indicator
		scaleInd  Indicator
	)
	q := s.Query(s.backEnd.ColumnDescriptionsQuery()).
		Into(&name).
		Into(&dataType).
		IntoWithIndicator(&length, &lengthInd).
		IntoWithIndicator(&prec, &precInd).
		IntoWithIndicator(&scale, &scaleInd).
		Into(&nullable).
		Use(&table, "t")
	st, err := q.Prepare()
	if err != nil {
		return nil, err
	}
	defer st.CleanUp()
	gotData, err := st.Execute(true)
	if err != nil {
		return nil, err
	}
	for gotData {
		desc := ColumnDescription{
			Name:     name,
			Type:     dataType,
			Nullable: nullable == "YES" || nullable == "yes",
		}
		if lengthInd == IndOK {
			desc.Length = length
		}
		if precInd == IndOK {
			desc.Precision = prec
		}
		if scaleInd == IndOK {
			desc.Scale = scale
		}
		out = append(out, desc)
		gotData, err = st.Fetch()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
