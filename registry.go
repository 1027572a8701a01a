package soci

import (
	"sync"

	"github.com/xo/dburl"
)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]Backend)
)

// RegisterBackend makes a driver available under its name. Driver packages
// call this from an init function; registration is expected to complete
// before the first session opens.
func RegisterBackend(b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if b == nil {
		panic("soci: RegisterBackend with nil backend")
	}
	name := b.Name()
	if _, dup := backends[name]; dup {
		panic("soci: RegisterBackend called twice for backend " + name)
	}
	backends[name] = b
}

// RegisteredBackends returns the names of all registered drivers.
func RegisteredBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// lookupBackend resolves a registered backend by name.
func lookupBackend(name string) (Backend, error) {
	backendsMu.RLock()
	b, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, newError(ErrConnection, "unknown backend %q (forgotten import?)", name)
	}
	return b, nil
}

// ConnectionParameters carry everything a backend needs to open a session:
// the backend name, the backend-specific connect string, and a flat
// key=value option map.
type ConnectionParameters struct {
	BackendName   string
	ConnectString string
	options       map[string]string
}

// Option names understood by the core and by the bundled backends. Backends
// may define additional options of their own.
const (
	// OptionReconnect marks a session open that replaces a previous
	// connection; drivers suppress interactive prompts when they see it.
	OptionReconnect = "reconnect"

	// OptionDriverComplete selects the driver-completion (prompt) mode for
	// backends that support it, as a decimal constant.
	OptionDriverComplete = "odbc_option_driver_complete"
)

// SetOption stores a key=value option.
func (p *ConnectionParameters) SetOption(name, value string) {
	if p.options == nil {
		p.options = make(map[string]string)
	}
	p.options[name] = value
}

// Option returns the value of a key=value option and whether it was set.
func (p *ConnectionParameters) Option(name string) (string, bool) {
	v, ok := p.options[name]
	return v, ok
}

// IsOptionOn reports whether an option is set to a truthy value.
func (p *ConnectionParameters) IsOptionOn(name string) bool {
	v, ok := p.options[name]
	if !ok {
		return false
	}
	return v == "1" || v == "true" || v == "yes" || v == ""
}

// clone returns a deep copy, used to preserve parameters across Reconnect.
func (p *ConnectionParameters) clone() ConnectionParameters {
	out := ConnectionParameters{
		BackendName:   p.BackendName,
		ConnectString: p.ConnectString,
	}
	for k, v := range p.options {
		out.SetOption(k, v)
	}
	return out
}

// parseConnectString resolves a connect string into parameters. Two forms
// are accepted: "backend://rest-of-url" URLs, resolved through dburl so that
// scheme aliases like postgres:// and mysql:// work, and the
// "backend:connect-string" form where everything after the first colon is
// passed to the backend untouched.
func parseConnectString(connectString string) (ConnectionParameters, error) {
	var p ConnectionParameters
	if u, err := dburl.Parse(connectString); err == nil {
		p.BackendName = backendNameForScheme(u.Driver)
		p.ConnectString = u.DSN
		return p, nil
	}
	for i := 0; i < len(connectString); i++ {
		if connectString[i] == ':' {
			p.BackendName = connectString[:i]
			p.ConnectString = connectString[i+1:]
			return p, nil
		}
	}
	return p, newError(ErrConnection, "invalid connection string %q", connectString)
}

// backendNameForScheme maps dburl driver names onto registered backend
// names where they differ.
func backendNameForScheme(driver string) string {
	switch driver {
	case "sqlite3", "moderncsqlite":
		return "sqlite"
	case "postgres", "pgx":
		return "postgres"
	case "go_ibm_db":
		return "db2"
	}
	return driver
}
