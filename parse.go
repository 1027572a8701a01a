package soci

import (
	"strconv"
	"strings"
)

// BindStyle selects the native placeholder form a backend rewrites :name
// parameters to.
type BindStyle int

const (
	// BindQuestionMark emits "?" placeholders (SQLite, MySQL, ODBC, DB2).
	BindQuestionMark BindStyle = iota
	// BindDollarN emits "$1", "$2", ... placeholders (PostgreSQL).
	BindDollarN
)

// ParsedQuery is the result of rewriting a query's named parameters into a
// driver's native placeholder form.
type ParsedQuery struct {
	// Text is the rewritten query.
	Text string
	// Names lists one parameter name per placeholder, in textual order, so a
	// name used twice appears twice.
	Names []string
}

// isNameChar reports whether c may appear in a :name parameter.
func isNameChar(c byte) bool {
	return c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}

// ParseQuery scans query and rewrites every :name parameter to the given
// bind style. Single-quoted literals are passed through untouched, with
// backslash escaping the next character inside them; double-quoted
// identifiers are passed through when quotedIdentifiers is set. The "::"
// cast and ":=" assignment operators are emitted verbatim. A parameter name
// is a maximal run of [A-Za-z0-9_].
//
// Every occurrence is recorded in Names, so a name used twice appears twice
// with either bind style; with BindDollarN each occurrence also gets a fresh
// positional placeholder. Drivers binding by name deduplicate through the
// Names list.
func ParseQuery(query string, style BindStyle, quotedIdentifiers bool) ParsedQuery {
	const (
		normal = iota
		inQuotes
		inIdentifier
		inName
	)

	var (
		out      strings.Builder
		name     strings.Builder
		names    []string
		state    = normal
		position = 1
	)
	out.Grow(len(query))

	flushName := func() {
		names = append(names, name.String())
		name.Reset()
		switch style {
		case BindDollarN:
			out.WriteByte('$')
			out.WriteString(strconv.Itoa(position))
			position++
		case BindQuestionMark:
			out.WriteByte('?')
		}
	}

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch state {
		case normal:
			switch {
			case c == '\'':
				out.WriteByte(c)
				state = inQuotes
			case c == '"' && quotedIdentifiers:
				out.WriteByte(c)
				state = inIdentifier
			case c == ':':
				// "::" is a cast and ":=" an assignment, not a binding.
				if i+1 < len(query) && (query[i+1] == ':' || query[i+1] == '=') {
					out.WriteByte(c)
					out.WriteByte(query[i+1])
					i++
				} else {
					state = inName
				}
			default:
				out.WriteByte(c)
			}
		case inQuotes:
			out.WriteByte(c)
			switch c {
			case '\'':
				state = normal
			case '\\':
				if i+1 < len(query) {
					out.WriteByte(query[i+1])
					i++
				}
			}
		case inIdentifier:
			out.WriteByte(c)
			if c == '"' {
				state = normal
			}
		case inName:
			if isNameChar(c) {
				name.WriteByte(c)
				continue
			}
			flushName()
			out.WriteByte(c)
			state = normal
			// A parameter immediately followed by a cast, as in
			// :name::float, ends at the first colon; consume the second one
			// here so it is not taken for a new parameter.
			if c == ':' && i+1 < len(query) && query[i+1] == ':' {
				out.WriteByte(':')
				i++
			} else if c == '\'' {
				state = inQuotes
			} else if c == '"' && quotedIdentifiers {
				state = inIdentifier
			}
		}
	}
	if state == inName {
		flushName()
	}

	return ParsedQuery{Text: out.String(), Names: names}
}
