package soci

import "strings"

// Query accumulates SQL text fragments together with into and use
// descriptors and turns them into a statement. It is the streaming surface
// of the library: fragments are concatenated in order, descriptors bind in
// attachment order.
type Query struct {
	sess  *Session
	text  strings.Builder
	intos []*IntoDescriptor
	uses  []*UseDescriptor
	row   *Row
}

// Query starts a statement builder from an initial text fragment.
func (s *Session) Query(fragment string) *Query {
	q := &Query{sess: s}
	q.text.WriteString(fragment)
	return q
}

// Write appends another text fragment.
func (q *Query) Write(fragment string) *Query {
	q.text.WriteString(fragment)
	return q
}

// Into binds dest as the next output column; see soci.Into.
func (q *Query) Into(dest any) *Query {
	q.intos = append(q.intos, Into(dest))
	return q
}

// IntoWithIndicator binds dest with a per-cell indicator.
func (q *Query) IntoWithIndicator(dest any, ind *Indicator) *Query {
	q.intos = append(q.intos, IntoWithIndicator(dest, ind))
	return q
}

// IntoVectorWithIndicators binds a slice destination with per-element
// indicators.
func (q *Query) IntoVectorWithIndicators(dest any, inds *[]Indicator) *Query {
	q.intos = append(q.intos, IntoVectorWithIndicators(dest, inds))
	return q
}

// IntoRange binds the [begin, *end) sub-range of a slice destination.
func (q *Query) IntoRange(dest any, begin int, end *int) *Query {
	q.intos = append(q.intos, IntoRange(dest, begin, end))
	return q
}

// IntoRow binds a dynamic row as the statement's output.
func (q *Query) IntoRow(r *Row) *Query {
	q.row = r
	return q
}

// IntoDescriptor attaches a pre-built output descriptor.
func (q *Query) IntoDescriptor(d *IntoDescriptor) *Query {
	q.intos = append(q.intos, d)
	return q
}

// Use binds src as the next input parameter; see soci.Use.
func (q *Query) Use(src any, name ...string) *Query {
	q.uses = append(q.uses, Use(src, name...))
	return q
}

// UseWithIndicator binds src with an input indicator.
func (q *Query) UseWithIndicator(src any, ind *Indicator, name ...string) *Query {
	q.uses = append(q.uses, UseWithIndicator(src, ind, name...))
	return q
}

// UseVectorWithIndicators binds a slice source with per-element
// indicators.
func (q *Query) UseVectorWithIndicators(src any, inds *[]Indicator, name ...string) *Query {
	q.uses = append(q.uses, UseVectorWithIndicators(src, inds, name...))
	return q
}

// UseRange binds the [begin, *end) sub-range of a slice source.
func (q *Query) UseRange(src any, begin int, end *int, name ...string) *Query {
	q.uses = append(q.uses, UseRange(src, begin, end, name...))
	return q
}

// UseDescriptor attaches a pre-built input descriptor.
func (q *Query) UseDescriptor(d *UseDescriptor) *Query {
	q.uses = append(q.uses, d)
	return q
}

// build attaches the accumulated descriptors to a fresh statement.
func (q *Query) build(stType StatementType) (*Statement, error) {
	st, err := q.sess.NewStatement()
	if err != nil {
		return nil, err
	}
	for _, d := range q.intos {
		st.ExchangeInto(d)
	}
	for _, d := range q.uses {
		st.ExchangeUse(d)
	}
	if q.row != nil {
		st.ExchangeRow(q.row)
	}
	if err := st.prepare(q.text.String(), stType); err != nil {
		st.CleanUp()
		return nil, err
	}
	return st, nil
}

// Prepare turns the accumulated query into a repeatable statement. The
// caller owns the statement and must CleanUp when done; the bound host
// variables must outlive it.
func (q *Query) Prepare() (*Statement, error) {
	return q.build(RepeatableQuery)
}

// Exec runs the query once with data exchange and releases the statement.
// It reports whether any data was exchanged, which for selects means a
// first row arrived.
func (q *Query) Exec() (bool, error) {
	st, err := q.build(OneTimeQuery)
	if err != nil {
		return false, err
	}
	defer st.CleanUp()
	return st.Execute(true)
}

// MustExec is Exec for statements whose result is not interesting, turning
// "no data" into an error-free no-op; it returns the execution error only.
func (q *Query) MustExec() error {
	_, err := q.Exec()
	return err
}
