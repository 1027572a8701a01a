package soci

// Procedure wraps a statement whose text is a stored-procedure name with
// its argument list; the backend rewrites it into the driver's native call
// syntax before preparing.
type Procedure struct {
	*Statement
}

// NewProcedure builds a procedure call from the accumulated query, which
// should contain the procedure name and its :name arguments without any
// call keyword.
func (q *Query) NewProcedure() (*Procedure, error) {
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
	rewritten := st.RewriteForProcedureCall(q.text.String())
	if err := st.prepare(rewritten, RepeatableQuery); err != nil {
		st.CleanUp()
		return nil, err
	}
	return &Procedure{Statement: st}, nil
}
