// Package soci is a portable database-access library: one unified way to
// prepare SQL statements, bind input parameters, fetch result columns into
// host variables (individually or in bulk), iterate untyped result rows and
// manage transactions across pluggable backends.
//
// A session is opened from a registered backend and produces statements;
// statements carry "into" (output) and "use" (input) descriptors that point
// at caller-owned variables:
//
//	sess, err := soci.Open("sqlite:app.db")
//	defer sess.Close()
//
//	var name string
//	id := int64(7)
//	_, err = sess.Query("select name from users where id = :id").
//		Into(&name).
//		Use(&id, "id").
//		Exec()
//
// Bulk transfers bind slices instead of scalars, dynamic results go
// through Row, and per-cell null state travels in Indicator values. Driver
// packages under backends/ register themselves on import, in the manner of
// database/sql drivers.
package soci
