package sqladapter

import "github.com/pthis/soci"

// rowIDBackend carries the integer row identifier every supported driver
// exposes (SQLite's rowid, the others' synthetic row numbers).
type rowIDBackend struct {
	value int64
}

// Value implements soci.RowIDBackend.
func (r *rowIDBackend) Value() any { return r.value }

// setRowIDValue loads a fetched identifier into a rowid handle.
func setRowIDValue(rowid *soci.RowID, value int64) error {
	backEnd, ok := rowid.Backend().(*rowIDBackend)
	if !ok {
		return &soci.Error{Category: soci.ErrBind, Message: "rowid belongs to a different backend"}
	}
	backEnd.value = value
	return nil
}
