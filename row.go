package soci

import (
	"reflect"
	"strings"
	"time"
)

// Row is a dynamically typed result tuple. Its column types are discovered
// from the statement's describe information on first use; each column gets
// a holder of the matching exchange kind plus an indicator, and values are
// read back through typed accessors.
//
// A row is populated once with holders sized to the column count and then
// reused across fetches, with values overwritten in place.
type Row struct {
	columns    []ColumnProperties
	holders    []*holder
	indicators []Indicator
	index      map[string]int

	uppercaseColumnNames bool
	currentPos           int
}

// NewRow returns an empty row ready to bind to a statement.
func NewRow() *Row {
	return &Row{index: make(map[string]int)}
}

// UppercaseColumnNames forces column names to upper case, both in the
// properties and for name lookups. Some databases report lower-case names
// for unquoted identifiers while others report upper case; normalizing
// makes lookups portable.
func (r *Row) UppercaseColumnNames(force bool) {
	r.uppercaseColumnNames = force
}

// cleanUp drops all columns so the row can bind to another statement.
func (r *Row) cleanUp() {
	r.columns = nil
	r.holders = nil
	r.indicators = nil
	r.index = make(map[string]int)
	r.currentPos = 0
}

// addColumn appends one described column. Indicator slots are handed out
// through indicatorPtr once all columns are added, so the backing array no
// longer moves.
func (r *Row) addColumn(props ColumnProperties, h *holder) {
	if r.uppercaseColumnNames {
		props.SetName(strings.ToUpper(props.Name()))
	}
	r.columns = append(r.columns, props)
	r.holders = append(r.holders, h)
	r.indicators = append(r.indicators, IndNull)
	r.index[props.Name()] = len(r.columns) - 1
}

// indicatorPtr returns the writable indicator slot of one column.
func (r *Row) indicatorPtr(pos int) *Indicator {
	return &r.indicators[pos]
}

// Size returns the number of columns.
func (r *Row) Size() int { return len(r.columns) }

// Properties returns the described properties of the column at pos.
func (r *Row) Properties(pos int) (ColumnProperties, error) {
	if pos < 0 || pos >= len(r.columns) {
		return ColumnProperties{}, newError(ErrUsage, "column position %d out of range", pos)
	}
	return r.columns[pos], nil
}

// PropertiesByName returns the described properties of the named column.
func (r *Row) PropertiesByName(name string) (ColumnProperties, error) {
	pos, err := r.findColumn(name)
	if err != nil {
		return ColumnProperties{}, err
	}
	return r.columns[pos], nil
}

// Indicator returns the cell state of the column at pos for the current
// row.
func (r *Row) Indicator(pos int) (Indicator, error) {
	if pos < 0 || pos >= len(r.indicators) {
		return IndNull, newError(ErrUsage, "column position %d out of range", pos)
	}
	return r.indicators[pos], nil
}

// IndicatorByName returns the cell state of the named column.
func (r *Row) IndicatorByName(name string) (Indicator, error) {
	pos, err := r.findColumn(name)
	if err != nil {
		return IndNull, err
	}
	return r.indicators[pos], nil
}

func (r *Row) findColumn(name string) (int, error) {
	lookup := name
	if r.uppercaseColumnNames {
		lookup = strings.ToUpper(name)
	}
	if pos, ok := r.index[lookup]; ok {
		return pos, nil
	}
	return 0, newError(ErrUsage, "column %q not found", name)
}

// Get reads the column at pos into dest, a pointer to a supported host
// type or to a type with a registered conversion. A null cell leaves dest
// untouched and is reported through the row's indicator, except for
// conversion types, whose FromBase decides.
func (r *Row) Get(pos int, dest any) error {
	return r.get(pos, dest, false)
}

// GetByName is Get with a column name.
func (r *Row) GetByName(name string, dest any) error {
	pos, err := r.findColumn(name)
	if err != nil {
		return err
	}
	return r.get(pos, dest, false)
}

// MoveAs moves the column value at pos out of the row into dest and resets
// the holder, so the row can be reused for another fetch without copying
// large values twice.
func (r *Row) MoveAs(pos int, dest any) error {
	return r.get(pos, dest, true)
}

// MoveAsByName is MoveAs with a column name.
func (r *Row) MoveAsByName(name string, dest any) error {
	pos, err := r.findColumn(name)
	if err != nil {
		return err
	}
	return r.get(pos, dest, true)
}

func (r *Row) get(pos int, dest any, move bool) error {
	if pos < 0 || pos >= len(r.holders) {
		return newError(ErrUsage, "column position %d out of range", pos)
	}
	h := r.holders[pos]
	ind := r.indicators[pos]

	if conv, ok := conversionForType(derefTypeOf(dest)); ok {
		base := h.value()
		var err error
		if move {
			if mv, ok := conv.(MoveFromBaser); ok {
				err = mv.MoveFromBase(base, ind, dest)
			} else {
				err = conv.FromBase(base, ind, dest)
			}
			h.reset()
		} else {
			err = conv.FromBase(base, ind, dest)
		}
		return err
	}

	if ind == IndNull {
		return newError(ErrType, "null value fetched for column %d", pos)
	}
	if err := assignHolderValue(h, dest); err != nil {
		return err
	}
	if move {
		h.reset()
	}
	return nil
}

// derefTypeOf returns the pointed-to type of a pointer argument, or nil.
func derefTypeOf(ptr any) reflect.Type {
	t := reflect.TypeOf(ptr)
	if t == nil || t.Kind() != reflect.Ptr {
		return nil
	}
	return t.Elem()
}

// assignHolderValue copies a holder's value into a destination pointer,
// widening integers where the destination can hold every value of the
// stored kind.
func assignHolderValue(h *holder, dest any) error {
	switch p := dest.(type) {
	case *string:
		if h.kind != XString {
			return holderMismatch(h, dest)
		}
		*p = h.str
	case *Char:
		if h.kind != XChar {
			return holderMismatch(h, dest)
		}
		*p = h.char
	case *int8:
		if h.kind != XInt8 {
			return holderMismatch(h, dest)
		}
		*p = h.i8
	case *uint8:
		if h.kind != XUint8 {
			return holderMismatch(h, dest)
		}
		*p = h.u8
	case *int16:
		switch h.kind {
		case XInt16:
			*p = h.i16
		case XInt8:
			*p = int16(h.i8)
		case XUint8:
			*p = int16(h.u8)
		default:
			return holderMismatch(h, dest)
		}
	case *uint16:
		switch h.kind {
		case XUint16:
			*p = h.u16
		case XUint8:
			*p = uint16(h.u8)
		default:
			return holderMismatch(h, dest)
		}
	case *int32:
		switch h.kind {
		case XInt32:
			*p = h.i32
		case XInt16:
			*p = int32(h.i16)
		case XUint16:
			*p = int32(h.u16)
		case XInt8:
			*p = int32(h.i8)
		case XUint8:
			*p = int32(h.u8)
		default:
			return holderMismatch(h, dest)
		}
	case *uint32:
		switch h.kind {
		case XUint32:
			*p = h.u32
		case XUint16:
			*p = uint32(h.u16)
		case XUint8:
			*p = uint32(h.u8)
		default:
			return holderMismatch(h, dest)
		}
	case *int64, *int:
		var v int64
		switch h.kind {
		case XInt64:
			v = h.i64
		case XInt32:
			v = int64(h.i32)
		case XUint32:
			v = int64(h.u32)
		case XInt16:
			v = int64(h.i16)
		case XUint16:
			v = int64(h.u16)
		case XInt8:
			v = int64(h.i8)
		case XUint8:
			v = int64(h.u8)
		default:
			return holderMismatch(h, dest)
		}
		if out, ok := dest.(*int64); ok {
			*out = v
		} else {
			*dest.(*int) = int(v)
		}
	case *uint64, *uint:
		var v uint64
		switch h.kind {
		case XUint64:
			v = h.u64
		case XUint32:
			v = uint64(h.u32)
		case XUint16:
			v = uint64(h.u16)
		case XUint8:
			v = uint64(h.u8)
		default:
			return holderMismatch(h, dest)
		}
		if out, ok := dest.(*uint64); ok {
			*out = v
		} else {
			*dest.(*uint) = uint(v)
		}
	case *float64:
		if h.kind != XDouble {
			return holderMismatch(h, dest)
		}
		*p = h.dbl
	case *time.Time:
		if h.kind != XTime {
			return holderMismatch(h, dest)
		}
		*p = h.tm
	case *[]byte:
		if h.kind != XBlob {
			return holderMismatch(h, dest)
		}
		*p = h.blob
	default:
		return newError(ErrType, "unsupported destination %T for row column", dest)
	}
	return nil
}

func holderMismatch(h *holder, dest any) error {
	return newError(ErrType, "column holds %s, incompatible with %T", h.kind, dest)
}

// Next reads the column at the stream position into dest and advances the
// position, so a whole row can be unpacked column by column.
func (r *Row) Next(dest any) error {
	if err := r.get(r.currentPos, dest, false); err != nil {
		return err
	}
	r.currentPos++
	return nil
}

// Skip advances the stream position without reading.
func (r *Row) Skip(num int) {
	r.currentPos += num
}

// ResetGetCounter rewinds the stream position to the first column.
func (r *Row) ResetGetCounter() {
	r.currentPos = 0
}
