package soci

import "time"

// holder is the tagged-union slot inside a Row. It stores exactly one
// exchange-kind value; the closed kind set makes dynamic dispatch
// unnecessary.
type holder struct {
	kind ExchangeType

	char   Char
	str    string
	i8     int8
	u8     uint8
	i16    int16
	u16    uint16
	i32    int32
	u32    uint32
	i64    int64
	u64    uint64
	dbl    float64
	tm     time.Time
	blob   []byte
}

// newHolder allocates a holder for one exchange kind.
func newHolder(kind ExchangeType) *holder {
	switch kind {
	case XWString, XXML, XLongString:
		kind = XString
	}
	return &holder{kind: kind}
}

// addr returns the pointer a binder writes through for this holder's kind.
func (h *holder) addr() any {
	switch h.kind {
	case XChar:
		return &h.char
	case XString:
		return &h.str
	case XInt8:
		return &h.i8
	case XUint8:
		return &h.u8
	case XInt16:
		return &h.i16
	case XUint16:
		return &h.u16
	case XInt32:
		return &h.i32
	case XUint32:
		return &h.u32
	case XInt64:
		return &h.i64
	case XUint64:
		return &h.u64
	case XDouble:
		return &h.dbl
	case XTime:
		return &h.tm
	case XBlob:
		return &h.blob
	}
	return nil
}

// value returns the stored value as the kind's host representation.
func (h *holder) value() any {
	switch h.kind {
	case XChar:
		return h.char
	case XString:
		return h.str
	case XInt8:
		return h.i8
	case XUint8:
		return h.u8
	case XInt16:
		return h.i16
	case XUint16:
		return h.u16
	case XInt32:
		return h.i32
	case XUint32:
		return h.u32
	case XInt64:
		return h.i64
	case XUint64:
		return h.u64
	case XDouble:
		return h.dbl
	case XTime:
		return h.tm
	case XBlob:
		return h.blob
	}
	return nil
}

// reset re-initializes the slot so the row can bind to another data set
// after a value has been moved out.
func (h *holder) reset() {
	kind := h.kind
	*h = holder{kind: kind}
}
