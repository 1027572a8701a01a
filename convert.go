package soci

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Char is a distinct single-character host type. Go's byte is an alias for
// uint8, so a named type is needed to select the char exchange kind instead
// of uint8.
type Char byte

// TypeConversion maps a user type onto one of the exchange kinds. A user
// defines support for a new host type by registering a conversion; the
// framework then exchanges values through the base kind and converts exactly
// once per row per cell.
type TypeConversion interface {
	// BaseType is the exchange kind the user type is transported as.
	BaseType() ExchangeType

	// FromBase converts a fetched base value into the user variable behind
	// dest. The indicator carries the cell state; conversions that cannot
	// represent null should reject IndNull.
	FromBase(base any, ind Indicator, dest any) error

	// ToBase converts the user value behind src into the base
	// representation, setting the indicator for null-like values.
	ToBase(src any, ind *Indicator) (any, error)
}

// MoveFromBaser is implemented by conversions that can take ownership of
// the base value instead of copying it. Row.MoveAs uses it when present.
type MoveFromBaser interface {
	MoveFromBase(base any, ind Indicator, dest any) error
}

var (
	conversionsMu sync.RWMutex
	conversions   = make(map[reflect.Type]TypeConversion)
)

// RegisterConversion registers a conversion for the user type T. Pointer
// bindings to T, []T and the Row accessors then transport values through the
// conversion's base kind. Registration is expected to complete before the
// first statement binds, typically from an init function.
func RegisterConversion[T any](conv TypeConversion) {
	var zero T
	t := reflect.TypeOf(zero)
	conversionsMu.Lock()
	defer conversionsMu.Unlock()
	conversions[t] = conv
}

// conversionForType looks up a registered conversion for a user type.
func conversionForType(t reflect.Type) (TypeConversion, bool) {
	conversionsMu.RLock()
	defer conversionsMu.RUnlock()
	conv, ok := conversions[t]
	return conv, ok
}

// exchangeKindOf maps a pointer to a natively supported host variable onto
// its exchange kind. The second result is false for types that need a
// registered conversion (or are not bindable at all).
func exchangeKindOf(ptr any) (ExchangeType, bool) {
	switch ptr.(type) {
	case *Char:
		return XChar, true
	case *string:
		return XString, true
	case *int8:
		return XInt8, true
	case *uint8:
		return XUint8, true
	case *int16:
		return XInt16, true
	case *uint16:
		return XUint16, true
	case *int32:
		return XInt32, true
	case *uint32:
		return XUint32, true
	case *int64, *int:
		return XInt64, true
	case *uint64, *uint:
		return XUint64, true
	case *float64:
		return XDouble, true
	case *time.Time:
		return XTime, true
	case *[]byte:
		return XBlob, true
	}
	return 0, false
}

// baseBufferFor allocates the host buffer a conversion's base kind is
// exchanged through.
func baseBufferFor(kind ExchangeType) any {
	switch kind {
	case XChar:
		return new(Char)
	case XString, XWString, XXML, XLongString:
		return new(string)
	case XInt8:
		return new(int8)
	case XUint8:
		return new(uint8)
	case XInt16:
		return new(int16)
	case XUint16:
		return new(uint16)
	case XInt32:
		return new(int32)
	case XUint32:
		return new(uint32)
	case XInt64:
		return new(int64)
	case XUint64:
		return new(uint64)
	case XDouble:
		return new(float64)
	case XTime:
		return new(time.Time)
	case XBlob:
		return new([]byte)
	}
	return nil
}

// derefBase reads the value out of a base buffer allocated by
// baseBufferFor.
func derefBase(buf any) any {
	switch p := buf.(type) {
	case *Char:
		return *p
	case *string:
		return *p
	case *int8:
		return *p
	case *uint8:
		return *p
	case *int16:
		return *p
	case *uint16:
		return *p
	case *int32:
		return *p
	case *uint32:
		return *p
	case *int64:
		return *p
	case *uint64:
		return *p
	case *float64:
		return *p
	case *time.Time:
		return *p
	case *[]byte:
		return *p
	}
	return nil
}

// storeBase writes a value produced by TypeConversion.ToBase into a base
// buffer.
func storeBase(buf, value any) error {
	switch p := buf.(type) {
	case *Char:
		v, ok := value.(Char)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want Char", value)
		}
		*p = v
	case *string:
		v, ok := value.(string)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want string", value)
		}
		*p = v
	case *int8:
		v, ok := value.(int8)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want int8", value)
		}
		*p = v
	case *uint8:
		v, ok := value.(uint8)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want uint8", value)
		}
		*p = v
	case *int16:
		v, ok := value.(int16)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want int16", value)
		}
		*p = v
	case *uint16:
		v, ok := value.(uint16)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want uint16", value)
		}
		*p = v
	case *int32:
		v, ok := value.(int32)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want int32", value)
		}
		*p = v
	case *uint32:
		v, ok := value.(uint32)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want uint32", value)
		}
		*p = v
	case *int64:
		v, ok := value.(int64)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want int64", value)
		}
		*p = v
	case *uint64:
		v, ok := value.(uint64)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want uint64", value)
		}
		*p = v
	case *float64:
		v, ok := value.(float64)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want float64", value)
		}
		*p = v
	case *time.Time:
		v, ok := value.(time.Time)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want time.Time", value)
		}
		*p = v
	case *[]byte:
		v, ok := value.([]byte)
		if !ok {
			return newError(ErrConversion, "to_base produced %T, want []byte", value)
		}
		*p = v
	default:
		return newError(ErrConversion, "unsupported base buffer %T", buf)
	}
	return nil
}

// uuidConversion transports uuid.UUID values as their canonical string
// form.
type uuidConversion struct{}

func (uuidConversion) BaseType() ExchangeType { return XString }

func (uuidConversion) FromBase(base any, ind Indicator, dest any) error {
	out, ok := dest.(*uuid.UUID)
	if !ok {
		return newError(ErrConversion, "uuid conversion into %T", dest)
	}
	if ind == IndNull {
		return newError(ErrConversion, "null value not allowed for uuid")
	}
	s, ok := base.(string)
	if !ok {
		return newError(ErrConversion, "uuid conversion from %T", base)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return wrapError(ErrConversion, err, "parsing uuid %q", s)
	}
	*out = u
	return nil
}

func (uuidConversion) ToBase(src any, ind *Indicator) (any, error) {
	u, ok := src.(*uuid.UUID)
	if !ok {
		return nil, newError(ErrConversion, "uuid conversion from %T", src)
	}
	*ind = IndOK
	return u.String(), nil
}

// decimalConversion transports decimal.Decimal values as strings, which
// every supported database round-trips exactly.
type decimalConversion struct{}

func (decimalConversion) BaseType() ExchangeType { return XString }

func (decimalConversion) FromBase(base any, ind Indicator, dest any) error {
	out, ok := dest.(*decimal.Decimal)
	if !ok {
		return newError(ErrConversion, "decimal conversion into %T", dest)
	}
	if ind == IndNull {
		return newError(ErrConversion, "null value not allowed for decimal")
	}
	s, ok := base.(string)
	if !ok {
		return newError(ErrConversion, "decimal conversion from %T", base)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return wrapError(ErrConversion, err, "parsing decimal %q", s)
	}
	*out = d
	return nil
}

func (decimalConversion) ToBase(src any, ind *Indicator) (any, error) {
	d, ok := src.(*decimal.Decimal)
	if !ok {
		return nil, newError(ErrConversion, "decimal conversion from %T", src)
	}
	*ind = IndOK
	return d.String(), nil
}

func init() {
	RegisterConversion[uuid.UUID](uuidConversion{})
	RegisterConversion[decimal.Decimal](decimalConversion{})
}
