package sqladapter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/pthis/soci"
)

// This file moves values between driver representations and bound host
// variables. database/sql drivers deliver int64, float64, bool, []byte,
// string and time.Time; host variables cover the full exchange-kind set,
// so narrowing is range-checked and loosely typed drivers (SQLite's type
// affinity, MySQL's text protocol) get their numeric strings parsed.

// driverArg converts the host variable behind data into a value the driver
// accepts.
func driverArg(data any, kind soci.ExchangeType) (any, error) {
	switch v := data.(type) {
	case *soci.Char:
		return string([]byte{byte(*v)}), nil
	case *string:
		return *v, nil
	case *int8:
		return int64(*v), nil
	case *uint8:
		return int64(*v), nil
	case *int16:
		return int64(*v), nil
	case *uint16:
		return int64(*v), nil
	case *int32:
		return int64(*v), nil
	case *uint32:
		return int64(*v), nil
	case *int64:
		return *v, nil
	case *int:
		return int64(*v), nil
	case *uint64:
		// Values above the int64 range travel as strings; drivers accept
		// them for unsigned columns while int64 would overflow.
		if *v > math.MaxInt64 {
			return strconv.FormatUint(*v, 10), nil
		}
		return int64(*v), nil
	case *uint:
		if uint64(*v) > math.MaxInt64 {
			return strconv.FormatUint(uint64(*v), 10), nil
		}
		return int64(*v), nil
	case *float64:
		return *v, nil
	case *time.Time:
		return *v, nil
	case *[]byte:
		return *v, nil
	case *soci.Blob:
		buf, err := blobBytes(v)
		if err != nil {
			return nil, err
		}
		return buf, nil
	case *soci.RowID:
		return v.Value(), nil
	}
	return nil, &soci.Error{
		Category: soci.ErrBind,
		Message:  fmt.Sprintf("exchange kind %s is not supported by this backend", kind),
	}
}

// assignValue writes one driver value through a bound host pointer. The
// returned flag reports truncation (a multi-byte value bound to a single
// char).
func assignValue(dest any, kind soci.ExchangeType, value any) (bool, error) {
	switch p := dest.(type) {
	case *soci.Char:
		s, err := valueString(value)
		if err != nil {
			return false, err
		}
		if len(s) == 0 {
			*p = 0
			return false, nil
		}
		*p = soci.Char(s[0])
		return len(s) > 1, nil

	case *string:
		s, err := valueString(value)
		if err != nil {
			return false, err
		}
		*p = s
		return false, nil

	case *int8:
		n, err := valueInt(value)
		if err != nil {
			return false, err
		}
		if n < math.MinInt8 || n > math.MaxInt8 {
			return false, overflowError(n, "int8")
		}
		*p = int8(n)
		return false, nil

	case *uint8:
		n, err := valueUint(value)
		if err != nil {
			return false, err
		}
		if n > math.MaxUint8 {
			return false, overflowError(int64(n), "uint8")
		}
		*p = uint8(n)
		return false, nil

	case *int16:
		n, err := valueInt(value)
		if err != nil {
			return false, err
		}
		if n < math.MinInt16 || n > math.MaxInt16 {
			return false, overflowError(n, "int16")
		}
		*p = int16(n)
		return false, nil

	case *uint16:
		n, err := valueUint(value)
		if err != nil {
			return false, err
		}
		if n > math.MaxUint16 {
			return false, overflowError(int64(n), "uint16")
		}
		*p = uint16(n)
		return false, nil

	case *int32:
		n, err := valueInt(value)
		if err != nil {
			return false, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return false, overflowError(n, "int32")
		}
		*p = int32(n)
		return false, nil

	case *uint32:
		n, err := valueUint(value)
		if err != nil {
			return false, err
		}
		if n > math.MaxUint32 {
			return false, overflowError(int64(n), "uint32")
		}
		*p = uint32(n)
		return false, nil

	case *int64:
		n, err := valueInt(value)
		if err != nil {
			return false, err
		}
		*p = n
		return false, nil

	case *int:
		n, err := valueInt(value)
		if err != nil {
			return false, err
		}
		*p = int(n)
		return false, nil

	case *uint64:
		n, err := valueUint(value)
		if err != nil {
			return false, err
		}
		*p = n
		return false, nil

	case *uint:
		n, err := valueUint(value)
		if err != nil {
			return false, err
		}
		*p = uint(n)
		return false, nil

	case *float64:
		f, err := valueFloat(value)
		if err != nil {
			return false, err
		}
		*p = f
		return false, nil

	case *time.Time:
		t, err := valueTime(value)
		if err != nil {
			return false, err
		}
		*p = t
		return false, nil

	case *[]byte:
		buf, err := valueBytes(value)
		if err != nil {
			return false, err
		}
		*p = buf
		return false, nil

	case *soci.Blob:
		buf, err := valueBytes(value)
		if err != nil {
			return false, err
		}
		return false, setBlobBytes(p, buf)

	case *soci.RowID:
		n, err := valueInt(value)
		if err != nil {
			return false, err
		}
		return false, setRowIDValue(p, n)
	}
	return false, &soci.Error{
		Category: soci.ErrBind,
		Message:  fmt.Sprintf("exchange kind %s is not supported by this backend", kind),
	}
}

func overflowError(n int64, target string) error {
	return &soci.Error{
		Category: soci.ErrType,
		Message:  fmt.Sprintf("value %d overflows %s", n, target),
	}
}

func typeError(value any, target string) error {
	return &soci.Error{
		Category: soci.ErrType,
		Message:  fmt.Sprintf("cannot convert driver value of type %T to %s", value, target),
	}
}

func valueString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case time.Time:
		return v.Format("2006-01-02 15:04:05"), nil
	}
	return "", typeError(value, "string")
}

func valueInt(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case float64:
		// Loosely typed drivers report integral columns as doubles.
		if v != math.Trunc(v) {
			return 0, typeError(value, "integer")
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	}
	return 0, typeError(value, "integer")
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &soci.Error{
			Category: soci.ErrConversion,
			Message:  fmt.Sprintf("parsing %q as integer", s),
			Cause:    err,
		}
	}
	return n, nil
}

func valueUint(value any) (uint64, error) {
	switch v := value.(type) {
	case int64:
		if v < 0 {
			return 0, overflowError(v, "unsigned")
		}
		return uint64(v), nil
	case []byte:
		return parseUint(string(v))
	case string:
		return parseUint(v)
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return 0, typeError(value, "unsigned integer")
		}
		return uint64(v), nil
	}
	return 0, typeError(value, "unsigned integer")
}

func parseUint(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &soci.Error{
			Category: soci.ErrConversion,
			Message:  fmt.Sprintf("parsing %q as unsigned integer", s),
			Cause:    err,
		}
	}
	return n, nil
}

func valueFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case []byte:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	}
	return 0, typeError(value, "double")
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &soci.Error{
			Category: soci.ErrConversion,
			Message:  fmt.Sprintf("parsing %q as double", s),
			Cause:    err,
		}
	}
	return f, nil
}

// timeFormats are the textual date/time layouts drivers without a native
// time type deliver.
var timeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"15:04:05",
}

func valueTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return parseTime(string(v))
	case string:
		return parseTime(v)
	}
	return time.Time{}, typeError(value, "time")
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &soci.Error{
		Category: soci.ErrConversion,
		Message:  fmt.Sprintf("parsing %q as time", s),
	}
}

func valueBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case string:
		return []byte(v), nil
	}
	return nil, typeError(value, "blob")
}
