package sqladapter

import (
	"reflect"

	"github.com/pthis/soci"
)

// intoBinder is the scalar output binder: it owns one 0-based column
// position and writes the current window's first row through the bound
// host pointer.
type intoBinder struct {
	st   *StatementBackend
	pos  int
	data any
	kind soci.ExchangeType
}

// DefineByPos implements soci.IntoTypeBackend.
func (b *intoBinder) DefineByPos(position *int, data any, x soci.ExchangeType) error {
	b.pos = *position - 1
	b.data = data
	b.kind = x
	*position++
	return nil
}

// PreExec implements soci.IntoTypeBackend.
func (b *intoBinder) PreExec(num int) error { return nil }

// PreFetch implements soci.IntoTypeBackend.
func (b *intoBinder) PreFetch() error { return nil }

// PostFetch implements soci.IntoTypeBackend.
func (b *intoBinder) PostFetch(gotData, calledFromFetch bool, ind *soci.Indicator) error {
	if calledFromFetch && !gotData {
		// Normal end-of-rowset condition; the fetch returns false.
		return nil
	}
	if !gotData || len(b.st.window) == 0 {
		return nil
	}
	if b.pos >= len(b.st.window[0]) {
		return &soci.Error{Category: soci.ErrFetch, Message: "into position exceeds column count"}
	}
	value := b.st.window[0][b.pos]

	if value == nil {
		if ind == nil {
			return &soci.Error{Category: soci.ErrType, Message: "null value fetched and no indicator defined"}
		}
		*ind = soci.IndNull
		return nil
	}
	truncated, err := assignValue(b.data, b.kind, value)
	if err != nil {
		return err
	}
	if ind != nil {
		if truncated {
			*ind = soci.IndTruncated
		} else {
			*ind = soci.IndOK
		}
	} else if truncated {
		return &soci.Error{Category: soci.ErrType, Message: "value truncated and no indicator defined"}
	}
	return nil
}

// CleanUp implements soci.IntoTypeBackend.
func (b *intoBinder) CleanUp() {
	b.st.removeIntoBinder(b)
}

// vectorIntoBinder is the bulk output binder: it distributes the fetched
// window into a [begin, *end) range of the bound user slice, growing the
// slice through the resize hook when the window exceeds it.
type vectorIntoBinder struct {
	st    *StatementBackend
	pos   int
	data  any // pointer to the user slice
	kind  soci.ExchangeType
	begin int
	end   *int
}

// DefineByPos implements soci.VectorIntoTypeBackend.
func (b *vectorIntoBinder) DefineByPos(position *int, data any, x soci.ExchangeType) error {
	return b.DefineByPosBulk(position, data, x, 0, nil)
}

// DefineByPosBulk implements soci.VectorIntoTypeBackend.
func (b *vectorIntoBinder) DefineByPosBulk(position *int, data any, x soci.ExchangeType, begin int, end *int) error {
	b.pos = *position - 1
	b.data = data
	b.kind = x
	b.begin = begin
	b.end = end
	*position++
	return nil
}

// PreExec implements soci.VectorIntoTypeBackend.
func (b *vectorIntoBinder) PreExec(num int) error { return nil }

// PreFetch implements soci.VectorIntoTypeBackend.
func (b *vectorIntoBinder) PreFetch() error { return nil }

// PostFetch implements soci.VectorIntoTypeBackend.
func (b *vectorIntoBinder) PostFetch(gotData bool, ind []soci.Indicator) error {
	if !gotData {
		return nil
	}
	rows := b.st.window
	if need := b.begin + len(rows); b.userLen() < need {
		if err := b.resizeUserSlice(need); err != nil {
			return err
		}
	}
	slice := reflect.ValueOf(b.data).Elem()
	for i, rowValues := range rows {
		if b.pos >= len(rowValues) {
			return &soci.Error{Category: soci.ErrFetch, Message: "into position exceeds column count"}
		}
		value := rowValues[b.pos]
		target := b.begin + i

		if value == nil {
			if ind == nil {
				return &soci.Error{Category: soci.ErrType, Message: "null value fetched and no indicator defined"}
			}
			if target < len(ind) {
				ind[target] = soci.IndNull
			}
			continue
		}
		truncated, err := assignValue(slice.Index(target).Addr().Interface(), b.kind, value)
		if err != nil {
			return err
		}
		switch {
		case target < len(ind) && truncated:
			ind[target] = soci.IndTruncated
		case target < len(ind):
			ind[target] = soci.IndOK
		case truncated:
			return &soci.Error{Category: soci.ErrType, Message: "value truncated and no indicator defined"}
		}
	}
	if b.end != nil {
		*b.end = b.begin + len(rows)
	}
	return nil
}

// Resize implements soci.VectorIntoTypeBackend: sz is the logical element
// count of the binding, so a range binding moves its end marker while a
// whole-slice binding resizes the slice itself.
func (b *vectorIntoBinder) Resize(sz int) error {
	if b.end != nil {
		*b.end = b.begin + sz
		return b.resizeUserSlice(b.begin + sz)
	}
	return b.resizeUserSlice(sz)
}

// Size implements soci.VectorIntoTypeBackend.
func (b *vectorIntoBinder) Size() int {
	if b.end != nil {
		return *b.end - b.begin
	}
	return b.userLen()
}

// CleanUp implements soci.VectorIntoTypeBackend.
func (b *vectorIntoBinder) CleanUp() {
	b.st.removeVectorIntoBinder(b)
}

func (b *vectorIntoBinder) userLen() int {
	return reflect.ValueOf(b.data).Elem().Len()
}

func (b *vectorIntoBinder) resizeUserSlice(sz int) error {
	v := reflect.ValueOf(b.data)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Slice {
		return &soci.Error{Category: soci.ErrBind, Message: "bulk into target is not a pointer to slice"}
	}
	s := v.Elem()
	if sz <= s.Cap() {
		s.SetLen(sz)
		return nil
	}
	grown := reflect.MakeSlice(s.Type(), sz, sz)
	reflect.Copy(grown, s)
	s.Set(grown)
	return nil
}

// useBinder is the scalar input binder: PreUse snapshots the host value
// into a driver argument, honoring a null indicator.
type useBinder struct {
	st       *StatementBackend
	name     string
	data     any
	kind     soci.ExchangeType
	readOnly bool

	value any
	null  bool
}

// BindByPos implements soci.UseTypeBackend.
func (b *useBinder) BindByPos(position *int, data any, x soci.ExchangeType, readOnly bool) error {
	b.data = data
	b.kind = x
	b.readOnly = readOnly
	*position++
	return nil
}

// BindByName implements soci.UseTypeBackend.
func (b *useBinder) BindByName(name string, data any, x soci.ExchangeType, readOnly bool) error {
	b.name = name
	b.data = data
	b.kind = x
	b.readOnly = readOnly
	return nil
}

// PreExec implements soci.UseTypeBackend.
func (b *useBinder) PreExec(num int) error { return nil }

// PreUse implements soci.UseTypeBackend.
func (b *useBinder) PreUse(ind *soci.Indicator) error {
	if ind != nil && *ind == soci.IndNull {
		b.null = true
		b.value = nil
		return nil
	}
	b.null = false
	value, err := driverArg(b.data, b.kind)
	if err != nil {
		return err
	}
	b.value = value
	return nil
}

// PostUse implements soci.UseTypeBackend. database/sql has no portable OUT
// parameter channel, so the host variable keeps its pre-call value.
func (b *useBinder) PostUse(gotData bool, ind *soci.Indicator) error { return nil }

// CleanUp implements soci.UseTypeBackend.
func (b *useBinder) CleanUp() {
	b.st.removeUseBinder(b)
}

func (b *useBinder) arg() any {
	if b.null {
		return nil
	}
	return b.value
}

// vectorUseBinder is the bulk input binder: arg(row) produces the driver
// argument for one logical row of the bound slice range.
type vectorUseBinder struct {
	st    *StatementBackend
	name  string
	data  any // pointer to the user slice
	kind  soci.ExchangeType
	begin int
	end   *int
	inds  []soci.Indicator
}

// BindByPos implements soci.VectorUseTypeBackend.
func (b *vectorUseBinder) BindByPos(position *int, data any, x soci.ExchangeType) error {
	return b.BindByPosBulk(position, data, x, 0, nil)
}

// BindByPosBulk implements soci.VectorUseTypeBackend.
func (b *vectorUseBinder) BindByPosBulk(position *int, data any, x soci.ExchangeType, begin int, end *int) error {
	b.data = data
	b.kind = x
	b.begin = begin
	b.end = end
	*position++
	return nil
}

// BindByName implements soci.VectorUseTypeBackend.
func (b *vectorUseBinder) BindByName(name string, data any, x soci.ExchangeType) error {
	return b.BindByNameBulk(name, data, x, 0, nil)
}

// BindByNameBulk implements soci.VectorUseTypeBackend.
func (b *vectorUseBinder) BindByNameBulk(name string, data any, x soci.ExchangeType, begin int, end *int) error {
	b.name = name
	b.data = data
	b.kind = x
	b.begin = begin
	b.end = end
	return nil
}

// PreExec implements soci.VectorUseTypeBackend.
func (b *vectorUseBinder) PreExec(num int) error { return nil }

// PreUse implements soci.VectorUseTypeBackend.
func (b *vectorUseBinder) PreUse(ind []soci.Indicator) error {
	if b.size() == 0 {
		return &soci.Error{Category: soci.ErrUsage, Message: "vectors of size 0 are not allowed"}
	}
	b.inds = ind
	return nil
}

// Size implements soci.VectorUseTypeBackend.
func (b *vectorUseBinder) Size() int { return b.size() }

// CleanUp implements soci.VectorUseTypeBackend.
func (b *vectorUseBinder) CleanUp() {
	b.st.removeVectorUseBinder(b)
}

func (b *vectorUseBinder) size() int {
	if b.end != nil {
		return *b.end - b.begin
	}
	return reflect.ValueOf(b.data).Elem().Len()
}

// arg produces the driver argument for one logical row.
func (b *vectorUseBinder) arg(row int) (any, error) {
	if row < 0 || row >= b.size() {
		return nil, &soci.Error{Category: soci.ErrBind, Message: "bulk use row out of range"}
	}
	target := b.begin + row
	if target < len(b.inds) && b.inds[target] == soci.IndNull {
		return nil, nil
	}
	elem := reflect.ValueOf(b.data).Elem().Index(target)
	return driverArg(elem.Addr().Interface(), b.kind)
}
