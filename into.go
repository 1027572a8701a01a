package soci

import "reflect"

// intoBinding is the lifecycle contract every output binding implements.
// The statement drives it: define once, then pre-exec / pre-fetch /
// post-fetch per batch, clean-up at the end.
type intoBinding interface {
	define(st *Statement, position *int) error
	preExec(num int) error
	preFetch() error
	postFetch(gotData, calledFromFetch bool) error
	cleanUp()

	size() int
	resize(sz int) error
	isVector() bool
}

// IntoDescriptor binds one host variable (scalar or slice) as an output of
// a statement. The variable must outlive the statement; the descriptor
// holds a pointer to it, never a copy.
type IntoDescriptor struct {
	data    any
	kind    ExchangeType
	vector  bool
	ind     *Indicator
	indVec  *[]Indicator
	ownInd  Indicator // used when a conversion runs without a user indicator
	begin   int
	end     *int
	conv    TypeConversion
	baseBuf any           // scalar conversion transport buffer
	baseVec reflect.Value // vector conversion transport buffer (slice)
	err     error         // deferred construction error

	backEnd    IntoTypeBackend
	vecBackEnd VectorIntoTypeBackend
}

// Into binds dest, a pointer to a supported host variable, as the next
// output column. A pointer to a slice (other than *[]byte, which is a blob)
// binds in bulk. Types with a registered conversion are transported through
// their base exchange kind.
func Into(dest any) *IntoDescriptor {
	return buildInto(dest, nil, nil, 0, nil)
}

// IntoWithIndicator is Into with a per-cell indicator. The indicator is set
// to IndNull on construction so it is well defined even if fetching fails
// before the first row.
func IntoWithIndicator(dest any, ind *Indicator) *IntoDescriptor {
	if ind != nil {
		*ind = IndNull
	}
	return buildInto(dest, ind, nil, 0, nil)
}

// IntoVectorWithIndicators is Into for a slice destination with one
// indicator per element.
func IntoVectorWithIndicators(dest any, inds *[]Indicator) *IntoDescriptor {
	return buildInto(dest, nil, inds, 0, nil)
}

// IntoRange binds the [begin, *end) sub-range of a slice destination. After
// each fetch the backend sets end to begin plus the delivered row count, so
// it moves back when the rowset ends inside the range.
func IntoRange(dest any, begin int, end *int) *IntoDescriptor {
	return buildInto(dest, nil, nil, begin, end)
}

// IntoRangeWithIndicators is IntoRange with per-element indicators.
func IntoRangeWithIndicators(dest any, inds *[]Indicator, begin int, end *int) *IntoDescriptor {
	return buildInto(dest, nil, inds, begin, end)
}

func buildInto(dest any, ind *Indicator, inds *[]Indicator, begin int, end *int) *IntoDescriptor {
	d := &IntoDescriptor{data: dest, ind: ind, indVec: inds, begin: begin, end: end}

	if kind, ok := exchangeKindOf(dest); ok {
		d.kind = kind
		return d
	}
	switch dest.(type) {
	case *Blob:
		d.kind = XBlob
		return d
	case *RowID:
		d.kind = XRowID
		return d
	}

	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		d.err = newError(ErrBind, "into target must be a non-nil pointer, got %T", dest)
		return d
	}
	elem := v.Elem()

	if elem.Kind() == reflect.Slice {
		d.vector = true
		elemType := elem.Type().Elem()
		if kind, ok := exchangeKindOf(reflect.New(elemType).Interface()); ok {
			d.kind = kind
			return d
		}
		if conv, ok := conversionForType(elemType); ok {
			d.kind = conv.BaseType()
			d.conv = conv
			return d
		}
		d.err = newError(ErrBind, "unsupported into element type %s", elemType)
		return d
	}

	if conv, ok := conversionForType(elem.Type()); ok {
		d.kind = conv.BaseType()
		d.conv = conv
		return d
	}
	d.err = newError(ErrBind, "unsupported into type %T", dest)
	return d
}

func (d *IntoDescriptor) isVector() bool { return d.vector }

// define creates the backend binder on first use and binds the exchange
// buffer at the next position.
func (d *IntoDescriptor) define(st *Statement, position *int) error {
	if d.err != nil {
		return d.err
	}
	if d.vector {
		return d.defineVector(st, position)
	}

	if d.backEnd == nil {
		d.backEnd = st.makeIntoTypeBackend()
	}
	data := d.data
	if d.conv != nil {
		if d.baseBuf == nil {
			d.baseBuf = baseBufferFor(d.conv.BaseType())
		}
		data = d.baseBuf
		if d.ind == nil {
			d.ownInd = IndNull
			d.ind = &d.ownInd
		}
	}
	return d.backEnd.DefineByPos(position, data, d.kind)
}

func (d *IntoDescriptor) defineVector(st *Statement, position *int) error {
	if d.vecBackEnd == nil {
		d.vecBackEnd = st.makeVectorIntoTypeBackend()
	}
	data := d.data
	if d.conv != nil {
		if !d.baseVec.IsValid() {
			n := reflect.ValueOf(d.data).Elem().Len()
			d.baseVec = reflect.New(reflect.SliceOf(baseElemTypeFor(d.conv.BaseType())))
			d.baseVec.Elem().Set(reflect.MakeSlice(d.baseVec.Type().Elem(), n, n))
		}
		data = d.baseVec.Interface()
		if d.indVec == nil {
			inds := make([]Indicator, reflect.ValueOf(d.data).Elem().Len())
			for i := range inds {
				inds[i] = IndNull
			}
			d.indVec = &inds
		}
	}
	if d.end != nil {
		return d.vecBackEnd.DefineByPosBulk(position, data, d.kind, d.begin, d.end)
	}
	return d.vecBackEnd.DefineByPos(position, data, d.kind)
}

func (d *IntoDescriptor) preExec(num int) error {
	if d.vector {
		return d.vecBackEnd.PreExec(num)
	}
	return d.backEnd.PreExec(num)
}

func (d *IntoDescriptor) preFetch() error {
	if d.vector {
		return d.vecBackEnd.PreFetch()
	}
	return d.backEnd.PreFetch()
}

func (d *IntoDescriptor) postFetch(gotData, calledFromFetch bool) error {
	if d.vector {
		var inds []Indicator
		if d.indVec != nil {
			inds = *d.indVec
		}
		if err := d.vecBackEnd.PostFetch(gotData, inds); err != nil {
			return err
		}
		if gotData {
			return d.convertVectorFromBase()
		}
		return nil
	}

	if err := d.backEnd.PostFetch(gotData, calledFromFetch, d.ind); err != nil {
		return err
	}
	if gotData && d.conv != nil {
		ind := IndOK
		if d.ind != nil {
			ind = *d.ind
		}
		return d.conv.FromBase(derefBase(d.baseBuf), ind, d.data)
	}
	return nil
}

// convertVectorFromBase converts the fetched base slice element-wise into
// the user slice.
func (d *IntoDescriptor) convertVectorFromBase() error {
	if d.conv == nil {
		return nil
	}
	base := d.baseVec.Elem()
	start := d.begin
	stop := base.Len()
	if d.end != nil && *d.end < stop {
		stop = *d.end
	}
	if user := reflect.ValueOf(d.data).Elem(); user.Len() < stop {
		if err := resizeSlice(d.data, stop); err != nil {
			return err
		}
	}
	user := reflect.ValueOf(d.data).Elem()
	inds := *d.indVec
	for i := start; i < stop; i++ {
		ind := IndOK
		if i < len(inds) {
			ind = inds[i]
		}
		dest := user.Index(i).Addr().Interface()
		if err := d.conv.FromBase(base.Index(i).Interface(), ind, dest); err != nil {
			return err
		}
	}
	return nil
}

func (d *IntoDescriptor) cleanUp() {
	if d.vector {
		if d.vecBackEnd != nil {
			d.vecBackEnd.CleanUp()
			d.vecBackEnd = nil
		}
		return
	}
	if d.backEnd != nil {
		d.backEnd.CleanUp()
		d.backEnd = nil
	}
}

func (d *IntoDescriptor) size() int {
	if !d.vector {
		return 1
	}
	if d.vecBackEnd != nil {
		return d.vecBackEnd.Size()
	}
	return reflect.ValueOf(d.data).Elem().Len()
}

func (d *IntoDescriptor) resize(sz int) error {
	if !d.vector {
		return nil
	}
	if d.conv != nil {
		if err := resizeIndicators(d.indVec, sz); err != nil {
			return err
		}
		if err := resizeSlice(d.data, sz); err != nil {
			return err
		}
		// The binder resizes the base transport slice it is bound to.
		return d.vecBackEnd.Resize(sz)
	}
	if d.indVec != nil {
		if err := resizeIndicators(d.indVec, sz); err != nil {
			return err
		}
	}
	return d.vecBackEnd.Resize(sz)
}

// baseElemTypeFor returns the reflect type of one base slice element for a
// conversion's base kind.
func baseElemTypeFor(kind ExchangeType) reflect.Type {
	return reflect.TypeOf(derefBase(baseBufferFor(kind)))
}

// resizeSlice resizes the slice behind ptr (a pointer to a slice) to sz
// elements, reallocating when the capacity is exceeded.
func resizeSlice(ptr any, sz int) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Slice {
		return newError(ErrBind, "resize target must be a pointer to slice, got %T", ptr)
	}
	s := v.Elem()
	switch {
	case sz <= s.Cap():
		s.SetLen(sz)
	default:
		grown := reflect.MakeSlice(s.Type(), sz, sz)
		reflect.Copy(grown, s)
		s.Set(grown)
	}
	return nil
}

// resizeIndicators keeps an indicator vector in step with its data vector.
func resizeIndicators(inds *[]Indicator, sz int) error {
	if inds == nil {
		return nil
	}
	cur := *inds
	switch {
	case sz <= len(cur):
		*inds = cur[:sz]
	case sz <= cap(cur):
		ext := cur[:sz]
		for i := len(cur); i < sz; i++ {
			ext[i] = IndNull
		}
		*inds = ext
	default:
		grown := make([]Indicator, sz)
		copy(grown, cur)
		for i := len(cur); i < sz; i++ {
			grown[i] = IndNull
		}
		*inds = grown
	}
	return nil
}
