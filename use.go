package soci

import "reflect"

// useBinding is the lifecycle contract every input binding implements.
type useBinding interface {
	bind(st *Statement, position *int) error
	preExec(num int) error
	preUse() error
	postUse(gotData bool) error
	cleanUp()

	size() int
	isVector() bool
	bindName() string
	dumpValue() string
}

// UseDescriptor binds one host variable (scalar or slice) as an input
// parameter. The variable is shared with the caller and must outlive the
// statement; for stored-procedure IN/OUT parameters the post-execution value
// is written back through the same pointer.
type UseDescriptor struct {
	data     any
	kind     ExchangeType
	name     string // empty means bind by position
	readOnly bool
	vector   bool
	ind      *Indicator
	indVec   *[]Indicator
	begin    int
	end      *int
	conv     TypeConversion
	baseBuf  any           // scalar conversion transport buffer
	baseVec  reflect.Value // vector conversion transport buffer
	convInd  Indicator     // indicator storage for conversions without one
	err      error

	backEnd    UseTypeBackend
	vecBackEnd VectorUseTypeBackend
}

// Use binds src, a pointer to a supported host variable, as the next input
// parameter by position. A pointer to a slice (other than *[]byte) binds in
// bulk. An optional name binds the parameter by name instead; a statement
// must not mix named and positional bindings.
func Use(src any, name ...string) *UseDescriptor {
	var n string
	if len(name) > 0 {
		n = name[0]
	}
	return buildUse(src, n, nil, nil, 0, nil)
}

// UseWithIndicator is Use with an input indicator: passing IndNull sends
// SQL NULL regardless of the variable's value. For IN/OUT parameters the
// indicator also receives the post-call state.
func UseWithIndicator(src any, ind *Indicator, name ...string) *UseDescriptor {
	var n string
	if len(name) > 0 {
		n = name[0]
	}
	return buildUse(src, n, ind, nil, 0, nil)
}

// UseVectorWithIndicators is Use for a slice source with one indicator per
// element.
func UseVectorWithIndicators(src any, inds *[]Indicator, name ...string) *UseDescriptor {
	var n string
	if len(name) > 0 {
		n = name[0]
	}
	return buildUse(src, n, nil, inds, 0, nil)
}

// UseRange binds the [begin, *end) sub-range of a slice source.
func UseRange(src any, begin int, end *int, name ...string) *UseDescriptor {
	var n string
	if len(name) > 0 {
		n = name[0]
	}
	return buildUse(src, n, nil, nil, begin, end)
}

func buildUse(src any, name string, ind *Indicator, inds *[]Indicator, begin int, end *int) *UseDescriptor {
	d := &UseDescriptor{data: src, name: name, ind: ind, indVec: inds, begin: begin, end: end}

	if kind, ok := exchangeKindOf(src); ok {
		d.kind = kind
		return d
	}
	switch src.(type) {
	case *Blob:
		d.kind = XBlob
		return d
	case *RowID:
		d.kind = XRowID
		return d
	}

	v := reflect.ValueOf(src)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		d.err = newError(ErrBind, "use source must be a non-nil pointer, got %T", src)
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
		d.err = newError(ErrBind, "unsupported use element type %s", elemType)
		return d
	}

	if conv, ok := conversionForType(elem.Type()); ok {
		d.kind = conv.BaseType()
		d.conv = conv
		return d
	}
	d.err = newError(ErrBind, "unsupported use type %T", src)
	return d
}

// MarkReadOnly tells the backend the bound value is never written back,
// allowing it to skip the OUT direction of the parameter.
func (d *UseDescriptor) MarkReadOnly() *UseDescriptor {
	d.readOnly = true
	return d
}

func (d *UseDescriptor) isVector() bool   { return d.vector }
func (d *UseDescriptor) bindName() string { return d.name }

func (d *UseDescriptor) bind(st *Statement, position *int) error {
	if d.err != nil {
		return d.err
	}
	if d.vector {
		return d.bindVector(st, position)
	}

	if d.backEnd == nil {
		d.backEnd = st.makeUseTypeBackend()
	}
	data := d.data
	if d.conv != nil {
		if d.baseBuf == nil {
			d.baseBuf = baseBufferFor(d.conv.BaseType())
		}
		data = d.baseBuf
		if d.ind == nil {
			d.convInd = IndOK
			d.ind = &d.convInd
		}
	}
	if d.name == "" {
		return d.backEnd.BindByPos(position, data, d.kind, d.readOnly)
	}
	return d.backEnd.BindByName(d.name, data, d.kind, d.readOnly)
}

func (d *UseDescriptor) bindVector(st *Statement, position *int) error {
	if d.vecBackEnd == nil {
		d.vecBackEnd = st.makeVectorUseTypeBackend()
	}
	data := d.data
	if d.conv != nil {
		if !d.baseVec.IsValid() {
			d.baseVec = reflect.New(reflect.SliceOf(baseElemTypeFor(d.conv.BaseType())))
		}
		data = d.baseVec.Interface()
	}
	switch {
	case d.name == "" && d.end != nil:
		return d.vecBackEnd.BindByPosBulk(position, data, d.kind, d.begin, d.end)
	case d.name == "":
		return d.vecBackEnd.BindByPos(position, data, d.kind)
	case d.end != nil:
		return d.vecBackEnd.BindByNameBulk(d.name, data, d.kind, d.begin, d.end)
	default:
		return d.vecBackEnd.BindByName(d.name, data, d.kind)
	}
}

func (d *UseDescriptor) preExec(num int) error {
	if d.vector {
		return d.vecBackEnd.PreExec(num)
	}
	return d.backEnd.PreExec(num)
}

// preUse runs the IN direction: user-type conversion first, then the
// backend snapshot of the parameter buffer.
func (d *UseDescriptor) preUse() error {
	if d.vector {
		if err := d.convertVectorToBase(); err != nil {
			return err
		}
		var inds []Indicator
		if d.indVec != nil {
			inds = *d.indVec
		}
		return d.vecBackEnd.PreUse(inds)
	}

	if d.conv != nil {
		value, err := d.conv.ToBase(d.data, d.ind)
		if err != nil {
			return err
		}
		if err := storeBase(d.baseBuf, value); err != nil {
			return err
		}
	}
	return d.backEnd.PreUse(d.ind)
}

// postUse runs the OUT direction of IN/OUT stored-procedure parameters so
// the caller's variable reflects the post-call value.
func (d *UseDescriptor) postUse(gotData bool) error {
	if d.vector {
		return nil
	}
	if err := d.backEnd.PostUse(gotData, d.ind); err != nil {
		return err
	}
	if d.conv != nil && !d.readOnly {
		ind := IndOK
		if d.ind != nil {
			ind = *d.ind
		}
		return d.conv.FromBase(derefBase(d.baseBuf), ind, d.data)
	}
	return nil
}

// convertVectorToBase converts the user slice element-wise into the base
// transport slice.
func (d *UseDescriptor) convertVectorToBase() error {
	if d.conv == nil {
		return nil
	}
	user := reflect.ValueOf(d.data).Elem()
	n := user.Len()
	base := reflect.MakeSlice(reflect.SliceOf(baseElemTypeFor(d.conv.BaseType())), n, n)
	inds := make([]Indicator, n)
	for i := 0; i < n; i++ {
		value, err := d.conv.ToBase(user.Index(i).Addr().Interface(), &inds[i])
		if err != nil {
			return err
		}
		buf := baseBufferFor(d.conv.BaseType())
		if err := storeBase(buf, value); err != nil {
			return err
		}
		base.Index(i).Set(reflect.ValueOf(derefBase(buf)))
	}
	d.baseVec.Elem().Set(base)
	if d.indVec == nil {
		d.indVec = &inds
	}
	return nil
}

func (d *UseDescriptor) cleanUp() {
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

func (d *UseDescriptor) size() int {
	if !d.vector {
		return 1
	}
	if d.conv != nil {
		return reflect.ValueOf(d.data).Elem().Len()
	}
	if d.vecBackEnd != nil {
		return d.vecBackEnd.Size()
	}
	return reflect.ValueOf(d.data).Elem().Len()
}

// dumpValue renders the bound value for diagnostics, NULL-aware and with
// string values quoted. Vectors render as a placeholder.
func (d *UseDescriptor) dumpValue() string {
	if d.vector {
		return "<vector>"
	}
	if d.ind != nil && *d.ind == IndNull {
		return "NULL"
	}
	return formatBoundValue(d.data)
}
