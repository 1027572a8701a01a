package soci

import (
	"testing"
	"time"
)

// newTestRow builds a populated row the way a dynamic fetch would.
func newTestRow() *Row {
	r := NewRow()

	var idProps, nameProps, whenProps ColumnProperties
	idProps.SetName("id")
	idProps.SetDBType(DBInt64)
	nameProps.SetName("name")
	nameProps.SetDBType(DBString)
	whenProps.SetName("created")
	whenProps.SetDBType(DBDate)

	idHolder := newHolder(XInt64)
	idHolder.i64 = 99
	nameHolder := newHolder(XString)
	nameHolder.str = "abc"
	whenHolder := newHolder(XTime)
	whenHolder.tm = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	r.addColumn(idProps, idHolder)
	r.addColumn(nameProps, nameHolder)
	r.addColumn(whenProps, whenHolder)
	r.indicators[0] = IndOK
	r.indicators[1] = IndOK
	r.indicators[2] = IndOK
	return r
}

func TestRowGetByPositionAndName(t *testing.T) {
	r := newTestRow()

	var id int64
	if err := r.Get(0, &id); err != nil {
		t.Fatalf("get: %v", err)
	}
	if id != 99 {
		t.Errorf("expected 99, got %d", id)
	}

	var name string
	if err := r.GetByName("name", &name); err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if name != "abc" {
		t.Errorf("expected abc, got %q", name)
	}

	var when time.Time
	if err := r.GetByName("created", &when); err != nil {
		t.Fatalf("get time: %v", err)
	}
	if when.Year() != 2024 {
		t.Errorf("unexpected time %v", when)
	}
}

func TestRowGetWidening(t *testing.T) {
	r := NewRow()
	var props ColumnProperties
	props.SetName("v")
	props.SetDBType(DBInt16)
	h := newHolder(XInt16)
	h.i16 = 1234
	r.addColumn(props, h)
	r.indicators[0] = IndOK

	var wide int64
	if err := r.Get(0, &wide); err != nil {
		t.Fatalf("get: %v", err)
	}
	if wide != 1234 {
		t.Errorf("expected 1234, got %d", wide)
	}

	var narrow int8
	if err := r.Get(0, &narrow); err == nil {
		t.Error("expected a type error narrowing int16 to int8")
	}
}

func TestRowMoveAsResetsHolder(t *testing.T) {
	r := newTestRow()

	var name string
	if err := r.MoveAsByName("name", &name); err != nil {
		t.Fatalf("move: %v", err)
	}
	if name != "abc" {
		t.Errorf("expected abc, got %q", name)
	}
	if r.holders[1].str != "" {
		t.Errorf("holder not reset after move: %q", r.holders[1].str)
	}
}

func TestRowNullCell(t *testing.T) {
	r := newTestRow()
	r.indicators[0] = IndNull

	var id int64
	err := r.Get(0, &id)
	if err == nil {
		t.Fatal("expected a type error for a null cell")
	}
	if cat, ok := CategoryOf(err); !ok || cat != ErrType {
		t.Errorf("expected ErrType, got %v", err)
	}

	ind, err := r.Indicator(0)
	if err != nil {
		t.Fatalf("indicator: %v", err)
	}
	if ind != IndNull {
		t.Errorf("expected null indicator, got %v", ind)
	}
}

func TestRowOutOfRange(t *testing.T) {
	r := newTestRow()

	var v int64
	if err := r.Get(17, &v); err == nil {
		t.Error("expected an error for an out-of-range position")
	}
	if _, err := r.Properties(-1); err == nil {
		t.Error("expected an error for a negative position")
	}
	if err := r.GetByName("nope", &v); err == nil {
		t.Error("expected an error for an unknown column")
	}
}

func TestRowUppercaseColumnNames(t *testing.T) {
	r := NewRow()
	r.UppercaseColumnNames(true)

	var props ColumnProperties
	props.SetName("mixedCase")
	props.SetDBType(DBString)
	h := newHolder(XString)
	h.str = "x"
	r.addColumn(props, h)
	r.indicators[0] = IndOK

	got, err := r.Properties(0)
	if err != nil {
		t.Fatalf("properties: %v", err)
	}
	if got.Name() != "MIXEDCASE" {
		t.Errorf("name not uppercased: %q", got.Name())
	}
	var v string
	if err := r.GetByName("mixedcase", &v); err != nil {
		t.Errorf("case-normalized lookup failed: %v", err)
	}
}

func TestRowStreaming(t *testing.T) {
	r := newTestRow()

	var id int64
	var name string
	if err := r.Next(&id); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := r.Next(&name); err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != 99 || name != "abc" {
		t.Errorf("unexpected stream values: %d %q", id, name)
	}

	r.ResetGetCounter()
	r.Skip(1)
	var again string
	if err := r.Next(&again); err != nil {
		t.Fatalf("next after skip: %v", err)
	}
	if again != "abc" {
		t.Errorf("expected abc after skip, got %q", again)
	}
}
