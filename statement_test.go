package soci

import (
	"errors"
	"testing"
)

func TestScalarIntoFetch(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"v"},
		colTypes: []DBType{DBInt32},
		rows:     [][]any{{int32(42)}},
	}

	var v int32
	gotData, err := sess.Query("select v from t").Into(&v).Exec()
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !gotData {
		t.Fatal("expected data")
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestScalarUseValues(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	v := int32(7)
	if _, err := sess.Query("insert into t(v) values(:v)").Use(&v, "v").Exec(); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(sb.execLog) != 1 {
		t.Fatalf("expected one execution, got %d", len(sb.execLog))
	}
	if sb.execLog[0] != "insert into t(v) values(?)" {
		t.Errorf("unexpected rewritten query: %q", sb.execLog[0])
	}
}

func TestNullWithIndicator(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"v"},
		colTypes: []DBType{DBInt32},
		rows:     [][]any{{nil}},
	}

	var v int32
	var ind Indicator
	gotData, err := sess.Query("select v from t").IntoWithIndicator(&v, &ind).Exec()
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !gotData {
		t.Fatal("expected a row")
	}
	if ind != IndNull {
		t.Errorf("expected null indicator, got %v", ind)
	}
	if v != 0 {
		t.Errorf("user variable touched on null: %d", v)
	}
}

func TestNullWithoutIndicatorFails(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"v"},
		colTypes: []DBType{DBInt32},
		rows:     [][]any{{nil}},
	}

	var v int32
	_, err = sess.Query("select v from t").Into(&v).Exec()
	if err == nil {
		t.Fatal("expected a type error")
	}
	if cat, ok := CategoryOf(err); !ok || cat != ErrType {
		t.Errorf("expected ErrType, got %v", err)
	}
}

func TestMixedBindModesRejected(t *testing.T) {
	sess, _, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	a, b := int32(1), int32(2)
	_, err = sess.Query("insert into t(a, b) values(:a, :b)").
		Use(&a, "a").
		Use(&b).
		Exec()
	if err == nil {
		t.Fatal("expected a bind error")
	}
	if cat, ok := CategoryOf(err); !ok || cat != ErrBind {
		t.Errorf("expected ErrBind, got %v", err)
	}
}

func TestBulkIntoWithScalarUseRejected(t *testing.T) {
	sess, _, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	ids := make([]int32, 10)
	limit := int32(5)
	_, err = sess.Query("select id from t where id < :limit").
		Into(&ids).
		Use(&limit, "limit").
		Exec()
	if err == nil {
		t.Fatal("expected a usage error")
	}
	if cat, ok := CategoryOf(err); !ok || cat != ErrUsage {
		t.Errorf("expected ErrUsage, got %v", err)
	}
}

func TestScalarAndBulkUseRejected(t *testing.T) {
	sess, _, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	vals := []int32{1, 2, 3}
	flag := int32(1)
	_, err = sess.Query("insert into t(v, f) values(:v, :f)").
		Use(&vals, "v").
		Use(&flag, "f").
		Exec()
	if err == nil {
		t.Fatal("expected a usage error")
	}
	if cat, ok := CategoryOf(err); !ok || cat != ErrUsage {
		t.Errorf("expected ErrUsage, got %v", err)
	}
}

func TestZeroSizeBulkRejected(t *testing.T) {
	sess, _, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	var vals []int32
	_, err = sess.Query("insert into t(v) values(:v)").Use(&vals, "v").Exec()
	if err == nil {
		t.Fatal("expected a usage error")
	}
	if cat, ok := CategoryOf(err); !ok || cat != ErrUsage {
		t.Errorf("expected ErrUsage, got %v", err)
	}
}

func TestBulkUseExecutesPerRow(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	vals := []int32{10, 11, 12}
	if _, err := sess.Query("insert into t(v) values(:v)").Use(&vals, "v").Exec(); err != nil {
		t.Fatalf("exec: %v", err)
	}
	rows := 0
	for _, entry := range sb.execLog {
		if entry == "(bulk row)" {
			rows++
		}
	}
	if rows != 3 {
		t.Errorf("expected 3 per-row executions, got %d", rows)
	}
}

func TestBulkFetchTermination(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"v"},
		colTypes: []DBType{DBInt32},
		rows:     [][]any{{int32(1)}, {int32(2)}, {int32(3)}},
	}

	batch := make([]int32, 2)
	st, err := sess.Query("select v from t order by v").Into(&batch).Prepare()
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer st.CleanUp()

	gotData, err := st.Execute(true)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !gotData {
		t.Fatal("expected first batch")
	}
	if len(batch) != 2 || batch[0] != 1 || batch[1] != 2 {
		t.Errorf("unexpected first batch: %v", batch)
	}

	gotData, err = st.Fetch()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !gotData {
		t.Fatal("expected a partial last batch")
	}
	if len(batch) != 1 || batch[0] != 3 {
		t.Errorf("expected shrunk batch [3], got %v", batch)
	}

	gotData, err = st.Fetch()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotData {
		t.Error("expected end of rowset")
	}
}

func TestBulkIntoSizesMustMatch(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"a", "b"},
		colTypes: []DBType{DBInt32, DBInt32},
		rows:     [][]any{{int32(1), int32(2)}},
	}

	a := make([]int32, 4)
	b := make([]int32, 5)
	_, err = sess.Query("select a, b from t").Into(&a).Into(&b).Exec()
	if err == nil {
		t.Fatal("expected a usage error")
	}
	if cat, ok := CategoryOf(err); !ok || cat != ErrUsage {
		t.Errorf("expected ErrUsage, got %v", err)
	}
}

func TestDynamicRowDescribe(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"id", "name"},
		colTypes: []DBType{DBInt32, DBString},
		rows:     [][]any{{int32(5), "fiver"}},
	}

	row := NewRow()
	gotData, err := sess.Query("select id, name from t").IntoRow(row).Exec()
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !gotData {
		t.Fatal("expected a row")
	}

	props, err := row.Properties(0)
	if err != nil {
		t.Fatalf("properties: %v", err)
	}
	if props.DBType() != DBInt32 || props.Name() != "id" {
		t.Errorf("unexpected column 0: %s %s", props.DBType(), props.Name())
	}
	props, err = row.Properties(1)
	if err != nil {
		t.Fatalf("properties: %v", err)
	}
	if props.DBType() != DBString || props.Name() != "name" {
		t.Errorf("unexpected column 1: %s %s", props.DBType(), props.Name())
	}

	var id int32
	if err := row.Get(0, &id); err != nil {
		t.Fatalf("get id: %v", err)
	}
	if id != 5 {
		t.Errorf("expected 5, got %d", id)
	}
	var name string
	if err := row.GetByName("name", &name); err != nil {
		t.Fatalf("get name: %v", err)
	}
	if name != "fiver" {
		t.Errorf("expected fiver, got %q", name)
	}
}

func TestAffectedRows(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{affected: 3}
	st, err := sess.Query("delete from t").Prepare()
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer st.CleanUp()
	if _, err := st.Execute(false); err != nil {
		t.Fatalf("execute: %v", err)
	}
	n, err := st.AffectedRows()
	if err != nil {
		t.Fatalf("affected rows: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 affected rows, got %d", n)
	}
}

func TestStatementInvalidatedByReconnect(t *testing.T) {
	sess, _, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	var v int32
	st, err := sess.Query("select v from t").Into(&v).Prepare()
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer st.CleanUp()

	if err := sess.Reconnect(); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	_, err = st.Execute(true)
	if err == nil {
		t.Fatal("expected a usage error after reconnect")
	}
	if cat, ok := CategoryOf(err); !ok || cat != ErrUsage {
		t.Errorf("expected ErrUsage, got %v", err)
	}
}

func TestUseDumpValues(t *testing.T) {
	sess, _, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	v := int32(9)
	name := "bob"
	st, err := sess.Query("insert into t(v, name) values(:v, :name)").
		Use(&v, "v").
		Use(&name, "name").
		Prepare()
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer st.CleanUp()

	dump := st.dumpUseValues()
	if dump != `:v=9, :name="bob"` {
		t.Errorf("unexpected dump: %q", dump)
	}
}

func TestProcedureRewrite(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	v := int32(1)
	proc, err := sess.Query("do_thing(:v)").Use(&v, "v").NewProcedure()
	if err != nil {
		t.Fatalf("procedure: %v", err)
	}
	defer proc.CleanUp()

	if _, err := proc.Execute(true); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(sb.execLog) == 0 || sb.execLog[0] != "call do_thing(?)" {
		t.Errorf("unexpected rewritten call: %v", sb.execLog)
	}
}

func TestFetchWithoutIntosRejected(t *testing.T) {
	sess, _, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	st, err := sess.Query("select v from t").Prepare()
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer st.CleanUp()
	_, err = st.Fetch()
	var socierr *Error
	if err == nil || !errors.As(err, &socierr) || socierr.Category != ErrUsage {
		t.Errorf("expected ErrUsage, got %v", err)
	}
}
