package soci

import "testing"

func TestVectorIntoConversion(t *testing.T) {
	RegisterConversion[yesNo](yesNoConversion{})

	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"flag"},
		colTypes: []DBType{DBString},
		rows:     [][]any{{"y"}, {"n"}, {"yes"}},
	}

	flags := make([]yesNo, 3)
	gotData, err := sess.Query("select flag from t").Into(&flags).Exec()
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !gotData {
		t.Fatal("expected data")
	}
	want := []yesNo{true, false, true}
	for i := range want {
		if flags[i] != want[i] {
			t.Errorf("flags[%d]: expected %v, got %v", i, want[i], flags[i])
		}
	}
}

func TestVectorIntoConversionPartialBatch(t *testing.T) {
	RegisterConversion[yesNo](yesNoConversion{})

	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"flag"},
		colTypes: []DBType{DBString},
		rows:     [][]any{{"y"}},
	}

	flags := make([]yesNo, 4)
	gotData, err := sess.Query("select flag from t").Into(&flags).Exec()
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !gotData {
		t.Fatal("expected the partial batch to report data")
	}
	if len(flags) != 1 {
		t.Fatalf("expected shrunk slice of 1, got %d", len(flags))
	}
	if flags[0] != true {
		t.Errorf("expected true, got %v", flags[0])
	}
}

func TestIntoRangePartialFill(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"v"},
		colTypes: []DBType{DBInt32},
		rows:     [][]any{{int32(7)}, {int32(8)}},
	}

	vals := []int32{0, 0, 0, 0, 0}
	end := 3
	gotData, err := sess.Query("select v from t").IntoRange(&vals, 1, &end).Exec()
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !gotData {
		t.Fatal("expected data")
	}
	if vals[0] != 0 || vals[1] != 7 || vals[2] != 8 {
		t.Errorf("range fill wrong: %v", vals)
	}
	if end != 3 {
		t.Errorf("expected end to stay 3, got %d", end)
	}
}

func TestIntoVectorIndicators(t *testing.T) {
	sess, sb, err := openFakeSession()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.Close()

	sb.nextResult = &fakeResult{
		colNames: []string{"v"},
		colTypes: []DBType{DBInt32},
		rows:     [][]any{{int32(1)}, {nil}, {int32(3)}},
	}

	vals := make([]int32, 3)
	inds := make([]Indicator, 3)
	gotData, err := sess.Query("select v from t").
		IntoVectorWithIndicators(&vals, &inds).
		Exec()
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !gotData {
		t.Fatal("expected data")
	}
	if inds[0] != IndOK || inds[1] != IndNull || inds[2] != IndOK {
		t.Errorf("unexpected indicators: %v", inds)
	}
	if vals[1] != 0 {
		t.Errorf("null cell wrote a value: %d", vals[1])
	}
}

func TestIntoRejectsBadTargets(t *testing.T) {
	d := Into(42) // not a pointer
	if d.err == nil {
		t.Error("expected an error for a non-pointer target")
	}

	type odd struct{ a int }
	var o odd
	d = Into(&o)
	if d.err == nil {
		t.Error("expected an error for an unsupported struct target")
	}
	if cat, ok := CategoryOf(d.err); !ok || cat != ErrBind {
		t.Errorf("expected ErrBind, got %v", d.err)
	}
}

func TestResizeSliceGrowsAndShrinks(t *testing.T) {
	s := []int32{1, 2, 3}
	if err := resizeSlice(&s, 2); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if len(s) != 2 {
		t.Errorf("expected length 2, got %d", len(s))
	}
	if err := resizeSlice(&s, 6); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if len(s) != 6 || s[0] != 1 || s[1] != 2 {
		t.Errorf("grow lost data: %v", s)
	}
}
