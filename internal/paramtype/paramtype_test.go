package paramtype

import "testing"

func TestDetectAllSameLength(t *testing.T) {
	cases := [][]any{
		nil,
		{nil, true, 1, 1.5, []byte("x"), "s"},
		{},
	}
	for _, params := range cases {
		got := DetectAll(params)
		if len(got) != len(params) {
			t.Errorf("DetectAll(%v): len=%d, want %d", params, len(got), len(params))
		}
	}
}

func TestDetectMapping(t *testing.T) {
	tests := []struct {
		v    any
		want byte
	}{
		{nil, 's'},
		{true, 'i'},
		{false, 'i'},
		{42, 'i'},
		{int64(42), 'i'},
		{3.14, 'd'},
		{float32(1), 'd'},
		{[]byte("bin"), 's'},
		{[]byte("bi\x00n"), 'b'},
		{"hel\x00lo", 'b'},
		{BinaryHandle("bin"), 'b'},
		{"hello", 's'},
		{[]int{1, 2}, 's'},
	}
	for _, tc := range tests {
		if got := Detect(tc.v); got != tc.want {
			t.Errorf("Detect(%#v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestPreprocessAllSameLength(t *testing.T) {
	params := []any{nil, true, 1, 1.5, []byte("x"), "s", []int{1, 2}}
	got := PreprocessAll(params)
	if len(got) != len(params) {
		t.Fatalf("len=%d, want %d", len(got), len(params))
	}
}

func TestPreprocessBoolToIntLiteral(t *testing.T) {
	if got := Preprocess(true); got != 1 {
		t.Errorf("Preprocess(true) = %v, want 1", got)
	}
	if got := Preprocess(false); got != 0 {
		t.Errorf("Preprocess(false) = %v, want 0", got)
	}
}

func TestPreprocessCompositeToJSON(t *testing.T) {
	got := Preprocess(map[string]int{"a": 1})
	s, ok := got.(string)
	if !ok {
		t.Fatalf("Preprocess(map) = %T, want string", got)
	}
	if s != `{"a":1}` {
		t.Errorf("Preprocess(map) = %q, want canonical JSON", s)
	}
}

type stringy struct{ v string }

func (s stringy) String() string { return "cast:" + s.v }

func TestPreprocessStringCaster(t *testing.T) {
	got := Preprocess(stringy{v: "x"})
	if got != "cast:x" {
		t.Errorf("Preprocess(stringy) = %v, want cast:x", got)
	}
}

func TestPreprocessNullPassthrough(t *testing.T) {
	if Preprocess(nil) != nil {
		t.Errorf("Preprocess(nil) should stay nil")
	}
}
