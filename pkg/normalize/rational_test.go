package normalize

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"testing"
)

func TestToFloat_Shapes(t *testing.T) {
	testCases := []struct {
		name   string
		value  any
		want   float64
		wantOK bool
	}{
		{name: "rational", value: Rational{Num: 50, Den: 1}, want: 50, wantOK: true},
		{name: "rational pointer", value: &Rational{Num: 28, Den: 10}, want: 2.8, wantOK: true},
		{name: "big rat", value: big.NewRat(1, 4), want: 0.25, wantOK: true},
		{name: "fraction string", value: "35/2", want: 17.5, wantOK: true},
		{name: "fraction string with spaces", value: " 1 / 8 ", want: 0.125, wantOK: true},
		{name: "decimal string", value: "5.6", want: 5.6, wantOK: true},
		{name: "json number", value: json.Number("400"), want: 400, wantOK: true},
		{name: "pair of any", value: []any{int64(85), int64(1)}, want: 85, wantOK: true},
		{name: "pair of float", value: []float64{3, 2}, want: 1.5, wantOK: true},
		{name: "array pair", value: [2]int64{18, 10}, want: 1.8, wantOK: true},
		{name: "int", value: 200, want: 200, wantOK: true},
		{name: "uint16", value: uint16(3200), want: 3200, wantOK: true},
		{name: "float32", value: float32(0.5), want: 0.5, wantOK: true},
		{name: "nil", value: nil, wantOK: false},
		{name: "text", value: "Sony", wantOK: false},
		{name: "bad numerator", value: "x/2", wantOK: false},
		{name: "three element slice", value: []any{1, 2, 3}, wantOK: false},
		{name: "pair with text", value: []any{"a", 1}, wantOK: false},
		{name: "map", value: map[string]int{"a": 1}, wantOK: false},
		{name: "nan", value: "NaN", wantOK: false},
		{name: "inf", value: math.Inf(1), wantOK: false},
		{name: "nil rational pointer", value: (*Rational)(nil), wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToFloat(tc.value)
			if ok != tc.wantOK {
				t.Fatalf("unexpected ok\n got: %v\nwant: %v", ok, tc.wantOK)
			}
			if ok && math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("unexpected value\n got: %v\nwant: %v", got, tc.want)
			}
		})
	}
}

func TestToFloat_FractionStrings(t *testing.T) {
	for _, a := range []int{0, 1, 7, 50, 1000} {
		for _, b := range []int{1, 2, 3, 250, 8000} {
			s := strconv.Itoa(a) + "/" + strconv.Itoa(b)
			got, ok := ToFloat(s)
			if !ok {
				t.Fatalf("%s: expected ok", s)
			}
			want := float64(a) / float64(b)
			if math.Abs(got-want) > 1e-12 {
				t.Fatalf("%s: got %v, want %v", s, got, want)
			}
		}
	}
}

func TestToFloat_ZeroDenominatorReturnsNumerator(t *testing.T) {
	for _, value := range []any{"12/0", Rational{Num: 12, Den: 0}, []any{12, 0}, [2]float64{12, 0}} {
		got, ok := ToFloat(value)
		if !ok {
			t.Fatalf("%#v: expected ok", value)
		}
		if got != 12 {
			t.Fatalf("%#v: got %v, want 12", value, got)
		}
	}
}

func TestPtr(t *testing.T) {
	if p := Ptr("garbage"); p != nil {
		t.Fatalf("expected nil, got %v", *p)
	}
	p := Ptr("24/1")
	if p == nil || *p != 24 {
		t.Fatalf("expected 24, got %v", p)
	}
}
