package crop

import (
	"errors"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestEstimate(t *testing.T) {
	e := Estimator{}

	testCases := []struct {
		name          string
		focal         *float64
		model         string
		existing      *float64
		want          *float64
		wantEstimated bool
	}{
		{name: "existing wins", focal: ptr(50), model: "X-T5", existing: ptr(76), want: ptr(76)},
		{name: "zero existing treated as absent", focal: ptr(50), model: "X-T5", existing: ptr(0), want: ptr(75), wantEstimated: true},
		{name: "missing focal", model: "X-T5"},
		{name: "missing model", focal: ptr(50)},
		{name: "unknown model", focal: ptr(50), model: "Pentax K-1"},
		{name: "apsc", focal: ptr(23), model: "X-T5", want: ptr(34.5), wantEstimated: true},
		{name: "rounded to one decimal", focal: ptr(18.3), model: "EOS R7", want: ptr(29.3), wantEstimated: true},
		{name: "micro four thirds", focal: ptr(12), model: "OM-1", want: ptr(24), wantEstimated: true},
		{name: "case sensitive", focal: ptr(23), model: "x-t5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, estimated := e.Estimate(tc.focal, tc.model, tc.existing)
			if estimated != tc.wantEstimated {
				t.Fatalf("unexpected estimated\n got: %v\nwant: %v", estimated, tc.wantEstimated)
			}
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("unexpected value\n got: %v\nwant: %v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("unexpected value\n got: %v\nwant: %v", *got, *tc.want)
			}
		})
	}
}

func TestEstimate_FullFrameSeries(t *testing.T) {
	e := Estimator{}
	for _, focal := range []float64{24, 50, 85} {
		got, estimated := e.Estimate(ptr(focal), "ILCE-7M4", nil)
		if !estimated {
			t.Fatalf("%v: expected estimated", focal)
		}
		if got == nil || *got != focal {
			t.Fatalf("%v: got %v", focal, got)
		}
	}
}

func TestEstimate_Idempotent(t *testing.T) {
	e := Estimator{}
	first, estimated := e.Estimate(ptr(35), "ZV-E10", nil)
	if !estimated || first == nil {
		t.Fatalf("expected an estimate, got %v %v", first, estimated)
	}
	second, estimated := e.Estimate(ptr(35), "ZV-E10", first)
	if estimated {
		t.Fatalf("expected estimated=false when fed back")
	}
	if second == nil || *second != *first {
		t.Fatalf("unexpected value\n got: %v\nwant: %v", second, *first)
	}
}

func TestEstimate_FirstDeclaredRuleWins(t *testing.T) {
	rules := Table{
		{Keyword: "Mark", Factor: 1.3},
		{Keyword: "Cam", Factor: 2.0},
	}
	e := Estimator{Rules: rules}

	// "Cam" appears earlier in the string but "Mark" is declared first.
	got, _ := e.Estimate(ptr(10), "Cam Mark II", nil)
	if got == nil || *got != 13 {
		t.Fatalf("expected first declared rule, got %v", got)
	}

	reversed := Estimator{Rules: Table{rules[1], rules[0]}}
	got, _ = reversed.Estimate(ptr(10), "Cam Mark II", nil)
	if got == nil || *got != 20 {
		t.Fatalf("expected first declared rule after reorder, got %v", got)
	}
}

func TestEstimate_OverridePrecedence(t *testing.T) {
	e := Estimator{Overrides: map[string]float64{"ILCE-7M4": 1.5}}

	got, estimated := e.Estimate(ptr(50), "ILCE-7M4", nil)
	if !estimated || got == nil || *got != 75 {
		t.Fatalf("expected override factor, got %v %v", got, estimated)
	}

	got, estimated = e.Estimate(ptr(50), "ILCE-7M4", ptr(50))
	if estimated || got == nil || *got != 50 {
		t.Fatalf("override must not replace an existing equivalent, got %v %v", got, estimated)
	}

	got, _ = e.Estimate(ptr(50), "ILCE-7M4 II", nil)
	if got == nil || *got != 50 {
		t.Fatalf("overrides are exact matches, got %v", got)
	}
}

func TestDefaultTable_ValidAndOrdered(t *testing.T) {
	table := DefaultTable()
	if err := table.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table[0].Keyword != "ILCE-7" {
		t.Fatalf("unexpected first rule %q", table[0].Keyword)
	}

	table[0].Factor = 9
	if DefaultTable()[0].Factor != 1.0 {
		t.Fatalf("DefaultTable must return a copy")
	}
}

func TestTable_ValidateRejectsNonPositive(t *testing.T) {
	for _, factor := range []float64{0, -1.5} {
		err := Table{{Keyword: "A", Factor: 1}, {Keyword: "B", Factor: factor}}.Validate()
		if !errors.Is(err, ErrInvalidFactor) {
			t.Fatalf("factor %v: expected ErrInvalidFactor, got %v", factor, err)
		}
	}
}
