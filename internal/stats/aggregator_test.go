package stats

import (
	"math"
	"testing"
)

func TestAggregator_Put(t *testing.T) {
	t.Parallel()

	type testcase struct {
		name    string
		values  []float64
		wantMin float64
		wantMax float64
		wantSum float64
		wantCnt int64
	}
	tests := []testcase{
		{
			name:    "single_value",
			values:  []float64{42.5},
			wantMin: 42.5, wantMax: 42.5, wantSum: 42.5, wantCnt: 1,
		},
		{
			name:    "two_values",
			values:  []float64{12, 13},
			wantMin: 12, wantMax: 13, wantSum: 25, wantCnt: 2,
		},
		{
			name:    "negative_and_positive",
			values:  []float64{-3, 0, 7.5},
			wantMin: -3, wantMax: 7.5, wantSum: 4.5, wantCnt: 3,
		},
		{
			name:    "duplicates",
			values:  []float64{5, 5, 5},
			wantMin: 5, wantMax: 5, wantSum: 15, wantCnt: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := New()
			for _, v := range tc.values {
				a.Put(v)
			}
			got := a.Peek()
			if got.Minimum != tc.wantMin || got.Maximum != tc.wantMax {
				t.Fatalf("min/max=%v/%v want %v/%v", got.Minimum, got.Maximum, tc.wantMin, tc.wantMax)
			}
			if got.Sum != tc.wantSum {
				t.Fatalf("sum=%v want %v", got.Sum, tc.wantSum)
			}
			if got.SampleCount != tc.wantCnt {
				t.Fatalf("count=%d want %d", got.SampleCount, tc.wantCnt)
			}
		})
	}
}

func TestAggregator_PeekDoesNotReset(t *testing.T) {
	t.Parallel()

	a := New()
	a.Put(1)
	a.Put(2)

	first := a.Peek()
	second := a.Peek()
	if first != second {
		t.Fatalf("peek mutated state: %+v vs %+v", first, second)
	}
	if a.Size() != 2 {
		t.Fatalf("size=%d want 2", a.Size())
	}
}

func TestAggregator_GetResets(t *testing.T) {
	t.Parallel()

	a := New()
	a.Put(3)
	a.Put(9)

	got := a.Get()
	if got.Sum != 12 || got.SampleCount != 2 {
		t.Fatalf("get returned %+v", got)
	}

	if a.Size() != 0 {
		t.Fatalf("size after get=%d want 0", a.Size())
	}
	empty := a.Peek()
	if !math.IsInf(empty.Minimum, 1) || !math.IsInf(empty.Maximum, -1) {
		t.Fatalf("sentinels not restored: %+v", empty)
	}
	if empty.Sum != 0 || empty.SampleCount != 0 {
		t.Fatalf("sum/count not reset: %+v", empty)
	}

	// Accumulation keeps working after a drain.
	a.Put(4)
	if a.Peek().Minimum != 4 || a.Peek().Maximum != 4 {
		t.Fatalf("put after reset broken: %+v", a.Peek())
	}
}

func TestAggregator_CustomSentinels(t *testing.T) {
	t.Parallel()

	a := NewWithSentinels(0, 0)
	got := a.Peek()
	if got.Minimum != 0 || got.Maximum != 0 {
		t.Fatalf("custom sentinels not applied: %+v", got)
	}
}
