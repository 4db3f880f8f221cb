package emitter

import (
	"testing"

	"github.com/mkraev/metricflow/internal/domain"
)

func TestIdentityKey(t *testing.T) {
	t.Parallel()

	a := domain.Dimension{Name: "az", Value: "1"}
	b := domain.Dimension{Name: "host", Value: "x"}

	type testcase struct {
		name     string
		k1, k2   string
		wantSame bool
	}
	tests := []testcase{
		{
			name:     "same_inputs_same_key",
			k1:       identityKey("m", "ms", []domain.Dimension{a, b}),
			k2:       identityKey("m", "ms", []domain.Dimension{a, b}),
			wantSame: true,
		},
		{
			name:     "dimension_order_matters",
			k1:       identityKey("m", "ms", []domain.Dimension{a, b}),
			k2:       identityKey("m", "ms", []domain.Dimension{b, a}),
			wantSame: false,
		},
		{
			name:     "unit_is_part_of_identity",
			k1:       identityKey("m", "ms", nil),
			k2:       identityKey("m", "s", nil),
			wantSame: false,
		},
		{
			name:     "separator_not_confusable",
			k1:       identityKey("m", "ms", []domain.Dimension{{Name: "ab", Value: "c"}}),
			k2:       identityKey("m", "ms", []domain.Dimension{{Name: "a", Value: "bc"}}),
			wantSame: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if (tc.k1 == tc.k2) != tc.wantSame {
				t.Fatalf("k1=%q k2=%q wantSame=%v", tc.k1, tc.k2, tc.wantSame)
			}
		})
	}
}

func TestSummaryTable_LazyCreateAndAccumulate(t *testing.T) {
	t.Parallel()

	tbl := newSummaryTable()
	key := identityKey("m", "ms", nil)

	tbl.write(key, "m", "ms", nil, 12)
	tbl.write(key, "m", "ms", nil, 13)

	entries := tbl.drainAll()
	if len(entries) != 1 {
		t.Fatalf("entries=%d want 1", len(entries))
	}
	got := entries[0].stats
	if got.Minimum != 12 || got.Maximum != 13 || got.Sum != 25 || got.SampleCount != 2 {
		t.Fatalf("stats=%+v", got)
	}
}

func TestSummaryTable_DrainSkipsEmptyKeepsRecord(t *testing.T) {
	t.Parallel()

	tbl := newSummaryTable()
	key := identityKey("m", "ms", nil)
	tbl.write(key, "m", "ms", nil, 1)

	if got := tbl.drainAll(); len(got) != 1 {
		t.Fatalf("first drain entries=%d", len(got))
	}
	// drained but not deleted: the next drain sees no samples and skips it
	if got := tbl.drainAll(); len(got) != 0 {
		t.Fatalf("second drain entries=%d want 0", len(got))
	}
	// record object persists: new writes land in the same slot
	tbl.write(key, "m", "ms", nil, 9)
	if len(tbl.records) != 1 {
		t.Fatalf("records=%d want the original record reused", len(tbl.records))
	}
	got := tbl.drainAll()
	if len(got) != 1 || got[0].stats.Sum != 9 {
		t.Fatalf("reused record drain=%+v", got)
	}
}

func TestSummaryTable_DrainKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	tbl := newSummaryTable()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		tbl.write(identityKey(n, "", nil), n, "", nil, 1)
	}

	entries := tbl.drainAll()
	for i, n := range names {
		if entries[i].metricName != n {
			t.Fatalf("entry %d = %q want %q", i, entries[i].metricName, n)
		}
	}
}
