package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/mkraev/metricflow/internal/domain"
)

func batch(ns string, n int) domain.Batch {
	records := make([]domain.Record, n)
	for i := range records {
		v := float64(i)
		records[i] = domain.Record{MetricName: "m", Value: &v}
	}
	return domain.Batch{Namespace: ns, Records: records}
}

func TestStore_RecordAndLatest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	if _, err := s.Latest(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := s.Record(ctx, batch("app", 3)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(ctx, batch("app", 2)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := s.Latest(ctx, "app")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("latest size=%d want newest batch", len(got.Records))
	}
	if s.ReceivedRecords("app") != 5 {
		t.Fatalf("received=%d want 5", s.ReceivedRecords("app"))
	}
}

func TestStore_NamespacesSorted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	for _, ns := range []string{"zeta", "alpha", "mid"} {
		if err := s.Record(ctx, batch(ns, 1)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.Namespaces(ctx)
	if err != nil {
		t.Fatalf("Namespaces: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("namespaces=%v want %v", got, want)
		}
	}
}

func TestStore_LatestReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	if err := s.Record(ctx, batch("app", 1)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	first, _ := s.Latest(ctx, "app")
	first.Records[0].MetricName = "mutated"

	second, _ := s.Latest(ctx, "app")
	if second.Records[0].MetricName != "m" {
		t.Fatal("Latest exposed internal state")
	}
}
