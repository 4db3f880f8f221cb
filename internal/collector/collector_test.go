package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mkraev/metricflow/internal/domain"
)

type recordingSink struct {
	mu       sync.Mutex
	puts     map[string]float64
	summarys map[string]int
	samples  map[string]int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		puts:     make(map[string]float64),
		summarys: make(map[string]int),
		samples:  make(map[string]int),
	}
}

func (s *recordingSink) Put(name, unit string, value float64, dims ...domain.Dimension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts[name] = value
}

func (s *recordingSink) SummaryPut(name, unit string, value float64, dims ...domain.Dimension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summarys[name]++
}

func (s *recordingSink) Sample(name, unit string, value, rate float64, dims ...domain.Dimension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[name]++
}

func (s *recordingSink) summaryCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summarys[name]
}

func (s *recordingSink) putValue(name string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.puts[name]
	return v, ok
}

func waitForSummaries(s *recordingSink, name string, want int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.summaryCount(name) >= want {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestCollector_SamplesRuntimeMetrics(t *testing.T) {
	sink := newRecordingSink()
	c := New(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Start(ctx, 5*time.Millisecond)
	if !waitForSummaries(sink, "heap_alloc", 2, time.Second) {
		c.Stop()
		t.Fatal("timeout waiting for runtime samples")
	}
	c.Stop()

	for _, name := range []string{"heap_alloc", "heap_inuse", "heap_objects", "stack_inuse", "gc_cpu_fraction"} {
		if sink.summaryCount(name) == 0 {
			t.Errorf("summary %q never written", name)
		}
	}
	if v, ok := sink.putValue("goroutines"); !ok {
		t.Error("goroutines never written")
	} else if v < 1 {
		t.Errorf("goroutines = %v, want >= 1", v)
	}
	if _, ok := sink.putValue("num_gc"); !ok {
		t.Error("num_gc never written")
	}
}

func TestCollector_SamplesHostMetrics(t *testing.T) {
	sink := newRecordingSink()
	c := New(sink)

	c.Start(t.Context(), 5*time.Millisecond)
	if !waitForSummaries(sink, "mem_used_percent", 1, time.Second) {
		c.Stop()
		t.Fatal("timeout waiting for host samples")
	}
	c.Stop()

	if v, ok := sink.putValue("mem_total"); !ok {
		t.Error("mem_total never written")
	} else if v <= 0 {
		t.Errorf("mem_total = %v, want > 0", v)
	}
	if _, ok := sink.putValue("mem_free"); !ok {
		t.Error("mem_free never written")
	}
}

func TestCollector_StopHaltsSampling(t *testing.T) {
	sink := newRecordingSink()
	c := New(sink)

	interval := 5 * time.Millisecond
	c.Start(context.Background(), interval)
	if !waitForSummaries(sink, "heap_alloc", 1, time.Second) {
		c.Stop()
		t.Fatal("timeout waiting for first sample")
	}
	c.Stop()

	before := sink.summaryCount("heap_alloc")
	time.Sleep(4 * interval)
	after := sink.summaryCount("heap_alloc")
	if after != before {
		t.Fatalf("samples grew after Stop(): before=%d after=%d", before, after)
	}

	// Stop is idempotent.
	c.Stop()
}
