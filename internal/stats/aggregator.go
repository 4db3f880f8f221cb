// Package stats implements the running statistical summary kept per metric
// identity between flushes.
package stats

import (
	"math"

	"github.com/mkraev/metricflow/internal/domain"
)

// Aggregator folds an unordered sequence of samples into min/max/sum/count.
// It performs no validation: non-finite input flows through untouched, the
// ingestion backend owns that check.
type Aggregator struct {
	min   float64
	max   float64
	sum   float64
	count int64

	// reset targets, fixed at construction
	minSentinel float64
	maxSentinel float64
}

// New returns an Aggregator that resets to +Inf/-Inf sentinels.
func New() *Aggregator {
	return NewWithSentinels(math.Inf(1), math.Inf(-1))
}

// NewWithSentinels returns an Aggregator whose empty state reports the given
// minimum and maximum.
func NewWithSentinels(minSentinel, maxSentinel float64) *Aggregator {
	a := &Aggregator{minSentinel: minSentinel, maxSentinel: maxSentinel}
	a.Reset()
	return a
}

// Put folds one sample into the running summary.
func (a *Aggregator) Put(v float64) {
	a.sum += v
	a.min = math.Min(a.min, v)
	a.max = math.Max(a.max, v)
	a.count++
}

// Peek returns the current summary without mutating state.
func (a *Aggregator) Peek() domain.StatisticSet {
	return domain.StatisticSet{
		Minimum:     a.min,
		Maximum:     a.max,
		Sum:         a.sum,
		SampleCount: a.count,
	}
}

// Get returns the current summary and resets the aggregator in place.
func (a *Aggregator) Get() domain.StatisticSet {
	s := a.Peek()
	a.Reset()
	return s
}

// Reset restores the empty state.
func (a *Aggregator) Reset() {
	a.min = a.minSentinel
	a.max = a.maxSentinel
	a.sum = 0
	a.count = 0
}

// Size reports how many samples were folded in since the last reset.
func (a *Aggregator) Size() int64 {
	return a.count
}
