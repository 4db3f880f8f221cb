// Package emitter implements the client-side buffering and dispatch core:
// discrete points accumulate in an ordered buffer, summary writes fold into
// per-identity aggregates, and two independent timers (plus a capacity
// trigger) drain them into backend batches.
package emitter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mkraev/metricflow/internal/domain"
	"github.com/mkraev/metricflow/internal/ports"
	"github.com/mkraev/metricflow/pkg/observer"
)

// MaxBatchSize is the ingestion service's documented per-call record limit.
// Requested capacities above it are clamped, never rejected.
const MaxBatchSize = 20

// Defaults applied when the corresponding option is not set.
const (
	DefaultPointFlushInterval   = 5 * time.Second
	DefaultSummaryFlushInterval = 10 * time.Second
)

type lifecycle int

const (
	stateActive lifecycle = iota
	stateDisabled
	stateStopped
)

// Options configures a single metric stream. Immutable once the Emitter is
// constructed.
type Options struct {
	Enabled              bool
	PointFlushInterval   time.Duration
	SummaryFlushInterval time.Duration
	MaxBatchCapacity     int
	IncludeTimestamp     bool
	StorageResolution    int // seconds, 0 means unset
	OnFlushComplete      func(error)
	Clock                clock.Clock
	Rand                 func() float64
}

// Option mutates Options before construction.
type Option func(*Options)

// Disabled turns every write into a no-op and starts no timers.
func Disabled() Option {
	return func(o *Options) { o.Enabled = false }
}

// WithPointFlushInterval overrides the discrete-point flush period.
func WithPointFlushInterval(d time.Duration) Option {
	return func(o *Options) { o.PointFlushInterval = d }
}

// WithSummaryFlushInterval overrides the summary flush period.
func WithSummaryFlushInterval(d time.Duration) Option {
	return func(o *Options) { o.SummaryFlushInterval = d }
}

// WithBatchCapacity requests a batch size; values above MaxBatchSize clamp.
func WithBatchCapacity(n int) Option {
	return func(o *Options) { o.MaxBatchCapacity = n }
}

// WithTimestamps stamps each discrete point with the write time.
func WithTimestamps() Option {
	return func(o *Options) { o.IncludeTimestamp = true }
}

// WithStorageResolution attaches the given resolution to every point.
func WithStorageResolution(seconds int) Option {
	return func(o *Options) { o.StorageResolution = seconds }
}

// WithFlushCallback receives the result of every dispatched batch, exactly
// once per batch, at some later time.
func WithFlushCallback(fn func(error)) Option {
	return func(o *Options) { o.OnFlushComplete = fn }
}

// WithClock injects the time source driving both flush timers.
func WithClock(c clock.Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// WithRand injects the uniform [0,1) source consulted by Sample.
func WithRand(fn func() float64) Option {
	return func(o *Options) { o.Rand = fn }
}

func defaultOptions() Options {
	return Options{
		Enabled:              true,
		PointFlushInterval:   DefaultPointFlushInterval,
		SummaryFlushInterval: DefaultSummaryFlushInterval,
		MaxBatchCapacity:     MaxBatchSize,
	}
}

// Emitter owns one point buffer and one summary table for a metric stream
// and drives their flush schedules. Writes never block and never return
// errors; dispatch failures surface only through OnFlushComplete.
type Emitter struct {
	mu sync.Mutex

	client    ports.BackendClient
	namespace string
	unit      string
	defaults  []domain.Dimension

	opts     Options
	capacity int
	clk      clock.Clock
	randFn   func() float64

	buf   *pointBuffer
	table *summaryTable

	pointTimer   *clock.Timer
	summaryTimer *clock.Timer

	state  lifecycle
	events *observer.Subject[FlushEvent]
}

// New constructs an Emitter for one metric stream. defaultUnit applies to
// writes that pass an empty unit; defaultDims prefix every write's
// dimension list. When the stream is enabled both flush timers start
// immediately; there is no way to re-enable a disabled or stopped stream.
func New(client ports.BackendClient, namespace, defaultUnit string, defaultDims []domain.Dimension, opts ...Option) *Emitter {
	o := defaultOptions()
	for _, f := range opts {
		f(&o)
	}

	capacity := o.MaxBatchCapacity
	if capacity <= 0 || capacity > MaxBatchSize {
		capacity = MaxBatchSize
	}
	clk := o.Clock
	if clk == nil {
		clk = clock.New()
	}
	randFn := o.Rand
	if randFn == nil {
		randFn = rand.Float64
	}

	e := &Emitter{
		client:    client,
		namespace: namespace,
		unit:      defaultUnit,
		defaults:  append([]domain.Dimension(nil), defaultDims...),
		opts:      o,
		capacity:  capacity,
		clk:       clk,
		randFn:    randFn,
		buf:       newPointBuffer(capacity),
		table:     newSummaryTable(),
		events:    observer.NewSubject[FlushEvent](),
	}

	if !o.Enabled {
		e.state = stateDisabled
		return e
	}

	e.pointTimer = clk.AfterFunc(o.PointFlushInterval, e.flushPointsTimer)
	e.summaryTimer = clk.AfterFunc(o.SummaryFlushInterval, e.flushSummariesTimer)
	return e
}

// Events exposes the flush instrumentation subject. Observers fire on every
// flush, including ones that dispatched nothing.
func (e *Emitter) Events() *observer.Subject[FlushEvent] {
	return e.events
}

// Put buffers one discrete measurement. An empty unit means the stream
// default; call-site dimensions append after the stream defaults. Reaching
// the batch capacity flushes synchronously and restarts the point timer's
// countdown from now.
func (e *Emitter) Put(name, unit string, value float64, dims ...domain.Dimension) {
	e.mu.Lock()
	if e.state != stateActive {
		e.mu.Unlock()
		return
	}

	n := e.buf.append(e.pointRecord(name, unit, value, dims))
	if n < e.capacity {
		e.mu.Unlock()
		return
	}

	e.pointTimer.Stop()
	drained := e.buf.drain()
	batches := e.dispatchPoints(drained)
	e.pointTimer.Reset(e.opts.PointFlushInterval)
	e.mu.Unlock()

	e.events.Publish(FlushEvent{Kind: FlushPoints, Records: len(drained), Batches: batches})
}

// SummaryPut folds one value into the running min/max/sum/count for the
// metric identity (name, unit, dimension order included). Summaries flush
// only on their own timer or at Stop; capacity does not apply.
func (e *Emitter) SummaryPut(name, unit string, value float64, dims ...domain.Dimension) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateActive {
		return
	}

	unit = e.resolveUnit(unit)
	merged := e.mergeDims(dims)
	e.table.write(identityKey(name, unit, merged), name, unit, merged, value)
}

// Sample forwards to Put with probability rate. Rates at or above 1 always
// write, at or below 0 never do. The rate is not validated.
func (e *Emitter) Sample(name, unit string, value, rate float64, dims ...domain.Dimension) {
	if e.randFn() < rate {
		e.Put(name, unit, value, dims...)
	}
}

// HasPendingPoints reports whether any discrete points are buffered,
// without forcing a flush.
func (e *Emitter) HasPendingPoints() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.size() > 0
}

// Stop cancels both timers, then runs one final point flush followed by one
// final summary flush. Safe to call more than once; in-flight sends are not
// cancelled.
func (e *Emitter) Stop() {
	e.mu.Lock()
	if e.state != stateActive {
		e.mu.Unlock()
		return
	}
	e.state = stateStopped
	e.pointTimer.Stop()
	e.summaryTimer.Stop()

	points := e.buf.drain()
	pointBatches := e.dispatchPoints(points)
	entries := e.table.drainAll()
	summaryBatches := e.dispatchSummaries(entries)
	e.mu.Unlock()

	e.events.Publish(FlushEvent{Kind: FlushPoints, Records: len(points), Batches: pointBatches})
	e.events.Publish(FlushEvent{Kind: FlushSummaries, Records: len(entries), Batches: summaryBatches})
}

func (e *Emitter) flushPointsTimer() {
	e.mu.Lock()
	if e.state != stateActive {
		e.mu.Unlock()
		return
	}
	drained := e.buf.drain()
	batches := e.dispatchPoints(drained)
	e.pointTimer.Reset(e.opts.PointFlushInterval)
	e.mu.Unlock()

	e.events.Publish(FlushEvent{Kind: FlushPoints, Records: len(drained), Batches: batches})
}

func (e *Emitter) flushSummariesTimer() {
	e.mu.Lock()
	if e.state != stateActive {
		e.mu.Unlock()
		return
	}
	entries := e.table.drainAll()
	batches := e.dispatchSummaries(entries)
	e.summaryTimer.Reset(e.opts.SummaryFlushInterval)
	e.mu.Unlock()

	e.events.Publish(FlushEvent{Kind: FlushSummaries, Records: len(entries), Batches: batches})
}

// dispatchPoints hands one drained batch to the backend. Called with e.mu
// held so batch launch order matches flush order; the send itself runs on
// its own goroutine and is never awaited.
func (e *Emitter) dispatchPoints(records []domain.Record) int {
	if len(records) == 0 {
		return 0
	}
	go e.send(records)
	return 1
}

// dispatchSummaries converts drained entries to statistics records, splits
// them into capacity-sized groups and ships the groups sequentially on one
// goroutine. Returns the number of batches dispatched.
func (e *Emitter) dispatchSummaries(entries []summaryEntry) int {
	if len(entries) == 0 {
		return 0
	}

	records := make([]domain.Record, len(entries))
	for i, en := range entries {
		s := en.stats
		records[i] = domain.Record{
			MetricName: en.metricName,
			Unit:       en.unit,
			Dimensions: en.dimensions,
			Stats:      &s,
		}
	}

	var groups [][]domain.Record
	for len(records) > e.capacity {
		groups = append(groups, records[:e.capacity])
		records = records[e.capacity:]
	}
	groups = append(groups, records)

	go func() {
		for _, g := range groups {
			e.send(g)
		}
	}()
	return len(groups)
}

func (e *Emitter) send(records []domain.Record) {
	err := e.client.SendBatch(context.Background(), e.namespace, records)
	if e.opts.OnFlushComplete != nil {
		e.opts.OnFlushComplete(err)
	}
}

func (e *Emitter) pointRecord(name, unit string, value float64, dims []domain.Dimension) domain.Record {
	v := value
	rec := domain.Record{
		MetricName: name,
		Unit:       e.resolveUnit(unit),
		Dimensions: e.mergeDims(dims),
		Value:      &v,
	}
	if e.opts.IncludeTimestamp {
		ts := e.clk.Now()
		rec.Timestamp = &ts
	}
	if e.opts.StorageResolution > 0 {
		rec.StorageResolution = e.opts.StorageResolution
	}
	return rec
}

func (e *Emitter) resolveUnit(unit string) string {
	if unit == "" {
		return e.unit
	}
	return unit
}

func (e *Emitter) mergeDims(dims []domain.Dimension) []domain.Dimension {
	if len(e.defaults) == 0 && len(dims) == 0 {
		return nil
	}
	out := make([]domain.Dimension, 0, len(e.defaults)+len(dims))
	out = append(out, e.defaults...)
	out = append(out, dims...)
	return out
}
