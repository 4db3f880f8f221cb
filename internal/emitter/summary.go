package emitter

import (
	"strings"

	"github.com/mkraev/metricflow/internal/domain"
	"github.com/mkraev/metricflow/internal/stats"
)

// summaryRecord keeps the running aggregate for one metric identity. The
// record survives flushes; only its aggregator resets.
type summaryRecord struct {
	metricName string
	unit       string
	dimensions []domain.Dimension // captured at first write
	agg        *stats.Aggregator
}

// summaryEntry is one drained identity with its statistics snapshot.
type summaryEntry struct {
	metricName string
	unit       string
	dimensions []domain.Dimension
	stats      domain.StatisticSet
}

// summaryTable maps identity keys to their aggregators. Like pointBuffer it
// relies on the owning Emitter for serialization.
type summaryTable struct {
	records map[string]*summaryRecord
	order   []string // insertion order, keeps drain output stable
}

func newSummaryTable() *summaryTable {
	return &summaryTable{records: make(map[string]*summaryRecord)}
}

// identityKey derives the composite key for a metric identity. Dimensions
// join in write order: [A,B] and [B,A] are distinct identities on purpose.
func identityKey(name, unit string, dims []domain.Dimension) string {
	var b strings.Builder
	b.Grow(len(name) + len(unit) + 16*len(dims))
	b.WriteString(name)
	b.WriteByte(0)
	b.WriteString(unit)
	for _, d := range dims {
		b.WriteByte(0)
		b.WriteString(d.Name)
		b.WriteByte(0)
		b.WriteString(d.Value)
	}
	return b.String()
}

// write folds one value into the identity's aggregator, creating the record
// lazily on first write.
func (t *summaryTable) write(key, name, unit string, dims []domain.Dimension, value float64) {
	rec, ok := t.records[key]
	if !ok {
		rec = &summaryRecord{
			metricName: name,
			unit:       unit,
			dimensions: dims,
			agg:        stats.New(),
		}
		t.records[key] = rec
		t.order = append(t.order, key)
	}
	rec.agg.Put(value)
}

// drainAll snapshots and resets every record holding at least one sample.
// Empty records are skipped, not deleted: the next write to the same
// identity keeps accumulating into the same record.
func (t *summaryTable) drainAll() []summaryEntry {
	var out []summaryEntry
	for _, key := range t.order {
		rec := t.records[key]
		if rec.agg.Size() == 0 {
			continue
		}
		out = append(out, summaryEntry{
			metricName: rec.metricName,
			unit:       rec.unit,
			dimensions: rec.dimensions,
			stats:      rec.agg.Get(),
		})
	}
	return out
}
