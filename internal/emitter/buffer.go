package emitter

import "github.com/mkraev/metricflow/internal/domain"

// pointBuffer is the append-only list of discrete points awaiting dispatch.
// It holds no lock of its own: the owning Emitter serializes all access.
type pointBuffer struct {
	points []domain.Record
}

func newPointBuffer(capacity int) *pointBuffer {
	return &pointBuffer{points: make([]domain.Record, 0, capacity)}
}

// append adds a point at the tail and returns the new length so the caller
// can detect a full buffer.
func (b *pointBuffer) append(r domain.Record) int {
	b.points = append(b.points, r)
	return len(b.points)
}

// drain swaps out the backing slice and returns the previous contents in
// write order. A subsequent append starts on a fresh slice, so drained
// batches are never mutated after handoff.
func (b *pointBuffer) drain() []domain.Record {
	out := b.points
	b.points = make([]domain.Record, 0, cap(out))
	return out
}

func (b *pointBuffer) size() int {
	return len(b.points)
}
