package emitter

// FlushKind distinguishes the two flush schedules.
type FlushKind int

const (
	// FlushPoints marks a drain of the discrete point buffer.
	FlushPoints FlushKind = iota
	// FlushSummaries marks a drain of the summary table.
	FlushSummaries
)

func (k FlushKind) String() string {
	switch k {
	case FlushPoints:
		return "points"
	case FlushSummaries:
		return "summaries"
	default:
		return "unknown"
	}
}

// FlushEvent is published on every flush, including ones that drained
// nothing and therefore dispatched no batch.
type FlushEvent struct {
	Kind    FlushKind
	Records int // records drained by this flush
	Batches int // backend batches dispatched for them
}
