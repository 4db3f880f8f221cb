// Package promwrite ships metric batches to a Prometheus remote-write
// endpoint. Discrete records become one series each; statistics records fan
// out into min/max/sum/count series.
package promwrite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eryajf/promwrite"

	"github.com/mkraev/metricflow/internal/domain"
	"github.com/mkraev/metricflow/internal/ports"
)

// Client converts batches to remote-write time series.
type Client struct {
	rw  *promwrite.Client
	now func() time.Time
}

var _ ports.BackendClient = (*Client)(nil)

// New points the client at a remote-write URL.
func New(endpoint string) *Client {
	return &Client{rw: promwrite.NewClient(endpoint), now: time.Now}
}

// SendBatch writes every record in the batch as remote-write series. Records
// without a timestamp are stamped at send time, since remote write requires
// one per sample.
func (c *Client) SendBatch(ctx context.Context, namespace string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	series := make([]promwrite.TimeSeries, 0, len(records))
	for _, rec := range records {
		series = append(series, c.convert(namespace, rec)...)
	}

	if _, err := c.rw.Write(ctx, &promwrite.WriteRequest{TimeSeries: series}); err != nil {
		return fmt.Errorf("remote write: %w", err)
	}
	return nil
}

func (c *Client) convert(namespace string, rec domain.Record) []promwrite.TimeSeries {
	base := sanitizeName(namespace) + "_" + sanitizeName(rec.MetricName)

	ts := c.now()
	if rec.Timestamp != nil {
		ts = *rec.Timestamp
	}

	labels := make([]promwrite.Label, 0, 2+len(rec.Dimensions))
	if rec.Unit != "" {
		labels = append(labels, promwrite.Label{Name: "unit", Value: rec.Unit})
	}
	for _, d := range rec.Dimensions {
		labels = append(labels, promwrite.Label{Name: sanitizeName(d.Name), Value: d.Value})
	}

	if rec.Stats == nil {
		var v float64
		if rec.Value != nil {
			v = *rec.Value
		}
		return []promwrite.TimeSeries{seriesFor(base, labels, ts, v)}
	}

	s := rec.Stats
	return []promwrite.TimeSeries{
		seriesFor(base+"_min", labels, ts, s.Minimum),
		seriesFor(base+"_max", labels, ts, s.Maximum),
		seriesFor(base+"_sum", labels, ts, s.Sum),
		seriesFor(base+"_count", labels, ts, float64(s.SampleCount)),
	}
}

func seriesFor(name string, labels []promwrite.Label, ts time.Time, value float64) promwrite.TimeSeries {
	all := make([]promwrite.Label, 0, 1+len(labels))
	all = append(all, promwrite.Label{Name: "__name__", Value: name})
	all = append(all, labels...)
	return promwrite.TimeSeries{
		Labels: all,
		Sample: promwrite.Sample{Time: ts, Value: value},
	}
}

// sanitizeName maps arbitrary metric/dimension names onto the Prometheus
// name alphabet.
func sanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
