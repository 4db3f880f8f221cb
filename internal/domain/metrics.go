// Package domain holds the wire-level types shared by the emitter core and
// the backend adapters.
package domain

import "time"

// Dimension is a named key/value tag distinguishing time series. Order is
// significant: two writes with the same dimensions in a different order
// address different series.
type Dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StatisticSet is an aggregated min/max/sum/count replacing many discrete
// points for one identity over one flush interval.
type StatisticSet struct {
	Minimum     float64 `json:"minimum"`
	Maximum     float64 `json:"maximum"`
	Sum         float64 `json:"sum"`
	SampleCount int64   `json:"sampleCount"`
}

// Record describes a single backend payload item: either a discrete
// measurement (Value set) or a statistics record (Stats set).
type Record struct {
	Value             *float64      `json:"value,omitempty"`
	Stats             *StatisticSet `json:"statistics,omitempty"`
	Timestamp         *time.Time    `json:"timestamp,omitempty"`
	MetricName        string        `json:"metricName"`
	Unit              string        `json:"unit,omitempty"`
	Dimensions        []Dimension   `json:"dimensions,omitempty"`
	StorageResolution int           `json:"storageResolution,omitempty"`
}

// Batch groups the records dispatched together in one backend call.
type Batch struct {
	Namespace string   `json:"namespace"`
	Records   []Record `json:"records"`
}
