// Package ports declares the boundaries between the emitter core and its
// collaborators.
package ports

import (
	"context"

	"github.com/mkraev/metricflow/internal/domain"
)

// BackendClient ships one batch of records to the ingestion service. The
// emitter never passes more records than its batch cap allows and never calls
// SendBatch with an empty slice.
type BackendClient interface {
	SendBatch(ctx context.Context, namespace string, records []domain.Record) error
}

// BatchStore is what the dev ingestion server keeps received batches in.
type BatchStore interface {
	Record(ctx context.Context, batch domain.Batch) error
	Latest(ctx context.Context, namespace string) (domain.Batch, error)
	Namespaces(ctx context.Context) ([]string, error)
}
