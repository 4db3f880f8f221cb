// Package memory implements the in-memory batch store behind the dev
// ingestion server.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mkraev/metricflow/internal/domain"
	"github.com/mkraev/metricflow/internal/ports"
)

// Store keeps the most recent batch per namespace with coarse RW locking.
type Store struct {
	mu     sync.RWMutex
	latest map[string]domain.Batch
	counts map[string]int
}

var _ ports.BatchStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		latest: make(map[string]domain.Batch),
		counts: make(map[string]int),
	}
}

// Record replaces the namespace's latest batch and bumps its record total.
func (s *Store) Record(_ context.Context, batch domain.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := batch
	cp.Records = append([]domain.Record(nil), batch.Records...)
	s.latest[batch.Namespace] = cp
	s.counts[batch.Namespace] += len(batch.Records)
	return nil
}

// Latest returns the last received batch or domain.ErrNotFound.
func (s *Store) Latest(_ context.Context, namespace string) (domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.latest[namespace]
	if !ok {
		return domain.Batch{}, domain.ErrNotFound
	}
	out := b
	out.Records = append([]domain.Record(nil), b.Records...)
	return out, nil
}

// Namespaces lists every namespace seen so far, sorted.
func (s *Store) Namespaces(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.latest))
	for ns := range s.latest {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out, nil
}

// ReceivedRecords reports how many records a namespace has shipped in total.
func (s *Store) ReceivedRecords(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[namespace]
}
