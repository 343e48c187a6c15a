package predictionlog

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. It backs the "memory" backend
// and tests.
type MemoryStore struct {
	mu   sync.Mutex
	recs []LogRecord
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(ctx context.Context, rec LogRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.recs = append(s.recs, rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q LogQuery) ([]LogRecord, error) {
	s.mu.Lock()
	var res []LogRecord
	for _, r := range s.recs {
		if q.Matches(r) {
			res = append(res, r)
		}
	}
	s.mu.Unlock()
	return q.finish(res), nil
}

func (s *MemoryStore) Close() error { return nil }
