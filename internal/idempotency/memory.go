package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	status    string
	response  []byte
	expiresAt time.Time
}

// purgeInterval bounds how often expired records are swept, so the hot
// path stays O(1) between sweeps.
const purgeInterval = time.Minute

// MemoryStore is the process-local backend. Documented limitation: records
// are lost on restart and not shared across instances; use the redis
// backend when cross-instance correctness matters.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]*memoryRecord
	now       func() time.Time
	lastPurge time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*memoryRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) TryAcquire(_ context.Context, key string, ttl time.Duration) (*Acquisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(s.now())

	if record, ok := s.records[key]; ok && s.now().Before(record.expiresAt) {
		return &Acquisition{Status: record.status, Response: record.response}, nil
	}

	s.records[key] = &memoryRecord{
		status:    StatusProcessing,
		expiresAt: s.now().Add(ttl),
	}
	return &Acquisition{Acquired: true, Status: StatusProcessing}, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(s.now())

	s.records[key] = &memoryRecord{
		status:    StatusCompleted,
		response:  response,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// purgeLocked drops expired records so a stream of unique keys cannot grow
// the map without bound. Caller holds mu.
func (s *MemoryStore) purgeLocked(now time.Time) {
	if now.Sub(s.lastPurge) < purgeInterval {
		return
	}
	s.lastPurge = now
	for key, record := range s.records {
		if !now.Before(record.expiresAt) {
			delete(s.records, key)
		}
	}
}
