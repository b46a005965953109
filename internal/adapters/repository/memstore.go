package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/scoreline/pkg/metrics"
)

// MemoryStore keeps matches in a map guarded by a RWMutex. Timelines are
// frozen, so Get hands out the shared pointer without copying.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]Match
	order      []string // creation order, oldest first
	stamps     int
	maxMatches int
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]Match)}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateMatchesStored(0)
	metrics.UpdateStampsStored(0)
	return s
}

// Put implements Store.Put.
func (s *MemoryStore) Put(ctx context.Context, m Match) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(metrics.SinceMs(start)) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if m.ID == "" || m.Timeline == nil {
		metrics.RecordErrorByComponent("repository", "invalid_match")
		return ErrInvalidMatch
	}

	s.mu.Lock()
	if _, ok := s.byID[m.ID]; ok {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "exists")
		return ErrExists
	}
	if s.maxMatches > 0 && len(s.byID) >= s.maxMatches {
		s.removeLocked(s.order[0])
	}
	s.byID[m.ID] = m
	s.order = append(s.order, m.ID)
	s.stamps += m.Timeline.Len()
	count, stamps := len(s.byID), s.stamps
	s.mu.Unlock()

	metrics.UpdateMatchesStored(count)
	metrics.UpdateStampsStored(stamps)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (Match, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(metrics.SinceMs(start)) }()

	if err := ctx.Err(); err != nil {
		return Match{}, err
	}

	s.mu.RLock()
	m, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Match{}, ErrNotFound
	}
	return m, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(metrics.SinceMs(start)) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	s.removeLocked(id)
	count, stamps := len(s.byID), s.stamps
	s.mu.Unlock()

	metrics.UpdateMatchesStored(count)
	metrics.UpdateStampsStored(stamps)
	return nil
}

// removeLocked drops id from both indexes. Caller holds mu.
func (s *MemoryStore) removeLocked(id string) {
	m, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	s.stamps -= m.Timeline.Len()
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// List implements Store.List.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]Info, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(metrics.SinceMs(start)) }()

	if limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.byID[s.order[i]].Info)
	}
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close implements Store.Close. The memory store holds no resources.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
