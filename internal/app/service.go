// Package service wires the match store, the generation pipeline and the
// import digest index behind the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/scoreline/internal/adapters/mq/queue"
	"github.com/okian/scoreline/internal/adapters/mq/worker"
	"github.com/okian/scoreline/internal/adapters/repository"
	"github.com/okian/scoreline/internal/domain/dedupe"
	"github.com/okian/scoreline/internal/domain/generator"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
	"github.com/okian/scoreline/internal/domain/types"
	"github.com/okian/scoreline/pkg/logger"
	"github.com/okian/scoreline/pkg/metrics"
)

const (
	defaultQueueSize     = 1024
	defaultDedupeSize    = 50_000
	defaultListLimit     = 50
	defaultMaxListLimit  = 500
	defaultMaxStampCount = 1_000_000
	shutdownTimeout      = 30 * time.Second
)

// GenerateRequest describes a match to generate. Zero values fall back to the
// configured defaults; a zero Seed picks one.
type GenerateRequest struct {
	Name  string
	Seed  int64
	Count int
}

// jobState tracks a match that is not in the store yet.
type jobState struct {
	name      string
	status    types.MatchStatus
	err       string
	createdAt time.Time
}

// Service implements the API dependencies for the scoreline system.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	digests dedupe.Index
	jobs    *queue.InMemoryQueue
	pool    *worker.Pool
	gen     *generator.Generator
	genOpts []generator.Option

	// serializes imports and deletes that touch the same digest
	importLocks keyedLocks

	// pending and failed generations keyed by match ID
	states map[string]*jobState
	seq    atomic.Int64

	workerCount   int
	queueSize     int
	dedupeSize    int
	maxListLimit  int
	maxStampCount int

	started bool
	stopped bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		maxListLimit:  defaultMaxListLimit,
		maxStampCount: defaultMaxStampCount,
		states:        make(map[string]*jobState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.gen = generator.New(s.genOpts...)
	s.digests = dedupe.NewInMemoryIndex(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the generation queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting scoreline service...")

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.gen, s)
	// Workers outlive the request context that started them; Stop ends them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "scoreline service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("defaultStampCount", s.gen.Count()),
	)
	return nil
}

// Stop drains the generation queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.stopped = true
	pool := s.pool
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoreline service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
		pool.Stop()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	s.logger.Info(ctx, "scoreline service stopped")
}

// GenerateMatch enqueues a generation job and returns the new match ID. The
// match stays pending until a worker stores it.
func (s *Service) GenerateMatch(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Count < 0 || req.Count > s.maxStampCount {
		return "", fmt.Errorf("%w: %d (max %d)", ErrInvalidCount, req.Count, s.maxStampCount)
	}
	count := req.Count
	if count == 0 {
		count = s.gen.Count()
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return "", ErrStopped
	}
	if !s.started {
		s.mu.Unlock()
		return "", ErrNotStarted
	}
	id := uuid.NewString()
	job := queue.Job{MatchID: id, Name: req.Name, Seed: s.resolveSeed(req.Seed), Count: count}
	s.states[id] = &jobState{name: req.Name, status: types.StatusPending, createdAt: time.Now().UTC()}
	// Enqueue under the lock so Stop cannot close the queue in between.
	ok := s.jobs.Enqueue(ctx, job)
	if !ok {
		delete(s.states, id)
	}
	s.mu.Unlock()

	if !ok {
		metrics.RecordGeneration("rejected")
		s.logger.Warn(ctx, "generation rejected", logger.Int("queueLength", s.jobs.Len(ctx)))
		return "", ErrBackpressure
	}
	metrics.RecordGeneration("queued")
	s.logger.Debug(ctx, "generation queued",
		logger.String("match_id", id),
		logger.Int64("seed", job.Seed),
		logger.Int("count", count))
	return id, nil
}

// resolveSeed prefers the request seed, then a sequence derived from the
// configured seed, then the clock.
func (s *Service) resolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	if base := s.gen.Seed(); base != 0 {
		return base + s.seq.Add(1)
	}
	return time.Now().UnixNano()
}

// Complete stores a generated timeline. It is called by the worker pool.
func (s *Service) Complete(ctx context.Context, job queue.Job, tl *timeline.Timeline) error {
	s.mu.RLock()
	st, ok := s.states[job.MatchID]
	s.mu.RUnlock()
	if !ok {
		// no longer tracked; nothing to store
		return nil
	}

	m := repository.NewMatch(job.MatchID, job.Name, tl, st.createdAt)
	if err := s.store.Put(ctx, m); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.states, job.MatchID)
	s.mu.Unlock()

	metrics.RecordGeneration(string(types.StatusReady))
	s.logger.Info(ctx, "match ready",
		logger.String("match_id", job.MatchID),
		logger.Int("stamps", tl.Len()),
		logger.String("final", tl.Final().String()))
	return nil
}

// Fail records a failed generation. It is called by the worker pool.
func (s *Service) Fail(ctx context.Context, job queue.Job, err error) {
	s.mu.Lock()
	if st, ok := s.states[job.MatchID]; ok {
		st.status = types.StatusFailed
		st.err = err.Error()
	}
	s.mu.Unlock()

	metrics.RecordGeneration(string(types.StatusFailed))
	s.logger.Error(ctx, "match generation failed",
		logger.String("match_id", job.MatchID),
		logger.Error(err))
}

// ImportMatch validates stamps into a timeline and stores it. When an
// identical timeline is already stored its ID is returned with duplicate set.
func (s *Service) ImportMatch(ctx context.Context, name string, stamps []model.Stamp) (string, bool, error) {
	tl, err := timeline.FromStamps(stamps)
	if err != nil {
		metrics.RecordImport("invalid")
		return "", false, fmt.Errorf("%w: %w", ErrInvalidTimeline, err)
	}
	return s.ImportTimeline(ctx, name, tl)
}

// ImportTimeline stores an already validated timeline; see ImportMatch.
func (s *Service) ImportTimeline(ctx context.Context, name string, tl *timeline.Timeline) (string, bool, error) {
	if tl == nil {
		metrics.RecordImport("invalid")
		return "", false, fmt.Errorf("%w: %w", ErrInvalidTimeline, timeline.ErrEmpty)
	}

	id := uuid.NewString()
	m := repository.NewMatch(id, name, tl, time.Now())

	// Record, Put and Forget of one digest run under its lock, so a recorded
	// ID is either stored or about to be stored by the lock holder.
	unlock := s.importLocks.lock(m.Digest)
	defer unlock()

	if existing, seen := s.digests.SeenAndRecord(ctx, m.Digest, id); seen {
		_, err := s.store.Get(ctx, existing)
		switch {
		case err == nil:
			metrics.RecordImport("duplicate")
			s.logger.Debug(ctx, "duplicate import",
				logger.String("match_id", existing),
				logger.String("digest", m.Digest))
			return existing, true, nil
		case !errors.Is(err, repository.ErrNotFound):
			metrics.RecordImport("error")
			return "", false, err
		}
		// the earlier match is gone; claim the digest for this one
		s.digests.Forget(ctx, m.Digest)
		s.digests.SeenAndRecord(ctx, m.Digest, id)
	}

	if err := s.store.Put(ctx, m); err != nil {
		s.digests.Forget(ctx, m.Digest)
		metrics.RecordImport("error")
		return "", false, err
	}

	metrics.RecordImport("created")
	s.logger.Info(ctx, "match imported",
		logger.String("match_id", id),
		logger.String("name", name),
		logger.Int("stamps", tl.Len()))
	return id, false, nil
}

// Match returns the summary of a match. Pending matches return their summary
// together with ErrPending.
func (s *Service) Match(ctx context.Context, id string) (types.MatchSummary, error) {
	if summary, ok, err := s.stateSummary(id); ok {
		return summary, err
	}
	m, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// the worker may have stored it between the two reads
			if summary, ok, err := s.stateSummary(id); ok {
				return summary, err
			}
		}
		return types.MatchSummary{}, err
	}
	return toSummary(m.Info), nil
}

// stateSummary reports whether id is a pending or failed generation.
func (s *Service) stateSummary(id string) (types.MatchSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	if !ok {
		return types.MatchSummary{}, false, nil
	}
	summary := types.MatchSummary{
		ID:        id,
		Name:      st.name,
		Status:    st.status,
		CreatedAt: st.createdAt,
		Error:     st.err,
	}
	if st.status == types.StatusPending {
		return summary, true, ErrPending
	}
	return summary, true, nil
}

func toSummary(info repository.Info) types.MatchSummary {
	return types.MatchSummary{
		ID:        info.ID,
		Name:      info.Name,
		Status:    types.StatusReady,
		Digest:    info.Digest,
		Stamps:    info.Stamps,
		MaxOffset: info.MaxOffset,
		Final:     info.Final,
		CreatedAt: info.CreatedAt,
	}
}

// Matches lists stored matches, newest first. A limit below 1 uses the
// default page size; limits above the configured maximum are capped.
func (s *Service) Matches(ctx context.Context, limit int) ([]types.MatchSummary, error) {
	if limit < 1 {
		limit = defaultListLimit
	}
	limit = min(limit, s.maxListLimit)

	infos, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.MatchSummary, len(infos))
	for i, info := range infos {
		out[i] = toSummary(info)
	}
	return out, nil
}

// DeleteMatch removes a stored or failed match. Pending matches cannot be
// deleted.
func (s *Service) DeleteMatch(ctx context.Context, id string) error {
	s.mu.Lock()
	if st, ok := s.states[id]; ok {
		if st.status == types.StatusPending {
			s.mu.Unlock()
			return ErrPending
		}
		delete(s.states, id)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	unlock := s.importLocks.lock(m.Digest)
	defer unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.digests.Forget(ctx, m.Digest)
	s.logger.Info(ctx, "match deleted", logger.String("match_id", id))
	return nil
}

// Score answers the point-in-time lookup for a stored match. Lookup errors are
// returned unchanged.
func (s *Service) Score(ctx context.Context, id string, offset int) (model.Score, error) {
	start := time.Now()
	defer func() { metrics.RecordLookupLatency(metrics.SinceMs(start)) }()

	if _, ok, err := s.stateSummary(id); ok {
		if err != nil {
			metrics.RecordLookup(metrics.LookupPending)
			return model.Score{}, err
		}
		metrics.RecordLookup(metrics.LookupFailed)
		return model.Score{}, ErrFailed
	}

	m, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordLookup(metrics.LookupNotFound)
		} else {
			metrics.RecordLookup(metrics.LookupError)
		}
		return model.Score{}, err
	}

	score, err := m.Timeline.ScoreAt(offset)
	switch {
	case err == nil:
		metrics.RecordLookup(metrics.LookupOK)
	case timeline.IsOutOfRange(err):
		metrics.RecordLookup(metrics.LookupOutOfRange)
	case timeline.IsNoSuchTimestamp(err):
		metrics.RecordLookup(metrics.LookupNoSuchTimestamp)
	}
	return score, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	pending, failed := 0, 0
	for _, st := range s.states {
		if st.status == types.StatusPending {
			pending++
		} else {
			failed++
		}
	}

	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"dedupeSize":        s.dedupeSize,
		"dedupeEntries":     s.digests.Size(),
		"defaultStampCount": s.gen.Count(),
		"pendingMatches":    pending,
		"failedMatches":     failed,
	}

	if s.started {
		stats["queueLength"] = s.jobs.Len(ctx)
		stats["activeWorkers"] = s.pool.Active()
		stats["totalMatches"] = s.store.Count(ctx)
	}
	return stats
}

var _ worker.Completer = (*Service)(nil)
