package service

import (
	"github.com/okian/scoreline/internal/adapters/repository"
	"github.com/okian/scoreline/internal/domain/generator"
	"github.com/okian/scoreline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of generation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending generation jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many import digests are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxListLimit caps the page size of Matches.
func WithMaxListLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxListLimit = limit
		}
	}
}

// WithMaxStampCount caps the count a generation request may ask for.
func WithMaxStampCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxStampCount = n
		}
	}
}

// WithStore replaces the default in-memory store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithGeneratorOptions configures the timeline generator.
func WithGeneratorOptions(opts ...generator.Option) Option {
	return func(s *Service) {
		s.genOpts = append(s.genOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
