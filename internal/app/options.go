package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

const defaultNotifyConcurrency = 8

type options struct {
	logger            *zap.Logger
	now               func() time.Time
	ranker            domain.Ranker
	notifyConcurrency int
}

// Option configures a service.
type Option func(*options)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRanker sets the eligibility policy and candidate limit.
func WithRanker(r domain.Ranker) Option {
	return func(o *options) { o.ranker = r }
}

// WithNotifyConcurrency bounds parallel notification sends per batch.
func WithNotifyConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.notifyConcurrency = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:            zap.NewNop(),
		now:               func() time.Time { return time.Now().UTC() },
		ranker:            domain.DefaultRanker(),
		notifyConcurrency: defaultNotifyConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
