// Package inventory is the entry point for callers of the engine. Reads go
// through the tag-versioned cache; writes go to the store or the lifecycle
// coordinator and then invalidate the tags they affect.
package inventory

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/inventar/internal/cache"
	"github.com/erazemk/inventar/internal/lifecycle"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/telemetry"
)

// DefaultOpTimeout bounds every store operation started by the service.
const DefaultOpTimeout = 10 * time.Second

// Service composes cached reads with transactional writes.
type Service struct {
	db          *sql.DB
	coordinator *lifecycle.Coordinator
	cache       *cache.Cache
	logger      *slog.Logger
	recorder    metrics.Recorder
	tracer      trace.Tracer
	opTimeout   time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithOpTimeout sets the per-operation store timeout.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) { s.recorder = metrics.OrNoop(r) }
}

// WithTracer sets the tracer spans are started on.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService returns a Service over db. A nil coordinator or cache gets a
// default one.
func NewService(db *sql.DB, coordinator *lifecycle.Coordinator, c *cache.Cache, opts ...Option) *Service {
	s := &Service{
		db:          db,
		coordinator: coordinator,
		cache:       c,
		logger:      slog.Default(),
		recorder:    metrics.NoopRecorder{},
		tracer:      telemetry.Tracer("github.com/erazemk/inventar/internal/inventory"),
		opTimeout:   DefaultOpTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.coordinator == nil {
		s.coordinator = lifecycle.NewCoordinator(db, lifecycle.WithLogger(s.logger), lifecycle.WithRecorder(s.recorder))
	}
	if s.cache == nil {
		s.cache = cache.New(cache.WithLogger(s.logger), cache.WithRecorder(s.recorder))
	}
	return s
}

// Cache returns the service's read cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// start opens a span and applies the operation timeout.
func (s *Service) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "inventory."+name, trace.WithAttributes(attrs...))
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		cancel()
		span.End()
	}
}

func (s *Service) invalidate(ctx context.Context, tags []string) {
	s.cache.Invalidate(ctx, tags...)
}

// Ping checks that the database is reachable.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}
