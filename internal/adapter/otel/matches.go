package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

const instrumentationName = "github.com/kibeterick/blood-management-fullstack/internal/adapter/otel"

// TracingMatchRepository wraps a domain.MatchRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingMatchRepository struct {
	next   domain.MatchRepository
	tracer trace.Tracer
}

// Compile-time check: TracingMatchRepository implements domain.MatchRepository.
var _ domain.MatchRepository = (*TracingMatchRepository)(nil)

// NewTracingMatchRepository creates a tracing decorator around the given repository.
func NewTracingMatchRepository(next domain.MatchRepository) *TracingMatchRepository {
	return &TracingMatchRepository{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (r *TracingMatchRepository) UpsertIfAbsentOrMatched(ctx context.Context, requestID, donorID string, score int) (domain.MatchRecord, bool, error) {
	ctx, span := r.tracer.Start(ctx, "MatchRepository.UpsertIfAbsentOrMatched",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("donor.id", donorID),
			attribute.Int("match.score", score),
		),
	)
	defer span.End()

	m, created, err := r.next.UpsertIfAbsentOrMatched(ctx, requestID, donorID, score)
	if err != nil {
		recordError(span, err)
		return m, created, err
	}
	span.SetAttributes(
		attribute.String("match.id", m.ID),
		attribute.Bool("match.created", created),
		attribute.String("match.status", string(m.Status)),
	)
	return m, created, nil
}

func (r *TracingMatchRepository) Get(ctx context.Context, id string) (domain.MatchRecord, error) {
	ctx, span := r.tracer.Start(ctx, "MatchRepository.Get",
		trace.WithAttributes(attribute.String("match.id", id)),
	)
	defer span.End()

	m, err := r.next.Get(ctx, id)
	if err != nil {
		recordError(span, err)
	}
	return m, err
}

func (r *TracingMatchRepository) Update(ctx context.Context, m domain.MatchRecord, from domain.MatchStatus) error {
	ctx, span := r.tracer.Start(ctx, "MatchRepository.Update",
		trace.WithAttributes(
			attribute.String("match.id", m.ID),
			attribute.String("match.status", string(m.Status)),
			attribute.String("match.from_status", string(from)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, m, from)
	if err != nil {
		recordError(span, err)
	}
	return err
}

func (r *TracingMatchRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.MatchRecord, error) {
	ctx, span := r.tracer.Start(ctx, "MatchRepository.ListByRequest",
		trace.WithAttributes(attribute.String("request.id", requestID)),
	)
	defer span.End()

	matches, err := r.next.ListByRequest(ctx, requestID)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(matches)))
	}
	return matches, err
}

func (r *TracingMatchRepository) List(ctx context.Context) ([]domain.MatchRecord, error) {
	ctx, span := r.tracer.Start(ctx, "MatchRepository.List")
	defer span.End()

	matches, err := r.next.List(ctx)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(matches)))
	}
	return matches, err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
