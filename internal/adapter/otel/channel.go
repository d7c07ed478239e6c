package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// TracingChannel wraps a domain.NotificationChannel with a span per send
// and counters for delivered and failed notifications.
type TracingChannel struct {
	next   domain.NotificationChannel
	name   string
	tracer trace.Tracer
	sent   metric.Int64Counter
	failed metric.Int64Counter
}

// Compile-time check: TracingChannel implements domain.NotificationChannel.
var _ domain.NotificationChannel = (*TracingChannel)(nil)

// NewTracingChannel creates a tracing decorator around the given channel.
// name labels spans and metrics, e.g. "sms" or "redis".
func NewTracingChannel(next domain.NotificationChannel, name string) (*TracingChannel, error) {
	meter := otel.Meter(instrumentationName)

	sent, err := meter.Int64Counter("notifications.sent",
		metric.WithDescription("Notifications delivered to a channel"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sent counter: %w", err)
	}

	failed, err := meter.Int64Counter("notifications.failed",
		metric.WithDescription("Notifications a channel failed to deliver"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return &TracingChannel{
		next:   next,
		name:   name,
		tracer: otel.Tracer(instrumentationName),
		sent:   sent,
		failed: failed,
	}, nil
}

func (c *TracingChannel) Send(ctx context.Context, donor domain.Donor, summary domain.RequestSummary) error {
	ctx, span := c.tracer.Start(ctx, "NotificationChannel.Send",
		trace.WithAttributes(
			attribute.String("channel", c.name),
			attribute.String("donor.id", donor.ID),
			attribute.String("request.id", summary.RequestID),
			attribute.String("request.urgency", string(summary.Urgency)),
		),
	)
	defer span.End()

	attrs := metric.WithAttributes(
		attribute.String("channel", c.name),
		attribute.String("urgency", string(summary.Urgency)),
	)

	err := c.next.Send(ctx, donor, summary)
	if err != nil {
		recordError(span, err)
		c.failed.Add(ctx, 1, attrs)
		return err
	}
	c.sent.Add(ctx, 1, attrs)
	return nil
}
