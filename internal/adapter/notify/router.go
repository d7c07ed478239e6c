package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

var _ domain.NotificationChannel = (*Router)(nil)

// Route sends through Channel when a request is at least MinUrgency.
type Route struct {
	Name       string
	Channel    domain.NotificationChannel
	MinUrgency domain.Urgency
}

// Router fans a notification out over every route whose urgency threshold
// the request meets. Delivery on any route counts as sent. When no route
// applies, or every applicable one lacks an address, Send returns
// domain.ErrDonorUnreachable so callers do not treat it as a failure to retry.
type Router struct {
	routes []Route
	logger *zap.Logger
}

// NewRouter creates a router over routes.
func NewRouter(logger *zap.Logger, routes ...Route) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{routes: routes, logger: logger}
}

func (r *Router) Send(ctx context.Context, donor domain.Donor, summary domain.RequestSummary) error {
	var (
		delivered, tried int
		errs             []error
	)

	for _, route := range r.routes {
		if route.MinUrgency != "" && !summary.Urgency.AtLeast(route.MinUrgency) {
			continue
		}
		tried++

		err := route.Channel.Send(ctx, donor, summary)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrNoAddress):
		default:
			errs = append(errs, fmt.Errorf("%s: %w", route.Name, err))
		}
	}

	if delivered > 0 {
		for _, err := range errs {
			r.logger.Warn("secondary channel failed",
				zap.String("donor_id", donor.ID),
				zap.String("request_id", summary.RequestID),
				zap.Error(err),
			)
		}
		return nil
	}
	if len(errs) == 0 {
		return fmt.Errorf("%w (%d of %d routes apply to %s urgency)",
			domain.ErrDonorUnreachable, tried, len(r.routes), summary.Urgency)
	}
	return errors.Join(errs...)
}
