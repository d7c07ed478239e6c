package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

var _ domain.NotificationChannel = (*LogChannel)(nil)

// LogChannel writes the notification to the log instead of delivering it.
// It is the fallback when no transport is configured.
type LogChannel struct {
	logger *zap.Logger
}

func NewLogChannel(logger *zap.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Send(_ context.Context, donor domain.Donor, summary domain.RequestSummary) error {
	c.logger.Info("donor notification",
		zap.String("donor_id", donor.ID),
		zap.String("request_id", summary.RequestID),
		zap.String("urgency", string(summary.Urgency)),
		zap.String("message", Text(donor, summary)),
	)
	return nil
}
