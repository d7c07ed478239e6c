package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

var _ domain.NotificationChannel = (*SMSChannel)(nil)

// SMSConfig configures the HTTP SMS gateway.
type SMSConfig struct {
	BaseURL string
	APIKey  string
	Sender  string
	Timeout time.Duration
	Retries int
}

type smsRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

type smsResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SMSChannel delivers request messages through an HTTP SMS gateway.
type SMSChannel struct {
	client *resty.Client
	sender string
	logger *zap.Logger
}

// NewSMSChannel creates an SMS channel posting to cfg.BaseURL.
func NewSMSChannel(cfg SMSConfig, logger *zap.Logger) *SMSChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &SMSChannel{client: client, sender: cfg.Sender, logger: logger}
}

// Send posts the request text to the donor's phone number.
func (c *SMSChannel) Send(ctx context.Context, donor domain.Donor, summary domain.RequestSummary) error {
	if donor.Phone == "" {
		return ErrNoAddress
	}

	var result smsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(smsRequest{To: donor.Phone, From: c.sender, Body: Text(donor, summary)}).
		SetResult(&result).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("calling sms gateway: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn("sms gateway rejected message",
			zap.String("donor_id", donor.ID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("sms gateway returned %s", resp.Status())
	}

	c.logger.Debug("sms sent",
		zap.String("donor_id", donor.ID),
		zap.String("request_id", summary.RequestID),
		zap.String("message_id", result.ID),
	)
	return nil
}
