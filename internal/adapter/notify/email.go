package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

var _ domain.NotificationChannel = (*EmailChannel)(nil)

// EmailConfig configures the HTTP mail gateway.
type EmailConfig struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
	Retries int
}

type emailRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// EmailChannel delivers request messages through a transactional mail API.
// It carries every urgency level, so donors without a phone are still reached.
type EmailChannel struct {
	client *resty.Client
	from   string
	logger *zap.Logger
}

// NewEmailChannel creates an email channel posting to cfg.BaseURL.
func NewEmailChannel(cfg EmailConfig, logger *zap.Logger) *EmailChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &EmailChannel{client: client, from: cfg.From, logger: logger}
}

// Subject is the mail subject line for a request, e.g. "Critical Blood Request Match".
func Subject(s domain.RequestSummary) string {
	u := string(s.Urgency)
	if u == "" {
		return "Blood Request Match"
	}
	return strings.ToUpper(u[:1]) + u[1:] + " Blood Request Match"
}

func (c *EmailChannel) Send(ctx context.Context, donor domain.Donor, summary domain.RequestSummary) error {
	if donor.Email == "" {
		return ErrNoAddress
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(emailRequest{
			To:      donor.Email,
			From:    c.from,
			Subject: Subject(summary),
			Text:    Text(donor, summary),
		}).
		Post("/mail/send")
	if err != nil {
		return fmt.Errorf("calling mail gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail gateway returned %s", resp.Status())
	}

	c.logger.Debug("email sent",
		zap.String("donor_id", donor.ID),
		zap.String("request_id", summary.RequestID),
	)
	return nil
}
