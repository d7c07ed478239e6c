package notify

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

var _ domain.NotificationChannel = (*MQTTChannel)(nil)

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// NewMQTTClient connects to the broker with auto-reconnect enabled.
func NewMQTTClient(cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker: %w", token.Error())
	}

	return client, nil
}

// MQTTChannel publishes notifications to a per-donor topic that the
// donor mobile app subscribes to.
type MQTTChannel struct {
	client      mqtt.Client
	topicPrefix string
	qos         byte
	timeout     time.Duration
}

// NewMQTTChannel creates a channel publishing under topicPrefix with QoS 1.
func NewMQTTChannel(client mqtt.Client, topicPrefix string, timeout time.Duration) *MQTTChannel {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTChannel{client: client, topicPrefix: topicPrefix, qos: 1, timeout: timeout}
}

// Topic returns the topic a donor's notifications are published to.
func (c *MQTTChannel) Topic(donorID string) string {
	return fmt.Sprintf("%s/donors/%s/requests", c.topicPrefix, donorID)
}

func (c *MQTTChannel) Send(ctx context.Context, donor domain.Donor, summary domain.RequestSummary) error {
	payload, err := NewPayload(donor, summary).encode()
	if err != nil {
		return err
	}

	topic := c.Topic(donor.ID)
	token := c.client.Publish(topic, c.qos, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.timeout):
		return fmt.Errorf("publishing to %s: timed out after %s", topic, c.timeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}
