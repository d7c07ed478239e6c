package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/adapter/notify"
	"github.com/kibeterick/blood-management-fullstack/internal/adapter/otel"
	"github.com/kibeterick/blood-management-fullstack/internal/config"
	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// buildChannels assembles the configured transports behind a Router.
// SMS and Telegram only carry high and critical requests; email, the Redis
// stream and MQTT carry every request. With no transport configured, notifications
// are logged. The returned func releases transport connections.
func buildChannels(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.NotificationChannel, func(), error) {
	var (
		routes  []notify.Route
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	add := func(name string, ch domain.NotificationChannel, minUrgency domain.Urgency) error {
		traced, err := otel.NewTracingChannel(ch, name)
		if err != nil {
			return err
		}
		routes = append(routes, notify.Route{Name: name, Channel: traced, MinUrgency: minUrgency})
		log.Info("notification channel enabled", zap.String("channel", name))
		return nil
	}

	if cfg.SMS.BaseURL != "" {
		sms := notify.NewSMSChannel(notify.SMSConfig{
			BaseURL: cfg.SMS.BaseURL,
			APIKey:  cfg.SMS.APIKey,
			Sender:  cfg.SMS.Sender,
			Timeout: cfg.SMS.Timeout,
			Retries: cfg.SMS.Retries,
		}, log.Named("sms"))
		if err := add("sms", sms, domain.UrgencyHigh); err != nil {
			return nil, closeAll, err
		}
	}

	if cfg.Email.BaseURL != "" {
		email := notify.NewEmailChannel(notify.EmailConfig{
			BaseURL: cfg.Email.BaseURL,
			APIKey:  cfg.Email.APIKey,
			From:    cfg.Email.From,
			Timeout: cfg.Email.Timeout,
			Retries: cfg.Email.Retries,
		}, log.Named("email"))
		if err := add("email", email, ""); err != nil {
			return nil, closeAll, err
		}
	}

	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramChannel(cfg.Telegram.Token, "", &http.Client{Timeout: cfg.SMS.Timeout})
		if err != nil {
			return nil, closeAll, err
		}
		if err := add("telegram", tg, domain.UrgencyHigh); err != nil {
			return nil, closeAll, err
		}
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, closeAll, fmt.Errorf("connecting to redis: %w", err)
		}
		if err := add("redis", notify.NewRedisStreamChannel(client, cfg.Redis.Stream, cfg.Redis.MaxLen), ""); err != nil {
			return nil, closeAll, err
		}
	}

	if cfg.MQTT.Broker != "" {
		client, err := notify.NewMQTTClient(notify.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		})
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { client.Disconnect(250) })
		if err := add("mqtt", notify.NewMQTTChannel(client, cfg.MQTT.TopicPrefix, cfg.MQTT.Timeout), ""); err != nil {
			return nil, closeAll, err
		}
	}

	if len(routes) == 0 {
		log.Warn("no notification transport configured, logging notifications")
		if err := add("log", notify.NewLogChannel(log.Named("notify")), ""); err != nil {
			return nil, closeAll, err
		}
	}

	return notify.NewRouter(log.Named("router"), routes...), closeAll, nil
}
