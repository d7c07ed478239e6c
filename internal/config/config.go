// Package config loads service settings from defaults, an optional
// config.toml, a .env file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Email     EmailConfig     `mapstructure:"email"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MatchingConfig overrides the eligibility policy and tunes the matching workers.
type MatchingConfig struct {
	CooldownDays      int           `mapstructure:"cooldown_days"`
	MinAge            int           `mapstructure:"min_age"`
	MaxAge            int           `mapstructure:"max_age"`
	MaxCandidates     int           `mapstructure:"max_candidates"`
	NotifyConcurrency int           `mapstructure:"notify_concurrency"`
	RescanInterval    time.Duration `mapstructure:"rescan_interval"`
	Workers           int           `mapstructure:"workers"`
}

// Ranker builds the candidate ranker for these settings.
func (m MatchingConfig) Ranker() domain.Ranker {
	return domain.NewRanker(domain.EligibilityPolicy{
		CooldownDays: m.CooldownDays,
		MinAge:       m.MinAge,
		MaxAge:       m.MaxAge,
	}, m.MaxCandidates)
}

// RedisConfig enables the stream channel when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// SMSConfig enables the SMS gateway channel when BaseURL is set.
type SMSConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Sender  string        `mapstructure:"sender"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// EmailConfig enables the mail gateway channel when BaseURL is set.
type EmailConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	From    string        `mapstructure:"from"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// MQTTConfig enables the push channel when Broker is set.
type MQTTConfig struct {
	Broker      string        `mapstructure:"broker"`
	ClientID    string        `mapstructure:"client_id"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	TopicPrefix string        `mapstructure:"topic_prefix"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// TelegramConfig enables the bot channel when Token is set.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// TelemetryConfig selects the OpenTelemetry exporter. SampleRatio applies
// to root spans only; child spans follow their parent.
type TelemetryConfig struct {
	Environment string  `mapstructure:"environment"`
	Exporter    string  `mapstructure:"exporter"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.path", "bloodmatch.db")
	v.SetDefault("database.busy_timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("matching.cooldown_days", domain.DefaultCooldownDays)
	v.SetDefault("matching.min_age", domain.DefaultMinAge)
	v.SetDefault("matching.max_age", domain.DefaultMaxAge)
	v.SetDefault("matching.max_candidates", domain.DefaultMaxCandidates)
	v.SetDefault("matching.notify_concurrency", 8)
	v.SetDefault("matching.rescan_interval", 15*time.Minute)
	v.SetDefault("matching.workers", 4)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "bloodmatch:notifications")
	v.SetDefault("redis.max_len", 10000)

	v.SetDefault("sms.base_url", "")
	v.SetDefault("sms.api_key", "")
	v.SetDefault("sms.sender", "BloodBank")
	v.SetDefault("sms.timeout", 10*time.Second)
	v.SetDefault("sms.retries", 2)

	v.SetDefault("email.base_url", "")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from", "alerts@bloodbank.local")
	v.SetDefault("email.timeout", 10*time.Second)
	v.SetDefault("email.retries", 1)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "bloodmatch")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "bloodmatch")
	v.SetDefault("mqtt.timeout", 5*time.Second)

	v.SetDefault("telegram.token", "")

	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// Load reads the configuration. The config file is named by CONFIG_NAME
// (default "config") and searched in paths, or in "." and "config" when
// none are given. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	name := "config"
	if n := os.Getenv("CONFIG_NAME"); n != "" {
		name = n
	}
	v.SetConfigName(name)
	v.SetConfigType("toml")
	if len(paths) == 0 {
		paths = []string{".", "config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}
