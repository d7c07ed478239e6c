package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kibeterick/blood-management-fullstack/internal/config"
	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "bloodmatch.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, domain.DefaultCooldownDays, cfg.Matching.CooldownDays)
	assert.Equal(t, 18, cfg.Matching.MinAge)
	assert.Equal(t, 65, cfg.Matching.MaxAge)
	assert.Equal(t, 50, cfg.Matching.MaxCandidates)
	assert.Equal(t, 8, cfg.Matching.NotifyConcurrency)
	assert.Equal(t, 15*time.Minute, cfg.Matching.RescanInterval)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Telegram.Token)
	assert.Empty(t, cfg.Email.BaseURL)
	assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
}

func TestLoad_EmailAndTelemetryFromEnv(t *testing.T) {
	t.Setenv("EMAIL_BASE_URL", "https://mail.example.com")
	t.Setenv("EMAIL_FROM", "donors@hospital.example")
	t.Setenv("TELEMETRY_EXPORTER", "otlp")
	t.Setenv("TELEMETRY_SAMPLE_RATIO", "0.25")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com", cfg.Email.BaseURL)
	assert.Equal(t, "donors@hospital.example", cfg.Email.From)
	assert.Equal(t, 10*time.Second, cfg.Email.Timeout)
	assert.Equal(t, "otlp", cfg.Telemetry.Exporter)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	content := `
[server]
port = "9090"

[matching]
max_candidates = 10
rescan_interval = "30m"

[redis]
addr = "localhost:6379"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Matching.MaxCandidates)
	assert.Equal(t, 30*time.Minute, cfg.Matching.RescanInterval)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 56, cfg.Matching.CooldownDays, "unset keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[matching]\ncooldown_days = 60\n"), 0o600))
	t.Setenv("MATCHING_COOLDOWN_DAYS", "84")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 84, cfg.Matching.CooldownDays)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[matching\n"), 0o600))

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestMatchingConfig_Ranker(t *testing.T) {
	r := config.MatchingConfig{CooldownDays: 90, MinAge: 17, MaxAge: 60, MaxCandidates: 0}.Ranker()

	assert.Equal(t, 90, r.Policy.CooldownDays)
	assert.Equal(t, 17, r.Policy.MinAge)
	assert.Equal(t, domain.DefaultMaxCandidates, r.MaxCandidates)
}
