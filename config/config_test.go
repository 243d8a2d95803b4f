package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.NotificationPollInterval)
	assert.Equal(t, "memory", cfg.EventBus)
	assert.Equal(t, "nexuss", cfg.Cloudinary.UploadPreset)
	assert.Equal(t, "nexus-evidencias", cfg.Cloudinary.Folder)
	assert.Equal(t, 10<<20, cfg.MaxUploadBytes)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigEnvironment(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFICATION_POLL_INTERVAL", "5s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("EVENT_BUS", "redis")
	t.Setenv("LOGIN_RATE_LIMIT", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.NotificationPollInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10, cfg.LoginRateLimit)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_port: "8080"
evidence_backend: minio
notification_poll_interval: 45s
minio:
  endpoint: minio:9000
  bucket: evidence
`), 0o600))
	t.Setenv("NEXUS_CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "minio", cfg.EvidenceBackend)
	assert.Equal(t, 45*time.Second, cfg.NotificationPollInterval)
	assert.Equal(t, "minio:9000", cfg.Minio.Endpoint)
	assert.Equal(t, "postgres", cfg.DBPassword)
}

func TestValidate(t *testing.T) {
	base := Config{
		DBPassword:               "pw",
		JWTSecret:                "secret",
		EventBus:                 "memory",
		EvidenceBackend:          "cloudinary",
		NotificationPollInterval: time.Second,
	}
	require.NoError(t, base.Validate())

	tests := map[string]func(c *Config){
		"missing jwt secret":   func(c *Config) { c.JWTSecret = "" },
		"short prod secret":    func(c *Config) { c.Environment = "production" },
		"unknown bus":          func(c *Config) { c.EventBus = "kafka" },
		"redis bus w/o redis":  func(c *Config) { c.EventBus = "redis" },
		"unknown file backend": func(c *Config) { c.EvidenceBackend = "s3" },
		"zero poll interval":   func(c *Config) { c.NotificationPollInterval = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "host=db password=***** dbname=nexus", maskPassword("host=db password=hunter2 dbname=nexus"))
	assert.Equal(t, "host=db password=*****", maskPassword("host=db password=hunter2"))
	assert.Equal(t, "host=db", maskPassword("host=db"))
}
