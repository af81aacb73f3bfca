package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/marquee/internal/config"
	"github.com/aretw0/marquee/pkg/channel"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, config.TransportMemory, cfg.Channel.Transport)
	assert.Equal(t, channel.DefaultTopic, cfg.Channel.Topic)
	assert.Equal(t, domain.DefaultDuration, cfg.Animation.DefaultDuration)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := write(t, "marquee.yaml", `
log:
  level: debug
  format: json
channel:
  transport: redis
  topic: keynote
  lease_ttl: 10s
  redis:
    addr: redis:6379
    db: 2
preview:
  padding: 250ms
animation:
  default_duration: 300
audience:
  command: kitty
  args: ["marquee", "follow", "--topic", "{topic}"]
`)
	cfg, err := config.Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "keynote", cfg.Channel.Topic)
	assert.Equal(t, 10*time.Second, cfg.Channel.LeaseTTL)
	assert.Equal(t, 2, cfg.Channel.Redis.DB)
	assert.Equal(t, time.Minute, cfg.Channel.Redis.PresenceTTL, "unset fields keep defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.Preview.Padding)
	assert.Equal(t, domain.Millis(300), cfg.Animation.DefaultDuration)

	w, ok, err := cfg.Audience.Window()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "kitty", w.Command)
	assert.Equal(t, []string{"marquee", "follow", "--topic", "{topic}"}, w.Args)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MARQUEE_TOPIC", "from-env")
	t.Setenv("MARQUEE_REDIS_DB", "5")
	t.Setenv("MARQUEE_LEASE_TTL", "1m")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Channel.Topic)
	assert.Equal(t, 5, cfg.Channel.Redis.DB)
	assert.Equal(t, time.Minute, cfg.Channel.LeaseTTL)

	t.Setenv("MARQUEE_REDIS_DB", "five")
	_, err = config.Load(filepath.Join(t.TempDir(), "none.yaml"), false)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"Level", func(c *config.Config) { c.Log.Level = "loud" }},
		{"Format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"Transport", func(c *config.Config) { c.Channel.Transport = "carrier-pigeon" }},
		{"Topic", func(c *config.Config) { c.Channel.Topic = "" }},
		{"Redis Addr", func(c *config.Config) { c.Channel.Transport = "redis"; c.Channel.Redis.Addr = "" }},
		{"Lease", func(c *config.Config) { c.Channel.LeaseTTL = 0 }},
		{"Padding", func(c *config.Config) { c.Preview.Padding = -time.Second }},
		{"Duration", func(c *config.Config) { c.Animation.DefaultDuration = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
		})
	}
	assert.NoError(t, config.Default().Validate())
}

func TestAudience_WindowsFile(t *testing.T) {
	file := write(t, "windows.yaml", `
default: term
windows:
  term:
    command: xterm
    args: ["-e", "marquee follow --topic {topic}"]
`)
	w, ok, err := config.AudienceConfig{File: file}.Window()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "xterm", w.Command)

	_, _, err = config.AudienceConfig{File: file, Launcher: "browser"}.Window()
	assert.Error(t, err)

	_, ok, err = config.AudienceConfig{}.Window()
	require.NoError(t, err)
	assert.False(t, ok)
}
