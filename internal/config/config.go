// Package config loads marquee.yaml and applies MARQUEE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aretw0/marquee/internal/logging"
	"github.com/aretw0/marquee/pkg/adapters/process"
	"github.com/aretw0/marquee/pkg/channel"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/runner"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "marquee.yaml"

// Transport names.
const (
	TransportMemory = "memory"
	TransportRedis  = "redis"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Channel   ChannelConfig   `yaml:"channel"`
	HTTP      HTTPConfig      `yaml:"http"`
	Preview   PreviewConfig   `yaml:"preview"`
	Animation AnimationConfig `yaml:"animation"`
	Audience  AudienceConfig  `yaml:"audience"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ChannelConfig struct {
	Transport string        `yaml:"transport"`
	Topic     string        `yaml:"topic"`
	LeaseTTL  time.Duration `yaml:"lease_ttl"`
	Redis     RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PresenceTTL time.Duration `yaml:"presence_ttl"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// PublicURL is the address announced to the audience (QR code); defaults to Addr.
	PublicURL string `yaml:"public_url"`
}

type PreviewConfig struct {
	Padding time.Duration `yaml:"padding"`
}

type AnimationConfig struct {
	DefaultDuration domain.Millis `yaml:"default_duration"`
}

// AudienceConfig selects the program that opens the audience window.
// Either an inline command or a launcher picked from a windows file.
type AudienceConfig struct {
	process.WindowConfig `yaml:",inline"`
	File                 string `yaml:"file"`
	Launcher             string `yaml:"launcher"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: string(logging.FormatText)},
		Channel: ChannelConfig{
			Transport: TransportMemory,
			Topic:     channel.DefaultTopic,
			LeaseTTL:  runner.DefaultLeaseTTL,
			Redis:     RedisConfig{Addr: "localhost:6379", PresenceTTL: time.Minute},
		},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Preview:   PreviewConfig{Padding: 100 * time.Millisecond},
		Animation: AnimationConfig{DefaultDuration: domain.DefaultDuration},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is only an error when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !required:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from MARQUEE_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MARQUEE_LOG_LEVEL":      &c.Log.Level,
		"MARQUEE_LOG_FORMAT":     &c.Log.Format,
		"MARQUEE_TRANSPORT":      &c.Channel.Transport,
		"MARQUEE_TOPIC":          &c.Channel.Topic,
		"MARQUEE_REDIS_ADDR":     &c.Channel.Redis.Addr,
		"MARQUEE_REDIS_PASSWORD": &c.Channel.Redis.Password,
		"MARQUEE_HTTP_ADDR":      &c.HTTP.Addr,
		"MARQUEE_PUBLIC_URL":     &c.HTTP.PublicURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("MARQUEE_REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MARQUEE_REDIS_DB=%q", ErrInvalid, v)
		}
		c.Channel.Redis.DB = db
	}
	if v, ok := lookup("MARQUEE_LEASE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: MARQUEE_LEASE_TTL=%q", ErrInvalid, v)
		}
		c.Channel.LeaseTTL = d
	}
	return nil
}

// Validate reports the first bad value.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Channel.Transport {
	case TransportMemory, TransportRedis:
	default:
		return fmt.Errorf("%w: channel.transport %q: want memory or redis", ErrInvalid, c.Channel.Transport)
	}
	if c.Channel.Topic == "" {
		return fmt.Errorf("%w: channel.topic is empty", ErrInvalid)
	}
	if c.Channel.Transport == TransportRedis && c.Channel.Redis.Addr == "" {
		return fmt.Errorf("%w: channel.redis.addr is required for the redis transport", ErrInvalid)
	}
	if c.Channel.LeaseTTL <= 0 {
		return fmt.Errorf("%w: channel.lease_ttl must be positive", ErrInvalid)
	}
	if c.Preview.Padding < 0 {
		return fmt.Errorf("%w: preview.padding is negative", ErrInvalid)
	}
	if c.Animation.DefaultDuration < 0 {
		return fmt.Errorf("%w: animation.default_duration is negative", ErrInvalid)
	}
	return nil
}

// Window resolves the audience launcher. ok is false when none is configured.
func (a AudienceConfig) Window() (w process.WindowConfig, ok bool, err error) {
	if a.Command != "" {
		return a.WindowConfig, true, nil
	}
	if a.File == "" {
		return process.WindowConfig{}, false, nil
	}
	file, err := process.LoadWindows(a.File)
	if err != nil {
		return process.WindowConfig{}, false, err
	}
	w, err = file.Select(a.Launcher)
	if err != nil {
		return process.WindowConfig{}, false, err
	}
	return w, true, nil
}
