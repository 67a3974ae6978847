package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/edgeworth/internal/config"
	"github.com/iwvelando/edgeworth/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of the edgeworth HTTP service.
type Config struct {
	Address         string               `yaml:"address"`
	MaxUploadSize   string               `yaml:"maxUploadSize"`
	ShutdownTimeout string               `yaml:"shutdownTimeout"`
	StorePath       string               `yaml:"storePath"`
	Logging         config.LoggingConfig `yaml:"logging"`

	uploadSizeBytes int64
	shutdown        time.Duration
}

// DefaultConfig returns the settings used when no server config file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	// Empty fields always normalize.
	_ = cfg.normalize()
	return cfg
}

// LoadConfig reads the server configuration at path. A missing file yields
// DefaultConfig. Unknown keys are rejected so typos do not silently fall back
// to defaults.
func LoadConfig(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read server config %s: %w", path, err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse server config %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("invalid server config %s: %w", path, err)
	}
	return cfg, nil
}

// UploadSizeBytes is the largest accepted analysis config upload.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the upload limit; non-positive sizes are ignored.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size <= 0 {
		return
	}
	c.uploadSizeBytes = size
	c.MaxUploadSize = strconv.FormatInt(size, 10)
}

// ShutdownGracePeriod is how long the server waits for running solves when
// asked to stop.
func (c *Config) ShutdownGracePeriod() time.Duration {
	return c.shutdown
}

func (c *Config) normalize() error {
	c.Address = strings.TrimSpace(c.Address)
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	c.StorePath = strings.TrimSpace(c.StorePath)

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = size
	c.MaxUploadSize = strconv.FormatInt(size, 10)

	timeout := strings.TrimSpace(c.ShutdownTimeout)
	if timeout == "" {
		timeout = constants.DefaultShutdownTimeout
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("invalid shutdown timeout %q: %w", c.ShutdownTimeout, err)
	}
	if d < 0 {
		return fmt.Errorf("shutdown timeout %s cannot be negative", d)
	}
	c.shutdown = d
	c.ShutdownTimeout = d.String()
	return nil
}

// sizeUnits is ordered so two-letter suffixes match before their one-letter
// forms.
var sizeUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"KB", 1 << 10},
	{"MB", 1 << 20},
	{"GB", 1 << 30},
	{"K", 1 << 10},
	{"M", 1 << 20},
	{"G", 1 << 30},
	{"B", 1},
}

// ParseSize converts sizes such as "512", "256K" or "1MB" to bytes. Units are
// binary and case-insensitive. An empty string means the default upload limit.
func ParseSize(value string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if s == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	multiplier := int64(1)
	for _, unit := range sizeUnits {
		if rest, ok := strings.CutSuffix(s, unit.suffix); ok {
			s = strings.TrimSpace(rest)
			multiplier = unit.multiplier
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: negative", value)
	}
	if n > 0 && multiplier > 1 && n > (1<<63-1)/multiplier {
		return 0, fmt.Errorf("size %q overflows", value)
	}
	return n * multiplier, nil
}
