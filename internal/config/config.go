package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hejijunhao/jobtray/internal/model"
)

// Transports understood by the connector registry.
const (
	TransportJSON = "json"
	TransportWS   = "ws"
)

// Front ends. UIAuto picks UITUI when stdout is a terminal and UIStdout otherwise.
const (
	UIAuto    = "auto"
	UITUI     = "tui"
	UIDesktop = "desktop"
	UIStdout  = "stdout"
)

const (
	DefaultServer            = "https://ntfy.sh"
	DefaultConnectTimeout    = 10 * time.Second
	DefaultConnectionBackoff = 5 * time.Second
	DefaultOtherBackoff      = 10 * time.Second
)

// Config holds all jobtray configuration.
type Config struct {
	Server    string        `yaml:"server"`
	Topic     string        `yaml:"topic"`
	Transport string        `yaml:"transport"`
	UI        string        `yaml:"ui"`
	Stream    StreamConfig  `yaml:"stream"`
	Log       LogConfig     `yaml:"log"`
	Output    OutputConfig  `yaml:"output"`
	Notify    NotifyConfig  `yaml:"notify"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

// StreamConfig holds connection timing.
type StreamConfig struct {
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	ConnectionBackoff time.Duration `yaml:"connection_backoff"`
	OtherBackoff      time.Duration `yaml:"other_backoff"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// File log line formats.
const (
	FileFormatJSON = "json"
	FileFormatText = "text"
)

// OutputConfig holds the optional event sinks.
type OutputConfig struct {
	File        string `yaml:"file"`
	FileMaxSize int64  `yaml:"file_max_size"` // bytes; 0 disables rotation
	FileKeep    int    `yaml:"file_keep"`     // rotated files kept; 0 = output default
	FileFormat  string `yaml:"file_format"`   // "json" (default) or "text"
	Pretty      bool   `yaml:"pretty"`

	Webhook              string            `yaml:"webhook"`
	Headers              map[string]string `yaml:"webhook_headers"`
	Statuses             []string          `yaml:"webhook_statuses"`   // empty = all
	WebhookBatchSize     int               `yaml:"webhook_batch_size"` // 0 = one POST per event
	WebhookFlushInterval time.Duration     `yaml:"webhook_flush_interval"`
	WebhookTimeout       time.Duration     `yaml:"webhook_timeout"`

	// QueueSize and DropOnFull apply to the buffers in front of the
	// notification and webhook outputs.
	QueueSize  int  `yaml:"queue_size"`
	DropOnFull bool `yaml:"drop_on_full"`
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	Sound string `yaml:"sound"`
}

// MetricsConfig holds the prometheus listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:    DefaultServer,
		Transport: TransportJSON,
		UI:        UIAuto,
		Stream: StreamConfig{
			ConnectTimeout:    DefaultConnectTimeout,
			ConnectionBackoff: DefaultConnectionBackoff,
			OtherBackoff:      DefaultOtherBackoff,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and JOBTRAY_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server = getenv("JOBTRAY_SERVER", cfg.Server)
	cfg.Topic = getenv("JOBTRAY_TOPIC", cfg.Topic)
	cfg.Transport = getenv("JOBTRAY_TRANSPORT", cfg.Transport)
	cfg.UI = getenv("JOBTRAY_UI", cfg.UI)

	cfg.Stream.ConnectTimeout = getenvDuration("JOBTRAY_CONNECT_TIMEOUT", cfg.Stream.ConnectTimeout)
	cfg.Stream.ConnectionBackoff = getenvDuration("JOBTRAY_CONNECTION_BACKOFF", cfg.Stream.ConnectionBackoff)
	cfg.Stream.OtherBackoff = getenvDuration("JOBTRAY_OTHER_BACKOFF", cfg.Stream.OtherBackoff)

	cfg.Log.Level = getenv("JOBTRAY_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getenv("JOBTRAY_LOG_FILE", cfg.Log.File)

	cfg.Output.File = getenv("JOBTRAY_OUTPUT_FILE", cfg.Output.File)
	cfg.Output.FileMaxSize = getenvInt64("JOBTRAY_OUTPUT_FILE_MAX_SIZE", cfg.Output.FileMaxSize)
	cfg.Output.FileKeep = int(getenvInt64("JOBTRAY_OUTPUT_FILE_KEEP", int64(cfg.Output.FileKeep)))
	cfg.Output.FileFormat = getenv("JOBTRAY_OUTPUT_FILE_FORMAT", cfg.Output.FileFormat)
	cfg.Output.Pretty = getenvBool("JOBTRAY_OUTPUT_PRETTY", cfg.Output.Pretty)
	cfg.Output.Webhook = getenv("JOBTRAY_WEBHOOK", cfg.Output.Webhook)
	cfg.Output.WebhookBatchSize = int(getenvInt64("JOBTRAY_WEBHOOK_BATCH_SIZE", int64(cfg.Output.WebhookBatchSize)))
	cfg.Output.WebhookFlushInterval = getenvDuration("JOBTRAY_WEBHOOK_FLUSH_INTERVAL", cfg.Output.WebhookFlushInterval)
	cfg.Output.WebhookTimeout = getenvDuration("JOBTRAY_WEBHOOK_TIMEOUT", cfg.Output.WebhookTimeout)
	cfg.Output.QueueSize = int(getenvInt64("JOBTRAY_OUTPUT_QUEUE_SIZE", int64(cfg.Output.QueueSize)))
	cfg.Output.DropOnFull = getenvBool("JOBTRAY_OUTPUT_DROP_ON_FULL", cfg.Output.DropOnFull)

	cfg.Notify.Sound = getenv("JOBTRAY_SOUND", cfg.Notify.Sound)
	cfg.Metrics.Addr = getenv("JOBTRAY_METRICS_ADDR", cfg.Metrics.Addr)
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error

	switch {
	case c.Topic == "":
		errs = append(errs, errors.New("topic is required"))
	case strings.Contains(c.Topic, "/"):
		errs = append(errs, fmt.Errorf("topic %q must not contain '/'", c.Topic))
	}
	if c.Server == "" {
		errs = append(errs, errors.New("server is required"))
	} else if !strings.HasPrefix(c.Server, "http://") && !strings.HasPrefix(c.Server, "https://") {
		errs = append(errs, fmt.Errorf("server %q must be an http:// or https:// URL", c.Server))
	}

	switch c.Transport {
	case TransportJSON, TransportWS:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportJSON, TransportWS))
	}
	switch c.UI {
	case UIAuto, UITUI, UIDesktop, UIStdout:
	default:
		errs = append(errs, fmt.Errorf("unknown ui %q (want auto, tui, desktop or stdout)", c.UI))
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"connect timeout", c.Stream.ConnectTimeout},
		{"connection backoff", c.Stream.ConnectionBackoff},
		{"other backoff", c.Stream.OtherBackoff},
	}
	for _, d := range durations {
		if d.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", d.name, d.d))
		}
	}
	for _, st := range c.Output.Statuses {
		if !model.Status(st).Valid() {
			errs = append(errs, fmt.Errorf("unknown webhook status %q", st))
		}
	}
	if c.Output.FileMaxSize < 0 {
		errs = append(errs, fmt.Errorf("output file max size must not be negative, got %d", c.Output.FileMaxSize))
	}
	switch c.Output.FileFormat {
	case "", FileFormatJSON, FileFormatText:
	default:
		errs = append(errs, fmt.Errorf("unknown output file format %q (want %s or %s)", c.Output.FileFormat, FileFormatJSON, FileFormatText))
	}
	counts := []struct {
		name string
		n    int
	}{
		{"output file keep", c.Output.FileKeep},
		{"webhook batch size", c.Output.WebhookBatchSize},
		{"output queue size", c.Output.QueueSize},
	}
	for _, n := range counts {
		if n.n < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", n.name, n.n))
		}
	}
	if c.Output.WebhookFlushInterval < 0 {
		errs = append(errs, fmt.Errorf("webhook flush interval must not be negative, got %v", c.Output.WebhookFlushInterval))
	}
	if c.Output.WebhookTimeout < 0 {
		errs = append(errs, fmt.Errorf("webhook timeout must not be negative, got %v", c.Output.WebhookTimeout))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
