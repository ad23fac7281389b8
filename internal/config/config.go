// Package config handles loading and validating the watcher settings and the
// search rules file. Settings come from an optional YAML file and the
// environment; rules come from a YAML or JSON list.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Error reports a configuration problem. It is fatal and always surfaces
// before any network I/O.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config is the top-level application configuration.
type Config struct {
	Stores    []StoreConfig   `mapstructure:"stores"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Seen      SeenConfig      `mapstructure:"seen"`
	Mail      MailConfig      `mapstructure:"mail"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// StoreConfig names one Fundgrube endpoint.
type StoreConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
}

// HTTPConfig defines the listing client settings.
type HTTPConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	PageSize          int           `mapstructure:"page_size"`
	MaxPages          int           `mapstructure:"max_pages"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Retries           int           `mapstructure:"retries"` // default: 0, no retry
}

// SeenConfig locates the notification history.
type SeenConfig struct {
	// Path is a CSV file path, or a sqlite:// or postgres:// DSN.
	Path string `mapstructure:"path"`
}

// MailConfig defines SMTP delivery settings.
type MailConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	From           string `mapstructure:"from"`
	To             string `mapstructure:"to"`
	SenderName     string `mapstructure:"sender_name"`
	SubjectPrefix  string `mapstructure:"subject_prefix"`
	NotifyErrors   bool   `mapstructure:"notify_errors"`
	ErrorStatePath string `mapstructure:"error_state_path"`
}

// Enabled reports whether a sender address is configured.
func (m *MailConfig) Enabled() bool {
	return m.From != ""
}

// Addr returns host:port of the SMTP server.
func (m *MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json, console
}

// ScheduleConfig defines the watch-mode interval.
type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// ServerConfig defines the watch-mode HTTP server.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// TelemetryConfig defines OpenTelemetry tracing export.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

// DefaultStores are the Fundgrube endpoints polled when none are configured.
var DefaultStores = []StoreConfig{
	{Name: "mediamarkt", BaseURL: "https://www.mediamarkt.de/de/data/fundgrube"},
	{Name: "saturn", BaseURL: "https://www.saturn.de/de/data/fundgrube"},
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:131.0) Gecko/20100101 Firefox/131.0"

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"mail.host":               "SMTP_SERVER",
	"mail.port":               "SMTP_PORT",
	"mail.username":           "SMTP_USERNAME",
	"mail.from":               "MAIL_SENDER",
	"mail.password":           "MAIL_PASSWORD",
	"mail.to":                 "MAIL_RECEIVER",
	"seen.path":               "SEEN_FILE",
	"logging.level":           "LOG_LEVEL",
	"logging.format":          "LOG_FORMAT",
	"http.timeout":            "HTTP_TIMEOUT",
	"discord.webhook_url":     "DISCORD_WEBHOOK_URL",
	"telemetry.otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// DefaultEnvFile is loaded when no env file is given and it exists.
const DefaultEnvFile = ".env"

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Variables that are already set keep their value. An empty path loads
// DefaultEnvFile if present.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		return &Error{Path: path, Err: fmt.Errorf("loading env file: %w", err)}
	}
	return nil
}

// Load builds the configuration from an optional settings file and the
// environment. An empty path skips the file. Environment variables in the
// file are expanded before parsing.
func Load(path string, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("mail.notify_errors", true)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("binding %s: %w", env, err)}
		}
	}

	if path != "" {
		if err := readSettingsFile(v, path); err != nil {
			return nil, &Error{Path: path, Err: err}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("decoding settings: %w", err)}
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("validating settings: %w", err)}
	}

	return cfg, nil
}

func readSettingsFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // settings path from trusted CLI flag
	if err != nil {
		return fmt.Errorf("reading settings file: %w", err)
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		ext = "yaml"
	}
	v.SetConfigType(ext)

	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("parsing settings file: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Stores) == 0 {
		cfg.Stores = append([]StoreConfig(nil), DefaultStores...)
	}
	applyHTTPDefaults(&cfg.HTTP)
	applyMailDefaults(&cfg.Mail)
	applyLoggingDefaults(&cfg.Logging)

	if cfg.Seen.Path == "" {
		cfg.Seen.Path = "old_results.csv"
	}
	if cfg.Schedule.Interval == 0 {
		cfg.Schedule.Interval = 15 * time.Minute
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "fundgrube-watcher"
	}
}

func applyHTTPDefaults(h *HTTPConfig) {
	if h.Timeout == 0 {
		h.Timeout = 30 * time.Second
	}
	if h.UserAgent == "" {
		h.UserAgent = defaultUserAgent
	}
	if h.PageSize == 0 {
		h.PageSize = 32
	}
	if h.MaxPages == 0 {
		h.MaxPages = 10
	}
	if h.RequestsPerSecond == 0 {
		h.RequestsPerSecond = 2
	}
	if h.Burst == 0 {
		h.Burst = 1
	}
}

func applyMailDefaults(m *MailConfig) {
	if m.Host == "" {
		m.Host = "smtp.gmail.com"
	}
	if m.Port == 0 {
		m.Port = 587
	}
	if m.Username == "" {
		m.Username = m.From
	}
	if m.To == "" {
		m.To = m.From
	}
	if m.SenderName == "" {
		m.SenderName = "Fundgrube Notifier"
	}
	if m.SubjectPrefix == "" {
		m.SubjectPrefix = "Fundgrube: "
	}
	if m.ErrorStatePath == "" {
		m.ErrorStatePath = "previous_error.txt"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "warn"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	names := make(map[string]struct{}, len(cfg.Stores))
	for i, s := range cfg.Stores {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("stores[%d].name is required", i))
		} else if _, dup := names[s.Name]; dup {
			errs = append(errs, fmt.Errorf("stores[%d].name %q is not unique", i, s.Name))
		}
		names[s.Name] = struct{}{}

		u, err := url.Parse(s.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("stores[%d].base_url must be an absolute http(s) URL (got %q)", i, s.BaseURL))
		}
	}

	if cfg.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout must be positive"))
	}
	if cfg.HTTP.PageSize < 0 {
		errs = append(errs, fmt.Errorf("http.page_size must be positive"))
	}
	if cfg.HTTP.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("http.max_pages must be positive"))
	}
	if cfg.HTTP.Retries < 0 {
		errs = append(errs, fmt.Errorf("http.retries must not be negative"))
	}

	if cfg.Mail.Port < 1 || cfg.Mail.Port > 65535 {
		errs = append(errs, fmt.Errorf("mail.port must be between 1 and 65535 (got %d)", cfg.Mail.Port))
	}
	if cfg.Mail.Enabled() && cfg.Mail.Password == "" {
		errs = append(errs, fmt.Errorf("mail.password is required when mail.from is set"))
	}

	switch cfg.Logging.Format {
	case "text", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of: text, json, console (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}
