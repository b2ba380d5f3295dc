// Package config assembles server settings from defaults, an optional YAML
// file and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Slot backends.
const (
	SlotFile     = "file"
	SlotPostgres = "postgres"
)

// Config is the server configuration.
type Config struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metricsAddr"` // empty disables /metrics
	TLSCert     string `yaml:"tlsCert"`
	TLSKey      string `yaml:"tlsKey"`
	Dev         bool   `yaml:"dev"`
	LogLevel    string `yaml:"logLevel"`

	JWTKey     string        `yaml:"jwtKey"`
	SessionTTL time.Duration `yaml:"sessionTTL"`

	Latency         time.Duration `yaml:"latency"`
	NotificationTTL time.Duration `yaml:"notificationTTL"`
	Seed            bool          `yaml:"seed"`

	SlotBackend  string `yaml:"slotBackend"`
	SlotPath     string `yaml:"slotPath"`
	DSN          string `yaml:"dsn"`
	SettingsPath string `yaml:"settingsPath"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":8443",
		MetricsAddr:     ":9090",
		LogLevel:        "info",
		SessionTTL:      24 * time.Hour,
		NotificationTTL: 5 * time.Second,
		Seed:            true,
		SlotBackend:     SlotFile,
	}
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.JWTKey, validation.Required.Error("missing jwt signing key (--jwt-key)")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.SlotBackend, validation.Required, validation.In(SlotFile, SlotPostgres)),
		validation.Field(&c.DSN, validation.When(c.SlotBackend == SlotPostgres, validation.Required)),
		validation.Field(&c.TLSKey, validation.When(c.TLSCert != "", validation.Required)),
		validation.Field(&c.TLSCert, validation.When(c.TLSKey != "", validation.Required)),
		validation.Field(&c.Latency, validation.Min(time.Duration(0))),
	)
}

// LoadFile overlays the YAML document at path onto c.
func LoadFile(path string, c *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Parse builds the configuration for args (without the program name).
// Only flags given explicitly override the file.
func Parse(name string, args []string) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "", "YAML config file")

	fl := Default()
	fs.StringVar(&fl.Addr, "addr", fl.Addr, "gRPC listen address")
	fs.StringVar(&fl.MetricsAddr, "metrics-addr", fl.MetricsAddr, "Prometheus listen address (empty disables)")
	fs.StringVar(&fl.TLSCert, "tls-cert", fl.TLSCert, "TLS certificate (PEM)")
	fs.StringVar(&fl.TLSKey, "tls-key", fl.TLSKey, "TLS private key (PEM)")
	fs.BoolVar(&fl.Dev, "dev", fl.Dev, "enable server reflection (dev only)")
	fs.StringVar(&fl.LogLevel, "log-level", fl.LogLevel, "debug|info|warn|error")
	fs.StringVar(&fl.JWTKey, "jwt-key", fl.JWTKey, "HS256 signing key (required)")
	fs.DurationVar(&fl.SessionTTL, "session-ttl", fl.SessionTTL, "session token TTL")
	fs.DurationVar(&fl.Latency, "latency", fl.Latency, "simulated latency of content operations")
	fs.DurationVar(&fl.NotificationTTL, "notification-ttl", fl.NotificationTTL, "notification lifetime")
	fs.BoolVar(&fl.Seed, "seed", fl.Seed, "load sample data on start")
	fs.StringVar(&fl.SlotBackend, "slot", fl.SlotBackend, "session slot backend: file|postgres")
	fs.StringVar(&fl.SlotPath, "slot-path", fl.SlotPath, "session file (file backend)")
	fs.StringVar(&fl.DSN, "dsn", fl.DSN, "PostgreSQL DSN (postgres backend)")
	fs.StringVar(&fl.SettingsPath, "settings", fl.SettingsPath, "site settings YAML, watched for changes")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *path != "" {
		if err := LoadFile(*path, &cfg); err != nil {
			return Config{}, err
		}
	}

	var unknown error
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			return
		}
		set, ok := overrides[f.Name]
		if !ok {
			unknown = errors.Join(unknown, fmt.Errorf("flag %q has no config field", f.Name))
			return
		}
		set(&cfg, &fl)
	})
	if unknown != nil {
		return Config{}, unknown
	}
	return cfg, nil
}

var overrides = map[string]func(dst, src *Config){
	"addr":             func(d, s *Config) { d.Addr = s.Addr },
	"metrics-addr":     func(d, s *Config) { d.MetricsAddr = s.MetricsAddr },
	"tls-cert":         func(d, s *Config) { d.TLSCert = s.TLSCert },
	"tls-key":          func(d, s *Config) { d.TLSKey = s.TLSKey },
	"dev":              func(d, s *Config) { d.Dev = s.Dev },
	"log-level":        func(d, s *Config) { d.LogLevel = s.LogLevel },
	"jwt-key":          func(d, s *Config) { d.JWTKey = s.JWTKey },
	"session-ttl":      func(d, s *Config) { d.SessionTTL = s.SessionTTL },
	"latency":          func(d, s *Config) { d.Latency = s.Latency },
	"notification-ttl": func(d, s *Config) { d.NotificationTTL = s.NotificationTTL },
	"seed":             func(d, s *Config) { d.Seed = s.Seed },
	"slot":             func(d, s *Config) { d.SlotBackend = s.SlotBackend },
	"slot-path":        func(d, s *Config) { d.SlotPath = s.SlotPath },
	"dsn":              func(d, s *Config) { d.DSN = s.DSN },
	"settings":         func(d, s *Config) { d.SettingsPath = s.SettingsPath },
}
