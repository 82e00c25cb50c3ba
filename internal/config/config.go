// Package config loads the server configuration from an optional YAML file
// and the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/Zachkp/moto-portfolio/internal/contact"
	"github.com/Zachkp/moto-portfolio/internal/content"
	"github.com/Zachkp/moto-portfolio/internal/gauge"
	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/profile"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: PORTFOLIO_SESSION__DRIVER sets session.driver.
const EnvPrefix = "PORTFOLIO_"

// Session drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Tree sources.
const (
	TreeFromDir  = "dir"
	TreeFromFile = "file"
	TreeFromURL  = "url"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig       `koanf:"server" yaml:"server"`
	Log      logging.Config     `koanf:"log" yaml:"log"`
	Database DatabaseConfig     `koanf:"database" yaml:"database"`
	Session  SessionConfig      `koanf:"session" yaml:"session"`
	Gauge    gauge.Config       `koanf:"gauge" yaml:"gauge"`
	Files    FilesConfig        `koanf:"files" yaml:"files"`
	Tree     TreeConfig         `koanf:"tree" yaml:"tree"`
	Visits   VisitsConfig       `koanf:"visits" yaml:"visits"`
	SMTP     contact.SMTPConfig `koanf:"smtp" yaml:"smtp"`
	Admin    AdminConfig        `koanf:"admin" yaml:"admin"`
	Content  content.Content    `koanf:"content" yaml:"content"`
	Profiles []profile.Profile  `koanf:"profiles" yaml:"profiles"`
	Metrics  MetricsConfig      `koanf:"metrics" yaml:"metrics"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host" yaml:"host"`
	Port            int           `koanf:"port" yaml:"port"`
	Mode            string        `koanf:"mode" yaml:"mode"` // debug, release, test; empty keeps GIN_MODE
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
	SecureCookies   bool          `koanf:"secure_cookies" yaml:"secure_cookies"`
	StaticDir       string        `koanf:"static_dir" yaml:"static_dir"`
	AssetsDir       string        `koanf:"assets_dir" yaml:"assets_dir"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `koanf:"path" yaml:"path"`
}

// SessionConfig selects where selected profiles are kept.
type SessionConfig struct {
	Driver        string        `koanf:"driver" yaml:"driver"`
	TTL           time.Duration `koanf:"ttl" yaml:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval" yaml:"sweep_interval"`
}

// FilesConfig is the directory served to the admin terminal viewer.
type FilesConfig struct {
	Dir string `koanf:"dir" yaml:"dir"`
}

// TreeConfig says where the admin terminal's file tree comes from.
type TreeConfig struct {
	Source  string   `koanf:"source" yaml:"source"`
	URL     string   `koanf:"url" yaml:"url,omitempty"`
	File    string   `koanf:"file" yaml:"file,omitempty"`
	Exclude []string `koanf:"exclude" yaml:"exclude,omitempty"`
}

// VisitsConfig controls visitor tracking.
type VisitsConfig struct {
	Enabled         bool          `koanf:"enabled" yaml:"enabled"`
	Salt            string        `koanf:"salt" yaml:"-"`
	Retention       time.Duration `koanf:"retention" yaml:"retention"`
	CleanupInterval time.Duration `koanf:"cleanup_interval" yaml:"cleanup_interval"`
}

// AdminConfig holds the visitor dashboard login. An empty password leaves
// the dashboard behind the admin profile only.
type AdminConfig struct {
	Username string `koanf:"username" yaml:"username"`
	Password string `koanf:"password" yaml:"-"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a Config populated with defaults. Profiles and
// content are left empty and filled in after loading, so a configured list
// replaces the built-in one instead of being merged into it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			StaticDir:       "static",
			AssetsDir:       "assets",
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path: "data/portfolio.db",
		},
		Session: SessionConfig{
			Driver:        DriverSQLite,
			TTL:           24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Gauge: gauge.DefaultConfig(),
		Files: FilesConfig{
			Dir: "content",
		},
		Tree: TreeConfig{
			Source: TreeFromDir,
		},
		Visits: VisitsConfig{
			Enabled:         true,
			Retention:       365 * 24 * time.Hour,
			CleanupInterval: 24 * time.Hour,
		},
		SMTP: contact.SMTPConfig{
			Host: "smtp.gmail.com",
			Port: "587",
		},
		Admin: AdminConfig{
			Username: "admin",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// legacyEnv maps the variables the site has always read to config keys.
var legacyEnv = map[string]string{
	"PORT":      "server.port",
	"SMTP_HOST": "smtp.host",
	"SMTP_PORT": "smtp.port",
	"SMTP_USER": "smtp.user",
	"SMTP_PASS": "smtp.password",
	"TO_EMAIL":  "smtp.to",

	"ADMIN_USERNAME": "admin.username",
	"ADMIN_PASSWORD": "admin.password",
}

// Load reads configuration from path (if it exists), then the legacy
// environment variables, then PORTFOLIO_* overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading legacy env: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// envKey turns PORTFOLIO_LOG__OUTPUT_PATH into log.output_path.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) applyDefaults() {
	if len(c.Profiles) == 0 {
		c.Profiles = profile.DefaultProfiles()
	}
	c.Content = c.Content.WithDefaults()
}

// Catalog builds the profile catalog.
func (c *Config) Catalog() (*profile.Catalog, error) {
	profiles := c.Profiles
	if len(profiles) == 0 {
		profiles = profile.DefaultProfiles()
	}
	return profile.NewCatalog(profiles)
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// YAML renders the configuration. Secrets are omitted.
func (c *Config) YAML() ([]byte, error) {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	return data, nil
}

var validDrivers = map[string]bool{
	DriverMemory: true,
	DriverSQLite: true,
}

var validTreeSources = map[string]bool{
	TreeFromDir:  true,
	TreeFromFile: true,
	TreeFromURL:  true,
}

var validModes = map[string]bool{
	"":        true,
	"debug":   true,
	"release": true,
	"test":    true,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if !validModes[c.Server.Mode] {
		return fmt.Errorf("invalid server mode %q (valid: debug, release, test)", c.Server.Mode)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format %q (valid: json, console)", c.Log.Format)
	}

	if !validDrivers[c.Session.Driver] {
		return fmt.Errorf("invalid session driver %q (valid: memory, sqlite)", c.Session.Driver)
	}
	if c.Session.Driver == DriverSQLite && c.Database.Path == "" {
		return fmt.Errorf("database path is required for the sqlite session driver")
	}
	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session ttl and sweep interval must be positive")
	}

	if err := c.Gauge.Validate(); err != nil {
		return err
	}

	if !validTreeSources[c.Tree.Source] {
		return fmt.Errorf("invalid tree source %q (valid: dir, file, url)", c.Tree.Source)
	}
	switch {
	case c.Tree.Source == TreeFromURL && c.Tree.URL == "":
		return fmt.Errorf("tree url is required when tree source is url")
	case c.Tree.Source == TreeFromFile && c.Tree.File == "":
		return fmt.Errorf("tree file is required when tree source is file")
	case c.Files.Dir == "":
		return fmt.Errorf("files dir is required")
	}

	if c.Visits.Enabled && c.Visits.Retention <= 0 {
		return fmt.Errorf("visit retention must be positive")
	}
	if c.Admin.Password != "" && c.Admin.Username == "" {
		return fmt.Errorf("admin username is required when an admin password is set")
	}

	for i, p := range c.Profiles {
		if p.ID == "" {
			return fmt.Errorf("profile %d has no id", i)
		}
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	return c.Content.Validate()
}
