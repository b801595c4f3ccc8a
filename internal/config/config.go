package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Agent    AgentConfig
	Plans    PlansConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Sheets   SheetsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name      string
	Env       string
	Port      string
	APIPrefix string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // sqlite, postgres
	Path            string // sqlite file path
	DSN             string // postgres connection string
	LogLevel        string // silent, error, warn, info
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig holds access token settings
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// AgentConfig describes the external agent service
type AgentConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PlansConfig holds the monthly call allowance per plan tier, -1 means unlimited
type PlansConfig struct {
	Free       int
	Starter    int
	Business   int
	Enterprise int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	CORSAllowOrigins []string
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

// SheetsConfig controls mirroring wishlist entries into a Google Sheet
type SheetsConfig struct {
	Enabled        bool
	CredentialPath string
	SpreadsheetID  string
	SheetName      string
}

// Load loads configuration from an optional config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with BUGZERO_ prefix (e.g., BUGZERO_AGENT_BASE_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds the config from an already prepared viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("BUGZERO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:      v.GetString("app.name"),
			Env:       v.GetString("app.env"),
			Port:      v.GetString("app.port"),
			APIPrefix: v.GetString("app.api_prefix"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			Path:            v.GetString("database.path"),
			DSN:             v.GetString("database.dsn"),
			LogLevel:        v.GetString("database.log_level"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetDuration("jwt.expiration"),
		},
		Agent: AgentConfig{
			BaseURL: strings.TrimRight(v.GetString("agent.base_url"), "/"),
			Timeout: v.GetDuration("agent.timeout"),
		},
		Plans: PlansConfig{
			Free:       v.GetInt("plans.free"),
			Starter:    v.GetInt("plans.starter"),
			Business:   v.GetInt("plans.business"),
			Enterprise: v.GetInt("plans.enterprise"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			RateLimitEnabled: v.GetBool("http.rate_limit_enabled"),
			RateLimitRPS:     v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:   v.GetInt("http.rate_limit_burst"),
		},
		Sheets: SheetsConfig{
			Enabled:        v.GetBool("sheets.enabled"),
			CredentialPath: v.GetString("sheets.credential_path"),
			SpreadsheetID:  v.GetString("sheets.spreadsheet_id"),
			SheetName:      v.GetString("sheets.sheet_name"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "BugZero API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8000")
	v.SetDefault("app.api_prefix", "/api")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/bugzero.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("jwt.secret", "your-secret-key-change-in-production")
	v.SetDefault("jwt.expiration", 7*24*time.Hour)

	v.SetDefault("agent.base_url", "http://localhost:8001")
	v.SetDefault("agent.timeout", 60*time.Second)

	v.SetDefault("plans.free", 10)
	v.SetDefault("plans.starter", 100)
	v.SetDefault("plans.business", 1000)
	v.SetDefault("plans.enterprise", -1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 90*time.Second)
	v.SetDefault("http.cors_allow_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("http.rate_limit_rps", 5.0)
	v.SetDefault("http.rate_limit_burst", 10)

	v.SetDefault("sheets.enabled", false)
	v.SetDefault("sheets.sheet_name", "Wishlist")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must not be empty")
	}
	if c.App.Env == "production" && c.JWT.Secret == "your-secret-key-change-in-production" {
		return errors.New("jwt.secret must be changed in production")
	}
	if c.Agent.BaseURL == "" {
		return errors.New("agent.base_url must not be empty")
	}
	if c.Agent.Timeout <= 0 {
		return errors.New("agent.timeout must be positive")
	}

	for name, limit := range map[string]int{
		"free":       c.Plans.Free,
		"starter":    c.Plans.Starter,
		"business":   c.Plans.Business,
		"enterprise": c.Plans.Enterprise,
	} {
		if limit < -1 {
			return fmt.Errorf("plans.%s must be -1 (unlimited) or a non-negative limit", name)
		}
	}

	if c.Sheets.Enabled && (c.Sheets.CredentialPath == "" || c.Sheets.SpreadsheetID == "") {
		return errors.New("sheets.credential_path and sheets.spreadsheet_id are required when sheets sync is enabled")
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	if strings.HasPrefix(c.App.Port, ":") {
		return c.App.Port
	}
	return ":" + c.App.Port
}
