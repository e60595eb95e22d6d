package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix namespaces environment overrides, e.g. BROKER_SERVER_PORT
const EnvPrefix = "BROKER"

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Lark         LarkConfig         `mapstructure:"lark"`
	Notification NotificationConfig `mapstructure:"notification"`
	Approval     ApprovalConfig     `mapstructure:"approval"`
	Logger       LoggerConfig       `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID       string `mapstructure:"app_id"`
	AppSecret   string `mapstructure:"app_secret"`
	BaseURL     string `mapstructure:"base_url"`
	Concurrency int    `mapstructure:"concurrency"`
}

// NotificationConfig holds notification routing configuration
type NotificationConfig struct {
	Async           bool             `mapstructure:"async"`
	BrokerName      string           `mapstructure:"broker_name"`
	RoleRecipients  []RoleRecipients `mapstructure:"role_recipients"`
	AuditRecipients []string         `mapstructure:"audit_recipients"`
}

// RoleRecipients lists who is told when a step waits on Role.
// Kept as a list because viper lowercases map keys.
type RoleRecipients struct {
	Role       string   `mapstructure:"role"`
	Recipients []string `mapstructure:"recipients"`
}

// ApprovalConfig holds approval engine configuration
type ApprovalConfig struct {
	FallbackApprover string `mapstructure:"fallback_approver"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file, a .env file and the
// environment, in increasing order of precedence. An empty configPath skips the file.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFiles exports .env style files without overriding variables already set.
// Missing files are skipped.
func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := gotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/broker.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("lark.concurrency", 4)

	v.SetDefault("notification.async", true)
	v.SetDefault("notification.broker_name", "Broker Operations")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars lets the conventional unprefixed names supply Lark credentials
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"lark.app_id":     {EnvPrefix + "_LARK_APP_ID", "LARK_APP_ID"},
		"lark.app_secret": {EnvPrefix + "_LARK_APP_SECRET", "LARK_APP_SECRET"},
		"lark.base_url":   {EnvPrefix + "_LARK_BASE_URL", "LARK_BASE_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Lark is optional but the credentials come as a pair
	if (c.Lark.AppID == "") != (c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret must be set together")
	}

	for i, rr := range c.Notification.RoleRecipients {
		if strings.TrimSpace(rr.Role) == "" {
			return fmt.Errorf("notification.role_recipients[%d].role is required", i)
		}
	}

	return nil
}
