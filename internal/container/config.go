// Package container provides dependency injection and lifecycle management
// for the broker workflow service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database     DatabaseConfig
	Lark         LarkConfig
	Notification NotificationConfig
	Approval     ApprovalConfig
	Server       ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LarkConfig holds Lark API settings. Empty credentials disable Lark delivery.
type LarkConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string

	// Concurrency bounds parallel sends per notification
	Concurrency int
}

// NotificationConfig holds notification routing settings.
type NotificationConfig struct {
	// Async delivers notifications off the request path
	Async bool

	BrokerName string

	// RoleRecipients maps approver roles to the addresses told about pending steps
	RoleRecipients map[string][]string

	AuditRecipients []string
}

// ApprovalConfig tunes the approval engine.
type ApprovalConfig struct {
	// FallbackApprover is used when no role's ceiling covers an amount
	FallbackApprover string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/broker.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Lark: LarkConfig{
			Concurrency: 4,
		},
		Notification: NotificationConfig{
			Async:          true,
			RoleRecipients: make(map[string][]string),
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if (c.Lark.AppID == "") != (c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret must be set together")
	}
	return nil
}
