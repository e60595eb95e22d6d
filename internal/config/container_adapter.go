package config

import (
	"github.com/garyjia/broker-workflow/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	roleRecipients := make(map[string][]string, len(c.Notification.RoleRecipients))
	for _, rr := range c.Notification.RoleRecipients {
		roleRecipients[rr.Role] = append(roleRecipients[rr.Role], rr.Recipients...)
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Lark: container.LarkConfig{
			AppID:       c.Lark.AppID,
			AppSecret:   c.Lark.AppSecret,
			BaseURL:     c.Lark.BaseURL,
			Concurrency: c.Lark.Concurrency,
		},
		Notification: container.NotificationConfig{
			Async:           c.Notification.Async,
			BrokerName:      c.Notification.BrokerName,
			RoleRecipients:  roleRecipients,
			AuditRecipients: append([]string(nil), c.Notification.AuditRecipients...),
		},
		Approval: container.ApprovalConfig{
			FallbackApprover: c.Approval.FallbackApprover,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}
}
