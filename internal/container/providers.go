package container

import (
	"fmt"

	"github.com/garyjia/broker-workflow/internal/application/dispatcher"
	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/application/service"
	"github.com/garyjia/broker-workflow/internal/domain/claim"
	"github.com/garyjia/broker-workflow/internal/domain/notification"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
	"github.com/garyjia/broker-workflow/internal/infrastructure/export"
	"github.com/garyjia/broker-workflow/internal/infrastructure/external/delivery"
	infraLark "github.com/garyjia/broker-workflow/internal/infrastructure/external/lark"
	"github.com/garyjia/broker-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/broker-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/broker-workflow/pkg/database"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Claim:        repository.NewClaimRepository(db.DB, logger),
		AuditLog:     repository.NewAuditLogRepository(db.DB, logger),
		Workflow:     repository.NewWorkflowRepository(db.DB, logger),
		Notification: repository.NewNotificationRepository(db.DB, logger),
	}, nil
}

// ProvideNotificationSender routes email through Lark when credentials are
// configured. Everything else is logged.
func ProvideNotificationSender(cfg *LarkConfig, logger *zap.Logger) (port.NotificationSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	router := delivery.NewRouter(delivery.NewLogSender(logger))

	larkCfg := infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
	}
	if !larkCfg.Enabled() {
		logger.Warn("Lark credentials not configured, notifications will only be logged")
		return router, nil
	}

	sdkClient := infraLark.NewSDKClient(larkCfg, logger)
	router.Route(notification.ChannelEmail, infraLark.NewSender(sdkClient, cfg.Concurrency, logger))
	return router, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos        *RepositoryBundle
	TxManager    port.TransactionManager
	Sender       port.NotificationSender
	Dispatcher   dispatcher.Dispatcher
	Notification *NotificationConfig
	Approval     *ApprovalConfig
	Logger       *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification service to domain events.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	notifyCfg := NotificationConfig{}
	if deps.Notification != nil {
		notifyCfg = *deps.Notification
	}

	var engineOpts []workflow.Option
	if deps.Approval != nil && deps.Approval.FallbackApprover != "" {
		engineOpts = append(engineOpts, workflow.WithFallbackApprover(deps.Approval.FallbackApprover))
	}

	publisher := dispatcher.NewPublisher(deps.Dispatcher, notifyCfg.Async, serviceLogger)
	audit := service.NewAuditService(deps.Repos.AuditLog, export.NewExcelExporter(deps.Logger), serviceLogger)

	notifications := service.NewNotificationService(
		deps.Repos.Notification,
		deps.Sender,
		service.NotificationDirectory{
			RoleRecipients:  notifyCfg.RoleRecipients,
			AuditRecipients: notifyCfg.AuditRecipients,
			BrokerName:      notifyCfg.BrokerName,
		},
		serviceLogger,
	)
	notifications.Subscribe(deps.Dispatcher)

	return &ServiceBundle{
		Claim: service.NewClaimService(
			deps.Repos.Claim,
			deps.TxManager,
			audit,
			publisher,
			claim.DefaultTable(),
			serviceLogger,
		),
		Workflow: service.NewWorkflowService(
			deps.Repos.Workflow,
			deps.TxManager,
			workflow.NewEngine(engineOpts...),
			audit,
			publisher,
			serviceLogger,
		),
		Audit:        audit,
		Notification: notifications,
	}, nil
}
