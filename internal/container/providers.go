package container

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/business-trip/internal/application/dispatcher"
	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/application/service"
	"github.com/garyjia/business-trip/internal/application/workflow"
	"github.com/garyjia/business-trip/internal/domain/cost"
	infraLark "github.com/garyjia/business-trip/internal/infrastructure/external/lark"
	"github.com/garyjia/business-trip/internal/infrastructure/external/openai"
	"github.com/garyjia/business-trip/internal/infrastructure/lock"
	"github.com/garyjia/business-trip/internal/infrastructure/persistence/repository"
	"github.com/garyjia/business-trip/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/business-trip/internal/infrastructure/storage"
	httpapi "github.com/garyjia/business-trip/internal/interfaces/http"
	"github.com/garyjia/business-trip/internal/report"
	"github.com/garyjia/business-trip/migrations"
	"github.com/garyjia/business-trip/pkg/database"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// LockBundle holds the trip locker and, for the redis backend, its client.
type LockBundle struct {
	Locker port.TripLocker
	Redis  *redis.Client
}

// ProvideDatabase opens the database, applies pending migrations and wraps
// the handle in a transaction manager.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sqlDB, err := database.Open(ctx, database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx, sqlDB, migrations.FS, logger); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &DatabaseBundle{
		SqlDB:          sqlDB,
		TransactionMgr: sqlite.NewDB(sqlDB, logger),
	}, nil
}

// ProvideRepositories creates all repositories on top of the transaction manager.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Trip:       repository.NewTripRepository(db, logger),
		Settlement: repository.NewSettlementRepository(db, logger),
		History:    repository.NewHistoryRepository(db, logger),
		Reference:  repository.NewReferenceRepository(db, logger),
	}, nil
}

// ProvideLocker creates the per-trip locker for the configured backend.
// The redis backend pings the server before returning.
func ProvideLocker(ctx context.Context, cfg *LockConfig, redisCfg *RedisConfig, logger *zap.Logger) (*LockBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lock config is required")
	}

	switch cfg.Backend {
	case "", "memory":
		return &LockBundle{Locker: lock.NewMemoryLocker(cfg.Wait)}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", redisCfg.Addr, err)
		}
		locker := lock.NewRedisLocker(client, lock.RedisConfig{
			TTL:  cfg.TTL,
			Wait: cfg.Wait,
		}, logger)
		return &LockBundle{Locker: locker, Redis: client}, nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}

// ProvideNotifier creates the Lark notifier, or nil when Lark is not configured.
func ProvideNotifier(cfg *LarkConfig, logger *zap.Logger) port.Notifier {
	if cfg == nil || cfg.AppID == "" {
		logger.Info("Lark is not configured, notifications disabled")
		return nil
	}

	sdk := infraLark.NewSDKClient(infraLark.Config{
		AppID:          cfg.AppID,
		AppSecret:      cfg.AppSecret,
		BaseURL:        cfg.BaseURL,
		ApproverChatID: cfg.ApproverChatID,
		UserIDType:     cfg.UserIDType,
	}, logger)
	return infraLark.NewNotifier(sdk, logger)
}

// ProvideReviewer creates the OpenAI settlement reviewer, or nil when no API
// key is configured.
func ProvideReviewer(cfg *OpenAIConfig, logger *zap.Logger) (port.SettlementReviewer, error) {
	if cfg == nil || cfg.APIKey == "" {
		logger.Info("OpenAI is not configured, settlement review disabled")
		return nil, nil
	}

	prompts, err := openai.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	return openai.NewReviewer(openai.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}, prompts, logger), nil
}

// ProvideStorage creates the report archive.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil || cfg.ReportDir == "" {
		return nil, fmt.Errorf("storage.report_dir is required")
	}
	return storage.NewLocalFileStorage(cfg.ReportDir, logger), nil
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

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Locker     port.TripLocker
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the workflow engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.Engine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Locker == nil {
		return nil, fmt.Errorf("locker is required")
	}

	return workflow.NewEngine(
		deps.Repos.Trip,
		deps.Repos.Settlement,
		deps.Repos.History,
		deps.TxManager,
		deps.Locker,
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithLogger(&zapLoggerAdapter{logger: deps.Logger}),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	Engine     workflow.Engine
	Dispatcher dispatcher.Dispatcher
	Notifier   port.Notifier
	Reviewer   port.SettlementReviewer
	Storage    port.FileStorage
	Policy     *PolicyConfig
	Logger     *zap.Logger
}

// ProvideServices creates the application services and subscribes the
// event-driven ones to the dispatcher. Notification and review services are
// nil when their adapter is not configured.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil || deps.Engine == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("repositories, engine and dispatcher are required")
	}
	if deps.Policy == nil {
		return nil, fmt.Errorf("policy is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	trips := service.NewTripService(
		deps.Repos.Trip,
		deps.Repos.Settlement,
		deps.Repos.History,
		deps.Repos.Reference,
		deps.Engine,
		service.TripConfig{
			HomeCityID: deps.Policy.HomeCityID,
			Policy: cost.Policy{
				HomeCountryID:        deps.Policy.HomeCountryID,
				DomesticPerDiem:      deps.Policy.DomesticPerDiem,
				InternationalPerDiem: deps.Policy.InternationalPerDiem,
				Currency:             deps.Policy.Currency,
			},
		},
		serviceLogger,
	)

	bundle := &ServiceBundle{Trip: trips}

	bundle.Report = service.NewReportService(
		trips,
		report.NewSettlementRenderer(deps.Logger),
		deps.Storage,
		serviceLogger,
	)
	bundle.Report.Register(deps.Dispatcher)

	if deps.Notifier != nil {
		bundle.Notification = service.NewNotificationService(deps.Notifier, serviceLogger)
		bundle.Notification.Register(deps.Dispatcher)
	}

	if deps.Reviewer != nil {
		bundle.Review = service.NewReviewService(trips, deps.Repos.History, deps.Reviewer, serviceLogger)
		bundle.Review.Register(deps.Dispatcher)
	}

	return bundle, nil
}

// ProvideHTTPServer creates the REST adapter.
func ProvideHTTPServer(cfg *ServerConfig, services *ServiceBundle, health httpapi.HealthChecker, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(
		httpapi.ServerConfig{
			Host:            cfg.Host,
			Port:            cfg.Port,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
		services.Trip,
		services.Report,
		health,
		&zapLoggerAdapter{logger: logger},
	)
}
