package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/business-trip/internal/application/dispatcher"
	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/application/service"
	"github.com/garyjia/business-trip/internal/application/workflow"
	"github.com/garyjia/business-trip/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/garyjia/business-trip/internal/interfaces/http"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Health values reported per component
const (
	HealthOK       = "ok"
	HealthDisabled = "disabled"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	sqlDB        *sql.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - Locking
	locker port.TripLocker
	redis  *redis.Client

	// Infrastructure - External
	notifier port.Notifier
	reviewer port.SettlementReviewer

	// Infrastructure - Storage
	fileStorage port.FileStorage

	// Application
	dispatcher dispatcher.Dispatcher
	engine     workflow.Engine
	services   *ServiceBundle

	// Interfaces
	server *httpapi.Server

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Trip       port.TripRepository
	Settlement port.SettlementRepository
	History    port.HistoryRepository
	Reference  port.ReferenceDataProvider
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Trip         service.TripService
	Report       service.ReportService
	Notification service.NotificationService
	Review       service.ReviewService
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database and repositories
// 2. Trip locker
// 3. External clients (Lark, OpenAI) and storage
// 4. Event dispatcher and workflow engine
// 5. Application services
// 6. HTTP server
//
// Start does not serve requests; run HTTPServer().Start for that.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Initialize trip locker
	if err := c.initLocker(ctx); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize locker: %w", err)
	}
	c.logger.Info("Trip locker initialized", zap.String("backend", c.config.Lock.Backend))

	// Step 3: Initialize external clients and storage
	if err := c.initExternal(); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("External clients initialized",
		zap.Bool("notifications", c.notifier != nil),
		zap.Bool("ai_review", c.reviewer != nil))

	// Step 4: Initialize dispatcher and workflow engine
	if err := c.initDispatcherAndWorkflow(); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize dispatcher and workflow: %w", err)
	}
	c.logger.Info("Dispatcher and workflow engine initialized")

	// Step 5: Initialize application services
	if err := c.initServices(); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	// Step 6: Initialize HTTP server
	c.server = ProvideHTTPServer(&c.config.Server, c.services, c, c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	errs := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors: %w", len(errs), errs[0])
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// teardown releases whatever has been initialized so far
func (c *Container) teardown() []error {
	var errs []error

	// Drain async handlers before their dependencies go away
	if c.dispatcher != nil && !c.dispatcher.Closed() {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Error("Failed to close redis client", zap.Error(err))
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		} else {
			c.logger.Info("Redis client closed")
		}
		c.redis = nil
	}

	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
		c.sqlDB = nil
	}

	return errs
}

// Ready reports whether Start completed
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health reports the state of each component as "ok", "disabled" or an error message
func (c *Container) Health(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if c.sqlDB == nil {
		status["database"] = "not initialized"
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.sqlDB.PingContext(pingCtx)
		cancel()
		if err != nil {
			status["database"] = fmt.Sprintf("ping failed: %v", err)
		} else {
			status["database"] = HealthOK
		}
	}

	switch {
	case c.redis == nil:
		status["lock"] = HealthOK
	default:
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			status["lock"] = fmt.Sprintf("redis ping failed: %v", err)
		} else {
			status["lock"] = HealthOK
		}
	}

	switch {
	case c.dispatcher == nil:
		status["dispatcher"] = "not initialized"
	case c.dispatcher.Closed():
		status["dispatcher"] = "closed"
	default:
		status["dispatcher"] = HealthOK
	}

	status["notifications"] = enabled(c.notifier != nil)
	status["ai_review"] = enabled(c.reviewer != nil)

	return status
}

func enabled(on bool) string {
	if on {
		return HealthOK
	}
	return HealthDisabled
}

func (c *Container) initDatabase(ctx context.Context) error {
	dbBundle, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.sqlDB = dbBundle.SqlDB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.teardown()
		return err
	}

	c.repositories = repos
	return nil
}

func (c *Container) initLocker(ctx context.Context) error {
	bundle, err := ProvideLocker(ctx, &c.config.Lock, &c.config.Redis, c.logger)
	if err != nil {
		return err
	}
	c.locker = bundle.Locker
	c.redis = bundle.Redis
	return nil
}

func (c *Container) initExternal() error {
	c.notifier = ProvideNotifier(&c.config.Lark, c.logger)

	reviewer, err := ProvideReviewer(&c.config.OpenAI, c.logger)
	if err != nil {
		return err
	}
	c.reviewer = reviewer

	fileStorage, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.fileStorage = fileStorage

	return nil
}

func (c *Container) initDispatcherAndWorkflow() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Locker:     c.locker,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.engine = engine

	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		Engine:     c.engine,
		Dispatcher: c.dispatcher,
		Notifier:   c.notifier,
		Reviewer:   c.reviewer,
		Storage:    c.fileStorage,
		Policy:     &c.config.Policy,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns the repository bundle.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// HTTPServer returns the REST adapter built by Start.
func (c *Container) HTTPServer() *httpapi.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the key-value Logger interfaces of
// the service, workflow, dispatcher and http packages.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
