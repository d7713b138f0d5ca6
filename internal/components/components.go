// Package components wires every collaborator into a single Container:
// a process-wide singleton built once via sync.Once, with init* methods
// per collaborator and graceful shutdown on SIGINT/SIGTERM.
package components

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"ledger-api/internal/api/handlers"
	"ledger-api/internal/api/routes"
	"ledger-api/internal/cache"
	"ledger-api/internal/cache/memcache"
	"ledger-api/internal/cache/rediscache"
	"ledger-api/internal/config"
	"ledger-api/internal/events"
	"ledger-api/internal/events/kafka"
	"ledger-api/internal/idempotency"
	"ledger-api/internal/ledger"
	"ledger-api/internal/logging"
	"ledger-api/internal/metrics"
	"ledger-api/internal/store/memstore"
	"ledger-api/internal/store/postgres"

	"github.com/gin-gonic/gin"
)

// eventPublisher is the broader set of publish methods components wires up;
// it structurally satisfies both ledger.EventPublisher (consumed by the
// Payment Engine) and the extra AccountCreated/Close methods handlers and
// shutdown need.
type eventPublisher interface {
	ledger.EventPublisher
	PublishAccountCreated(ctx context.Context, acc ledger.Account)
	Close() error
}

// Container holds every initialized application component. Field names
// are unexported because Store/Accounts/Payments are exposed as accessor
// methods instead, satisfying handlers.HandlerDependencies directly.
type Container struct {
	Config *config.Config
	Router *gin.Engine
	Server *http.Server

	store          ledger.Store
	cacheAdapter   cache.Adapter
	accounts       *ledger.AccountService
	payments       *ledger.PaymentEngine
	eventPublisher eventPublisher
	postgresStore  *postgres.Store
}

var (
	instance     *Container
	instanceOnce sync.Once
	instanceErr  error
)

// GetInstance returns the singleton container, initializing it on first call.
func GetInstance() (*Container, error) {
	instanceOnce.Do(func() {
		instance, instanceErr = newContainer()
	})
	return instance, instanceErr
}

func newContainer() (*Container, error) {
	c := &Container{}

	c.Config = config.Load()
	logging.Init(c.Config.Logging.Level, c.Config.Logging.Format)

	if err := c.initStore(); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := c.initCache(); err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	if err := c.initEventPublisher(); err != nil {
		return nil, fmt.Errorf("init event publisher: %w", err)
	}
	c.initDomain()
	if err := c.initServer(); err != nil {
		return nil, fmt.Errorf("init server: %w", err)
	}

	logging.Info("all components initialized", nil)
	return c, nil
}

func (c *Container) initStore() error {
	if os.Getenv("LEDGER_STORE") == "memory" {
		logging.Info("using in-memory ledger store", nil)
		c.store = memstore.New()
		return nil
	}

	pgCfg := &postgres.Config{
		Host:         envOr("DB_HOST", "localhost"),
		Port:         envOrInt("DB_PORT", 5432),
		Database:     envOr("DB_NAME", "ledger"),
		User:         envOr("DB_USER", "ledger"),
		Password:     envOr("DB_PASSWORD", "ledger"),
		SSLMode:      envOr("DB_SSLMODE", "disable"),
		MaxOpenConns: int(c.Config.Postgres.MaxConns),
		MaxIdleConns: int(c.Config.Postgres.MinConns),
	}
	store, err := postgres.New(context.Background(), pgCfg)
	if err != nil {
		return err
	}
	c.postgresStore = store
	c.store = store
	return nil
}

func (c *Container) initCache() error {
	if c.Config.Redis.Addr == "" {
		logging.Info("no redis address configured, using in-memory cache", nil)
		c.cacheAdapter = memcache.New()
		return nil
	}
	redisCache := rediscache.New(rediscache.Config{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	c.cacheAdapter = redisCache
	return nil
}

func (c *Container) initEventPublisher() error {
	if !c.Config.Kafka.Enabled {
		logging.Info("kafka disabled, using no-op event publisher", nil)
		c.eventPublisher = events.NoOp{}
		return nil
	}

	kafkaCfg := kafka.NewConfigFromEnv()
	producer, err := kafka.NewProducer(kafkaCfg)
	if err != nil {
		logging.Warn("failed to initialize kafka, using no-op event publisher", map[string]any{"error": err.Error()})
		c.eventPublisher = events.NoOp{}
		return nil
	}
	c.eventPublisher = events.NewPublisher(producer)
	return nil
}

func (c *Container) initDomain() {
	c.accounts = ledger.NewAccountService(c.store, c.cacheAdapter)
	idm := idempotency.New(c.store, c.cacheAdapter, c.Config.Idempotency.KeyTTL)
	c.payments = ledger.NewPaymentEngine(c.store, c.accounts, idm, c.eventPublisher, metrics.NewRecorder())
}

func (c *Container) initServer() error {
	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	c.Router = gin.Default()
	routes.RegisterRoutes(c.Router, c.Config, c)

	c.Server = &http.Server{
		Addr:           c.Config.Server.Host + ":" + c.Config.Server.Port,
		Handler:        c.Router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return nil
}

// Store, Accounts, Payments and Events satisfy handlers.HandlerDependencies.
func (c *Container) Store() ledger.Store { return c.store }
func (c *Container) Accounts() *ledger.AccountService { return c.accounts }
func (c *Container) Payments() *ledger.PaymentEngine { return c.payments }
func (c *Container) Events() handlers.AccountEventPublisher { return c.eventPublisher }

// Start begins serving HTTP requests and blocks until shutdown completes.
func (c *Container) Start() error {
	logging.Info("starting http server", map[string]any{"address": c.Server.Addr})

	go func() {
		if err := c.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("server failed to start", err, nil)
			os.Exit(1)
		}
	}()

	c.waitForShutdown()
	return nil
}

func (c *Container) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Shutdown(ctx); err != nil {
		logging.Error("server forced to shutdown", err, nil)
	}
	logging.Info("server shutdown complete", nil)
}

// Shutdown gracefully stops every component that owns a live connection.
func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := c.eventPublisher.Close(); err != nil {
		logging.Error("failed to close event publisher", err, nil)
	}
	if c.postgresStore != nil {
		c.postgresStore.Close()
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
