package testenv

import (
	"ledger-api/internal/api/handlers"
	"ledger-api/internal/api/routes"
	"ledger-api/internal/cache"
	"ledger-api/internal/cache/memcache"
	"ledger-api/internal/config"
	"ledger-api/internal/events"
	"ledger-api/internal/idempotency"
	"ledger-api/internal/ledger"
	"ledger-api/internal/metrics"
	"ledger-api/internal/store/postgres"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// deps is the minimal handlers.HandlerDependencies a test router needs:
// the real postgres.Store the testcontainer seeded, wired to an
// AccountService/PaymentEngine pair with in-memory cache and no-op event
// publishing (no Kafka broker in the test environment).
type deps struct {
	store    ledger.Store
	accounts *ledger.AccountService
	payments *ledger.PaymentEngine
	events   handlers.AccountEventPublisher
}

func (d *deps) Store() ledger.Store                   { return d.store }
func (d *deps) Accounts() *ledger.AccountService       { return d.accounts }
func (d *deps) Payments() *ledger.PaymentEngine        { return d.payments }
func (d *deps) Events() handlers.AccountEventPublisher { return d.events }

// SetupTestRouter wires a gin.Engine against store with every route
// registered, running in gin.TestMode with a permissive rate limit so
// integration tests aren't throttled.
func SetupTestRouter(store *postgres.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)

	var cacheAdapter cache.Adapter = memcache.New()
	accounts := ledger.NewAccountService(store, cacheAdapter)
	idm := idempotency.New(store, cacheAdapter, 24*time.Hour)
	payments := ledger.NewPaymentEngine(store, accounts, idm, events.NoOp{}, metrics.NoOp{})

	router := gin.New()
	cfg := &config.Config{
		CORS: config.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"*", "Idempotency-Key"},
		},
		RateLimit: config.RateLimitConfig{
			PerMinute: 10000,
			PerHour:   1000000,
		},
	}

	routes.RegisterRoutes(router, cfg, &deps{store: store, accounts: accounts, payments: payments, events: events.NoOp{}})
	return router
}

// NewRouter starts a fresh postgres testcontainer and returns a router
// wired against it, for tests that only need the HTTP surface.
func NewRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return SetupTestRouter(SetupPostgresStore(t))
}

var _ handlers.HandlerDependencies = (*deps)(nil)
