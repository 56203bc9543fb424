package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/internal/config"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/internal/postgres"
	redisImpl "github.com/quantfidential/trading-ecosystem/sequence-miner-go/internal/redis"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/interfaces"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// ErrTransactionsUnsupported is returned by BeginTransaction for stores without transactions
var ErrTransactionsUnsupported = errors.New("transactions require the postgres tick store")

// MarketDataAdapter implements the DataAdapter interface for the sequence miner
type MarketDataAdapter struct {
	// Database connections
	postgresDB  *sql.DB
	redisClient *redis.Client

	// Repository implementations
	ticks interfaces.TickRepository
	cache interfaces.WindowCacheRepository

	// Configuration and logging
	config *config.RepositoryConfig
	logger *logrus.Logger

	// Connection state
	connected bool
}

// NewMarketDataAdapter creates a new market data adapter
func NewMarketDataAdapter(cfg *config.RepositoryConfig, logger *logrus.Logger) (*MarketDataAdapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("repository config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid repository config: %w", err)
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &MarketDataAdapter{
		config: cfg,
		logger: logger,
	}, nil
}

var _ DataAdapter = (*MarketDataAdapter)(nil)

// Connect establishes the connections the configured tick store and cache need
func (a *MarketDataAdapter) Connect(ctx context.Context) error {
	if a.connected {
		return nil
	}

	if a.usesPostgres() {
		if err := a.connectPostgreSQL(ctx); err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	}

	if a.usesRedis() {
		if err := a.connectRedis(ctx); err != nil {
			a.closeConnections()
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	if err := a.initializeRepositories(ctx); err != nil {
		a.closeConnections()
		return err
	}

	a.connected = true
	a.logger.WithFields(logrus.Fields{
		"tick_store":    a.config.TickStore,
		"cache_enabled": a.config.CacheEnabled,
		"schema":        a.config.SchemaName,
		"namespace":     a.config.RedisNamespace,
	}).Info("Market data adapter connected")

	return nil
}

// Disconnect closes all database connections
func (a *MarketDataAdapter) Disconnect(ctx context.Context) error {
	if !a.connected {
		return nil
	}

	errs := a.closeConnections()
	a.connected = false
	a.ticks = nil
	a.cache = nil

	if len(errs) > 0 {
		return fmt.Errorf("errors during disconnect: %w", errors.Join(errs...))
	}

	a.logger.Info("Market data adapter disconnected")
	return nil
}

// Health checks the health of every connected data source
func (a *MarketDataAdapter) Health(ctx context.Context) error {
	if !a.connected {
		return interfaces.ErrNotConnected
	}

	if a.postgresDB != nil {
		if err := a.postgresDB.PingContext(ctx); err != nil {
			return fmt.Errorf("PostgreSQL health check failed: %w", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis health check failed: %w", err)
		}
	}

	return nil
}

// BeginTransaction starts a new transaction on the PostgreSQL tick store
func (a *MarketDataAdapter) BeginTransaction(ctx context.Context) (Transaction, error) {
	if !a.connected {
		return nil, interfaces.ErrNotConnected
	}
	if a.postgresDB == nil {
		return nil, ErrTransactionsUnsupported
	}

	tx, err := a.postgresDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &MarketTransaction{
		tx:     tx,
		config: a.config,
		logger: a.logger,
	}, nil
}

// Ticks returns the tick repository, nil before Connect
func (a *MarketDataAdapter) Ticks() interfaces.TickRepository {
	return a.ticks
}

// Cache returns the window cache, nil before Connect
func (a *MarketDataAdapter) Cache() interfaces.WindowCacheRepository {
	return a.cache
}

// TickRepository methods
func (a *MarketDataAdapter) Query(ctx context.Context, query models.TickQuery) ([]models.Tick, error) {
	if !a.connected {
		return nil, interfaces.ErrNotConnected
	}
	return a.ticks.Query(ctx, query)
}

func (a *MarketDataAdapter) Count(ctx context.Context, query models.TickQuery) (int64, error) {
	if !a.connected {
		return 0, interfaces.ErrNotConnected
	}
	return a.ticks.Count(ctx, query)
}

func (a *MarketDataAdapter) Entities(ctx context.Context) ([]string, error) {
	if !a.connected {
		return nil, interfaces.ErrNotConnected
	}
	return a.ticks.Entities(ctx)
}

func (a *MarketDataAdapter) CreateBatch(ctx context.Context, ticks []models.Tick) error {
	if !a.connected {
		return interfaces.ErrNotConnected
	}
	return a.ticks.CreateBatch(ctx, ticks)
}

func (a *MarketDataAdapter) DeleteOlderThan(ctx context.Context, timestamp time.Time) (int64, error) {
	if !a.connected {
		return 0, interfaces.ErrNotConnected
	}
	return a.ticks.DeleteOlderThan(ctx, timestamp)
}

// WindowCacheRepository methods
func (a *MarketDataAdapter) Get(ctx context.Context, key string) (models.Database, error) {
	if !a.connected {
		return nil, interfaces.ErrNotConnected
	}
	return a.cache.Get(ctx, key)
}

func (a *MarketDataAdapter) Set(ctx context.Context, key string, db models.Database, ttl time.Duration) error {
	if !a.connected {
		return interfaces.ErrNotConnected
	}
	return a.cache.Set(ctx, key, db, ttl)
}

func (a *MarketDataAdapter) Delete(ctx context.Context, key string) error {
	if !a.connected {
		return interfaces.ErrNotConnected
	}
	return a.cache.Delete(ctx, key)
}

func (a *MarketDataAdapter) Exists(ctx context.Context, key string) (bool, error) {
	if !a.connected {
		return false, interfaces.ErrNotConnected
	}
	return a.cache.Exists(ctx, key)
}

func (a *MarketDataAdapter) Invalidate(ctx context.Context) (int64, error) {
	if !a.connected {
		return 0, interfaces.ErrNotConnected
	}
	return a.cache.Invalidate(ctx)
}

func (a *MarketDataAdapter) Ping(ctx context.Context) error {
	if !a.connected {
		return interfaces.ErrNotConnected
	}
	return a.cache.Ping(ctx)
}

// Private helper methods
func (a *MarketDataAdapter) usesPostgres() bool {
	return a.config.TickStore == config.TickStorePostgres
}

func (a *MarketDataAdapter) usesRedis() bool {
	return a.config.TickStore == config.TickStoreRedis || a.config.CacheEnabled
}

func (a *MarketDataAdapter) connectPostgreSQL(ctx context.Context) error {
	db, err := sql.Open("postgres", a.config.PostgresURL)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(a.config.MaxConnections)
	db.SetMaxIdleConns(a.config.MaxIdleConnections)
	db.SetConnMaxLifetime(a.config.IdleTimeout)

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	a.postgresDB = db
	a.logger.WithField("url", a.config.MaskedPostgresURL()).Info("Connected to PostgreSQL")

	return nil
}

func (a *MarketDataAdapter) connectRedis(ctx context.Context) error {
	opt, err := redis.ParseURL(a.config.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pool
	opt.PoolSize = a.config.MaxConnections
	opt.MinIdleConns = a.config.MaxIdleConnections
	opt.DialTimeout = a.config.ConnectionTimeout
	opt.ReadTimeout = a.config.ConnectionTimeout
	opt.WriteTimeout = a.config.ConnectionTimeout
	opt.MaxRetries = a.config.MaxRetries
	opt.MinRetryBackoff = a.config.RetryInterval

	client := redis.NewClient(opt)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	a.redisClient = client
	a.logger.WithField("url", a.config.MaskedRedisURL()).Info("Connected to Redis")

	return nil
}

func (a *MarketDataAdapter) initializeRepositories(ctx context.Context) error {
	switch a.config.TickStore {
	case config.TickStorePostgres:
		repo := postgres.NewTickRepository(a.postgresDB, a.logger, a.config)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		a.ticks = repo
	case config.TickStoreRedis:
		a.ticks = redisImpl.NewTickRepository(a.redisClient, a.logger, a.config)
	}

	if a.config.CacheEnabled {
		a.cache = redisImpl.NewWindowCacheRepository(a.redisClient, a.logger, a.config)
	} else {
		a.cache = disabledCache{}
	}

	a.logger.Debug("Initialized repository implementations")
	return nil
}

func (a *MarketDataAdapter) closeConnections() []error {
	var errs []error

	if a.postgresDB != nil {
		if err := a.postgresDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close PostgreSQL: %w", err))
		}
		a.postgresDB = nil
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
		a.redisClient = nil
	}

	return errs
}

// MarketTransaction implements the Transaction interface
type MarketTransaction struct {
	tx     *sql.Tx
	config *config.RepositoryConfig
	logger *logrus.Logger
}

func (t *MarketTransaction) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *MarketTransaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback()
}

func (t *MarketTransaction) Ticks() interfaces.TickRepository {
	return postgres.NewTickRepository(t.tx, t.logger, t.config)
}

// disabledCache stands in for the window cache when CACHE_ENABLED is false
type disabledCache struct{}

func (disabledCache) Get(ctx context.Context, key string) (models.Database, error) {
	return nil, fmt.Errorf("%w: cache disabled", interfaces.ErrCacheMiss)
}

func (disabledCache) Set(ctx context.Context, key string, db models.Database, ttl time.Duration) error {
	return nil
}

func (disabledCache) Delete(ctx context.Context, key string) error { return nil }

func (disabledCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (disabledCache) Invalidate(ctx context.Context) (int64, error) { return 0, nil }

func (disabledCache) Ping(ctx context.Context) error { return nil }
