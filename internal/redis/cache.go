package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/internal/config"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/interfaces"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// WindowCacheRedisRepository implements WindowCacheRepository using Redis
type WindowCacheRedisRepository struct {
	client *redis.Client
	logger *logrus.Logger
	config *config.RepositoryConfig
}

// NewWindowCacheRepository creates a new Redis-based window cache
func NewWindowCacheRepository(client *redis.Client, logger *logrus.Logger, cfg *config.RepositoryConfig) *WindowCacheRedisRepository {
	return &WindowCacheRedisRepository{
		client: client,
		logger: logger,
		config: cfg,
	}
}

var _ interfaces.WindowCacheRepository = (*WindowCacheRedisRepository)(nil)

// Set stores a window database with TTL
func (r *WindowCacheRedisRepository) Set(ctx context.Context, key string, db models.Database, ttl time.Duration) error {
	data, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("failed to serialize window database: %w", err)
	}

	// Use default TTL if not specified
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.getCacheKey(key), data, ttl)
	pipe.SAdd(ctx, r.getIndexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set window database: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"key":     key,
		"windows": db.Size(),
		"bytes":   len(data),
		"ttl":     ttl,
	}).Debug("Window database cached")

	return nil
}

// Get retrieves a window database, returning ErrCacheMiss when absent
func (r *WindowCacheRedisRepository) Get(ctx context.Context, key string) (models.Database, error) {
	data, err := r.client.Get(ctx, r.getCacheKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrCacheMiss, key)
		}
		return nil, fmt.Errorf("failed to get window database: %w", err)
	}

	var db models.Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("failed to deserialize window database: %w", err)
	}
	if err := db.Validate(); err != nil {
		return nil, fmt.Errorf("cached window database is invalid: %w", err)
	}

	return db, nil
}

// Delete removes a cached window database
func (r *WindowCacheRedisRepository) Delete(ctx context.Context, key string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.getCacheKey(key))
	pipe.SRem(ctx, r.getIndexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete cache key: %w", err)
	}
	return nil
}

// Exists checks if a window database is cached under key
func (r *WindowCacheRedisRepository) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, r.getCacheKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache key existence: %w", err)
	}
	return count > 0, nil
}

// Invalidate removes every window database cached in the namespace
func (r *WindowCacheRedisRepository) Invalidate(ctx context.Context) (int64, error) {
	keys, err := r.client.SMembers(ctx, r.getIndexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list cached window databases: %w", err)
	}

	if len(keys) == 0 {
		return 0, nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = r.getCacheKey(key)
	}

	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, cacheKeys...)
	pipe.Del(ctx, r.getIndexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to invalidate window cache: %w", err)
	}

	deletedCount := del.Val()
	r.logger.WithField("deleted_count", deletedCount).Info("Window cache invalidated")

	return deletedCount, nil
}

// Ping checks Redis connection health
func (r *WindowCacheRedisRepository) Ping(ctx context.Context) error {
	_, err := r.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Helper methods
func (r *WindowCacheRedisRepository) getCacheKey(key string) string {
	return fmt.Sprintf("%s:windows:%s", r.config.RedisNamespace, key)
}

func (r *WindowCacheRedisRepository) getIndexKey() string {
	return fmt.Sprintf("%s:window_index", r.config.RedisNamespace)
}
