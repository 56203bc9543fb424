package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

var (
	// ErrCacheMiss is returned when no window database is cached under a key
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotConnected is returned when a repository is used before Connect
	ErrNotConnected = errors.New("not connected")
)

// WindowCacheRepository caches prepared window databases keyed by source fingerprint
type WindowCacheRepository interface {
	Get(ctx context.Context, key string) (models.Database, error)
	Set(ctx context.Context, key string, db models.Database, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Invalidate drops every cached database in the namespace
	Invalidate(ctx context.Context) (int64, error)

	// Health
	Ping(ctx context.Context) error
}
