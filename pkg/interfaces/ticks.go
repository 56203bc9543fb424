package interfaces

import (
	"context"
	"time"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// TickRepository defines the interface for price tick persistence.
// Query results are ordered by entity, then timestamp.
type TickRepository interface {
	// Query operations
	Query(ctx context.Context, query models.TickQuery) ([]models.Tick, error)
	Count(ctx context.Context, query models.TickQuery) (int64, error)
	Entities(ctx context.Context) ([]string, error)

	// Bulk operations
	CreateBatch(ctx context.Context, ticks []models.Tick) error

	// Cleanup operations
	DeleteOlderThan(ctx context.Context, timestamp time.Time) (int64, error)
}
