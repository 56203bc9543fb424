package adapters

import (
	"context"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/interfaces"
)

// DataAdapter combines tick storage and the window cache behind one connection lifecycle
type DataAdapter interface {
	interfaces.TickRepository
	interfaces.WindowCacheRepository

	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Health(ctx context.Context) error

	// Transaction support, PostgreSQL tick store only
	BeginTransaction(ctx context.Context) (Transaction, error)

	// Repository access
	Ticks() interfaces.TickRepository
	Cache() interfaces.WindowCacheRepository
}

// Transaction defines the interface for transactional tick writes
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Repository access within transaction
	Ticks() interfaces.TickRepository
}
