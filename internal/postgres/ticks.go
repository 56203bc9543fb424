package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/internal/config"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/interfaces"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// maxRowsPerInsert keeps a multi-row insert below the 65535 bind parameter limit
const maxRowsPerInsert = 10000

// DBExecutor interface allows using either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TickPostgresRepository implements TickRepository using PostgreSQL
type TickPostgresRepository struct {
	db     DBExecutor
	logger *logrus.Logger
	config *config.RepositoryConfig
	table  string
}

// NewTickRepository creates a new PostgreSQL-based tick repository
func NewTickRepository(db DBExecutor, logger *logrus.Logger, cfg *config.RepositoryConfig) *TickPostgresRepository {
	return &TickPostgresRepository{
		db:     db,
		logger: logger,
		config: cfg,
		table:  tableName(cfg.SchemaName),
	}
}

var _ interfaces.TickRepository = (*TickPostgresRepository)(nil)

func tableName(schema string) string {
	return pq.QuoteIdentifier(schema) + ".ticks"
}

// EnsureSchema creates the schema and tick table when missing
func (r *TickPostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pq.QuoteIdentifier(r.config.SchemaName)),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			entity TEXT        NOT NULL,
			ts     TIMESTAMPTZ NOT NULL,
			price  NUMERIC     NOT NULL,
			PRIMARY KEY (entity, ts)
		)`, r.table),
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure tick schema: %w", err)
		}
	}

	r.logger.WithField("table", r.table).Debug("Tick schema ensured")
	return nil
}

// Query retrieves ticks ordered by entity and timestamp
func (r *TickPostgresRepository) Query(ctx context.Context, query models.TickQuery) ([]models.Tick, error) {
	sqlQuery, args := r.buildQuery(query)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticks: %w", err)
	}
	defer rows.Close()

	var ticks []models.Tick
	for rows.Next() {
		var tick models.Tick
		if err := rows.Scan(&tick.Entity, &tick.Timestamp, &tick.Price); err != nil {
			return nil, fmt.Errorf("failed to scan tick row: %w", err)
		}
		tick.Timestamp = tick.Timestamp.UTC()
		ticks = append(ticks, tick)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tick rows: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"entities": len(query.Entities),
		"rows":     len(ticks),
	}).Debug("Ticks queried")

	return ticks, nil
}

// Count returns the number of ticks matching the query, ignoring its limit
func (r *TickPostgresRepository) Count(ctx context.Context, query models.TickQuery) (int64, error) {
	conditions, args := buildConditions(query)
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE 1=1`, r.table)
	if len(conditions) > 0 {
		countQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ticks: %w", err)
	}
	return count, nil
}

// Entities lists the distinct entities in sorted order
func (r *TickPostgresRepository) Entities(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT DISTINCT entity FROM %s ORDER BY entity`, r.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []string
	for rows.Next() {
		var entity string
		if err := rows.Scan(&entity); err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity rows: %w", err)
	}
	return entities, nil
}

// CreateBatch upserts ticks, replacing the price of an existing (entity, ts) row.
// Without an enclosing transaction all chunks are written in one.
func (r *TickPostgresRepository) CreateBatch(ctx context.Context, ticks []models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	var executor DBExecutor
	var tx *sql.Tx
	var err error

	if db, ok := r.db.(*sql.DB); ok {
		tx, err = db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()
		executor = tx
	} else {
		executor = r.db
	}

	ticks = dedupeTicks(ticks)
	for start := 0; start < len(ticks); start += maxRowsPerInsert {
		end := start + maxRowsPerInsert
		if end > len(ticks) {
			end = len(ticks)
		}

		query, args := r.buildInsert(ticks[start:end])
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to create ticks batch: %w", err)
		}
	}

	if tx != nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit ticks batch: %w", err)
		}
	}

	r.logger.WithField("count", len(ticks)).Info("Created ticks batch")
	return nil
}

// DeleteOlderThan removes ticks observed before the timestamp
func (r *TickPostgresRepository) DeleteOlderThan(ctx context.Context, timestamp time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE ts < $1`, r.table), timestamp)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old ticks: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}

	if deletedCount > 0 {
		r.logger.WithFields(logrus.Fields{
			"deleted_count": deletedCount,
			"before":        timestamp,
		}).Info("Deleted old ticks")
	}

	return deletedCount, nil
}

// dedupeTicks keeps the last tick per (entity, ts) at the position of the first one.
// A single ON CONFLICT DO UPDATE statement cannot touch the same row twice.
func dedupeTicks(ticks []models.Tick) []models.Tick {
	type tickKey struct {
		entity string
		ts     time.Time
	}

	positions := make(map[tickKey]int, len(ticks))
	out := make([]models.Tick, 0, len(ticks))
	for _, tick := range ticks {
		key := tickKey{entity: tick.Entity, ts: tick.Timestamp.UTC().Truncate(time.Microsecond)}
		if i, ok := positions[key]; ok {
			out[i] = tick
			continue
		}
		positions[key] = len(out)
		out = append(out, tick)
	}
	return out
}

func (r *TickPostgresRepository) buildInsert(ticks []models.Tick) (string, []interface{}) {
	values := make([]string, len(ticks))
	args := make([]interface{}, 0, len(ticks)*3)

	for i, tick := range ticks {
		startIdx := i * 3
		values[i] = fmt.Sprintf("($%d, $%d, $%d)", startIdx+1, startIdx+2, startIdx+3)
		args = append(args, tick.Entity, tick.Timestamp.UTC(), tick.Price)
	}

	query := fmt.Sprintf(`INSERT INTO %s (entity, ts, price) VALUES `, r.table) +
		strings.Join(values, ", ") +
		` ON CONFLICT (entity, ts) DO UPDATE SET price = EXCLUDED.price`
	return query, args
}

// buildQuery constructs SQL query and arguments from TickQuery
func (r *TickPostgresRepository) buildQuery(query models.TickQuery) (string, []interface{}) {
	sqlQuery := fmt.Sprintf(`SELECT entity, ts, price FROM %s WHERE 1=1`, r.table)

	conditions, args := buildConditions(query)
	if len(conditions) > 0 {
		sqlQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sqlQuery += " ORDER BY entity ASC, ts ASC"

	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, query.Limit)
	}

	return sqlQuery, args
}

func buildConditions(query models.TickQuery) ([]string, []interface{}) {
	var args []interface{}
	var conditions []string
	argIndex := 1

	if len(query.Entities) > 0 {
		conditions = append(conditions, fmt.Sprintf("entity = ANY($%d)", argIndex))
		args = append(args, pq.Array(query.Entities))
		argIndex++
	}

	if query.StartTime != nil {
		conditions = append(conditions, fmt.Sprintf("ts >= $%d", argIndex))
		args = append(args, *query.StartTime)
		argIndex++
	}

	if query.EndTime != nil {
		conditions = append(conditions, fmt.Sprintf("ts <= $%d", argIndex))
		args = append(args, *query.EndTime)
	}

	return conditions, args
}
