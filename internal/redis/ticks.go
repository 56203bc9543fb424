package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/internal/config"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/interfaces"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// TickRedisRepository implements TickRepository with one sorted set per entity,
// scored by unix microseconds, plus a set indexing the known entities.
// Microseconds match the TIMESTAMPTZ precision of the Postgres store and stay exact as float64 scores.
type TickRedisRepository struct {
	client *redis.Client
	logger *logrus.Logger
	config *config.RepositoryConfig
}

// NewTickRepository creates a new Redis-based tick repository
func NewTickRepository(client *redis.Client, logger *logrus.Logger, cfg *config.RepositoryConfig) *TickRedisRepository {
	return &TickRedisRepository{
		client: client,
		logger: logger,
		config: cfg,
	}
}

var _ interfaces.TickRepository = (*TickRedisRepository)(nil)

// Query retrieves ticks ordered by entity and timestamp
func (r *TickRedisRepository) Query(ctx context.Context, query models.TickQuery) ([]models.Tick, error) {
	entities, err := r.resolveEntities(ctx, query.Entities)
	if err != nil {
		return nil, err
	}

	min, max := scoreRange(query.StartTime, query.EndTime)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringSliceCmd, len(entities))
	for i, entity := range entities {
		cmds[i] = pipe.ZRangeByScore(ctx, r.getTicksKey(entity), &redis.ZRangeBy{Min: min, Max: max})
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to query ticks: %w", err)
	}

	var ticks []models.Tick
	for i, cmd := range cmds {
		members, err := cmd.Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to query ticks for %s: %w", entities[i], err)
		}
		for _, member := range members {
			tick, err := decodeTick(entities[i], member)
			if err != nil {
				r.logger.WithError(err).WithField("entity", entities[i]).Warn("Failed to decode tick member")
				continue
			}
			ticks = append(ticks, tick)
			if query.Limit > 0 && len(ticks) == query.Limit {
				return ticks, nil
			}
		}
	}

	return ticks, nil
}

// Count returns the number of ticks matching the query, ignoring its limit
func (r *TickRedisRepository) Count(ctx context.Context, query models.TickQuery) (int64, error) {
	entities, err := r.resolveEntities(ctx, query.Entities)
	if err != nil {
		return 0, err
	}

	min, max := scoreRange(query.StartTime, query.EndTime)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(entities))
	for i, entity := range entities {
		cmds[i] = pipe.ZCount(ctx, r.getTicksKey(entity), min, max)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to count ticks: %w", err)
	}

	var total int64
	for _, cmd := range cmds {
		total += cmd.Val()
	}
	return total, nil
}

// Entities lists the known entities in sorted order
func (r *TickRedisRepository) Entities(ctx context.Context) ([]string, error) {
	entities, err := r.client.SMembers(ctx, r.getEntityIndexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	sort.Strings(entities)
	return entities, nil
}

// CreateBatch stores ticks, replacing any tick already stored at the same
// entity and millisecond
func (r *TickRedisRepository) CreateBatch(ctx context.Context, ticks []models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	entities := make(map[string]struct{})

	for _, tick := range ticks {
		key := r.getTicksKey(tick.Entity)
		score := tickScore(tick.Timestamp)
		bound := strconv.FormatInt(score, 10)

		pipe.ZRemRangeByScore(ctx, key, bound, bound)
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: encodeTick(tick)})
		entities[tick.Entity] = struct{}{}
	}

	members := make([]interface{}, 0, len(entities))
	for entity := range entities {
		members = append(members, entity)
	}
	pipe.SAdd(ctx, r.getEntityIndexKey(), members...)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create ticks batch: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"count":    len(ticks),
		"entities": len(entities),
	}).Info("Created ticks batch")

	return nil
}

// DeleteOlderThan removes ticks observed before the timestamp
func (r *TickRedisRepository) DeleteOlderThan(ctx context.Context, timestamp time.Time) (int64, error) {
	entities, err := r.Entities(ctx)
	if err != nil {
		return 0, err
	}

	max := "(" + strconv.FormatInt(tickScore(timestamp), 10)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(entities))
	for i, entity := range entities {
		cmds[i] = pipe.ZRemRangeByScore(ctx, r.getTicksKey(entity), "-inf", max)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to delete old ticks: %w", err)
	}

	var deletedCount int64
	for _, cmd := range cmds {
		deletedCount += cmd.Val()
	}

	if deletedCount > 0 {
		r.logger.WithFields(logrus.Fields{
			"deleted_count": deletedCount,
			"before":        timestamp,
		}).Info("Deleted old ticks")
	}

	return deletedCount, nil
}

func (r *TickRedisRepository) resolveEntities(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return r.Entities(ctx)
	}
	entities := make([]string, len(requested))
	copy(entities, requested)
	sort.Strings(entities)
	return entities, nil
}

// Helper methods
func (r *TickRedisRepository) getTicksKey(entity string) string {
	return fmt.Sprintf("%s:ticks:%s", r.config.RedisNamespace, entity)
}

func (r *TickRedisRepository) getEntityIndexKey() string {
	return fmt.Sprintf("%s:tick_entities", r.config.RedisNamespace)
}

func tickScore(ts time.Time) int64 {
	return ts.UnixMicro()
}

func scoreRange(start, end *time.Time) (string, string) {
	min, max := "-inf", "+inf"
	if start != nil {
		min = strconv.FormatInt(tickScore(*start), 10)
	}
	if end != nil {
		max = strconv.FormatInt(tickScore(*end), 10)
	}
	return min, max
}

// encodeTick renders a sorted set member as "<unix micros>|<price>"
func encodeTick(tick models.Tick) string {
	return strconv.FormatInt(tickScore(tick.Timestamp), 10) + "|" + tick.Price.String()
}

func decodeTick(entity, member string) (models.Tick, error) {
	rawTime, rawPrice, ok := strings.Cut(member, "|")
	if !ok {
		return models.Tick{}, fmt.Errorf("malformed tick member %q", member)
	}
	us, err := strconv.ParseInt(rawTime, 10, 64)
	if err != nil {
		return models.Tick{}, fmt.Errorf("malformed tick time %q: %w", rawTime, err)
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return models.Tick{}, fmt.Errorf("malformed tick price %q: %w", rawPrice, err)
	}
	return models.Tick{Entity: entity, Timestamp: time.UnixMicro(us).UTC(), Price: price}, nil
}
