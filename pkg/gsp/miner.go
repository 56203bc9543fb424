package gsp

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// Miner runs the level-wise GSP loop over a window database
type Miner struct {
	config Config
	logger *logrus.Logger
}

// NewMiner creates a miner after validating cfg
func NewMiner(cfg Config, logger *logrus.Logger) (*Miner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Miner{config: cfg, logger: logger}, nil
}

// Config returns the miner's parameters
func (m *Miner) Config() Config {
	return m.config
}

// Mine computes every frequent level of db. An empty database yields an empty result.
// ctx is checked between levels; on cancellation the levels completed so far are returned
// together with the context error.
func (m *Miner) Mine(ctx context.Context, db models.Database) (*models.Result, error) {
	log := m.logger.WithField("run_id", uuid.NewString())

	if err := db.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate database: %w", err)
	}

	dbSize := db.Size()
	minSupport := m.config.MinSupportCount(dbSize)
	result := models.NewResult(dbSize, minSupport)

	if dbSize == 0 {
		log.Warn("Window database is empty, nothing to mine")
		return result, nil
	}

	log.WithFields(logrus.Fields{
		"db_size":           dbSize,
		"min_sup_pct":       m.config.MinSupPct,
		"min_support_count": minSupport,
		"min_gap":           m.config.MinGap,
		"max_gap":           m.config.MaxGap,
		"win_size":          formatWinSize(m.config.WinSize),
	}).Info("Starting GSP mining run")

	frequent, level := m.frequentItems(db, minSupport)
	if len(frequent) == 0 {
		log.Info("No frequent items, mining finished")
		return result, nil
	}
	result.Record(1, level)
	log.WithFields(logrus.Fields{"level": 1, "frequent": len(frequent)}).Info("Level complete")

	for k := 2; ; k++ {
		if err := ctx.Err(); err != nil {
			log.WithError(err).WithField("level", k).Warn("Mining aborted between levels")
			return result, err
		}

		candidates := Join(frequent)
		joined := len(candidates)
		candidates = Prune(candidates, models.NewPatternSet(frequent...))

		log.WithFields(logrus.Fields{
			"level":  k,
			"joined": joined,
			"pruned": joined - len(candidates),
		}).Debug("Candidates generated")

		if len(candidates) == 0 {
			break
		}

		support := CountSupport(db, candidates, m.config.Constraints)

		next := make([]models.Pattern, 0, len(candidates))
		level := make(models.Level)
		for _, p := range candidates {
			count := support.Get(p)
			if !m.isFrequent(count, minSupport) {
				continue
			}
			next = append(next, p)
			level[p.Key()] = models.NewPatternSupport(p, count, dbSize)
		}

		if len(next) == 0 {
			break
		}

		result.Record(k, level)
		log.WithFields(logrus.Fields{
			"level":      k,
			"candidates": len(candidates),
			"frequent":   len(next),
		}).Info("Level complete")

		if m.logger.IsLevelEnabled(logrus.DebugLevel) {
			for _, p := range next {
				log.WithFields(logrus.Fields{
					"level":   k,
					"pattern": p.String(),
					"count":   support.Get(p),
				}).Debug("Frequent pattern")
			}
		}

		frequent = next
	}

	log.WithFields(logrus.Fields{
		"levels":   len(result.Levels),
		"patterns": result.Total(),
	}).Info("GSP mining run finished")

	return result, nil
}

// frequentItems counts every item once per window and returns the frequent length-1
// patterns in pattern order, together with their level.
func (m *Miner) frequentItems(db models.Database, minSupport int) ([]models.Pattern, models.Level) {
	counts := make(map[models.Item]int)
	for _, w := range db {
		for item := range w.Items() {
			counts[item]++
		}
	}

	items := make([]models.Item, 0, len(counts))
	for item, count := range counts {
		if m.isFrequent(count, minSupport) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

	frequent := make([]models.Pattern, len(items))
	level := make(models.Level, len(items))
	for i, item := range items {
		p := models.SingleItemPattern(item)
		frequent[i] = p
		level[p.Key()] = models.NewPatternSupport(p, counts[item], db.Size())
	}
	return frequent, level
}

// isFrequent applies the threshold. A pattern must occur at least once to be frequent,
// even when the threshold is 0.
func (m *Miner) isFrequent(count, minSupport int) bool {
	return count > 0 && count >= minSupport
}

func formatWinSize(w *int) string {
	if w == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *w)
}
