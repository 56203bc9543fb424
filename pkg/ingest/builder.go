package ingest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// ErrInvalidBuilder is returned for non-positive window or bin parameters
var ErrInvalidBuilder = errors.New("invalid window builder")

// Builder slices discretized ticks into overlapping windows.
// SeqLen and SeqStep are measured in time bins of TimeBinSeconds.
type Builder struct {
	SeqLen         int `json:"seq_len"`
	SeqStep        int `json:"seq_step"`
	TimeBinSeconds int `json:"time_bin_seconds"`
}

// DefaultBuilder returns hourly bins with one-day windows advancing one bin at a time
func DefaultBuilder() Builder {
	return Builder{SeqLen: 24, SeqStep: 1, TimeBinSeconds: 3600}
}

// Validate checks that every parameter is at least one
func (b Builder) Validate() error {
	if b.SeqLen < 1 {
		return fmt.Errorf("%w: seq_len must be >= 1, got %d", ErrInvalidBuilder, b.SeqLen)
	}
	if b.SeqStep < 1 {
		return fmt.Errorf("%w: seq_step must be >= 1, got %d", ErrInvalidBuilder, b.SeqStep)
	}
	if b.TimeBinSeconds < 1 {
		return fmt.Errorf("%w: time_bin_seconds must be >= 1, got %d", ErrInvalidBuilder, b.TimeBinSeconds)
	}
	return nil
}

// Build converts ticks into a window database. The input slice is not modified.
func (b Builder) Build(ticks []models.Tick) (models.Database, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return models.Database{}, nil
	}

	events, err := b.events(ticks)
	if err != nil {
		return nil, err
	}
	return b.slice(events), nil
}

// events discretizes ticks and groups the resulting items by time bin
func (b Builder) events(ticks []models.Tick) ([]models.Event, error) {
	sorted := make([]models.Tick, len(ticks))
	copy(sorted, ticks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Entity != sorted[j].Entity {
			return sorted[i].Entity < sorted[j].Entity
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	t0 := sorted[0].Timestamp
	for _, tick := range sorted[1:] {
		if tick.Timestamp.Before(t0) {
			t0 = tick.Timestamp
		}
	}

	binWidth := time.Duration(b.TimeBinSeconds) * time.Second
	bins := make(map[int][]models.Item)
	var previous decimal.Decimal
	for i, tick := range sorted {
		if tick.Entity == "" {
			return nil, fmt.Errorf("tick %d has an empty entity", i)
		}

		change := decimal.Zero
		if i > 0 && sorted[i-1].Entity == tick.Entity {
			change = PercentChange(previous, tick.Price)
		}
		previous = tick.Price

		bin := int(tick.Timestamp.Sub(t0) / binWidth)
		bins[bin] = append(bins[bin], models.Item(ItemFor(tick.Entity, Discretize(change))))
	}

	times := make([]int, 0, len(bins))
	for t := range bins {
		times = append(times, t)
	}
	sort.Ints(times)

	events := make([]models.Event, 0, len(times))
	for _, t := range times {
		items, err := models.NewItemset(bins[t]...)
		if err != nil {
			return nil, fmt.Errorf("failed to build itemset at time %d: %w", t, err)
		}
		events = append(events, models.Event{Time: t, Items: items})
	}
	return events, nil
}

// slice cuts windows [start, start+SeqLen) beginning only at occupied time bins
func (b Builder) slice(events []models.Event) models.Database {
	db := models.Database{}
	i := 0
	for i < len(events) {
		start := events[i].Time
		end := start + b.SeqLen

		j := i
		for j < len(events) && events[j].Time < end {
			j++
		}
		window := make(models.Window, j-i)
		copy(window, events[i:j])
		db = append(db, window)

		next := start + b.SeqStep
		for i < len(events) && events[i].Time < next {
			i++
		}
	}
	return db
}
