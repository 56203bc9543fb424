package gsp

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestNewMinerRejectsInvalidConfig(t *testing.T) {
	_, err := NewMiner(Config{MinSupPct: 10, Constraints: Constraints{MinGap: 2, MaxGap: 1}}, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestMineRejectsMalformedWindows(t *testing.T) {
	miner, err := NewMiner(Config{MinSupPct: 10, Constraints: Constraints{MaxGap: 1}}, quietLogger())
	require.NoError(t, err)

	db := models.Database{{event(2, "A"), event(1, "B")}}
	_, err = miner.Mine(context.Background(), db)
	assert.True(t, errors.Is(err, models.ErrInvalidWindow))
}

func TestMineEmptyDatabase(t *testing.T) {
	miner, err := NewMiner(Config{MinSupPct: 10, Constraints: Constraints{MaxGap: 1}}, quietLogger())
	require.NoError(t, err)

	result, err := miner.Mine(context.Background(), models.Database{})
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, 0, result.DatabaseSize)
}

func TestMineLevelOneCountsItemsOncePerWindow(t *testing.T) {
	miner, err := NewMiner(Config{MinSupPct: 0, Constraints: Constraints{MaxGap: 0}}, quietLogger())
	require.NoError(t, err)

	db := models.Database{
		{event(0, "A"), event(1, "A"), event(2, "A", "B")},
		{event(0, "B")},
	}
	result, err := miner.Mine(context.Background(), db)
	require.NoError(t, err)

	level := result.Level(1)
	require.Len(t, level, 2)
	assert.Equal(t, 1, level[pattern(set("A")).Key()].Count)
	assert.Equal(t, 2, level[pattern(set("B")).Key()].Count)
	assert.InDelta(t, 100.0, level[pattern(set("B")).Key()].SupportPct, 1e-9)
}

func TestMineStopsWhenContextIsCancelled(t *testing.T) {
	miner, err := NewMiner(Config{MinSupPct: 0, Constraints: Constraints{MaxGap: 5}}, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := miner.Mine(ctx, testDatabase())
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Equal(t, []int{1}, result.LevelNumbers())
}

func TestMineZeroThresholdTerminates(t *testing.T) {
	miner, err := NewMiner(Config{MinSupPct: 0, Constraints: Constraints{MaxGap: 10}}, quietLogger())
	require.NoError(t, err)

	result, err := miner.Mine(context.Background(), testDatabase())
	require.NoError(t, err)

	for _, k := range result.LevelNumbers() {
		for _, ps := range result.Level(k) {
			assert.Greater(t, ps.Count, 0, "pattern %s recorded without occurrence", ps.Pattern)
		}
	}
	// Every level adds at least one item and no window holds more than five.
	assert.LessOrEqual(t, result.MaxLevel(), 5)
}
