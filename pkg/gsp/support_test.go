package gsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

func testDatabase() models.Database {
	return models.Database{
		{event(0, "A"), event(1, "A", "B"), event(2, "B")},
		{event(0, "B"), event(1, "A")},
		{event(0, "C"), event(3, "A"), event(4, "B"), event(5, "A"), event(6, "B")},
	}
}

func TestCountSupportHasEntryForEveryCandidate(t *testing.T) {
	candidates := []models.Pattern{
		pattern(set("A"), set("B")),
		pattern(set("B"), set("A")),
		pattern(set("A", "B")),
		pattern(set("D")),
		pattern(set("D"), set("A")),
	}

	support := CountSupport(testDatabase(), candidates, Constraints{MinGap: 0, MaxGap: 5})
	require.Len(t, support, len(candidates))

	assert.Equal(t, 2, support.Get(candidates[0]))
	assert.Equal(t, 2, support.Get(candidates[1]))
	assert.Equal(t, 1, support.Get(candidates[2]))
	assert.Equal(t, 0, support.Get(candidates[3]))
	assert.Equal(t, 0, support.Get(candidates[4]))
}

func TestCountSupportCountsAWindowAtMostOnce(t *testing.T) {
	// <A,B> occurs twice in the third window.
	db := testDatabase()[2:]
	support := CountSupport(db, []models.Pattern{pattern(set("A"), set("B"))}, Constraints{MaxGap: 1})
	assert.Equal(t, 1, support.Get(pattern(set("A"), set("B"))))
}

func TestCountSupportIgnoresDuplicateCandidates(t *testing.T) {
	p := pattern(set("A"), set("B"))
	support := CountSupport(testDatabase(), []models.Pattern{p, p}, Constraints{MaxGap: 5})
	assert.Equal(t, 2, support.Get(p))
}

func TestCountSupportMatchesContainment(t *testing.T) {
	db := testDatabase()
	c := Constraints{MinGap: 1, MaxGap: 2, WinSize: WinSize(3)}
	candidates := Join([]models.Pattern{pattern(set("A")), pattern(set("B")), pattern(set("C"))})

	support := CountSupport(db, candidates, c)
	for _, p := range candidates {
		expected := 0
		for _, w := range db {
			if Contains(p, w, c) {
				expected++
			}
		}
		assert.Equal(t, expected, support.Get(p), "support of %s", p)
	}
}

func TestIndexByFirstItemset(t *testing.T) {
	candidates := []models.Pattern{
		pattern(set("B"), set("A")),
		pattern(set("A"), set("B")),
		pattern(set("B"), set("C")),
		pattern(set("A", "B")),
	}

	buckets := indexByFirstItemset(candidates)
	require.Len(t, buckets, 3)
	assert.Equal(t, "{B}", buckets[0].first.String())
	assert.Len(t, buckets[0].patterns, 2)
	assert.Equal(t, "{A}", buckets[1].first.String())
	assert.Equal(t, "{A,B}", buckets[2].first.String())
}

func TestCountSupportOnEmptyInputs(t *testing.T) {
	assert.Empty(t, CountSupport(testDatabase(), nil, Constraints{MaxGap: 1}))

	p := pattern(set("A"))
	support := CountSupport(nil, []models.Pattern{p}, Constraints{MaxGap: 1})
	assert.Equal(t, 0, support.Get(p))
	assert.Len(t, support, 1)
}
