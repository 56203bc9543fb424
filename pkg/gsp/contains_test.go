package gsp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

func event(t int, items ...string) models.Event {
	return models.Event{Time: t, Items: models.MustItemset(items...)}
}

func pattern(itemsets ...[]string) models.Pattern {
	sets := make([]models.Itemset, len(itemsets))
	for i, items := range itemsets {
		sets[i] = models.MustItemset(items...)
	}
	return models.MustPattern(sets...)
}

func set(items ...string) []string {
	return items
}

func TestContainsScenario(t *testing.T) {
	w := models.Window{event(0, "A_1"), event(1, "A_1", "B_0"), event(2, "B_0")}
	c := Constraints{MinGap: 0, MaxGap: 5}

	assert.True(t, Contains(pattern(set("A_1")), w, c))
	assert.True(t, Contains(pattern(set("A_1"), set("B_0")), w, c))
	assert.False(t, Contains(pattern(set("B_0"), set("A_1")), w, c))
	assert.True(t, Contains(pattern(set("A_1", "B_0")), w, c))
	assert.False(t, Contains(pattern(set("A_1", "B_0"), set("A_1")), w, c))
}

func TestContainsEmptyPatternMatchesTrivially(t *testing.T) {
	assert.True(t, Contains(models.Pattern{}, models.Window{}, Constraints{MaxGap: 1}))
}

func TestContainsGapBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		gap      int
		minGap   int
		maxGap   int
		expected bool
	}{
		{name: "gap equals min gap", gap: 2, minGap: 2, maxGap: 4, expected: true},
		{name: "gap equals max gap", gap: 4, minGap: 2, maxGap: 4, expected: true},
		{name: "gap below min gap", gap: 1, minGap: 2, maxGap: 4, expected: false},
		{name: "gap above max gap", gap: 5, minGap: 2, maxGap: 4, expected: false},
		{name: "zero bounds adjacent", gap: 1, minGap: 0, maxGap: 0, expected: false},
		{name: "min gap equals max gap", gap: 3, minGap: 3, maxGap: 3, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := models.Window{event(10, "A"), event(10+tt.gap, "B")}
			c := Constraints{MinGap: tt.minGap, MaxGap: tt.maxGap}
			assert.Equal(t, tt.expected, Contains(pattern(set("A"), set("B")), w, c))
		})
	}
}

func TestContainsWindowBoundaries(t *testing.T) {
	w := models.Window{event(0, "A"), event(2, "B"), event(4, "C")}
	p := pattern(set("A"), set("B"), set("C"))

	assert.True(t, Contains(p, w, Constraints{MaxGap: 2, WinSize: WinSize(4)}))
	assert.False(t, Contains(p, w, Constraints{MaxGap: 2, WinSize: WinSize(3)}))
	assert.True(t, Contains(p, w, Constraints{MaxGap: 2}))

	// A length-1 pattern spans nothing, so any window size admits it.
	assert.True(t, Contains(pattern(set("A")), w, Constraints{MaxGap: 0, WinSize: WinSize(0)}))
}

func TestContainsBacktracksPastGreedyMatch(t *testing.T) {
	// The first A at t=0 is too far from C; only the later A satisfies max_gap.
	w := models.Window{event(0, "A"), event(5, "A"), event(6, "B"), event(7, "C")}
	c := Constraints{MinGap: 1, MaxGap: 1}
	assert.True(t, Contains(pattern(set("A"), set("B"), set("C")), w, c))

	// The greedy B at t=1 leaves C out of reach; the B at t=3 does not.
	w = models.Window{event(0, "A"), event(1, "B"), event(3, "B"), event(5, "C")}
	c = Constraints{MinGap: 1, MaxGap: 3}
	assert.True(t, Contains(pattern(set("A"), set("B"), set("C")), w, c))

	c = Constraints{MinGap: 1, MaxGap: 3, WinSize: WinSize(4)}
	assert.False(t, Contains(pattern(set("A"), set("B"), set("C")), w, c))
}

func TestContainsRequiresStrictlyIncreasingPositions(t *testing.T) {
	w := models.Window{event(0, "A", "B")}
	c := Constraints{MinGap: 0, MaxGap: 10}
	assert.False(t, Contains(pattern(set("A"), set("B")), w, c))
	assert.True(t, Contains(pattern(set("A", "B")), w, c))
}

func TestContainsSkipsMinGapViolationsAndKeepsScanning(t *testing.T) {
	w := models.Window{event(0, "A"), event(1, "B"), event(2, "B"), event(3, "B")}
	c := Constraints{MinGap: 3, MaxGap: 3}
	assert.True(t, Contains(pattern(set("A"), set("B")), w, c))
}
