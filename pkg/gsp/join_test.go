package gsp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

func patternStrings(patterns []models.Pattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = p.String()
	}
	return out
}

func TestJoinSingleItems(t *testing.T) {
	prev := []models.Pattern{pattern(set("B")), pattern(set("A"))}

	candidates := Join(prev)
	assert.Equal(t, []string{"<{A},{B}>", "<{A,B}>", "<{B},{A}>"}, patternStrings(candidates))

	pruned := Prune(candidates, models.NewPatternSet(prev...))
	assert.Equal(t, patternStrings(candidates), patternStrings(pruned))
}

func TestJoinSequenceExtension(t *testing.T) {
	prev := []models.Pattern{
		pattern(set("A"), set("B")),
		pattern(set("B"), set("C")),
	}

	assert.Equal(t, []string{"<{A},{B},{C}>"}, patternStrings(Join(prev)))
}

func TestJoinSequenceExtensionAppendsWholeLastItemset(t *testing.T) {
	prev := []models.Pattern{
		pattern(set("A"), set("B")),
		pattern(set("B"), set("C", "D")),
	}

	assert.Contains(t, patternStrings(Join(prev)), "<{A},{B},{C,D}>")
}

func TestJoinItemsetExtension(t *testing.T) {
	prev := []models.Pattern{
		pattern(set("A"), set("B")),
		pattern(set("A"), set("C")),
	}

	candidates := patternStrings(Join(prev))
	assert.Contains(t, candidates, "<{A},{B,C}>")
	assert.NotContains(t, candidates, "<{A},{C,B}>")
	// Growth runs in one direction only: C cannot absorb B.
	assert.Len(t, candidates, 1)
}

func TestJoinItemsetExtensionRequiresSingleItemAndGreaterItem(t *testing.T) {
	prev := []models.Pattern{
		pattern(set("B", "C")),
		pattern(set("A")),
		pattern(set("B", "D")),
	}

	candidates := patternStrings(Join(prev))
	// {B,C} + {A}: A is not greater than C.
	assert.NotContains(t, candidates, "<{A,B,C}>")
	// {B,C} + {B,D}: the other last itemset has two items.
	assert.NotContains(t, candidates, "<{B,C,D}>")
	// {A} + {B,C}: same reason.
	assert.NotContains(t, candidates, "<{A,B,C}>")
}

func TestJoinIsDeterministicAndDeduplicated(t *testing.T) {
	prev := []models.Pattern{
		pattern(set("A")), pattern(set("B")), pattern(set("C")),
	}
	shuffled := []models.Pattern{prev[2], prev[0], prev[1]}

	first := Join(prev)
	second := Join(shuffled)
	assert.Equal(t, patternStrings(first), patternStrings(second))

	seen := make(map[string]bool)
	for _, p := range first {
		assert.False(t, seen[p.Key()], "duplicate candidate %s", p)
		seen[p.Key()] = true
	}
	// 6 ordered pairs for the S-step, 3 ordered growths for the I-step.
	assert.Len(t, first, 9)

	// Input is not reordered.
	assert.Equal(t, "<{C}>", shuffled[0].String())
}

func TestJoinEmptyInput(t *testing.T) {
	assert.Empty(t, Join(nil))
	assert.Empty(t, Join([]models.Pattern{pattern(set("A"))}))
}
