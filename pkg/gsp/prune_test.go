package gsp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

func TestPrune(t *testing.T) {
	prev := models.NewPatternSet(
		pattern(set("A"), set("B")),
		pattern(set("B"), set("C")),
		pattern(set("A"), set("C")),
		pattern(set("A"), set("D")),
		pattern(set("B", "C")),
	)

	tests := []struct {
		name      string
		candidate models.Pattern
		keep      bool
	}{
		{name: "all itemset removals frequent", candidate: pattern(set("A"), set("B"), set("C")), keep: true},
		{name: "missing subsequence after removing middle itemset", candidate: pattern(set("A"), set("B"), set("D")), keep: false},
		{name: "item removals frequent", candidate: pattern(set("A"), set("B", "C")), keep: true},
		{name: "item removal infrequent", candidate: pattern(set("A"), set("B", "D")), keep: false},
		{name: "itemset removal infrequent", candidate: pattern(set("D"), set("B", "C")), keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pruned := Prune([]models.Pattern{tt.candidate}, prev)
			if tt.keep {
				assert.Len(t, pruned, 1)
			} else {
				assert.Empty(t, pruned)
			}
		})
	}
}

func TestPrunePreservesInputOrder(t *testing.T) {
	prev := models.NewPatternSet(pattern(set("A")), pattern(set("B")))
	candidates := []models.Pattern{
		pattern(set("B"), set("A")),
		pattern(set("C"), set("A")),
		pattern(set("A"), set("B")),
	}

	assert.Equal(t, []string{"<{B},{A}>", "<{A},{B}>"}, patternStrings(Prune(candidates, prev)))
}

func TestJoinThenPruneIsIdempotent(t *testing.T) {
	frequent := []models.Pattern{
		pattern(set("A"), set("B")),
		pattern(set("B"), set("C")),
		pattern(set("A"), set("C")),
		pattern(set("A", "B")),
		pattern(set("B"), set("B")),
	}
	prev := models.NewPatternSet(frequent...)

	first := Prune(Join(frequent), prev)
	second := Prune(Join(frequent), prev)
	assert.Equal(t, patternStrings(first), patternStrings(second))
	assert.NotEmpty(t, first)
}
