package gsp

import (
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// Prune keeps the candidates whose immediate subsequences are all frequent:
// removing any single-item itemset, or any one item of a multi-item itemset, must give a
// pattern of prev. Survivors keep their input order.
func Prune(candidates []models.Pattern, prev *models.PatternSet) []models.Pattern {
	pruned := make([]models.Pattern, 0, len(candidates))
	for _, c := range candidates {
		if hasFrequentSubsequences(c, prev) {
			pruned = append(pruned, c)
		}
	}
	return pruned
}

func hasFrequentSubsequences(c models.Pattern, prev *models.PatternSet) bool {
	for i := 0; i < c.Len(); i++ {
		if c.Itemset(i).Len() == 1 && !prev.Has(c.WithoutItemset(i)) {
			return false
		}
	}

	for i := 0; i < c.Len(); i++ {
		set := c.Itemset(i)
		if set.Len() <= 1 {
			continue
		}
		for _, item := range set.Items() {
			if !prev.Has(c.WithoutItem(i, item)) {
				return false
			}
		}
	}
	return true
}
