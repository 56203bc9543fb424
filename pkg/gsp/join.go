package gsp

import (
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// Join generates the next level's raw candidates from the frequent patterns of the
// previous level. For every ordered pair (a, b), a != b, of the sorted input:
//
//   - S-step: a without its first itemset equals b without its last one;
//     the candidate is a followed by b's last itemset.
//   - I-step: a and b share every itemset but the last, b's last itemset is {x},
//     x is not in a's last itemset and x sorts after all of its items;
//     the candidate is a with x merged into its last itemset.
//
// Candidates are returned deduplicated, in first-seen order.
func Join(prev []models.Pattern) []models.Pattern {
	sorted := make([]models.Pattern, len(prev))
	copy(sorted, prev)
	models.SortPatterns(sorted)

	candidates := models.NewPatternSet()
	for _, a := range sorted {
		for _, b := range sorted {
			if a.Equal(b) {
				continue
			}

			if models.EqualItemsets(a.Tail(), b.Head()) {
				candidates.Add(a.Append(b.Last()))
			}

			if models.EqualItemsets(a.Head(), b.Head()) {
				if x, ok := itemsetExtension(a.Last(), b.Last()); ok {
					candidates.Add(a.MergeLast(x))
				}
			}
		}
	}
	return candidates.Patterns()
}

// itemsetExtension returns the item that grows last in canonical direction, if any
func itemsetExtension(last, other models.Itemset) (models.Item, bool) {
	if other.Len() != 1 {
		return "", false
	}
	x := other.MaxItem()
	if last.Contains(x) || x <= last.MaxItem() {
		return "", false
	}
	return x, true
}
