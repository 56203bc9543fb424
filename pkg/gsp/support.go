package gsp

import (
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// SupportMap maps Pattern.Key() to the number of windows containing the pattern
type SupportMap map[string]int

// Get returns the support of p, 0 when unknown
func (s SupportMap) Get(p models.Pattern) int {
	return s[p.Key()]
}

// firstItemsetBucket groups the candidates sharing a literal first itemset
type firstItemsetBucket struct {
	first    models.Itemset
	patterns []models.Pattern
}

// indexByFirstItemset buckets patterns by their first itemset, keys in first-seen order
func indexByFirstItemset(patterns []models.Pattern) []*firstItemsetBucket {
	var buckets []*firstItemsetBucket
	byKey := make(map[string]*firstItemsetBucket)
	seen := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		if p.IsEmpty() {
			continue
		}
		if _, ok := seen[p.Key()]; ok {
			continue
		}
		seen[p.Key()] = struct{}{}
		key := p.First().Key()
		bucket, ok := byKey[key]
		if !ok {
			bucket = &firstItemsetBucket{first: p.First()}
			byKey[key] = bucket
			buckets = append(buckets, bucket)
		}
		bucket.patterns = append(bucket.patterns, p)
	}
	return buckets
}

// CountSupport counts, for every candidate, the windows of db in which it occurs at least
// once. Every candidate gets an entry, possibly 0. db and candidates are not modified.
func CountSupport(db models.Database, candidates []models.Pattern, c Constraints) SupportMap {
	support := make(SupportMap, len(candidates))
	for _, p := range candidates {
		support[p.Key()] = 0
	}

	buckets := indexByFirstItemset(candidates)
	for _, w := range db {
		for _, bucket := range buckets {
			// No event can host the first itemset: nothing in this bucket can match.
			if !w.HasSuperset(bucket.first) {
				continue
			}
			for _, p := range bucket.patterns {
				if Contains(p, w, c) {
					support[p.Key()]++
				}
			}
		}
	}
	return support
}
