package models

import "sort"

// PatternSupport is a frequent pattern with its support
type PatternSupport struct {
	Pattern    Pattern `json:"-"`
	Count      int     `json:"count"`
	SupportPct float64 `json:"support_pct"`
}

// NewPatternSupport computes the support percentage of count over dbSize windows
func NewPatternSupport(p Pattern, count, dbSize int) PatternSupport {
	pct := 0.0
	if dbSize > 0 {
		pct = float64(count) / float64(dbSize) * 100.0
	}
	return PatternSupport{Pattern: p, Count: count, SupportPct: pct}
}

// Level maps Pattern.Key() to the pattern's support
type Level map[string]PatternSupport

// Result is the outcome of a mining run; levels are never mutated once recorded
type Result struct {
	DatabaseSize    int           `json:"database_size"`
	MinSupportCount int           `json:"min_support_count"`
	Levels          map[int]Level `json:"levels"`
}

// NewResult returns an empty result for a database of the given size
func NewResult(dbSize, minSupportCount int) *Result {
	return &Result{
		DatabaseSize:    dbSize,
		MinSupportCount: minSupportCount,
		Levels:          make(map[int]Level),
	}
}

// Record stores level k
func (r *Result) Record(k int, level Level) {
	r.Levels[k] = level
}

// Level returns level k, or nil when it was not reached
func (r *Result) Level(k int) Level {
	return r.Levels[k]
}

// IsEmpty reports whether no frequent pattern was found
func (r *Result) IsEmpty() bool {
	return len(r.Levels) == 0
}

// LevelNumbers returns the recorded levels in ascending order
func (r *Result) LevelNumbers() []int {
	ks := make([]int, 0, len(r.Levels))
	for k := range r.Levels {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	return ks
}

// MaxLevel returns the highest recorded level, 0 when empty
func (r *Result) MaxLevel() int {
	max := 0
	for k := range r.Levels {
		if k > max {
			max = k
		}
	}
	return max
}

// Total returns the number of frequent patterns over all levels
func (r *Result) Total() int {
	n := 0
	for _, level := range r.Levels {
		n += len(level)
	}
	return n
}

// Lookup finds p in any level
func (r *Result) Lookup(p Pattern) (PatternSupport, bool) {
	for _, level := range r.Levels {
		if ps, ok := level[p.Key()]; ok {
			return ps, true
		}
	}
	return PatternSupport{}, false
}

// Ranked returns level k sorted by descending support, ties broken by pattern order
func (r *Result) Ranked(k int) []PatternSupport {
	level := r.Levels[k]
	out := make([]PatternSupport, 0, len(level))
	for _, ps := range level {
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Pattern.Less(out[j].Pattern)
	})
	return out
}
