package models

import "sort"

// PatternSet is an insertion-ordered set of patterns
type PatternSet struct {
	patterns []Pattern
	index    map[string]int
}

// NewPatternSet returns a set holding patterns in first-seen order
func NewPatternSet(patterns ...Pattern) *PatternSet {
	s := &PatternSet{index: make(map[string]int, len(patterns))}
	for _, p := range patterns {
		s.Add(p)
	}
	return s
}

// Add inserts p and reports whether it was not present yet
func (s *PatternSet) Add(p Pattern) bool {
	if _, ok := s.index[p.Key()]; ok {
		return false
	}
	s.index[p.Key()] = len(s.patterns)
	s.patterns = append(s.patterns, p)
	return true
}

// Has reports membership
func (s *PatternSet) Has(p Pattern) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[p.Key()]
	return ok
}

// Len returns the number of patterns
func (s *PatternSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// Patterns returns the members in insertion order
func (s *PatternSet) Patterns() []Pattern {
	if s == nil {
		return nil
	}
	out := make([]Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// SortPatterns sorts patterns in place by the pattern total order
func SortPatterns(patterns []Pattern) {
	sort.SliceStable(patterns, func(i, j int) bool { return patterns[i].Less(patterns[j]) })
}
