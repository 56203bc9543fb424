package models

import (
	"fmt"
	"strings"
)

// Separators used by Pattern.Key. They cannot appear in labels produced by ingestion.
const (
	itemSeparator    = "\x1f"
	itemsetSeparator = "\x1e"
)

// Pattern is a non-empty ordered sequence of itemsets
type Pattern struct {
	itemsets []Itemset
	key      string
}

// NewPattern builds a pattern, rejecting empty patterns and empty itemsets
func NewPattern(itemsets ...Itemset) (Pattern, error) {
	if len(itemsets) == 0 {
		return Pattern{}, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	for i, set := range itemsets {
		if set.IsEmpty() {
			return Pattern{}, fmt.Errorf("%w: itemset %d is empty", ErrInvalidPattern, i)
		}
	}
	return newPattern(itemsets), nil
}

// MustPattern is NewPattern for literals known to be valid; it panics otherwise
func MustPattern(itemsets ...Itemset) Pattern {
	p, err := NewPattern(itemsets...)
	if err != nil {
		panic(err)
	}
	return p
}

// SingleItemPattern returns the length-1 pattern <{item}>
func SingleItemPattern(item Item) Pattern {
	return newPattern([]Itemset{{items: []Item{item}}})
}

// newPattern takes ownership of itemsets and precomputes the key
func newPattern(itemsets []Itemset) Pattern {
	keys := make([]string, len(itemsets))
	for i, set := range itemsets {
		keys[i] = set.Key()
	}
	return Pattern{itemsets: itemsets, key: strings.Join(keys, itemsetSeparator)}
}

// Key returns the canonical form used to index patterns in maps
func (p Pattern) Key() string {
	return p.key
}

// Len returns the number of itemsets
func (p Pattern) Len() int {
	return len(p.itemsets)
}

// Size returns the total number of items over all itemsets
func (p Pattern) Size() int {
	n := 0
	for _, set := range p.itemsets {
		n += set.Len()
	}
	return n
}

// IsEmpty reports whether p is the zero value
func (p Pattern) IsEmpty() bool {
	return len(p.itemsets) == 0
}

// Itemset returns the i-th itemset
func (p Pattern) Itemset(i int) Itemset {
	return p.itemsets[i]
}

// Itemsets returns a copy of the itemset sequence
func (p Pattern) Itemsets() []Itemset {
	out := make([]Itemset, len(p.itemsets))
	copy(out, p.itemsets)
	return out
}

// First returns the first itemset
func (p Pattern) First() Itemset {
	return p.itemsets[0]
}

// Last returns the last itemset
func (p Pattern) Last() Itemset {
	return p.itemsets[len(p.itemsets)-1]
}

// Head returns every itemset but the last. The result may be empty.
func (p Pattern) Head() []Itemset {
	return p.itemsets[:len(p.itemsets)-1]
}

// Tail returns every itemset but the first. The result may be empty.
func (p Pattern) Tail() []Itemset {
	return p.itemsets[1:]
}

// Append returns p followed by set as a new trailing itemset
func (p Pattern) Append(set Itemset) Pattern {
	itemsets := make([]Itemset, 0, len(p.itemsets)+1)
	itemsets = append(itemsets, p.itemsets...)
	itemsets = append(itemsets, set)
	return newPattern(itemsets)
}

// MergeLast returns p with item merged into its last itemset
func (p Pattern) MergeLast(item Item) Pattern {
	itemsets := p.Itemsets()
	itemsets[len(itemsets)-1] = p.Last().With(item)
	return newPattern(itemsets)
}

// WithoutItemset returns p with the i-th itemset removed; the result may be empty
func (p Pattern) WithoutItemset(i int) Pattern {
	itemsets := make([]Itemset, 0, len(p.itemsets)-1)
	itemsets = append(itemsets, p.itemsets[:i]...)
	itemsets = append(itemsets, p.itemsets[i+1:]...)
	return newPattern(itemsets)
}

// WithoutItem returns p with item removed from the i-th itemset
func (p Pattern) WithoutItem(i int, item Item) Pattern {
	itemsets := p.Itemsets()
	itemsets[i] = itemsets[i].Without(item)
	return newPattern(itemsets)
}

// Equal reports element-wise equality
func (p Pattern) Equal(other Pattern) bool {
	return p.key == other.key
}

// Compare orders patterns by sequence comparison over their itemsets
func (p Pattern) Compare(other Pattern) int {
	return CompareItemsets(p.itemsets, other.itemsets)
}

// Less reports whether p orders before other
func (p Pattern) Less(other Pattern) bool {
	return p.Compare(other) < 0
}

// String renders the pattern as <{a,b},{c}>
func (p Pattern) String() string {
	parts := make([]string, len(p.itemsets))
	for i, set := range p.itemsets {
		parts[i] = set.String()
	}
	return "<" + strings.Join(parts, ",") + ">"
}

// Arrow renders the pattern as {a,b} -> {c}
func (p Pattern) Arrow() string {
	parts := make([]string, len(p.itemsets))
	for i, set := range p.itemsets {
		parts[i] = set.String()
	}
	return strings.Join(parts, " -> ")
}

// CompareItemsets compares two itemset sequences tuple-style
func CompareItemsets(a, b []Itemset) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// EqualItemsets reports element-wise equality of two itemset sequences
func EqualItemsets(a, b []Itemset) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
