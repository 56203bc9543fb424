package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidPattern is returned when an itemset or pattern violates its invariants
var ErrInvalidPattern = errors.New("invalid pattern")

// Item is an opaque event label such as "BAMXF_1"
type Item string

// Itemset is a non-empty set of items kept in canonical (sorted, unique) form
type Itemset struct {
	items []Item
}

// NewItemset builds an itemset from the given items, removing duplicates
func NewItemset(items ...Item) (Itemset, error) {
	if len(items) == 0 {
		return Itemset{}, fmt.Errorf("%w: empty itemset", ErrInvalidPattern)
	}

	seen := make(map[Item]struct{}, len(items))
	canonical := make([]Item, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(string(item)) == "" {
			return Itemset{}, fmt.Errorf("%w: blank item label", ErrInvalidPattern)
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		canonical = append(canonical, item)
	}

	sort.Slice(canonical, func(i, j int) bool { return canonical[i] < canonical[j] })
	return Itemset{items: canonical}, nil
}

// MustItemset is NewItemset for literals known to be valid; it panics otherwise
func MustItemset(items ...string) Itemset {
	converted := make([]Item, len(items))
	for i, item := range items {
		converted[i] = Item(item)
	}
	set, err := NewItemset(converted...)
	if err != nil {
		panic(err)
	}
	return set
}

// Items returns a copy of the canonical item list
func (s Itemset) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items
func (s Itemset) Len() int {
	return len(s.items)
}

// IsEmpty reports whether the itemset is the zero value
func (s Itemset) IsEmpty() bool {
	return len(s.items) == 0
}

// MaxItem returns the lexicographically largest item
func (s Itemset) MaxItem() Item {
	if len(s.items) == 0 {
		return ""
	}
	return s.items[len(s.items)-1]
}

// Contains reports whether item is a member
func (s Itemset) Contains(item Item) bool {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i] >= item })
	return i < len(s.items) && s.items[i] == item
}

// IsSubsetOf reports whether every item of s is in other.
// Both sides are sorted, so a single merge pass suffices.
func (s Itemset) IsSubsetOf(other Itemset) bool {
	if len(s.items) > len(other.items) {
		return false
	}
	j := 0
	for _, item := range s.items {
		for j < len(other.items) && other.items[j] < item {
			j++
		}
		if j == len(other.items) || other.items[j] != item {
			return false
		}
		j++
	}
	return true
}

// With returns a new itemset with item added
func (s Itemset) With(item Item) Itemset {
	if s.Contains(item) {
		return s
	}
	items := make([]Item, 0, len(s.items)+1)
	items = append(items, s.items...)
	items = append(items, item)
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return Itemset{items: items}
}

// Without returns a new itemset with item removed; the result may be empty
func (s Itemset) Without(item Item) Itemset {
	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if it != item {
			items = append(items, it)
		}
	}
	return Itemset{items: items}
}

// Equal reports element-wise equality of the canonical forms
func (s Itemset) Equal(other Itemset) bool {
	return s.Compare(other) == 0
}

// Compare orders itemsets by their sorted item lists, tuple-style
func (s Itemset) Compare(other Itemset) int {
	n := len(s.items)
	if len(other.items) < n {
		n = len(other.items)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(string(s.items[i]), string(other.items[i])); c != 0 {
			return c
		}
	}
	switch {
	case len(s.items) < len(other.items):
		return -1
	case len(s.items) > len(other.items):
		return 1
	}
	return 0
}

// String renders the itemset as {a,b}
func (s Itemset) String() string {
	parts := make([]string, len(s.items))
	for i, item := range s.items {
		parts[i] = string(item)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Key returns the canonical form of the itemset
func (s Itemset) Key() string {
	parts := make([]string, len(s.items))
	for i, item := range s.items {
		parts[i] = string(item)
	}
	return strings.Join(parts, itemSeparator)
}

// MarshalJSON encodes the itemset as a sorted array of labels
func (s Itemset) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.items)
}

// UnmarshalJSON decodes an array of labels, enforcing the itemset invariants
func (s *Itemset) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to decode itemset: %w", err)
	}
	set, err := NewItemset(items...)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
