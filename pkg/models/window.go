package models

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when a window's time indices are not strictly increasing
var ErrInvalidWindow = errors.New("invalid window")

// Event is the itemset observed at one time index
type Event struct {
	Time  int     `json:"t"`
	Items Itemset `json:"items"`
}

// Window is one timed event sequence, strictly increasing in Time
type Window []Event

// Validate checks the window's invariants
func (w Window) Validate() error {
	for i, event := range w {
		if event.Items.IsEmpty() {
			return fmt.Errorf("%w: event %d has no items", ErrInvalidWindow, i)
		}
		if i > 0 && event.Time <= w[i-1].Time {
			return fmt.Errorf("%w: time %d at position %d does not follow %d",
				ErrInvalidWindow, event.Time, i, w[i-1].Time)
		}
	}
	return nil
}

// Span returns the time distance between the first and last event
func (w Window) Span() int {
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1].Time - w[0].Time
}

// Items returns the union of the window's itemsets, each item once
func (w Window) Items() map[Item]struct{} {
	union := make(map[Item]struct{})
	for _, event := range w {
		for _, item := range event.Items.items {
			union[item] = struct{}{}
		}
	}
	return union
}

// HasSuperset reports whether any event's itemset contains set
func (w Window) HasSuperset(set Itemset) bool {
	for _, event := range w {
		if set.IsSubsetOf(event.Items) {
			return true
		}
	}
	return false
}

// Database is the ordered collection of windows mined for patterns
type Database []Window

// Size returns the number of windows, the denominator of support percentages
func (db Database) Size() int {
	return len(db)
}

// Validate checks every window
func (db Database) Validate() error {
	for i, w := range db {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("window %d: %w", i, err)
		}
	}
	return nil
}
