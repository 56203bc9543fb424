package gsp

import (
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// Contains reports whether p occurs in w: strictly increasing positions whose itemsets are
// supersets of p's itemsets, with every consecutive time gap in [MinGap, MaxGap] and, when
// WinSize is set, the first-to-last span at most WinSize.
func Contains(p models.Pattern, w models.Window, c Constraints) bool {
	if p.IsEmpty() {
		return true
	}

	positions := make([][]int, p.Len())
	for k := 0; k < p.Len(); k++ {
		positions[k] = matchingPositions(p.Itemset(k), w)
		if len(positions[k]) == 0 {
			return false
		}
	}

	m := matcher{window: w, positions: positions, constraints: c}
	for _, start := range positions[0] {
		t := w[start].Time
		if m.extend(1, start, t, t) {
			return true
		}
	}
	return false
}

// matchingPositions lists, in increasing order, the window positions whose itemset contains set
func matchingPositions(set models.Itemset, w models.Window) []int {
	var out []int
	for i, event := range w {
		if set.IsSubsetOf(event.Items) {
			out = append(out, i)
		}
	}
	return out
}

type matcher struct {
	window      models.Window
	positions   [][]int
	constraints Constraints
}

// extend tries to place itemset k after position prev. Candidate lists are sorted by
// position and therefore by time, so a gap or span violation ends the scan.
func (m *matcher) extend(k, prev, firstTime, prevTime int) bool {
	if k == len(m.positions) {
		return true
	}
	c := m.constraints
	for _, idx := range m.positions[k] {
		if idx <= prev {
			continue
		}
		t := m.window[idx].Time
		gap := t - prevTime
		if gap < c.MinGap {
			continue
		}
		if gap > c.MaxGap {
			return false
		}
		if c.WinSize != nil && t-firstTime > *c.WinSize {
			return false
		}
		if m.extend(k+1, idx, firstTime, t) {
			return true
		}
	}
	return false
}
