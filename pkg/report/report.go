// Package report renders mining parameters, windows and results for terminals and scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/gsp"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/ingest"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// NoPatternsMessage is printed when mining produced nothing
const NoPatternsMessage = "No frequent patterns (too few windows or the threshold is too high)."

// Params describes one mining run for the parameter summary
type Params struct {
	Source  string
	Config  gsp.Config
	Builder ingest.Builder
	Windows int
}

// WriteParams prints the run parameters
func WriteParams(w io.Writer, p Params) error {
	winSize := "none"
	if p.Config.WinSize != nil {
		winSize = fmt.Sprintf("%d", *p.Config.WinSize)
	}

	lines := []string{
		fmt.Sprintf("source: %s", p.Source),
		fmt.Sprintf("min_sup_pct: %g", p.Config.MinSupPct),
		fmt.Sprintf("min_gap: %d  max_gap: %d  win_size: %s", p.Config.MinGap, p.Config.MaxGap, winSize),
		fmt.Sprintf("seq_len: %d  seq_step: %d  time_bin_seconds: %d", p.Builder.SeqLen, p.Builder.SeqStep, p.Builder.TimeBinSeconds),
		fmt.Sprintf("windows: %d", p.Windows),
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// WriteWindows prints up to max windows (all when max <= 0), one event per line
func WriteWindows(w io.Writer, db models.Database, max int) error {
	shown := db.Size()
	if max > 0 && max < shown {
		shown = max
	}

	for i, window := range db[:shown] {
		if _, err := fmt.Fprintf(w, "\n--- window %d ---\n", i); err != nil {
			return err
		}
		for _, event := range window {
			if _, err := fmt.Fprintf(w, "%d -> %s\n", event.Time, event.Items); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintf(w, "\n... showing %d of %d windows ...\n", shown, db.Size())
	return err
}

// WriteResult prints every level in ranked order
func WriteResult(w io.Writer, result *models.Result) error {
	if result == nil || result.IsEmpty() {
		_, err := fmt.Fprintln(w, NoPatternsMessage)
		return err
	}

	if _, err := fmt.Fprintf(w, "\nDB size = %d windows, min support count = %d\n",
		result.DatabaseSize, result.MinSupportCount); err != nil {
		return err
	}

	for _, k := range result.LevelNumbers() {
		if _, err := fmt.Fprintf(w, "\nPatterns of length %d:\n", k); err != nil {
			return err
		}
		for _, ps := range result.Ranked(k) {
			if _, err := fmt.Fprintln(w, FormatPattern(ps)); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatPattern renders one line, e.g. "{A_1} -> {B_0}  count=3  support=42.86%"
func FormatPattern(ps models.PatternSupport) string {
	return fmt.Sprintf("%s  count=%d  support=%.2f%%", ps.Pattern.Arrow(), ps.Count, ps.SupportPct)
}

type patternDocument struct {
	Pattern    string           `json:"pattern"`
	Itemsets   []models.Itemset `json:"itemsets"`
	Count      int              `json:"count"`
	SupportPct float64          `json:"support_pct"`
}

type levelDocument struct {
	Length   int               `json:"length"`
	Patterns []patternDocument `json:"patterns"`
}

type resultDocument struct {
	DatabaseSize    int             `json:"database_size"`
	MinSupportCount int             `json:"min_support_count"`
	Levels          []levelDocument `json:"levels"`
}

// WriteJSON encodes the result with levels and patterns in ranked order
func WriteJSON(w io.Writer, result *models.Result) error {
	doc := resultDocument{Levels: []levelDocument{}}
	if result != nil {
		doc.DatabaseSize = result.DatabaseSize
		doc.MinSupportCount = result.MinSupportCount
		for _, k := range result.LevelNumbers() {
			level := levelDocument{Length: k}
			for _, ps := range result.Ranked(k) {
				level.Patterns = append(level.Patterns, patternDocument{
					Pattern:    ps.Pattern.String(),
					Itemsets:   ps.Pattern.Itemsets(),
					Count:      ps.Count,
					SupportPct: ps.SupportPct,
				})
			}
			doc.Levels = append(doc.Levels, level)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
