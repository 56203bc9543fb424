package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// ErrMissingColumn is returned when a configured column is absent from the header
var ErrMissingColumn = errors.New("missing column")

// CSVReader reads ticks from a delimited file with a header row
type CSVReader struct {
	EntityColumn string
	TimeColumn   string
	PriceColumn  string

	// TimeLayout is an explicit time.Parse layout; empty means the layout is detected per value
	TimeLayout string
	Location   *time.Location
	Comma      rune
}

// NewCSVReader creates a reader for the given column names
func NewCSVReader(entityColumn, timeColumn, priceColumn string) *CSVReader {
	return &CSVReader{
		EntityColumn: entityColumn,
		TimeColumn:   timeColumn,
		PriceColumn:  priceColumn,
		Location:     time.UTC,
		Comma:        ',',
	}
}

// Header returns the column names of the first row
func (r *CSVReader) Header(src io.Reader) ([]string, error) {
	header, err := r.newReader(src).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return trimAll(header), nil
}

// Read parses every data row. Row numbers in errors count the header as row 1.
func (r *CSVReader) Read(src io.Reader) ([]models.Tick, error) {
	reader := r.newReader(src)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header = trimAll(header)

	entityIdx, timeIdx, priceIdx, err := r.columnIndexes(header)
	if err != nil {
		return nil, err
	}

	var ticks []models.Tick
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}

		tick, err := r.parseRecord(record, entityIdx, timeIdx, priceIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		ticks = append(ticks, tick)
	}
	return ticks, nil
}

func (r *CSVReader) newReader(src io.Reader) *csv.Reader {
	reader := csv.NewReader(src)
	if r.Comma != 0 {
		reader.Comma = r.Comma
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func (r *CSVReader) columnIndexes(header []string) (int, int, int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	lookup := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("%w %q, available columns: %s",
				ErrMissingColumn, name, strings.Join(header, ", "))
		}
		return i, nil
	}

	entityIdx, err := lookup(r.EntityColumn)
	if err != nil {
		return 0, 0, 0, err
	}
	timeIdx, err := lookup(r.TimeColumn)
	if err != nil {
		return 0, 0, 0, err
	}
	priceIdx, err := lookup(r.PriceColumn)
	if err != nil {
		return 0, 0, 0, err
	}
	return entityIdx, timeIdx, priceIdx, nil
}

func (r *CSVReader) parseRecord(record []string, entityIdx, timeIdx, priceIdx int) (models.Tick, error) {
	field := func(i int, name string) (string, error) {
		if i >= len(record) {
			return "", fmt.Errorf("column %q is missing", name)
		}
		return strings.TrimSpace(record[i]), nil
	}

	entity, err := field(entityIdx, r.EntityColumn)
	if err != nil {
		return models.Tick{}, err
	}
	if entity == "" {
		return models.Tick{}, fmt.Errorf("column %q is empty", r.EntityColumn)
	}

	rawTime, err := field(timeIdx, r.TimeColumn)
	if err != nil {
		return models.Tick{}, err
	}
	ts, err := r.parseTime(rawTime)
	if err != nil {
		return models.Tick{}, fmt.Errorf("failed to parse time %q: %w", rawTime, err)
	}

	rawPrice, err := field(priceIdx, r.PriceColumn)
	if err != nil {
		return models.Tick{}, err
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return models.Tick{}, fmt.Errorf("failed to parse price %q: %w", rawPrice, err)
	}

	return models.Tick{Entity: entity, Timestamp: ts, Price: price}, nil
}

func (r *CSVReader) parseTime(value string) (time.Time, error) {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	if r.TimeLayout != "" {
		return time.ParseInLocation(r.TimeLayout, value, loc)
	}
	return dateparse.ParseIn(value, loc)
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
	}
	return out
}
