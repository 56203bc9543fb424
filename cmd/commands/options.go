package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/pflag"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/ingest"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

// csvOptions are the flags shared by commands that read tick files
type csvOptions struct {
	file       string
	entityCol  string
	timeCol    string
	priceCol   string
	timeLayout string
	delimiter  string
}

func (o *csvOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.file, "file", "", "CSV file with a header row")
	fs.StringVar(&o.entityCol, "entity-col", "company", "Column holding the entity (ticker) name")
	fs.StringVar(&o.timeCol, "time-col", "timestamp", "Column holding the observation time")
	fs.StringVar(&o.priceCol, "price-col", "price", "Column holding the price")
	fs.StringVar(&o.timeLayout, "time-layout", "", "Go time layout of the time column (detected when empty)")
	fs.StringVar(&o.delimiter, "delimiter", ",", "Field delimiter")
}

func (o *csvOptions) reader() (*ingest.CSVReader, error) {
	delimiter := []rune(o.delimiter)
	if len(delimiter) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", o.delimiter)
	}

	reader := ingest.NewCSVReader(o.entityCol, o.timeCol, o.priceCol)
	reader.TimeLayout = o.timeLayout
	reader.Comma = delimiter[0]
	return reader, nil
}

// readTicks loads every tick from the configured file
func (o *csvOptions) readTicks() ([]models.Tick, error) {
	if o.file == "" {
		return nil, fmt.Errorf("--file is required")
	}

	reader, err := o.reader()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(o.file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", o.file, err)
	}
	defer f.Close()

	ticks, err := reader.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", o.file, err)
	}
	return ticks, nil
}

// parseBound parses an optional --from/--to value
func parseBound(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return &t, nil
}

// filterTicks applies an entity and time range filter in memory
func filterTicks(ticks []models.Tick, query models.TickQuery) []models.Tick {
	var entities map[string]struct{}
	if len(query.Entities) > 0 {
		entities = make(map[string]struct{}, len(query.Entities))
		for _, e := range query.Entities {
			entities[e] = struct{}{}
		}
	}

	out := make([]models.Tick, 0, len(ticks))
	for _, tick := range ticks {
		if entities != nil {
			if _, ok := entities[tick.Entity]; !ok {
				continue
			}
		}
		if query.StartTime != nil && tick.Timestamp.Before(*query.StartTime) {
			continue
		}
		if query.EndTime != nil && tick.Timestamp.After(*query.EndTime) {
			continue
		}
		out = append(out, tick)
	}
	return out
}
