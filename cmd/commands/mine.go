package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/internal/config"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/adapters"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/gsp"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/ingest"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/interfaces"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/report"
)

const (
	sourceCSV   = "csv"
	sourceStore = "store"

	outputText = "text"
	outputJSON = "json"
)

type mineOptions struct {
	csv csvOptions

	source   string
	entities []string
	from     string
	to       string

	minSup  float64
	minGap  int
	maxGap  int
	winSize int

	seqLen  int
	seqStep int
	timeBin int

	cache       bool
	showWindows int
	output      string
}

func NewMineCommand() *cobra.Command {
	opts := &mineOptions{}
	defaults := config.LoadMiningSettings()

	command := &cobra.Command{
		Use:   "mine",
		Short: "Mine frequent sequential patterns from price ticks",
		Example: `  gsp-miner mine --file prices.csv --min-sup 5 --max-gap 1 --seq-len 24
  gsp-miner mine --source store --entities AAPL,MSFT --from 2024-01-01 --cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applySettings(cmd, config.LoadMiningSettings())
			return runMine(cmd, opts)
		},
	}

	fs := command.Flags()
	opts.csv.addFlags(fs)
	fs.StringVar(&opts.source, "source", sourceCSV, "Tick source: csv or store")
	fs.StringSliceVar(&opts.entities, "entities", []string{}, "Only use these entities (--entities=A,B)")
	fs.StringVar(&opts.from, "from", "", "Ignore ticks before this time")
	fs.StringVar(&opts.to, "to", "", "Ignore ticks after this time")
	fs.Float64Var(&opts.minSup, "min-sup", defaults.MinSupPct, "Minimum support in percent of windows (MIN_SUP_PCT)")
	fs.IntVar(&opts.minGap, "min-gap", defaults.MinGap, "Minimum time-bin distance between consecutive itemsets (MIN_GAP)")
	fs.IntVar(&opts.maxGap, "max-gap", defaults.MaxGap, "Maximum time-bin distance between consecutive itemsets (MAX_GAP)")
	fs.IntVar(&opts.winSize, "win-size", defaults.WinSize, "Maximum span of a whole occurrence, negative for none (WIN_SIZE)")
	fs.IntVar(&opts.seqLen, "seq-len", defaults.SeqLen, "Window length in time bins (SEQ_LEN)")
	fs.IntVar(&opts.seqStep, "seq-step", defaults.SeqStep, "Window stride in time bins (SEQ_STEP)")
	fs.IntVar(&opts.timeBin, "time-bin", defaults.TimeBinSeconds, "Seconds per time bin (TIME_BIN_SECONDS)")
	fs.BoolVar(&opts.cache, "cache", false, "Reuse prepared windows from the Redis window cache")
	fs.IntVar(&opts.showWindows, "show-windows", 0, "Print this many windows before mining, negative for all")
	fs.StringVar(&opts.output, "output", outputText, "Result format: text or json")

	return command
}

// applySettings fills flags left unset on the command line from the environment,
// which may have changed after the command was built (dotenv files)
func (o *mineOptions) applySettings(cmd *cobra.Command, s config.MiningSettings) {
	changed := cmd.Flags().Changed
	if !changed("min-sup") {
		o.minSup = s.MinSupPct
	}
	if !changed("min-gap") {
		o.minGap = s.MinGap
	}
	if !changed("max-gap") {
		o.maxGap = s.MaxGap
	}
	if !changed("win-size") {
		o.winSize = s.WinSize
	}
	if !changed("seq-len") {
		o.seqLen = s.SeqLen
	}
	if !changed("seq-step") {
		o.seqStep = s.SeqStep
	}
	if !changed("time-bin") {
		o.timeBin = s.TimeBinSeconds
	}
}

// miningConfig validates every mining parameter before any data is loaded
func (o *mineOptions) miningConfig() (gsp.Config, ingest.Builder, error) {
	cfg := gsp.Config{
		MinSupPct: o.minSup,
		Constraints: gsp.Constraints{
			MinGap: o.minGap,
			MaxGap: o.maxGap,
		},
	}
	if o.winSize >= 0 {
		cfg.WinSize = gsp.WinSize(o.winSize)
	}
	if err := cfg.Validate(); err != nil {
		return gsp.Config{}, ingest.Builder{}, err
	}

	builder := ingest.Builder{SeqLen: o.seqLen, SeqStep: o.seqStep, TimeBinSeconds: o.timeBin}
	if err := builder.Validate(); err != nil {
		return gsp.Config{}, ingest.Builder{}, err
	}

	switch o.source {
	case sourceCSV, sourceStore:
	default:
		return gsp.Config{}, ingest.Builder{}, fmt.Errorf("unsupported source %q (expected %s or %s)", o.source, sourceCSV, sourceStore)
	}
	switch o.output {
	case outputText, outputJSON:
	default:
		return gsp.Config{}, ingest.Builder{}, fmt.Errorf("unsupported output %q (expected %s or %s)", o.output, outputText, outputJSON)
	}

	return cfg, builder, nil
}

func (o *mineOptions) tickQuery() (models.TickQuery, error) {
	from, err := parseBound("from", o.from)
	if err != nil {
		return models.TickQuery{}, err
	}
	to, err := parseBound("to", o.to)
	if err != nil {
		return models.TickQuery{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return models.TickQuery{}, fmt.Errorf("--to %s is before --from %s", o.to, o.from)
	}
	return models.TickQuery{Entities: o.entities, StartTime: from, EndTime: to}, nil
}

// sourceDescription identifies the input for cache fingerprints and the report
func (o *mineOptions) sourceDescription(repoCfg *config.RepositoryConfig) (string, error) {
	parts := []string{o.source}
	switch o.source {
	case sourceCSV:
		path, err := filepath.Abs(o.csv.file)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", o.csv.file, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		parts = append(parts, path, info.ModTime().UTC().String(),
			o.csv.entityCol, o.csv.timeCol, o.csv.priceCol, o.csv.timeLayout)
	case sourceStore:
		parts = append(parts, repoCfg.TickStore, repoCfg.SchemaName, repoCfg.RedisNamespace)
	}
	parts = append(parts, strings.Join(o.entities, ","), o.from, o.to)
	return strings.Join(parts, "|"), nil
}

func (o *mineOptions) sourceLabel(repoCfg *config.RepositoryConfig) string {
	if o.source == sourceStore {
		return sourceStore + " (" + repoCfg.TickStore + ")"
	}
	return o.csv.file
}

func runMine(cmd *cobra.Command, opts *mineOptions) error {
	gspConfig, builder, err := opts.miningConfig()
	if err != nil {
		return err
	}
	query, err := opts.tickQuery()
	if err != nil {
		return err
	}
	if opts.source == sourceCSV && opts.csv.file == "" {
		return fmt.Errorf("--file is required for the csv source")
	}

	repoCfg := config.LoadRepositoryConfig()
	logger := newLogger(repoCfg, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	adapter, err := openAdapter(ctx, opts, repoCfg, logger)
	if err != nil {
		return err
	}
	if adapter != nil {
		defer adapter.Disconnect(context.Background())
	}

	source, err := opts.sourceDescription(repoCfg)
	if err != nil {
		return err
	}

	db, err := loadWindows(ctx, opts, adapter, query, builder, source, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.output == outputText {
		if err := report.WriteParams(out, report.Params{Source: opts.sourceLabel(repoCfg), Config: gspConfig, Builder: builder, Windows: db.Size()}); err != nil {
			return err
		}
		if opts.showWindows != 0 {
			limit := opts.showWindows
			if limit < 0 {
				limit = 0
			}
			if err := report.WriteWindows(out, db, limit); err != nil {
				return err
			}
		}
	}

	miner, err := gsp.NewMiner(gspConfig, logger)
	if err != nil {
		return err
	}
	result, mineErr := miner.Mine(ctx, db)
	if result != nil {
		var writeErr error
		if opts.output == outputJSON {
			writeErr = report.WriteJSON(out, result)
		} else {
			writeErr = report.WriteResult(out, result)
		}
		if writeErr != nil {
			return writeErr
		}
	}
	if mineErr != nil {
		return fmt.Errorf("mining stopped: %w", mineErr)
	}
	return nil
}

// openAdapter connects to storage when the source or the cache needs it
func openAdapter(ctx context.Context, opts *mineOptions, repoCfg *config.RepositoryConfig, logger *logrus.Logger) (*adapters.MarketDataAdapter, error) {
	cfg := *repoCfg
	cfg.CacheEnabled = opts.cache && repoCfg.CacheEnabled

	switch {
	case opts.source == sourceStore:
	case cfg.CacheEnabled:
		// Only the window cache is needed for file input
		cfg.TickStore = config.TickStoreRedis
	default:
		return nil, nil
	}

	adapter, err := adapters.InitializeAndConnect(ctx, &cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return adapter, nil
}

// loadWindows returns the window database, from the cache when possible
func loadWindows(ctx context.Context, opts *mineOptions, adapter *adapters.MarketDataAdapter, query models.TickQuery,
	builder ingest.Builder, source string, logger *logrus.Logger) (models.Database, error) {

	useCache := adapter != nil && opts.cache
	key := ingest.Fingerprint(source, builder)
	log := logger.WithFields(logrus.Fields{"source": opts.source, "cache_key": key[:12]})

	if useCache {
		db, err := adapter.Get(ctx, key)
		switch {
		case err == nil:
			log.WithField("windows", db.Size()).Info("Loaded windows from cache")
			return db, nil
		case errors.Is(err, interfaces.ErrCacheMiss):
			log.Debug("Window cache miss")
		default:
			log.WithError(err).Warn("Window cache unavailable, rebuilding windows")
		}
	}

	var ticks []models.Tick
	var err error
	if opts.source == sourceStore {
		ticks, err = adapter.Query(ctx, query)
	} else {
		ticks, err = opts.csv.readTicks()
		ticks = filterTicks(ticks, query)
	}
	if err != nil {
		return nil, err
	}

	db, err := builder.Build(ticks)
	if err != nil {
		return nil, fmt.Errorf("failed to build windows: %w", err)
	}
	log.WithFields(logrus.Fields{"ticks": len(ticks), "windows": db.Size()}).Info("Built windows")

	if useCache && db.Size() > 0 {
		if err := adapter.Set(ctx, key, db, 0); err != nil {
			log.WithError(err).Warn("Failed to cache windows")
		}
	}
	return db, nil
}
