package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/internal/config"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/adapters"
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/pkg/models"
)

type importOptions struct {
	csv          csvOptions
	batchSize    int
	deleteBefore string
}

func NewImportCommand() *cobra.Command {
	opts := &importOptions{}

	command := &cobra.Command{
		Use:   "import",
		Short: "Load ticks from a CSV file into the configured tick store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	opts.csv.addFlags(command.Flags())
	command.Flags().IntVar(&opts.batchSize, "batch-size", 5000, "Ticks written per batch")
	command.Flags().StringVar(&opts.deleteBefore, "delete-before", "", "Delete stored ticks older than this time before importing")
	return command
}

func runImport(cmd *cobra.Command, opts *importOptions) error {
	if opts.batchSize < 1 {
		return fmt.Errorf("--batch-size must be >= 1, got %d", opts.batchSize)
	}
	cutoff, err := parseBound("delete-before", opts.deleteBefore)
	if err != nil {
		return err
	}

	ticks, err := opts.csv.readTicks()
	if err != nil {
		return err
	}

	repoCfg := config.LoadRepositoryConfig()
	logger := newLogger(repoCfg, cmd.ErrOrStderr())
	ctx := cmd.Context()

	adapter, err := adapters.InitializeAndConnect(ctx, repoCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer adapter.Disconnect(context.Background())

	if cutoff != nil {
		deleted, err := adapter.DeleteOlderThan(ctx, *cutoff)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"deleted": deleted, "before": *cutoff}).Info("Removed old ticks")
	}

	batches := 0
	for start := 0; start < len(ticks); start += opts.batchSize {
		end := start + opts.batchSize
		if end > len(ticks) {
			end = len(ticks)
		}
		if err := writeBatch(ctx, adapter, ticks[start:end]); err != nil {
			return fmt.Errorf("failed to import ticks %d-%d: %w", start, end-1, err)
		}
		batches++
	}

	// Cached windows may have been built from the previous store contents
	if repoCfg.CacheEnabled {
		if _, err := adapter.Invalidate(ctx); err != nil {
			logger.WithError(err).Warn("Failed to invalidate window cache")
		}
	}

	logger.WithFields(logrus.Fields{
		"file":       opts.csv.file,
		"ticks":      len(ticks),
		"batches":    batches,
		"tick_store": repoCfg.TickStore,
	}).Info("Import finished")

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d ticks in %d batches into %s\n", len(ticks), batches, repoCfg.TickStore)
	return err
}

// writeBatch writes one chunk, inside a transaction when the store supports one
func writeBatch(ctx context.Context, adapter *adapters.MarketDataAdapter, ticks []models.Tick) error {
	tx, err := adapter.BeginTransaction(ctx)
	if errors.Is(err, adapters.ErrTransactionsUnsupported) {
		return adapter.CreateBatch(ctx, ticks)
	}
	if err != nil {
		return err
	}

	if err := tx.Ticks().CreateBatch(ctx, ticks); err != nil {
		tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
