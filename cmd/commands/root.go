package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/internal/config"
)

var (
	logLevel string
	envFiles []string
)

var rootCmd = &cobra.Command{
	Use:   "gsp-miner",
	Short: "Mine frequent sequential patterns from discretized price movements",
	Long: `gsp-miner turns price ticks into movement items (ENTITY_1, ENTITY_0, ENTITY_-1),
slices them into overlapping time windows and mines sequential patterns that
occur in at least the requested share of windows.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFiles...); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL), e.g. debug")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{}, "Dotenv files to load before reading the environment (default .env)")

	rootCmd.AddCommand(NewMineCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewVersionCommand())
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger: text output in development, JSON elsewhere
func newLogger(cfg *config.RepositoryConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if cfg.IsDevelopment() {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger.WithFields(logrus.Fields{
		"service":     cfg.ServiceName,
		"instance":    cfg.ServiceInstanceName,
		"environment": cfg.Environment,
	}).Debug("Logger configured")

	return logger
}
