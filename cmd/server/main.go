package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mealtrack/backend/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

// cli carries state shared by every subcommand
type cli struct {
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "mealtrack",
		Short: "MealTrack - meal logging and nutrition tracking backend",
		Long: `MealTrack turns free-text meal descriptions ("2 rotis and dal") into
calorie and protein totals, and keeps a per-user meal log.

Configuration comes from config.yaml, MEALTRACK_* environment variables and
an optional .env file.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(c.serveCmd(), c.parseCmd(), c.foodsCmd())
	return root
}

// init loads configuration and builds the logger
func (c *cli) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg

	logger, err := newLogger(cfg.Log, c.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	return nil
}

func newLogger(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
