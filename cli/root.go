// Package cli contains the stamps command line commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"stamps-catalog/config"
	"stamps-catalog/storage"
	"stamps-catalog/utils"
)

var (
	logLevel string
	cfg      *config.Config
	logger   *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stamps",
	Short: "Stamp catalog tools",
	Long: `stamps extracts structured series data from stamp listings and
reports on the series catalog stored in PostgreSQL.

Example usage:
  stamps extract --country "Гвинея" --year "1977г" --quantity "6 марок"
  stamps import https://colnect.com/en/stamps/stamp/9906-Tiger
  stamps stats --days 30 --lang ru`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from LOG_LEVEL)")
}

func initConfig(cmd *cobra.Command) error {
	cfg = config.Load()

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}

	logger = utils.NewLogger()
	logger.SetLevel(utils.ParseLevel(level))
	logger.SetOutput(cmd.ErrOrStderr())

	logger.Debug("[cli] Config: concurrency: %d | rate: %dms | retries: %d",
		cfg.ImportConcurrency, cfg.RateLimitMs, cfg.MaxRetries)
	return nil
}

// catalog bundles the database handle and the statements every command
// needs.
type catalog struct {
	db      *sqlx.DB
	queries *config.Queries
}

func openCatalog(ctx context.Context) (*catalog, error) {
	queries, err := config.LoadQueries(cfg.QueriesPath)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}

	return &catalog{db: db, queries: queries}, nil
}

func (c *catalog) Close() {
	if err := c.db.Close(); err != nil {
		logger.Warn("[cli] Closing database: %v", err)
	}
}
