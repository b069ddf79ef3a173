package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stamps-catalog/services"
	"stamps-catalog/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog totals and recent activity",
	Long: `Count series and stamps in the catalog, how many series were added or
updated during the last days, and list the most recently added series.

Examples:
  stamps stats
  stamps stats --days 30 --lang ru`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int("days", 7, "size of the activity window in days")
	statsCmd.Flags().String("lang", "en", "language of category and country names (en or ru)")
}

func runStats(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	lang, _ := cmd.Flags().GetString("lang")

	if days < 1 {
		return fmt.Errorf("--days must be positive, got %d", days)
	}
	if lang != "en" && lang != "ru" {
		return fmt.Errorf("--lang must be en or ru, got %q", lang)
	}

	ctx := cmd.Context()
	c, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	series, err := storage.NewSeriesRepository(c.db, c.queries)
	if err != nil {
		return err
	}

	svc := services.NewStatsService(logger, series)
	since := time.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	report, err := svc.Generate(ctx, since, lang)
	if err != nil {
		return err
	}
	svc.Print(cmd.OutOrStdout(), report)
	return nil
}
