package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"stamps-catalog/config"
	"stamps-catalog/models"
	"stamps-catalog/scraper"
	"stamps-catalog/services"
	"stamps-catalog/storage"
)

var importCmd = &cobra.Command{
	Use:   "import URL...",
	Short: "Download listings and extract series info from them",
	Long: `Download each listing page with a headless browser, parse it with the
site parser whose URL matches, and extract series info. Every outcome is
appended to the CSV audit file (CSV_OUTPUT_PATH).

With --save, every listing whose extracted info passes validation is added
to the catalog as a new series on behalf of --user.

Examples:
  stamps import https://meshok.net/item/123 https://meshok.net/item/456
  stamps import --no-audit https://colnect.com/en/stamps/stamp/9906-Tiger
  stamps import --save --user 7 https://meshok.net/item/123`,
	Args: requireURLs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("no-audit", false, "do not write the CSV audit file")
	importCmd.Flags().Bool("save", false, "add imported series to the catalog")
	importCmd.Flags().Int("user", 1, "id of the user the saved series are created by")
}

var errNoURLs = errors.New("no URLs given")

// requireURLs rejects an argument list made only of blanks.
func requireURLs(_ *cobra.Command, args []string) error {
	for _, a := range args {
		if strings.TrimSpace(a) != "" {
			return nil
		}
	}
	return errNoURLs
}

func runImport(cmd *cobra.Command, urls []string) error {
	ctx := cmd.Context()
	noAudit, _ := cmd.Flags().GetBool("no-audit")
	save, _ := cmd.Flags().GetBool("save")
	userID, _ := cmd.Flags().GetInt("user")

	parsers, err := config.LoadParsers(cfg.ParsersPath)
	if err != nil {
		return err
	}

	c, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	extractor, err := newExtractor(c)
	if err != nil {
		return err
	}

	var audit storage.ImportAuditWriter
	if !noAudit {
		w, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			return err
		}
		defer w.Close()
		audit = w
	}

	downloader := scraper.NewDownloader(cfg, logger)
	defer downloader.Close()

	importer := services.NewImporter(cfg, logger, downloader, scraper.NewRegistry(parsers), extractor, audit)
	results := importer.Import(ctx, urls)

	failed := printImportResults(cmd.OutOrStdout(), results)

	if save {
		repo, err := storage.NewSeriesRepository(c.db, c.queries)
		if err != nil {
			return err
		}
		saveImported(cmd, services.NewSeriesService(logger, repo, cfg.MaxStampsInSeries), results, userID)
	}

	if !noAudit {
		logger.Info("[cli] Audit trail written to %s", cfg.CSVOutputPath)
	}
	return importOutcome(results, failed)
}

func importOutcome(results []*models.ImportResult, failed int) error {
	switch {
	case len(results) == 0:
		return errNoURLs
	case failed == len(results):
		return fmt.Errorf("all %d imports failed", failed)
	}
	return nil
}

// printImportResults prints one line per URL and returns the number of
// failures.
func printImportResults(w io.Writer, results []*models.ImportResult) int {
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
			fmt.Fprintf(w, "  \033[31m✗\033[0m %s: %s\n", r.URL, r.Err)
			continue
		}
		fmt.Fprintf(w, "  \033[32m✓\033[0m %s [%s] categories: %s, countries: %s, year: %s, quantity: %s\n",
			r.URL, r.ParserName, joinIDs(r.Info.CategoryIDs), joinIDs(r.Info.CountryIDs),
			r.Info.ReleaseYear, r.Info.Quantity)
	}
	fmt.Fprintf(w, "\n  %d imported, %d failed\n", len(results)-failed, failed)
	return failed
}

// saveImported creates a series for every successful import. A rejected
// or failed series is reported and the rest are still saved.
func saveImported(cmd *cobra.Command, svc *services.SeriesService, results []*models.ImportResult, userID int) {
	w := cmd.OutOrStdout()
	for _, r := range results {
		if r.Failed() {
			continue
		}
		id, err := svc.Add(cmd.Context(), services.RequestFromExtracted(r.Info), userID)
		if err != nil {
			fmt.Fprintf(w, "  not saved %s: %v\n", r.URL, err)
			continue
		}
		fmt.Fprintf(w, "  saved %s as series #%d\n", r.URL, id)
	}
}
