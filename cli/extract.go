package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"stamps-catalog/models"
	"stamps-catalog/services"
	"stamps-catalog/storage"
)

var raw models.RawParsedData

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract series info from raw listing fragments",
	Long: `Run the extractor over text fragments as a site parser would have
produced them. Category, country and seller names are resolved against
the catalog database.

Examples:
  stamps extract --category "Фауна" --country "Гвинея-Бисау"
  stamps extract --perforated "6 беззубцовые марок" --michel "#1083-1088"`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	f := extractCmd.Flags()
	f.StringVar(&raw.CategoryName, "category", "", "category fragment")
	f.StringVar(&raw.CountryName, "country", "", "country fragment")
	f.StringVar(&raw.ReleaseYear, "year", "", "release year fragment")
	f.StringVar(&raw.Quantity, "quantity", "", "quantity fragment")
	f.StringVar(&raw.Perforated, "perforated", "", "perforation fragment")
	f.StringVar(&raw.MichelNumbers, "michel", "", "michel numbers fragment")
	f.StringVar(&raw.SellerName, "seller-name", "", "seller name")
	f.StringVar(&raw.SellerURL, "seller-url", "", "seller URL")
	f.StringVar(&raw.Price, "price", "", "price")
	f.StringVar(&raw.Currency, "currency", "", "currency code")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	extractor, err := newExtractor(c)
	if err != nil {
		return err
	}

	info := extractor.Extract(ctx, raw)
	printExtracted(cmd.OutOrStdout(), info)
	return nil
}

func newExtractor(c *catalog) (*services.Extractor, error) {
	categories, err := storage.NewCategoryRepository(c.db, c.queries)
	if err != nil {
		return nil, err
	}
	countries, err := storage.NewCountryRepository(c.db, c.queries)
	if err != nil {
		return nil, err
	}
	sellers, err := storage.NewParticipantRepository(c.db, c.queries)
	if err != nil {
		return nil, err
	}
	return services.NewExtractor(logger, categories, countries, sellers), nil
}

func printExtracted(w io.Writer, info models.ExtractedInfo) {
	fmt.Fprintf(w, "  Categories     : %s\n", joinIDs(info.CategoryIDs))
	fmt.Fprintf(w, "  Countries      : %s\n", joinIDs(info.CountryIDs))
	fmt.Fprintf(w, "  Release year   : %s\n", info.ReleaseYear)
	fmt.Fprintf(w, "  Quantity       : %s\n", info.Quantity)
	fmt.Fprintf(w, "  Perforated     : %s\n", info.Perforated)
	fmt.Fprintf(w, "  Michel numbers : %s\n", joinOrNone(info.MichelNumbers))
	fmt.Fprintf(w, "  Seller         : %s\n", info.SellerID)
	fmt.Fprintf(w, "  Seller name    : %s\n", info.SellerName)
	fmt.Fprintf(w, "  Seller URL     : %s\n", info.SellerURL)
	fmt.Fprintf(w, "  Price          : %s\n", formatPrice(info.Price))
	fmt.Fprintf(w, "  Currency       : %s\n", info.Currency)
}

// formatPrice keeps the scale the price was given with, so 12.50 stays
// 12.50.
func formatPrice(price models.Optional[decimal.Decimal]) string {
	p, ok := price.Get()
	if !ok {
		return "<none>"
	}
	if p.Exponent() < 0 {
		return p.StringFixed(-p.Exponent())
	}
	return p.String()
}

func joinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return joinOrNone(parts)
}

func joinOrNone(parts []string) string {
	if len(parts) == 0 {
		return "<none>"
	}
	return strings.Join(parts, ", ")
}
