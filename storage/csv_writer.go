package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"stamps-catalog/models"
)

var auditHeader = []string{
	"request_id", "url", "parser",
	"raw_category", "raw_country", "raw_image_url", "raw_release_year", "raw_quantity",
	"raw_perforated", "raw_michel_numbers", "raw_seller_name", "raw_seller_url", "raw_price", "raw_currency",
	"category_ids", "country_ids", "release_year", "quantity", "perforated", "michel_numbers",
	"seller_id", "seller_name", "seller_url", "price", "currency",
	"error", "imported_at",
}

// CSVWriter appends import results to a CSV audit file so that the raw
// fragments can be compared with what was extracted from them.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write(auditHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteImport writes one row per result.
func (c *CSVWriter) WriteImport(results []*models.ImportResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range results {
		if err := c.writer.Write(auditRow(r)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	return c.file.Close()
}

func auditRow(r *models.ImportResult) []string {
	raw, info := r.Raw, r.Info
	return []string{
		r.RequestID,
		r.URL,
		r.ParserName,
		raw.CategoryName,
		raw.CountryName,
		raw.ImageURL,
		raw.ReleaseYear,
		raw.Quantity,
		raw.Perforated,
		raw.MichelNumbers,
		raw.SellerName,
		raw.SellerURL,
		raw.Price,
		raw.Currency,
		joinInts(info.CategoryIDs),
		joinInts(info.CountryIDs),
		optionalCell(info.ReleaseYear),
		optionalCell(info.Quantity),
		optionalCell(info.Perforated),
		strings.Join(info.MichelNumbers, " "),
		optionalCell(info.SellerID),
		optionalCell(info.SellerName),
		optionalCell(info.SellerURL),
		optionalCell(info.Price),
		optionalCell(info.Currency),
		r.Err,
		r.ImportedAt.Format(time.RFC3339),
	}
}

func optionalCell[T any](o models.Optional[T]) string {
	if !o.IsPresent() {
		return ""
	}
	return o.String()
}

func joinInts(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, " ")
}
