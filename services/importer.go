package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stamps-catalog/config"
	"stamps-catalog/models"
	"stamps-catalog/scraper"
	"stamps-catalog/storage"
	"stamps-catalog/utils"
)

// PageDownloader fetches the HTML of a listing page.
type PageDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// ParserFinder picks the site parser for a URL.
type ParserFinder interface {
	Find(url string) (*scraper.SiteParser, bool)
}

// Importer runs listing URLs through download, parsing, cleaning and
// extraction. Extracted info is returned, not persisted.
type Importer struct {
	logger      *utils.Logger
	downloader  PageDownloader
	parsers     ParserFinder
	cleaner     *Cleaner
	extractor   *Extractor
	audit       storage.ImportAuditWriter
	concurrency int
	rateLimitMs int
	now         func() time.Time
}

// NewImporter wires an Importer. audit may be nil to skip the CSV trail.
func NewImporter(
	cfg *config.Config,
	logger *utils.Logger,
	downloader PageDownloader,
	parsers ParserFinder,
	extractor *Extractor,
	audit storage.ImportAuditWriter,
) *Importer {
	return &Importer{
		logger:      logger,
		downloader:  downloader,
		parsers:     parsers,
		cleaner:     NewCleaner(logger),
		extractor:   extractor,
		audit:       audit,
		concurrency: cfg.ImportConcurrency,
		rateLimitMs: cfg.RateLimitMs,
		now:         time.Now,
	}
}

// Import processes every distinct URL once. Results follow the order in
// which URLs were first seen. A failing URL is reported in its result and
// does not stop the others.
func (im *Importer) Import(ctx context.Context, urls []string) []*models.ImportResult {
	seen := utils.NewURLSet()
	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if seen.Contains(u) {
			im.logger.Debug("[importer] Duplicate URL skipped: %s", u)
			continue
		}
		seen.Add(u)
		unique = append(unique, u)
	}

	im.logger.Info("[importer] Importing %d URLs (%d given) with %d workers",
		seen.Size(), len(urls), im.concurrency)

	results := make([]*models.ImportResult, len(unique))
	pool := utils.NewWorkerPool(im.concurrency, im.rateLimitMs)

	for i, u := range unique {
		results[i] = &models.ImportResult{RequestID: uuid.NewString(), URL: u}
		r := results[i]
		pool.Submit(ctx, func() {
			im.importOne(ctx, r)
		})
	}
	pool.Wait()

	for _, r := range results {
		if r.ImportedAt.IsZero() {
			// the pool skipped the job because ctx was cancelled
			r.Err = fmt.Sprintf("not started: %v", ctx.Err())
			r.ImportedAt = im.now()
		}
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	im.logger.Info("[importer] Done: %d imported, %d failed", len(results)-failed, failed)

	if im.audit != nil && len(results) > 0 {
		if err := im.audit.WriteImport(results); err != nil {
			im.logger.Error("[importer] Audit write failed: %v", err)
		}
	}

	return results
}

func (im *Importer) importOne(ctx context.Context, r *models.ImportResult) {
	defer func() { r.ImportedAt = im.now() }()

	parser, ok := im.parsers.Find(r.URL)
	if !ok {
		r.Err = "no parser matches url"
		im.logger.Warn("[importer] [%s] %s: %s", r.RequestID, r.URL, r.Err)
		return
	}
	r.ParserName = parser.Name()

	im.logger.Debug("[importer] [%s] Downloading %s with parser %s", r.RequestID, r.URL, r.ParserName)

	html, err := im.downloader.Download(ctx, r.URL)
	if err != nil {
		r.Err = err.Error()
		im.logger.Error("[importer] [%s] %s: %v", r.RequestID, r.URL, err)
		return
	}

	raw, ok := parser.Parse(r.URL, html)
	if !ok {
		r.Err = "page has no listing data"
		im.logger.Warn("[importer] [%s] %s: %s", r.RequestID, r.URL, r.Err)
		return
	}

	r.Raw = im.cleaner.Clean(raw)
	r.Info = im.extractor.Extract(ctx, r.Raw)

	im.logger.Info("[importer] [%s] %s: categories=%v countries=%v year=%s",
		r.RequestID, r.URL, r.Info.CategoryIDs, r.Info.CountryIDs, r.Info.ReleaseYear)
}
