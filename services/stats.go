package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"stamps-catalog/models"
	"stamps-catalog/utils"
)

const lastAddedLimit = 5

// SeriesCounter is the read side of the series repository used for
// catalog statistics.
type SeriesCounter interface {
	CountAll(ctx context.Context) (int64, error)
	CountAllStamps(ctx context.Context) (int64, error)
	CountAddedSince(ctx context.Context, date time.Time) (int64, error)
	CountUpdatedSince(ctx context.Context, date time.Time) (int64, error)
	FindLastAdded(ctx context.Context, quantity int, lang string) ([]models.SeriesLink, error)
}

type StatsService struct {
	logger *utils.Logger
	series SeriesCounter
}

func NewStatsService(logger *utils.Logger, series SeriesCounter) *StatsService {
	return &StatsService{logger: logger, series: series}
}

// Generate collects catalog totals and activity since the given time.
func (s *StatsService) Generate(ctx context.Context, since time.Time, lang string) (*models.CatalogStats, error) {
	report := &models.CatalogStats{Since: since}

	counts := []struct {
		name string
		dst  *int64
		fn   func(context.Context) (int64, error)
	}{
		{"total series", &report.TotalSeries, s.series.CountAll},
		{"total stamps", &report.TotalStamps, s.series.CountAllStamps},
		{"added series", &report.AddedSince, func(ctx context.Context) (int64, error) {
			return s.series.CountAddedSince(ctx, since)
		}},
		{"updated series", &report.UpdatedSince, func(ctx context.Context) (int64, error) {
			return s.series.CountUpdatedSince(ctx, since)
		}},
	}

	for _, c := range counts {
		n, err := c.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("stats: %s: %w", c.name, err)
		}
		*c.dst = n
	}

	last, err := s.series.FindLastAdded(ctx, lastAddedLimit, lang)
	if err != nil {
		return nil, fmt.Errorf("stats: last added: %w", err)
	}
	report.LastAdded = last

	s.logger.Debug("[stats] %d series, %d stamps, %d added and %d updated since %s",
		report.TotalSeries, report.TotalStamps, report.AddedSince, report.UpdatedSince,
		since.Format(time.DateOnly))
	return report, nil
}

func (s *StatsService) Print(w io.Writer, r *models.CatalogStats) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 STAMP CATALOG STATISTICS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Series in catalog : \033[1m%d\033[0m\n", r.TotalSeries)
	fmt.Fprintf(w, "  Stamps in catalog : \033[1m%d\033[0m\n", r.TotalStamps)
	fmt.Fprintln(w)

	// Activity
	fmt.Fprintf(w, "\033[1;33m  Activity since %s\033[0m\n", r.Since.Format(time.DateOnly))
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Added   : \033[1;32m%d\033[0m\n", r.AddedSince)
	fmt.Fprintf(w, "  Updated : \033[1;32m%d\033[0m\n", r.UpdatedSince)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Last %d Added Series\033[0m\n", lastAddedLimit)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.LastAdded) == 0 {
		fmt.Fprintf(w, "  No series yet\n")
	} else {
		for i, l := range r.LastAdded {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m #%-6d %-40s\n", i+1, l.ID, truncate(seriesTitle(l), 40))
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// seriesTitle renders a series the way catalog links do:
// "Country, 1977, 6 stamps, Category".
func seriesTitle(l models.SeriesLink) string {
	parts := make([]string, 0, 4)
	if l.CountryName != nil {
		parts = append(parts, *l.CountryName)
	}
	if l.ReleaseYear != nil {
		parts = append(parts, fmt.Sprint(*l.ReleaseYear))
	}

	stamps := fmt.Sprintf("%d stamps", l.Quantity)
	if l.Quantity == 1 {
		stamps = "1 stamp"
	}
	if !l.Perforated {
		stamps += " (imperf.)"
	}
	parts = append(parts, stamps, l.CategoryName)

	return strings.Join(parts, ", ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
