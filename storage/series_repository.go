package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"stamps-catalog/config"
	"stamps-catalog/models"
)

// ErrUnexpectedRowCount means a write touched a different number of rows
// than its statement is meant to. The statement and the expected
// cardinality have diverged; callers must not retry.
var ErrUnexpectedRowCount = errors.New("unexpected number of affected rows")

// Statement names read from config.Queries.
const (
	qSeriesCreate             = "series.create"
	qSeriesMarkAsModified     = "series.mark_as_modified"
	qSeriesFindAllForSitemap  = "series.find_all_for_sitemap"
	qSeriesFindLastAdded      = "series.find_last_added"
	qSeriesFindFullInfoByID   = "series.find_full_info_by_id"
	qSeriesFindByIDs          = "series.find_by_ids"
	qSeriesFindByCategorySlug = "series.find_by_category_slug"
	qSeriesFindByCountrySlug  = "series.find_by_country_slug"
	qSeriesFindPurchasesSales = "series.find_purchases_and_sales_by_series_id"
	qSeriesCountAll           = "series.count_all_series"
	qSeriesCountAllStamps     = "series.count_all_stamps"
	qSeriesCountByID          = "series.count_series_by_id"
	qSeriesCountAddedSince    = "series.count_series_added_since"
	qSeriesCountUpdatedSince  = "series.count_series_updated_since"
	qSeriesFindQuantityByID   = "series.find_quantity_by_id"
)

// SeriesStatements lists every statement SeriesRepository needs.
var SeriesStatements = []string{
	qSeriesCreate,
	qSeriesMarkAsModified,
	qSeriesFindAllForSitemap,
	qSeriesFindLastAdded,
	qSeriesFindFullInfoByID,
	qSeriesFindByIDs,
	qSeriesFindByCategorySlug,
	qSeriesFindByCountrySlug,
	qSeriesFindPurchasesSales,
	qSeriesCountAll,
	qSeriesCountAllStamps,
	qSeriesCountByID,
	qSeriesCountAddedSince,
	qSeriesCountUpdatedSince,
	qSeriesFindQuantityByID,
}

// SeriesRepository maps series operations onto configured SQL statements.
// It owns no SQL text and opens no transactions.
type SeriesRepository struct {
	db      *sqlx.DB
	queries *config.Queries
}

// NewSeriesRepository checks that every statement is configured.
func NewSeriesRepository(db *sqlx.DB, queries *config.Queries) (*SeriesRepository, error) {
	if err := queries.MustHave(SeriesStatements...); err != nil {
		return nil, fmt.Errorf("series repository: %w", err)
	}
	return &SeriesRepository{db: db, queries: queries}, nil
}

func (r *SeriesRepository) bind(name string, arg any) (string, []any, error) {
	stmt, err := r.queries.Get(name)
	if err != nil {
		return "", nil, err
	}
	q, args, err := namedQuery(r.db, stmt, arg)
	if err != nil {
		return "", nil, fmt.Errorf("bind %s: %w", name, err)
	}
	return q, args, nil
}

// Add inserts a series and returns its generated id.
func (r *SeriesRepository) Add(ctx context.Context, series models.AddSeriesDbDto) (int, error) {
	q, args, err := r.bind(qSeriesCreate, series)
	if err != nil {
		return 0, fmt.Errorf("series: create: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("series: create: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("series: create: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("series: create: %w", err)
	}

	if len(ids) != 1 {
		return 0, fmt.Errorf("series: create: %w: %d", ErrUnexpectedRowCount, len(ids))
	}
	return ids[0], nil
}

// MarkAsModified stamps the update metadata of a series.
func (r *SeriesRepository) MarkAsModified(ctx context.Context, seriesID int, updatedAt time.Time, updatedBy int) error {
	q, args, err := r.bind(qSeriesMarkAsModified, map[string]any{
		"series_id":  seriesID,
		"updated_at": updatedAt,
		"updated_by": updatedBy,
	})
	if err != nil {
		return fmt.Errorf("series: mark as modified: %w", err)
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("series: mark as modified: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("series: mark as modified: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("series: mark as modified: %w: %d", ErrUnexpectedRowCount, affected)
	}
	return nil
}

func (r *SeriesRepository) FindAllForSitemap(ctx context.Context) ([]models.SitemapInfo, error) {
	result := []models.SitemapInfo{}
	if err := r.selectAll(ctx, &result, qSeriesFindAllForSitemap, map[string]any{}); err != nil {
		return nil, err
	}
	return result, nil
}

// FindLastAdded returns up to quantity most recently added series.
func (r *SeriesRepository) FindLastAdded(ctx context.Context, quantity int, lang string) ([]models.SeriesLink, error) {
	result := []models.SeriesLink{}
	err := r.selectAll(ctx, &result, qSeriesFindLastAdded, map[string]any{
		"quantity": quantity,
		"lang":     lang,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FindByIDAsSeriesFullInfo returns an absent value when no series has the id.
func (r *SeriesRepository) FindByIDAsSeriesFullInfo(ctx context.Context, seriesID int, lang string) (models.Optional[models.SeriesFullInfo], error) {
	var info models.SeriesFullInfo
	found, err := r.getOne(ctx, &info, qSeriesFindFullInfoByID, map[string]any{
		"series_id": seriesID,
		"lang":      lang,
	})
	if err != nil || !found {
		return models.None[models.SeriesFullInfo](), err
	}
	return models.Some(info), nil
}

func (r *SeriesRepository) FindByIDsAsSeriesInfo(ctx context.Context, seriesIDs []int, lang string) ([]models.SeriesInfo, error) {
	ids := make([]int64, 0, len(seriesIDs))
	for _, id := range seriesIDs {
		ids = append(ids, int64(id))
	}

	result := []models.SeriesInfo{}
	err := r.selectAll(ctx, &result, qSeriesFindByIDs, map[string]any{
		"series_ids": pq.Array(ids),
		"lang":       lang,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SeriesRepository) FindByCategorySlugAsSeriesInfo(ctx context.Context, slug, lang string) ([]models.SeriesInfo, error) {
	return r.findBySlug(ctx, qSeriesFindByCategorySlug, slug, lang)
}

func (r *SeriesRepository) FindByCountrySlugAsSeriesInfo(ctx context.Context, slug, lang string) ([]models.SeriesInfo, error) {
	return r.findBySlug(ctx, qSeriesFindByCountrySlug, slug, lang)
}

func (r *SeriesRepository) findBySlug(ctx context.Context, name, slug, lang string) ([]models.SeriesInfo, error) {
	result := []models.SeriesInfo{}
	err := r.selectAll(ctx, &result, name, map[string]any{
		"slug": slug,
		"lang": lang,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SeriesRepository) FindPurchasesAndSales(ctx context.Context, seriesID int) ([]models.PurchaseAndSale, error) {
	result := []models.PurchaseAndSale{}
	err := r.selectAll(ctx, &result, qSeriesFindPurchasesSales, map[string]any{"series_id": seriesID})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SeriesRepository) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, qSeriesCountAll, map[string]any{})
}

func (r *SeriesRepository) CountAllStamps(ctx context.Context) (int64, error) {
	return r.count(ctx, qSeriesCountAllStamps, map[string]any{})
}

func (r *SeriesRepository) CountSeriesByID(ctx context.Context, seriesID int) (int64, error) {
	return r.count(ctx, qSeriesCountByID, map[string]any{"series_id": seriesID})
}

func (r *SeriesRepository) CountAddedSince(ctx context.Context, date time.Time) (int64, error) {
	return r.count(ctx, qSeriesCountAddedSince, map[string]any{"date": date})
}

func (r *SeriesRepository) CountUpdatedSince(ctx context.Context, date time.Time) (int64, error) {
	return r.count(ctx, qSeriesCountUpdatedSince, map[string]any{"date": date})
}

// FindQuantityByID returns an absent value when no series has the id.
func (r *SeriesRepository) FindQuantityByID(ctx context.Context, seriesID int) (models.Optional[int], error) {
	var quantity int
	found, err := r.getOne(ctx, &quantity, qSeriesFindQuantityByID, map[string]any{"series_id": seriesID})
	if err != nil || !found {
		return models.None[int](), err
	}
	return models.Some(quantity), nil
}

func (r *SeriesRepository) selectAll(ctx context.Context, dest any, name string, arg any) error {
	q, args, err := r.bind(name, arg)
	if err != nil {
		return fmt.Errorf("series: %w", err)
	}
	if err := r.db.SelectContext(ctx, dest, q, args...); err != nil {
		return fmt.Errorf("series: %s: %w", name, err)
	}
	return nil
}

func (r *SeriesRepository) getOne(ctx context.Context, dest any, name string, arg any) (bool, error) {
	q, args, err := r.bind(name, arg)
	if err != nil {
		return false, fmt.Errorf("series: %w", err)
	}
	err = r.db.GetContext(ctx, dest, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("series: %s: %w", name, err)
	}
	return true, nil
}

func (r *SeriesRepository) count(ctx context.Context, name string, arg any) (int64, error) {
	var n int64
	if _, err := r.getOne(ctx, &n, name, arg); err != nil {
		return 0, err
	}
	return n, nil
}
