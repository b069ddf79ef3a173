package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stamps-catalog/config"
	"stamps-catalog/models"
)

// testStatements are single-line versions of the bundled statements so the
// rebound SQL can be matched exactly.
var testStatements = map[string]string{
	"series.create":                                "INSERT INTO series (category_id, quantity, created_by) VALUES (:category_id, :quantity, :created_by) RETURNING id",
	"series.mark_as_modified":                      "UPDATE series SET updated_at = :updated_at, updated_by = :updated_by WHERE id = :series_id",
	"series.find_all_for_sitemap":                  "SELECT id, updated_at FROM series",
	"series.find_last_added":                       "SELECT id, category_name FROM v WHERE lang = :lang LIMIT :quantity",
	"series.find_full_info_by_id":                  "SELECT * FROM v WHERE id = :series_id AND lang = :lang",
	"series.find_by_ids":                           "SELECT * FROM v WHERE id = ANY(:series_ids) AND lang = :lang",
	"series.find_by_category_slug":                 "SELECT * FROM v WHERE category_slug = :slug AND lang = :lang",
	"series.find_by_country_slug":                  "SELECT * FROM v WHERE country_slug = :slug AND lang = :lang",
	"series.find_purchases_and_sales_by_series_id": "SELECT * FROM series_sales WHERE series_id = :series_id",
	"series.count_all_series":                      "SELECT COUNT(*) FROM series",
	"series.count_all_stamps":                      "SELECT COALESCE(SUM(quantity), 0) FROM series",
	"series.count_series_by_id":                    "SELECT COUNT(*) FROM series WHERE id = :series_id",
	"series.count_series_added_since":              "SELECT COUNT(*) FROM series WHERE created_at >= :date",
	"series.count_series_updated_since":            "SELECT COUNT(*) FROM series WHERE updated_at >= :date",
	"series.find_quantity_by_id":                   "SELECT quantity FROM series WHERE id = :series_id",
	"category.find_ids_by_names":                   "SELECT id FROM categories WHERE LOWER(name) = ANY(:names)",
	"category.find_ids_when_name_starts_with":      "SELECT id FROM categories WHERE LOWER(name) LIKE :name",
	"country.find_ids_by_names":                    "SELECT id FROM countries WHERE LOWER(name) = ANY(:names)",
	"country.find_ids_when_name_starts_with":       "SELECT id FROM countries WHERE LOWER(name) LIKE :name",
	"participant.find_seller_id":                   "SELECT id FROM transaction_participants WHERE name = :name AND url = :url",
}

var seriesInfoColumns = []string{
	"id", "category_id", "category_slug", "category_name",
	"country_id", "country_slug", "country_name",
	"release_day", "release_month", "release_year", "quantity", "perforated",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

func newTestSeriesRepository(t *testing.T) (*SeriesRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newMockDB(t)
	repo, err := NewSeriesRepository(db, config.NewQueries(testStatements))
	require.NoError(t, err)
	return repo, mock
}

func TestNewSeriesRepositoryRequiresAllStatements(t *testing.T) {
	db, _ := newMockDB(t)

	_, err := NewSeriesRepository(db, config.NewQueries(map[string]string{"series.create": "INSERT"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrUnknownQuery))
}

func TestSeriesRepositoryAdd(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)

	mock.ExpectQuery("INSERT INTO series (category_id, quantity, created_by) VALUES ($1, $2, $3) RETURNING id").
		WithArgs(7, 4, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))

	id, err := repo.Add(context.Background(), models.AddSeriesDbDto{CategoryID: 7, Quantity: 4, CreatedBy: 1})
	require.NoError(t, err)
	assert.Equal(t, 101, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeriesRepositoryAddUnexpectedRowCount(t *testing.T) {
	for _, rows := range []*sqlmock.Rows{
		sqlmock.NewRows([]string{"id"}),
		sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2),
	} {
		repo, mock := newTestSeriesRepository(t)
		mock.ExpectQuery("INSERT INTO series (category_id, quantity, created_by) VALUES ($1, $2, $3) RETURNING id").
			WillReturnRows(rows)

		_, err := repo.Add(context.Background(), models.AddSeriesDbDto{CategoryID: 7, Quantity: 4, CreatedBy: 1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnexpectedRowCount))
	}
}

func TestSeriesRepositoryMarkAsModified(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE series SET updated_at = $1, updated_by = $2 WHERE id = $3").
		WithArgs(now, 5, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkAsModified(context.Background(), 42, now, 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeriesRepositoryMarkAsModifiedUnexpectedRowCount(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)

	mock.ExpectExec("UPDATE series SET updated_at = $1, updated_by = $2 WHERE id = $3").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkAsModified(context.Background(), 42, time.Now(), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedRowCount))
}

func TestSeriesRepositoryFindByCategorySlug(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)

	mock.ExpectQuery("SELECT * FROM v WHERE category_slug = $1 AND lang = $2").
		WithArgs("fauna", "ru").
		WillReturnRows(sqlmock.NewRows(seriesInfoColumns).
			AddRow(1, 3, "fauna", "Фауна", nil, nil, nil, nil, nil, 1977, 6, false).
			AddRow(2, 3, "fauna", "Фауна", 12, "maldives", "Мальдивы", 1, 5, 1990, 4, true))

	got, err := repo.FindByCategorySlugAsSeriesInfo(context.Background(), "fauna", "ru")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].ID)
	assert.Nil(t, got[0].CountryID)
	require.NotNil(t, got[0].ReleaseYear)
	assert.Equal(t, 1977, *got[0].ReleaseYear)

	require.NotNil(t, got[1].CountrySlug)
	assert.Equal(t, "maldives", *got[1].CountrySlug)
	assert.True(t, got[1].Perforated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeriesRepositoryFindByCountrySlugEmpty(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)

	mock.ExpectQuery("SELECT * FROM v WHERE country_slug = $1 AND lang = $2").
		WithArgs("atlantis", "en").
		WillReturnRows(sqlmock.NewRows(seriesInfoColumns))

	got, err := repo.FindByCountrySlugAsSeriesInfo(context.Background(), "atlantis", "en")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSeriesRepositoryFindByIDs(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)

	mock.ExpectQuery("SELECT * FROM v WHERE id = ANY($1) AND lang = $2").
		WithArgs(sqlmock.AnyArg(), "en").
		WillReturnRows(sqlmock.NewRows(seriesInfoColumns).
			AddRow(4, 3, "fauna", "Fauna", nil, nil, nil, nil, nil, nil, 2, false))

	got, err := repo.FindByIDsAsSeriesInfo(context.Background(), []int{4, 5}, "en")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].ID)
}

func TestSeriesRepositoryFindFullInfoNotFound(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)

	mock.ExpectQuery("SELECT * FROM v WHERE id = $1 AND lang = $2").
		WithArgs(404, "en").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.FindByIDAsSeriesFullInfo(context.Background(), 404, "en")
	require.NoError(t, err)
	assert.False(t, got.IsPresent())
}

func TestSeriesRepositoryFindQuantityByID(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)

	mock.ExpectQuery("SELECT quantity FROM series WHERE id = $1").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(12))
	mock.ExpectQuery("SELECT quantity FROM series WHERE id = $1").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

	got, err := repo.FindQuantityByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, models.Some(12), got)

	got, err = repo.FindQuantityByID(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, got.IsPresent())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeriesRepositoryCounts(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)
	ctx := context.Background()
	since := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT(*) FROM series").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))
	mock.ExpectQuery("SELECT COALESCE(SUM(quantity), 0) FROM series").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(640))
	mock.ExpectQuery("SELECT COUNT(*) FROM series WHERE id = $1").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT(*) FROM series WHERE created_at >= $1").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))
	mock.ExpectQuery("SELECT COUNT(*) FROM series WHERE updated_at >= $1").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	all, err := repo.CountAll(ctx)
	require.NoError(t, err)
	stamps, err := repo.CountAllStamps(ctx)
	require.NoError(t, err)
	byID, err := repo.CountSeriesByID(ctx, 3)
	require.NoError(t, err)
	added, err := repo.CountAddedSince(ctx, since)
	require.NoError(t, err)
	updated, err := repo.CountUpdatedSince(ctx, since)
	require.NoError(t, err)

	assert.Equal(t, int64(120), all)
	assert.Equal(t, int64(640), stamps)
	assert.Equal(t, int64(1), byID)
	assert.Equal(t, int64(8), added)
	assert.Equal(t, int64(2), updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeriesRepositoryFindLastAdded(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)

	mock.ExpectQuery("SELECT id, category_name FROM v WHERE lang = $1 LIMIT $2").
		WithArgs("en", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_name"}).
			AddRow(9, "Space").
			AddRow(8, "Ships"))

	got, err := repo.FindLastAdded(context.Background(), 2, "en")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Space", got[0].CategoryName)
}

func TestSeriesRepositoryFindPurchasesAndSales(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)

	mock.ExpectQuery("SELECT * FROM series_sales WHERE series_id = $1").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"seller_name", "price", "currency"}).
			AddRow("Stamps Shop", "10.50", "EUR"))

	got, err := repo.FindPurchasesAndSales(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Stamps Shop", got[0].SellerName)
	assert.Equal(t, "10.5", got[0].Price.String())
	assert.Equal(t, "EUR", got[0].Currency)
}

func TestSeriesRepositoryQueryError(t *testing.T) {
	repo, mock := newTestSeriesRepository(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery("SELECT id, updated_at FROM series").WillReturnError(boom)

	_, err := repo.FindAllForSitemap(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}
