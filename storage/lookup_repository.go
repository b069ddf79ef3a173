package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"stamps-catalog/config"
	"stamps-catalog/models"
)

// nameLookup resolves names of one dictionary (categories, countries)
// through an exact-names statement and a name-prefix statement.
type nameLookup struct {
	db       *sqlx.DB
	queries  *config.Queries
	what     string
	byNames  string
	byPrefix string
}

func newNameLookup(db *sqlx.DB, queries *config.Queries, section string) (nameLookup, error) {
	l := nameLookup{
		db:       db,
		queries:  queries,
		what:     section,
		byNames:  section + ".find_ids_by_names",
		byPrefix: section + ".find_ids_when_name_starts_with",
	}
	if err := queries.MustHave(l.byNames, l.byPrefix); err != nil {
		return nameLookup{}, fmt.Errorf("%s repository: %w", section, err)
	}
	return l, nil
}

// FindIDsByNames matches names case-insensitively. An empty list returns
// no ids without touching the database.
func (l nameLookup) FindIDsByNames(ctx context.Context, names []string) ([]int, error) {
	if len(names) == 0 {
		return []int{}, nil
	}

	lowered := make([]string, 0, len(names))
	for _, n := range names {
		lowered = append(lowered, strings.ToLower(n))
	}
	return l.selectIDs(ctx, l.byNames, map[string]any{"names": pq.Array(lowered)})
}

// FindIDsWhenNameStartsWith matches names beginning with prefix,
// case-insensitively.
func (l nameLookup) FindIDsWhenNameStartsWith(ctx context.Context, prefix string) ([]int, error) {
	if prefix == "" {
		return []int{}, nil
	}
	return l.selectIDs(ctx, l.byPrefix, map[string]any{"name": strings.ToLower(prefix) + "%"})
}

func (l nameLookup) selectIDs(ctx context.Context, name string, arg map[string]any) ([]int, error) {
	stmt, err := l.queries.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.what, err)
	}
	q, args, err := namedQuery(l.db, stmt, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: bind %s: %w", l.what, name, err)
	}

	ids := []int{}
	if err := l.db.SelectContext(ctx, &ids, q, args...); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", l.what, name, err)
	}
	return ids, nil
}

// CategoryRepository resolves category names for the extractor.
type CategoryRepository struct {
	nameLookup
}

func NewCategoryRepository(db *sqlx.DB, queries *config.Queries) (*CategoryRepository, error) {
	l, err := newNameLookup(db, queries, "category")
	if err != nil {
		return nil, err
	}
	return &CategoryRepository{nameLookup: l}, nil
}

// CountryRepository resolves country names for the extractor.
type CountryRepository struct {
	nameLookup
}

func NewCountryRepository(db *sqlx.DB, queries *config.Queries) (*CountryRepository, error) {
	l, err := newNameLookup(db, queries, "country")
	if err != nil {
		return nil, err
	}
	return &CountryRepository{nameLookup: l}, nil
}

const qParticipantFindSellerID = "participant.find_seller_id"

// ParticipantRepository looks up sellers and buyers of series.
type ParticipantRepository struct {
	db      *sqlx.DB
	queries *config.Queries
}

func NewParticipantRepository(db *sqlx.DB, queries *config.Queries) (*ParticipantRepository, error) {
	if err := queries.MustHave(qParticipantFindSellerID); err != nil {
		return nil, fmt.Errorf("participant repository: %w", err)
	}
	return &ParticipantRepository{db: db, queries: queries}, nil
}

// FindSellerID returns the id of the seller with exactly this name and URL.
func (r *ParticipantRepository) FindSellerID(ctx context.Context, name, url string) (models.Optional[int], error) {
	stmt, err := r.queries.Get(qParticipantFindSellerID)
	if err != nil {
		return models.None[int](), fmt.Errorf("participant: %w", err)
	}
	q, args, err := namedQuery(r.db, stmt, map[string]any{"name": name, "url": url})
	if err != nil {
		return models.None[int](), fmt.Errorf("participant: bind: %w", err)
	}

	var id int
	err = r.db.GetContext(ctx, &id, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.None[int](), nil
	}
	if err != nil {
		return models.None[int](), fmt.Errorf("participant: find seller: %w", err)
	}
	return models.Some(id), nil
}
