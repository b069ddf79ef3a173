package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawParsedData holds the unprocessed text fragments a site parser pulled
// out of a listing page. Blank fields mean the parser found nothing.
type RawParsedData struct {
	CategoryName  string
	CountryName   string
	ImageURL      string
	ReleaseYear   string
	Quantity      string
	Perforated    string
	MichelNumbers string
	SellerName    string
	SellerURL     string
	Price         string
	Currency      string
}

// WithImageURL returns a copy with the image URL replaced.
func (d RawParsedData) WithImageURL(url string) RawParsedData {
	d.ImageURL = url
	return d
}

// ExtractedInfo is the structured result of running the extractor over a
// RawParsedData. SellerName and SellerURL are only set when SellerID is
// absent, so that a new seller can be created from them later.
type ExtractedInfo struct {
	CategoryIDs   []int
	CountryIDs    []int
	ReleaseYear   Optional[int]
	Quantity      Optional[int]
	Perforated    Optional[bool]
	MichelNumbers []string
	SellerID      Optional[int]
	SellerName    Optional[string]
	SellerURL     Optional[string]
	Price         Optional[decimal.Decimal]
	Currency      Optional[Currency]
}

// AddSeriesDbDto is the row written by the series.create statement.
type AddSeriesDbDto struct {
	CategoryID    int              `db:"category_id"`
	CountryID     *int             `db:"country_id"`
	Quantity      int              `db:"quantity"`
	Perforated    bool             `db:"perforated"`
	ReleaseDay    *int             `db:"release_day"`
	ReleaseMonth  *int             `db:"release_month"`
	ReleaseYear   *int             `db:"release_year"`
	MichelPrice   *decimal.Decimal `db:"michel_price"`
	ScottPrice    *decimal.Decimal `db:"scott_price"`
	YvertPrice    *decimal.Decimal `db:"yvert_price"`
	GibbonsPrice  *decimal.Decimal `db:"gibbons_price"`
	SolovyovPrice *decimal.Decimal `db:"solovyov_price"`
	ZagorskiPrice *decimal.Decimal `db:"zagorski_price"`
	Comment       *string          `db:"comment"`
	CreatedAt     time.Time        `db:"created_at"`
	CreatedBy     int              `db:"created_by"`
	UpdatedAt     time.Time        `db:"updated_at"`
	UpdatedBy     int              `db:"updated_by"`
}

type SitemapInfo struct {
	ID        int       `db:"id"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SeriesLink is enough to render a link to a series page.
type SeriesLink struct {
	ID           int     `db:"id"`
	CategoryName string  `db:"category_name"`
	CountryName  *string `db:"country_name"`
	ReleaseYear  *int    `db:"release_year"`
	Quantity     int     `db:"quantity"`
	Perforated   bool    `db:"perforated"`
}

type SeriesInfo struct {
	ID           int     `db:"id"`
	CategoryID   int     `db:"category_id"`
	CategorySlug string  `db:"category_slug"`
	CategoryName string  `db:"category_name"`
	CountryID    *int    `db:"country_id"`
	CountrySlug  *string `db:"country_slug"`
	CountryName  *string `db:"country_name"`
	ReleaseDay   *int    `db:"release_day"`
	ReleaseMonth *int    `db:"release_month"`
	ReleaseYear  *int    `db:"release_year"`
	Quantity     int     `db:"quantity"`
	Perforated   bool    `db:"perforated"`
}

// SeriesFullInfo is everything the series page shows.
type SeriesFullInfo struct {
	SeriesInfo
	MichelPrice   *decimal.Decimal `db:"michel_price"`
	ScottPrice    *decimal.Decimal `db:"scott_price"`
	YvertPrice    *decimal.Decimal `db:"yvert_price"`
	GibbonsPrice  *decimal.Decimal `db:"gibbons_price"`
	SolovyovPrice *decimal.Decimal `db:"solovyov_price"`
	ZagorskiPrice *decimal.Decimal `db:"zagorski_price"`
	Comment       *string          `db:"comment"`
	CreatedBy     int              `db:"created_by"`
}

type PurchaseAndSale struct {
	Date            *time.Time       `db:"date"`
	SellerName      string           `db:"seller_name"`
	SellerURL       *string          `db:"seller_url"`
	BuyerName       *string          `db:"buyer_name"`
	BuyerURL        *string          `db:"buyer_url"`
	URL             *string          `db:"url"`
	Price           decimal.Decimal  `db:"price"`
	Currency        string           `db:"currency"`
	AltPrice        *decimal.Decimal `db:"alt_price"`
	AltCurrency     *string          `db:"alt_currency"`
	ConditionSymbol *string          `db:"condition"`
}

// CatalogStats is the summary printed by the stats command.
type CatalogStats struct {
	Since        time.Time
	TotalSeries  int64
	TotalStamps  int64
	AddedSince   int64
	UpdatedSince int64
	LastAdded    []SeriesLink
}
