package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"stamps-catalog/models"
	"stamps-catalog/utils"
)

const (
	// MaxSupportedReleaseYear is the last year releaseYearRegexp accepts.
	MaxSupportedReleaseYear = 2099

	// maxCandidatesForLookup bounds the IN() list of the exact name lookup.
	maxCandidatesForLookup = 50

	categoryNameMinLength = 3
	categoryNameMaxLength = 50
	countryNameMinLength  = 3
	countryNameMaxLength  = 50
)

var (
	// releaseYearRegexp matches a release year from 1840 till 2099.
	releaseYearRegexp = regexp.MustCompile(`^(18[4-9][0-9]|19[0-9]{2}|20[0-9]{2})г?$`)
	// numberOfStampsRegexp matches the number of stamps in a series (1 to 99).
	numberOfStampsRegexp = regexp.MustCompile(`(?i)([1-9][0-9]?)( беззубцовые)? мар(ок|ки)`)
	// michelNumbersRegexp matches a range of Michel catalog numbers (1 to 9999).
	michelNumbersRegexp = regexp.MustCompile(`#[ ]?([1-9][0-9]{0,3})-([1-9][0-9]{0,3})`)

	validCategoryNameEn = regexp.MustCompile(`^[- a-zA-Z]+$`)
	validCategoryNameRu = regexp.MustCompile(`^[- а-яёА-ЯЁ]+$`)
	validCountryNameEn  = regexp.MustCompile(`^[- a-zA-Z]+$`)
	validCountryNameRu  = regexp.MustCompile(`^[- а-яёА-ЯЁ]+$`)

	withoutPerforationMarkers = []string{"б/з", "беззубцовые"}
)

// CategoryFinder resolves category names to identifiers.
type CategoryFinder interface {
	FindIDsByNames(ctx context.Context, names []string) ([]int, error)
	FindIDsWhenNameStartsWith(ctx context.Context, prefix string) ([]int, error)
}

// CountryFinder resolves country names to identifiers.
type CountryFinder interface {
	FindIDsByNames(ctx context.Context, names []string) ([]int, error)
	FindIDsWhenNameStartsWith(ctx context.Context, prefix string) ([]int, error)
}

// SellerFinder resolves a seller by its exact name and URL.
type SellerFinder interface {
	FindSellerID(ctx context.Context, name, url string) (models.Optional[int], error)
}

// Extractor turns raw listing fragments into typed values. Every step is
// best effort: a fragment that cannot be understood yields "not found"
// for its field and never fails the whole extraction.
type Extractor struct {
	logger     *utils.Logger
	categories CategoryFinder
	countries  CountryFinder
	sellers    SellerFinder
}

// NewExtractor creates an Extractor backed by the given finders.
func NewExtractor(logger *utils.Logger, categories CategoryFinder, countries CountryFinder, sellers SellerFinder) *Extractor {
	return &Extractor{
		logger:     logger,
		categories: categories,
		countries:  countries,
		sellers:    sellers,
	}
}

// Extract runs every field heuristic over data.
func (e *Extractor) Extract(ctx context.Context, data models.RawParsedData) models.ExtractedInfo {
	sellerID := e.extractSeller(ctx, data.SellerName, data.SellerURL)

	return models.ExtractedInfo{
		CategoryIDs:   e.extractCategory(ctx, data.CategoryName),
		CountryIDs:    e.extractCountry(ctx, data.CountryName),
		ReleaseYear:   e.extractReleaseYear(data.ReleaseYear),
		Quantity:      e.extractQuantity(data.Quantity),
		Perforated:    e.extractPerforated(data.Perforated),
		MichelNumbers: e.extractMichelNumbers(data.MichelNumbers),
		SellerID:      sellerID,
		SellerName:    extractSellerName(sellerID, data.SellerName),
		SellerURL:     extractSellerURL(sellerID, data.SellerURL),
		Price:         e.extractPrice(data.Price),
		Currency:      e.extractCurrency(data.Currency),
	}
}

func (e *Extractor) extractCategory(ctx context.Context, fragment string) []int {
	if isBlank(fragment) {
		return []int{}
	}

	e.logger.Debug("[extractor] Determining category from a fragment: '%s'", fragment)

	candidates := limitCandidates(filterDistinct(splitNames(fragment), validCategoryName))
	e.logger.Debug("[extractor] Possible candidates: %v", candidates)

	return e.lookup(ctx, "categories", candidates, e.categories.FindIDsByNames, e.categories.FindIDsWhenNameStartsWith)
}

func (e *Extractor) extractCountry(ctx context.Context, fragment string) []int {
	if isBlank(fragment) {
		return []int{}
	}

	e.logger.Debug("[extractor] Determining country from a fragment: '%s'", fragment)

	words := splitNames(fragment)

	// "Minerals-Maldives" also yields "Minerals" and "Maldives".
	names := append([]string(nil), words...)
	for _, w := range words {
		if strings.Contains(w, "-") {
			names = append(names, splitOn(w, "-")...)
		}
	}

	candidates := limitCandidates(filterDistinct(names, validCountryName))
	e.logger.Debug("[extractor] Possible candidates: %v", candidates)

	return e.lookup(ctx, "countries", candidates, e.countries.FindIDsByNames, e.countries.FindIDsWhenNameStartsWith)
}

// lookup tries an exact match on all candidates first and falls back to a
// prefix match per candidate, in order, returning the first hit.
func (e *Extractor) lookup(
	ctx context.Context,
	what string,
	candidates []string,
	byNames func(context.Context, []string) ([]int, error),
	byPrefix func(context.Context, string) ([]int, error),
) []int {
	ids, err := byNames(ctx, candidates)
	if err != nil {
		e.logger.Warn("[extractor] Lookup of %s by names failed: %v", what, err)
		ids = nil
	}
	e.logger.Debug("[extractor] Found %s: %v", what, ids)
	if len(ids) > 0 {
		return ids
	}

	for _, candidate := range candidates {
		e.logger.Debug("[extractor] Possible candidate: '%s%%'", candidate)
		ids, err = byPrefix(ctx, candidate)
		if err != nil {
			e.logger.Warn("[extractor] Lookup of %s by prefix '%s' failed: %v", what, candidate, err)
			continue
		}
		if len(ids) > 0 {
			e.logger.Debug("[extractor] Found %s: %v", what, ids)
			return ids
		}
	}

	e.logger.Debug("[extractor] Could not extract %s from a fragment", what)
	return []int{}
}

func (e *Extractor) extractReleaseYear(fragment string) models.Optional[int] {
	if isBlank(fragment) {
		return models.None[int]()
	}

	e.logger.Debug("[extractor] Determining release year from a fragment: '%s'", fragment)

	for _, candidate := range strings.FieldsFunc(fragment, unicode.IsSpace) {
		m := releaseYearRegexp.FindStringSubmatch(candidate)
		if m == nil {
			continue
		}

		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		e.logger.Debug("[extractor] Release year is %d", year)
		return models.Some(year)
	}

	e.logger.Debug("[extractor] Could not extract release year from a fragment")
	return models.None[int]()
}

// TODO: reject quantities above the configured MAX_STAMPS_IN_SERIES once
// the import flow has access to it; today only series creation checks it.
func (e *Extractor) extractQuantity(fragment string) models.Optional[int] {
	if isBlank(fragment) {
		return models.None[int]()
	}

	e.logger.Debug("[extractor] Determining quantity from a fragment: '%s'", fragment)

	m := numberOfStampsRegexp.FindStringSubmatch(fragment)
	if m != nil {
		if quantity, err := strconv.Atoi(m[1]); err == nil {
			e.logger.Debug("[extractor] Quantity is %d", quantity)
			return models.Some(quantity)
		}
	}

	e.logger.Debug("[extractor] Could not extract quantity from a fragment")
	return models.None[int]()
}

// extractPerforated only ever reports false: finding no marker says nothing
// about whether the stamps are perforated.
func (e *Extractor) extractPerforated(fragment string) models.Optional[bool] {
	if isBlank(fragment) {
		return models.None[bool]()
	}

	e.logger.Debug("[extractor] Determining perforation from a fragment: '%s'", fragment)

	// a Caser is stateful, so each call folds with its own
	folder := cases.Fold()
	folded := folder.String(fragment)
	for _, marker := range withoutPerforationMarkers {
		if strings.Contains(folded, folder.String(marker)) {
			e.logger.Debug("[extractor] Perforation is false")
			return models.Some(false)
		}
	}

	e.logger.Debug("[extractor] Could not extract perforation info from a fragment")
	return models.None[bool]()
}

func (e *Extractor) extractMichelNumbers(fragment string) []string {
	if isBlank(fragment) {
		return []string{}
	}

	e.logger.Debug("[extractor] Determining michel numbers from a fragment: '%s'", fragment)

	m := michelNumbersRegexp.FindStringSubmatch(fragment)
	if m != nil {
		begin, errBegin := strconv.Atoi(m[1])
		end, errEnd := strconv.Atoi(m[2])
		if errBegin == nil && errEnd == nil && begin < end {
			numbers := make([]string, 0, end-begin+1)
			for n := begin; n <= end; n++ {
				numbers = append(numbers, strconv.Itoa(n))
			}
			e.logger.Debug("[extractor] Extracted michel numbers: %v", numbers)
			return numbers
		}
	}

	e.logger.Debug("[extractor] Could not extract michel numbers from a fragment")
	return []string{}
}

func (e *Extractor) extractSeller(ctx context.Context, name, url string) models.Optional[int] {
	if isBlank(name) || isBlank(url) {
		return models.None[int]()
	}

	e.logger.Debug("[extractor] Determining seller by name '%s' and url '%s'", name, url)

	id, err := e.sellers.FindSellerID(ctx, name, url)
	if err != nil {
		e.logger.Warn("[extractor] Lookup of seller failed: %v", err)
		return models.None[int]()
	}
	if v, ok := id.Get(); ok {
		e.logger.Debug("[extractor] Found seller: #%d", v)
		return id
	}

	e.logger.Debug("[extractor] Could not extract seller based on name/url")
	return models.None[int]()
}

// extractSellerName keeps the raw name only when no seller was found, so a
// new seller can be created from it.
func extractSellerName(id models.Optional[int], name string) models.Optional[string] {
	if id.IsPresent() || name == "" {
		return models.None[string]()
	}
	return models.Some(name)
}

func extractSellerURL(id models.Optional[int], url string) models.Optional[string] {
	if id.IsPresent() || url == "" {
		return models.None[string]()
	}
	return models.Some(url)
}

func (e *Extractor) extractPrice(fragment string) models.Optional[decimal.Decimal] {
	if isBlank(fragment) {
		return models.None[decimal.Decimal]()
	}

	e.logger.Debug("[extractor] Determining price from a fragment: '%s'", fragment)

	price, err := decimal.NewFromString(fragment)
	if err != nil {
		e.logger.Debug("[extractor] Could not extract price: %v", err)
		return models.None[decimal.Decimal]()
	}

	e.logger.Debug("[extractor] Price is %s", price)
	return models.Some(price)
}

func (e *Extractor) extractCurrency(fragment string) models.Optional[models.Currency] {
	if isBlank(fragment) {
		return models.None[models.Currency]()
	}

	e.logger.Debug("[extractor] Determining currency from a fragment: '%s'", fragment)

	currency, ok := models.ParseCurrency(fragment)
	if !ok {
		e.logger.Debug("[extractor] Could not extract currency: unknown code '%s'", fragment)
		return models.None[models.Currency]()
	}

	e.logger.Debug("[extractor] Currency is %s", currency)
	return models.Some(currency)
}

func validCategoryName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < categoryNameMinLength || n > categoryNameMaxLength {
		return false
	}
	return validCategoryNameEn.MatchString(name) || validCategoryNameRu.MatchString(name)
}

func validCountryName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < countryNameMinLength || n > countryNameMaxLength {
		return false
	}
	return validCountryNameEn.MatchString(name) || validCountryNameRu.MatchString(name)
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// splitNames splits on newlines, tabs, spaces, commas and periods.
func splitNames(s string) []string {
	return splitOn(s, "\n\t ,.")
}

// splitOn splits s on any of the separator characters and drops empty parts.
func splitOn(s, separators string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})
}

func filterDistinct(names []string, valid func(string) bool) []string {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, n := range names {
		if !valid(n) {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}

func limitCandidates(candidates []string) []string {
	if len(candidates) > maxCandidatesForLookup {
		return candidates[:maxCandidatesForLookup]
	}
	return candidates
}
