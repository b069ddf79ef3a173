package services

import (
	"regexp"
	"strings"
	"unicode"

	"stamps-catalog/models"
	"stamps-catalog/utils"
)

var (
	// priceRegexp captures the first number, allowing space or comma
	// grouping and a comma or dot as the decimal separator
	priceRegexp = regexp.MustCompile(`\d[\d\s\x{00A0},.]*`)
	// decimalCommaRegexp matches a trailing decimal part written with a comma
	decimalCommaRegexp = regexp.MustCompile(`,(\d{1,2})$`)
)

// currencySymbols maps the symbols and words sites print next to prices
// onto currency codes.
var currencySymbols = []struct {
	symbol   string
	currency models.Currency
}{
	{"€", models.CurrencyEUR},
	{"₽", models.CurrencyRUB},
	{"руб", models.CurrencyRUB},
	{"$", models.CurrencyUSD},
	{"£", models.CurrencyGBP},
	{"Kč", models.CurrencyCZK},
	{"₴", models.CurrencyUAH},
	{"грн", models.CurrencyUAH},
}

// Cleaner normalises the fragments a site parser produced so that the
// extractor sees plain values: collapsed whitespace, a bare decimal price
// and a currency code instead of a symbol.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean returns a normalised copy of raw.
func (c *Cleaner) Clean(raw models.RawParsedData) models.RawParsedData {
	out := models.RawParsedData{
		CategoryName:  normaliseText(raw.CategoryName),
		CountryName:   normaliseText(raw.CountryName),
		ImageURL:      strings.TrimSpace(raw.ImageURL),
		ReleaseYear:   normaliseText(raw.ReleaseYear),
		Quantity:      normaliseText(raw.Quantity),
		Perforated:    normaliseText(raw.Perforated),
		MichelNumbers: normaliseText(raw.MichelNumbers),
		SellerName:    normaliseText(raw.SellerName),
		SellerURL:     strings.TrimSpace(raw.SellerURL),
		Price:         c.parsePrice(raw.Price),
		Currency:      normaliseText(raw.Currency),
	}

	if out.Currency == "" {
		out.Currency = string(detectCurrency(raw.Price))
	} else if code, ok := symbolCurrency(out.Currency); ok {
		out.Currency = string(code)
	}

	return out
}

// parsePrice reduces a price label to a plain decimal number.
// Examples:
//
//	"1 200,50 руб." → "1200.50"
//	"1.200,50 €"    → "1200.50"
//	"€ 2.50"        → "2.50"
//	"$1,200"        → "1200"
func (c *Cleaner) parsePrice(raw string) string {
	match := strings.TrimRight(priceRegexp.FindString(raw), " \u00a0,.")
	if match == "" {
		return ""
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, match)

	if m := decimalCommaRegexp.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.ReplaceAll(strings.TrimSuffix(cleaned, m[0]), ".", "") + "." + m[1]
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if cleaned != raw {
		c.logger.Debug("[cleaner] Price %q normalised to %q", raw, cleaned)
	}
	return cleaned
}

// detectCurrency looks for a known currency symbol inside a price label.
func detectCurrency(price string) models.Currency {
	for _, s := range currencySymbols {
		if strings.Contains(price, s.symbol) {
			return s.currency
		}
	}
	return ""
}

func symbolCurrency(s string) (models.Currency, bool) {
	if _, ok := models.ParseCurrency(s); ok {
		return "", false
	}
	if code := detectCurrency(s); code != "" {
		return code, true
	}
	return "", false
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
