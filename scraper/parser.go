package scraper

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stamps-catalog/config"
	"stamps-catalog/models"
)

// SiteParser pulls raw listing fragments out of pages of one site using
// the CSS selectors from its settings.
type SiteParser struct {
	settings config.ParserSettings
}

func NewSiteParser(settings config.ParserSettings) *SiteParser {
	return &SiteParser{settings: settings}
}

func (p *SiteParser) Name() string {
	return p.settings.Name
}

// CanParse reports whether pageURL belongs to this parser's site.
func (p *SiteParser) CanParse(pageURL string) bool {
	return strings.HasPrefix(pageURL, p.settings.MatchedURL)
}

// Parse returns false when the page is not HTML or when none of the
// configured selectors matched anything.
func (p *SiteParser) Parse(pageURL string, html []byte) (models.RawParsedData, bool) {
	if len(html) == 0 {
		return models.RawParsedData{}, false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return models.RawParsedData{}, false
	}

	s := p.settings
	data := models.RawParsedData{
		CategoryName:  firstText(doc, s.CategoryLocator),
		CountryName:   firstText(doc, s.CountryLocator),
		ReleaseYear:   firstText(doc, s.IssueDateLocator),
		Quantity:      firstText(doc, s.QuantityLocator),
		Perforated:    firstText(doc, s.PerforatedLocator),
		MichelNumbers: firstText(doc, s.MichelLocator),
		SellerName:    firstText(doc, s.SellerLocator),
		Price:         firstText(doc, s.PriceLocator),
		Currency:      firstText(doc, s.CurrencyLocator),
	}

	if s.ImageURLLocator != "" {
		attr := s.ImageURLAttribute
		if attr == "" {
			attr = "src"
		}
		if v, ok := doc.Find(s.ImageURLLocator).First().Attr(attr); ok {
			data = data.WithImageURL(resolveURL(pageURL, strings.TrimSpace(v)))
		}
	}

	if s.SellerLocator != "" {
		if href, ok := doc.Find(s.SellerLocator).First().Attr("href"); ok {
			data.SellerURL = resolveURL(pageURL, strings.TrimSpace(href))
		}
	}

	if data.Currency == "" {
		data.Currency = s.CurrencyValue
	}

	if data == (models.RawParsedData{Currency: s.CurrencyValue}) {
		return models.RawParsedData{}, false
	}
	return data, true
}

func firstText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return normSpace(doc.Find(selector).First().Text())
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func resolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(ru).String()
}
