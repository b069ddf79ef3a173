package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed parsers.yaml
var defaultParsers []byte

// ParserSettings describes how to pull raw fragments out of one site's
// listing pages. Each locator is a CSS selector; empty means the site does
// not expose that field.
type ParserSettings struct {
	Name              string `yaml:"name"`
	MatchedURL        string `yaml:"matched_url"`
	CategoryLocator   string `yaml:"category_locator"`
	CountryLocator    string `yaml:"country_locator"`
	ImageURLLocator   string `yaml:"image_url_locator"`
	ImageURLAttribute string `yaml:"image_url_attribute"`
	IssueDateLocator  string `yaml:"issue_date_locator"`
	QuantityLocator   string `yaml:"quantity_locator"`
	PerforatedLocator string `yaml:"perforated_locator"`
	MichelLocator     string `yaml:"michel_numbers_locator"`
	SellerLocator     string `yaml:"seller_locator"`
	PriceLocator      string `yaml:"price_locator"`
	CurrencyValue     string `yaml:"currency_value"`
	CurrencyLocator   string `yaml:"currency_locator"`
}

// Valid reports whether the settings are enough to build a parser: a name,
// a URL to match and at least one locator.
func (p ParserSettings) Valid() bool {
	if p.Name == "" || p.MatchedURL == "" {
		return false
	}
	return p.CategoryLocator != "" || p.CountryLocator != "" ||
		p.ImageURLLocator != "" ||
		p.IssueDateLocator != "" || p.QuantityLocator != "" ||
		p.PerforatedLocator != "" || p.MichelLocator != "" ||
		p.SellerLocator != "" || p.PriceLocator != ""
}

// LoadParsers reads site parser settings from a YAML file with a top-level
// "parsers" list. An empty path loads the bundled settings.
func LoadParsers(path string) ([]ParserSettings, error) {
	data := defaultParsers
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read parsers %q: %w", path, err)
		}
		data = b
	}

	var doc struct {
		Parsers []ParserSettings `yaml:"parsers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse parsers: %w", err)
	}

	for i, p := range doc.Parsers {
		if !p.Valid() {
			return nil, fmt.Errorf("config: parser #%d (%q) needs name, matched_url and a locator", i+1, p.Name)
		}
	}
	return doc.Parsers, nil
}
