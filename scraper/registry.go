package scraper

import (
	"stamps-catalog/config"
)

// Registry holds the configured site parsers in declaration order.
type Registry struct {
	parsers []*SiteParser
}

func NewRegistry(settings []config.ParserSettings) *Registry {
	r := &Registry{parsers: make([]*SiteParser, 0, len(settings))}
	for _, s := range settings {
		r.parsers = append(r.parsers, NewSiteParser(s))
	}
	return r
}

// Find returns the first parser able to handle pageURL.
func (r *Registry) Find(pageURL string) (*SiteParser, bool) {
	for _, p := range r.parsers {
		if p.CanParse(pageURL) {
			return p, true
		}
	}
	return nil, false
}

func (r *Registry) Len() int {
	return len(r.parsers)
}
