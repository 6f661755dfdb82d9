package extractor

import "strings"

const (
	// DefaultBaseOrigin completes site-relative links.
	DefaultBaseOrigin = "https://brokennews.net"
	// DefaultItemSelector matches list items whose class mentions news-item.
	DefaultItemSelector = `li[class*="news-item"]`
	// DefaultFallbackSelector is the broad mode query used when no item matches.
	DefaultFallbackSelector = "ul li"
	// DefaultBodyClass marks the news body container inside a candidate block.
	DefaultBodyClass = "news-body"
	// DefaultDateSelector locates the time marker of a block.
	DefaultDateSelector = "time"

	linkSelector      = "a[href]"
	datetimeAttribute = "datetime"
)

// DefaultTitleSelectors are tried in order before falling back to the link text.
var DefaultTitleSelectors = []string{"h4"}

// Rules configures the selection heuristics applied to a document.
type Rules struct {
	BaseOrigin       string
	ItemSelector     string
	FallbackSelector string
	BodyClass        string
	TitleSelectors   []string
	DateSelector     string
}

// DefaultRules returns the rules for the brokennews markup.
func DefaultRules() Rules {
	return Rules{
		BaseOrigin:       DefaultBaseOrigin,
		ItemSelector:     DefaultItemSelector,
		FallbackSelector: DefaultFallbackSelector,
		BodyClass:        DefaultBodyClass,
		TitleSelectors:   append([]string(nil), DefaultTitleSelectors...),
		DateSelector:     DefaultDateSelector,
	}
}

// withDefaults fills empty fields from DefaultRules.
func (r Rules) withDefaults() Rules {
	def := DefaultRules()

	r.BaseOrigin = strings.TrimRight(strings.TrimSpace(r.BaseOrigin), "/")
	if r.BaseOrigin == "" {
		r.BaseOrigin = def.BaseOrigin
	}
	if r.ItemSelector = strings.TrimSpace(r.ItemSelector); r.ItemSelector == "" {
		r.ItemSelector = def.ItemSelector
	}
	if r.FallbackSelector = strings.TrimSpace(r.FallbackSelector); r.FallbackSelector == "" {
		r.FallbackSelector = def.FallbackSelector
	}
	if r.BodyClass = strings.TrimSpace(r.BodyClass); r.BodyClass == "" {
		r.BodyClass = def.BodyClass
	}
	if r.DateSelector = strings.TrimSpace(r.DateSelector); r.DateSelector == "" {
		r.DateSelector = def.DateSelector
	}

	titles := make([]string, 0, len(r.TitleSelectors))
	for _, s := range r.TitleSelectors {
		if s = strings.TrimSpace(s); s != "" {
			titles = append(titles, s)
		}
	}
	if len(titles) == 0 {
		titles = def.TitleSelectors
	}
	r.TitleSelectors = titles

	return r
}
