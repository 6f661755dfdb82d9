package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/brokennews-extractor/internal/domain"
	"github.com/samvad-hq/brokennews-extractor/internal/logger"
)

// Diagnostics receives one line per rejected candidate block.
type Diagnostics interface {
	Enqueue(message string) error
}

// Extractor turns a parsed document into validated news items.
// It keeps no state between passes.
type Extractor struct {
	rules Rules
	diag  Diagnostics
	log   logger.Logger
}

// New builds an extractor. Empty rule fields take the brokennews defaults.
func New(rules Rules, diag Diagnostics, log logger.Logger) *Extractor {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Extractor{
		rules: rules.withDefaults(),
		diag:  diag,
		log:   log,
	}
}

// Rules returns the effective rules of the extractor.
func (e *Extractor) Rules() Rules {
	return e.rules
}

// Process returns the valid items of doc in document order.
func (e *Extractor) Process(doc *goquery.Document) []domain.NewsItem {
	return e.Extract(doc).Items
}

// Extract runs one full pass over doc. Rejections are reported to the
// diagnostics sink as they occur and never stop the pass.
func (e *Extractor) Extract(doc *goquery.Document) Report {
	if doc == nil {
		return Report{Items: []domain.NewsItem{}}
	}

	candidates, broad := e.candidates(doc)
	report := e.collect(candidates)
	report.Broad = broad

	e.log.DebugObj("extraction pass completed", "extraction_meta", map[string]any{
		"candidates":  report.Candidates,
		"broad_mode":  report.Broad,
		"valid_items": len(report.Items),
		"rejected":    len(report.Rejections),
	})

	return report
}

// candidates applies the item selector and falls back to the broad selector.
func (e *Extractor) candidates(doc *goquery.Document) (*goquery.Selection, bool) {
	nodes := doc.Find(e.rules.ItemSelector)
	if nodes.Length() > 0 {
		return nodes, false
	}
	return doc.Find(e.rules.FallbackSelector), true
}

// collect evaluates every candidate in document order.
func (e *Extractor) collect(candidates *goquery.Selection) Report {
	report := Report{
		Items:      []domain.NewsItem{},
		Candidates: candidates.Length(),
	}

	candidates.Each(func(_ int, block *goquery.Selection) {
		out := e.evaluate(block)
		if out.rejection != nil {
			report.Rejections = append(report.Rejections, *out.rejection)
			e.report(*out.rejection)
			return
		}
		report.Items = append(report.Items, out.item)
	})

	return report
}

func (e *Extractor) report(r Rejection) {
	if r.Silent() || e.diag == nil {
		return
	}
	if err := e.diag.Enqueue(r.Message()); err != nil {
		e.log.WarnObj("diagnostic line dropped", "diagnostic_error", map[string]any{
			"location": r.Location,
			"reason":   r.Reason.String(),
			"error":    err.Error(),
		})
	}
}

// evaluate validates a single block. A panic inside the block is converted
// into a rejection for that block only.
func (e *Extractor) evaluate(block *goquery.Selection) (out outcome) {
	location := blockLocation(block)

	defer func() {
		if r := recover(); r != nil {
			out = rejected(location, ReasonBlockError, fmt.Sprint(r))
		}
	}()

	if strings.TrimSpace(CleanText(block.Text())) == "" {
		return rejected(location, ReasonEmpty, "")
	}
	if elements, ok := e.hasNewsBody(block); !ok {
		return rejected(location, ReasonTrash, elements)
	}

	link := block.Find(linkSelector).First()
	href, _ := link.Attr("href")
	if strings.TrimSpace(href) == "" || !strings.HasPrefix(href, "/") {
		return rejected(location, ReasonMissingLink, "")
	}

	title := e.resolveTitle(block, link)
	if title == "" {
		return rejected(location, ReasonMissingTitle, "")
	}

	rawDate := e.resolveDate(block)
	if rawDate == "" {
		return rejected(location, ReasonMissingDate, "")
	}
	date, ok := NormalizeDate(rawDate)
	if !ok {
		return rejected(location, ReasonInvalidDate, rawDate)
	}

	return accepted(domain.NewsItem{
		Title: title,
		Url:   NormalizeHref(href, e.rules.BaseOrigin),
		Date:  date,
	})
}

// hasNewsBody reports whether a direct element child carries the body class.
// The returned string lists the children for the trash diagnostic.
func (e *Extractor) hasNewsBody(block *goquery.Selection) (string, bool) {
	children := block.Children()
	found := false
	descr := make([]string, 0, children.Length())

	children.Each(func(_ int, child *goquery.Selection) {
		class, _ := child.Attr("class")
		if class == e.rules.BodyClass {
			found = true
		}
		descr = append(descr, fmt.Sprintf(`<%s class="%s">`, goquery.NodeName(child), class))
	})

	return strings.Join(descr, ", "), found
}

// resolveTitle walks the title selectors then the link text and returns the
// first non-empty cleaned value.
func (e *Extractor) resolveTitle(block, link *goquery.Selection) string {
	lookups := make([]func() string, 0, len(e.rules.TitleSelectors)+1)
	for _, sel := range e.rules.TitleSelectors {
		sel := sel
		lookups = append(lookups, func() string {
			return block.Find(sel).First().Text()
		})
	}
	lookups = append(lookups, link.Text)

	for _, lookup := range lookups {
		if title := CleanText(lookup()); title != "" {
			return title
		}
	}
	return ""
}

// resolveDate prefers the machine readable datetime attribute and falls back
// to the visible text of the same element.
func (e *Extractor) resolveDate(block *goquery.Selection) string {
	marker := block.Find(e.rules.DateSelector).First()
	if marker.Length() == 0 {
		return ""
	}
	if attr, ok := marker.Attr(datetimeAttribute); ok {
		if attr = strings.TrimSpace(attr); attr != "" {
			return attr
		}
	}
	return CleanText(marker.Text())
}

func blockLocation(block *goquery.Selection) string {
	if block.Length() == 0 {
		return "/"
	}
	return nodePath(block.Get(0))
}
