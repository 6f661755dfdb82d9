package extractor

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const dateLayout = "2006-01-02"

var (
	tagPattern         = regexp.MustCompile(`<.*?>`)
	inlineSpacePattern = regexp.MustCompile(`[^\S\r\n]+`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	digitsPattern      = regexp.MustCompile(`^\d+$`)
	weekdayPattern     = regexp.MustCompile(`(?i)^(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues|tue|wed|thurs|thur|thu|fri|sat|sun)\.?,?\s+`)
)

// dayMonthLayouts cover long month names followed by a time, which dateparse
// does not read.
var dayMonthLayouts = []string{
	"2 January 2006 15:04",
	"2 January 2006 15:04:05",
	"2 January 2006, 15:04",
	"2 January 2006, 15:04:05",
	"January 2, 2006 15:04",
}

// CleanText replaces markup tags with spaces and collapses runs of non-newline
// whitespace. The input is document text that goquery has already decoded, so
// entities are not decoded a second time. Line breaks inside the text are kept.
func CleanText(input string) string {
	if input == "" {
		return ""
	}

	s := tagPattern.ReplaceAllString(input, " ")
	s = inlineSpacePattern.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// NormalizeHref strips all whitespace from a decoded href. Site-relative paths
// are prefixed with origin; anything else is returned as is.
func NormalizeHref(href, origin string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return href
	}

	href = whitespacePattern.ReplaceAllString(href, "")

	if strings.HasPrefix(href, "/") {
		href = strings.TrimRight(origin, "/") + href
	}

	return href
}

// NormalizeDate parses raw and formats it as YYYY-MM-DD. Bare numbers are not
// dates. A leading weekday name is ignored. Times without an offset are read
// as UTC and a trailing offset never shifts the day.
func NormalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || digitsPattern.MatchString(raw) {
		return "", false
	}

	if t, ok := parseDate(raw); ok {
		return t.Format(dateLayout), true
	}

	stripped := strings.TrimSpace(weekdayPattern.ReplaceAllString(raw, ""))
	if stripped == raw || stripped == "" || digitsPattern.MatchString(stripped) {
		return "", false
	}
	if t, ok := parseDate(stripped); ok {
		return t.Format(dateLayout), true
	}
	return "", false
}

func parseDate(raw string) (time.Time, bool) {
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t, true
	}
	for _, layout := range dayMonthLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
