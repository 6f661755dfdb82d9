package domain

// Domain contains core models shared across packages.

// NewsItem is one validated news record. Every field is non-empty for emitted items.
type NewsItem struct {
	Title string `json:"Title"`
	Url   string `json:"Url"` //nolint:revive // field name is part of the output format
	Date  string `json:"Date"`
}
