package extractor

import (
	"fmt"

	"github.com/samvad-hq/brokennews-extractor/internal/domain"
)

// Reason classifies why a candidate block was rejected.
type Reason int

const (
	ReasonTrash Reason = iota + 1
	ReasonEmpty
	ReasonMissingLink
	ReasonMissingTitle
	ReasonMissingDate
	ReasonInvalidDate
	ReasonBlockError
)

func (r Reason) String() string {
	switch r {
	case ReasonTrash:
		return "trash"
	case ReasonEmpty:
		return "empty"
	case ReasonMissingLink:
		return "missing_link"
	case ReasonMissingTitle:
		return "missing_title"
	case ReasonMissingDate:
		return "missing_date"
	case ReasonInvalidDate:
		return "invalid_date"
	case ReasonBlockError:
		return "block_error"
	default:
		return "unknown"
	}
}

// Rejection describes a candidate block that did not produce a NewsItem.
type Rejection struct {
	Location string
	Reason   Reason
	// Detail carries the child element list, the raw date or the recovered error.
	Detail string
}

// Silent reports whether the rejection is dropped without a diagnostic line.
func (r Rejection) Silent() bool {
	return r.Reason == ReasonEmpty
}

// Message renders the diagnostic line for the rejection.
func (r Rejection) Message() string {
	switch r.Reason {
	case ReasonTrash:
		return fmt.Sprintf("skipped block %s (trash content): elements - %s.", r.Location, r.Detail)
	case ReasonEmpty:
		return fmt.Sprintf("skipped block %s (empty content).", r.Location)
	case ReasonMissingLink:
		return fmt.Sprintf("skipped block %s: missing link.", r.Location)
	case ReasonMissingTitle:
		return fmt.Sprintf("skipped block %s: missing title.", r.Location)
	case ReasonMissingDate:
		return fmt.Sprintf("skipped block %s: missing date.", r.Location)
	case ReasonInvalidDate:
		return fmt.Sprintf("skipped block %s: unrecognized date '%s'.", r.Location, r.Detail)
	default:
		return fmt.Sprintf("block parse error at %s: %s", r.Location, r.Detail)
	}
}

// outcome is the result of evaluating one candidate: either an item or a rejection.
type outcome struct {
	item      domain.NewsItem
	rejection *Rejection
}

func accepted(item domain.NewsItem) outcome {
	return outcome{item: item}
}

func rejected(location string, reason Reason, detail string) outcome {
	return outcome{rejection: &Rejection{Location: location, Reason: reason, Detail: detail}}
}

// Report summarizes one extraction pass.
type Report struct {
	Items      []domain.NewsItem
	Rejections []Rejection
	Candidates int
	// Broad is true when the fallback selector supplied the candidates.
	Broad bool
}
