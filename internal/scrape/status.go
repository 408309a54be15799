package scrape

import (
	"time"

	"github.com/ailsa/eureka-scraper/internal/models"
)

// InferStatus derives a call's status from its dates relative to the run
// time. Status is never taken from a page label; listing tabs and banner
// text are unreliable, so every status value in the output traces to this
// one rule.
//
// Rules, in order:
//   - close date in the past: Closed
//   - close date in the future: Open
//   - no close date, open date in the past or present: Open
//   - otherwise: Unknown
//
// Pure function of its inputs; the same (open, close, now) triple always
// yields the same status.
func InferStatus(openDate, closeDate *time.Time, now time.Time) string {
	if closeDate != nil {
		if closeDate.After(now) {
			return models.StatusOpen
		}
		return models.StatusClosed
	}
	if openDate != nil && !openDate.After(now) {
		return models.StatusOpen
	}
	return models.StatusUnknown
}
