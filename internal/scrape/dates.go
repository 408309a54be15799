package scrape

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Labeled date patterns scanned against the full page text. Close patterns
// come before open patterns; the first match per kind wins.
var datePatterns = []struct {
	re   *regexp.Regexp
	kind string // "close" or "open"
}{
	{regexp.MustCompile(`(?i)submission deadline[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "close"},
	{regexp.MustCompile(`(?i)deadline[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "close"},
	{regexp.MustCompile(`(?i)closing date[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "close"},
	{regexp.MustCompile(`(?i)closes?[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "close"},
	{regexp.MustCompile(`(?i)final submission[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "close"},
	{regexp.MustCompile(`(?i)end date[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "close"},
	{regexp.MustCompile(`(?i)submission deadline[:\s]+([A-Za-z]+ \d{1,2},? \d{4})`), "close"},
	{regexp.MustCompile(`(?i)deadline[:\s]+([A-Za-z]+ \d{1,2},? \d{4})`), "close"},
	{regexp.MustCompile(`(?i)closes?[:\s]+([A-Za-z]+ \d{1,2},? \d{4})`), "close"},
	{regexp.MustCompile(`(?i)deadline[:\s]+(\d{4}-\d{2}-\d{2})`), "close"},
	{regexp.MustCompile(`(?i)closes?[:\s]+(\d{4}-\d{2}-\d{2})`), "close"},
	{regexp.MustCompile(`(?i)apply from[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "open"},
	{regexp.MustCompile(`(?i)opens?[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "open"},
	{regexp.MustCompile(`(?i)opening date[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "open"},
	{regexp.MustCompile(`(?i)start date[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "open"},
	{regexp.MustCompile(`(?i)applications? open[:\s]+(\d{1,2} [A-Za-z]+ \d{4})`), "open"},
	{regexp.MustCompile(`(?i)apply from[:\s]+([A-Za-z]+ \d{1,2},? \d{4})`), "open"},
	{regexp.MustCompile(`(?i)opens?[:\s]+([A-Za-z]+ \d{1,2},? \d{4})`), "open"},
	{regexp.MustCompile(`(?i)opens?[:\s]+(\d{4}-\d{2}-\d{2})`), "open"},
	{regexp.MustCompile(`(?i)start[:\s]+(\d{4}-\d{2}-\d{2})`), "open"},
}

// ExtractDates scans page text for labeled open and close dates. Either
// return value may be nil; unparseable text never produces an error, only a
// missing date.
func ExtractDates(text string) (openDate, closeDate *time.Time) {
	for _, p := range datePatterns {
		if p.kind == "close" && closeDate != nil {
			continue
		}
		if p.kind == "open" && openDate != nil {
			continue
		}
		for _, match := range p.re.FindAllStringSubmatch(text, -1) {
			t, err := parseDate(match[1])
			if err != nil {
				continue
			}
			if p.kind == "close" && closeDate == nil {
				closeDate = &t
			} else if p.kind == "open" && openDate == nil {
				openDate = &t
			}
			break
		}
	}
	return openDate, closeDate
}

// parseDate parses a single extracted date string. Dates carry no time of
// day on the source pages, so all values land at midnight UTC.
func parseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ","))

	formats := []string{
		"2006-01-02",
		"2 January 2006",
		"02 January 2006",
		"January 2, 2006",
		"January 2 2006",
		"Jan 2, 2006",
		"2 Jan 2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, text); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", text)
}
