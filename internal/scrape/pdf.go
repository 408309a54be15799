package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	rpdf "rsc.io/pdf"
)

// Close-date hints looked for near a date inside application-pack PDFs.
var pdfDeadlineHints = []string{
	"deadline", "closing date", "closes", "submission", "cut-off",
}

var pdfDateSnippetRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b20\d{2}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+20\d{2}\b`),
	regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},?\s+20\d{2}\b`),
}

// extractPDFText pulls plain text out of a PDF. The parser panics on some
// malformed files, so the panic is converted to an error here.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// findPDFCloseDate scans PDF text for a date that sits near a deadline hint
// and returns the earliest future one relative to now, or nil.
func findPDFCloseDate(text string, now time.Time) *time.Time {
	var best *time.Time
	for _, expr := range pdfDateSnippetRegexes {
		for _, loc := range expr.FindAllStringIndex(text, -1) {
			token := strings.TrimSpace(text[loc[0]:loc[1]])
			parsed, err := parseDate(token)
			if err != nil {
				continue
			}

			start := loc[0] - 80
			if start < 0 {
				start = 0
			}
			end := loc[1] + 80
			if end > len(text) {
				end = len(text)
			}
			snippet := strings.ToLower(text[start:end])

			hinted := false
			for _, hint := range pdfDeadlineHints {
				if strings.Contains(snippet, hint) {
					hinted = true
					break
				}
			}
			if !hinted || !parsed.After(now) {
				continue
			}
			if best == nil || parsed.Before(*best) {
				p := parsed
				best = &p
			}
		}
	}
	return best
}

// EnrichCloseDateFromPDF fetches a linked PDF and scans it for deadline
// evidence. Used only when the HTML page itself yields no close date.
func EnrichCloseDateFromPDF(ctx context.Context, fetcher Fetcher, pdfURL string, now time.Time) (*time.Time, error) {
	doc, err := fetcher.Fetch(ctx, pdfURL)
	if err != nil {
		return nil, err
	}
	defer doc.Body.Close()

	content, err := io.ReadAll(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("pdf read failed: %w", err)
	}

	text, err := extractPDFText(content)
	if err != nil {
		return nil, fmt.Errorf("pdf text extraction failed: %w", err)
	}

	return findPDFCloseDate(text, now), nil
}
