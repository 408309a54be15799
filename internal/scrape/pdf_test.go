package scrape

import (
	"testing"
	"time"
)

func TestFindPDFCloseDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		text     string
		expected *time.Time
	}{
		{
			name:     "hinted future date",
			text:     "The submission deadline for this call is 21 November 2025 at 17:00 CET.",
			expected: ptr(date(2025, time.November, 21)),
		},
		{
			name:     "iso date near hint",
			text:     "Cut-off: 2025-09-30 for all national applications.",
			expected: ptr(date(2025, time.September, 30)),
		},
		{
			name: "future date without a deadline hint is ignored",
			text: "A kickoff event takes place on 3 March 2026 in Brussels.",
		},
		{
			name: "past date is ignored",
			text: "The submission deadline was 15 January 2025.",
		},
		{
			name:     "earliest future hinted date wins",
			text:     "First closing date: 1 October 2025. Final submission deadline: 21 November 2025.",
			expected: ptr(date(2025, time.October, 1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findPDFCloseDate(tt.text, now)
			assertDate(t, "close", got, tt.expected)
		})
	}
}

func TestExtractPDFText_Garbage(t *testing.T) {
	if _, err := extractPDFText([]byte("this is not a pdf")); err == nil {
		t.Fatal("expected an error for non-PDF content")
	}
}
