package scrape

import "testing"

func TestExtractFundingInfo(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "grants of euro",
			text:     "Winners receive grants of 50,000 euro per project.",
			expected: "grants of 50,000 euro",
		},
		{
			name:     "up to amount",
			text:     "Each partner can request up to €500,000 for the project.",
			expected: "up to €500,000",
		},
		{
			name:     "maximum of amount",
			text:     "A maximum of 750,000 Canadian dollars is available per consortium.",
			expected: "maximum of 750,000 Canadian dollars",
		},
		{
			name:     "amount available",
			text:     "There is €2,000,000 available for this call.",
			expected: "€2,000,000 available",
		},
		{
			name:     "no amount on page",
			text:     "Funding conditions vary by country.",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractFundingInfo(tt.text); got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
