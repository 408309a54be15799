package scrape

import "regexp"

// fundingInfoPatterns match the summary funding phrases that appear in call
// body text, most specific first. The whole matched phrase is kept so the
// surrounding wording ("up to", "grants of") survives into the output.
var fundingInfoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)grants of [\d,]+\s*euro`),
	regexp.MustCompile(`(?i)up to [€$£]\s*[\d,]+(?:\s*(?:million|k|thousand))?`),
	regexp.MustCompile(`(?i)maximum of [€$£]?\s*[\d,]+(?:\s*(?:Canadian dollars|euro|EUR|CAD|dollars))?`),
	regexp.MustCompile(`(?i)[€$£]\s*[\d,]+(?:\s*(?:million|k|thousand))?\s+(?:available|funding)`),
	regexp.MustCompile(`(?i)[\d,]+\s*(?:euro|EUR|dollars|CAD)`),
}

// ExtractFundingInfo returns the first funding amount phrase found in page
// text, or "" when the page names no amount.
func ExtractFundingInfo(text string) string {
	for _, re := range fundingInfoPatterns {
		if match := re.FindString(text); match != "" {
			return match
		}
	}
	return ""
}
