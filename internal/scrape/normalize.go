package scrape

import (
	"regexp"
	"strings"
	"time"

	"github.com/ailsa/eureka-scraper/internal/models"
)

var slugCleanRe = regexp.MustCompile(`[^a-z0-9-]`)

// CallSlug derives the stable call identifier from a detail-page URL: the
// last path segment, lowercased, with everything outside [a-z0-9-] removed.
func CallSlug(rawURL string) string {
	return slugCleanRe.ReplaceAllString(strings.ToLower(lastPathSegment(rawURL)), "")
}

// GrantID builds the globally unique record id for a call URL.
func GrantID(rawURL string) string {
	return models.Source + ":" + CallSlug(rawURL)
}

// programmePaths maps URL path markers to programme names, checked in order.
var programmePaths = []struct {
	marker    string
	programme string
}{
	{"/network-projects/", "Network Projects"},
	{"/eurostars/", "Eurostars"},
	{"/globalstars/", "Globalstars"},
	{"/eureka-clusters/", "Eureka Clusters"},
	{"/innowwide/", "Innowwide"},
	{"/investment-readiness/", "Investment Readiness"},
}

// InferProgramme resolves the funding programme from the call URL, falling
// back to the page breadcrumb when the URL carries no programme marker.
func InferProgramme(rawURL, breadcrumb string) string {
	for _, p := range programmePaths {
		if strings.Contains(rawURL, p.marker) {
			return p.programme
		}
	}
	return breadcrumb
}

// Normalize maps one assembled call into the stable output schema. Pure and
// idempotent: identical inputs always produce an identical record, so the
// downstream upsert can rely on byte-stable ids and field sets. No field is
// ever omitted; absent values are empty strings, empty maps or nulls.
func Normalize(listing models.GrantListing, page *ParsedPage, openDate, closeDate *time.Time, now time.Time) *models.NormalizedGrant {
	slug := CallSlug(listing.URL)

	grant := &models.NormalizedGrant{
		ID:             models.Source + ":" + slug,
		Source:         models.Source,
		Title:          page.Title,
		URL:            listing.URL,
		Status:         InferStatus(openDate, closeDate, now),
		Programme:      InferProgramme(listing.URL, page.Breadcrumb),
		CallID:         slug,
		IsSupplemental: listing.IsSupplemental,
		Raw: models.RawPayload{
			Description: page.Description,
			FundingInfo: page.FundingInfo,
			Sections:    page.Sections,
		},
	}

	if openDate != nil {
		grant.OpenDate = models.NewISOTime(*openDate)
	}
	if closeDate != nil {
		grant.CloseDate = models.NewISOTime(*closeDate)
	}

	return grant
}
