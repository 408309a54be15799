package ingest

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ailsa/eureka-scraper/internal/models"
)

// stripMarkup removes any HTML that leaked into extracted text before it
// reaches the embedding model.
var stripMarkup = bluemonday.StrictPolicy()

// Per-section character caps keep the embedding input inside the model's
// useful context while preserving the most load-bearing text.
const (
	descriptionCap = 1000
	aboutCap       = 900
	eligibilityCap = 750
	fundingCap     = 400
	keyDatesCap    = 450
	howToApplyCap  = 550
	countryInfoCap = 300
)

// EmbeddingText builds the labeled text document embedded for one grant.
// Sections are introduced with stable labels so semantically similar calls
// land near each other regardless of page phrasing.
func EmbeddingText(grant *models.NormalizedGrant) string {
	var parts []string

	if grant.Title != "" {
		parts = append(parts, "Title: "+grant.Title)
	}
	if grant.Programme != "" {
		parts = append(parts, "Programme: "+grant.Programme)
	}
	parts = append(parts, "Source: Eureka Network")

	if grant.IsSupplemental {
		parts = append(parts, "Type: Investment Readiness (Supplemental)")
	} else {
		parts = append(parts, "Type: R&D Grant")
	}

	if grant.Status != "" {
		parts = append(parts, "Status: "+grant.Status)
	}
	if grant.OpenDate != nil {
		parts = append(parts, "Opens: "+grant.OpenDate.Format("2006-01-02"))
	}
	if grant.CloseDate != nil {
		parts = append(parts, "Deadline: "+grant.CloseDate.Format("2006-01-02"))
	}

	description := cleanSectionText(grant.Raw.Description)
	if description != "" {
		parts = append(parts, "\nDescription:\n"+truncate(description, descriptionCap))
	}

	sections := grant.Raw.Sections

	if about := cleanSectionText(sections.About); about != "" {
		capped := truncate(about, aboutCap)
		if !strings.Contains(description, capped) {
			parts = append(parts, "\nAbout:\n"+capped)
		}
	}

	if eligibility := cleanSectionText(sections.Eligibility); eligibility != "" {
		parts = append(parts, "\nEligibility:\n"+truncate(eligibility, eligibilityCap))
	}

	if len(sections.Funding) > 0 {
		parts = append(parts, "\nFunding:")
		for i, country := range sortedKeys(sections.Funding) {
			if i >= 5 {
				break
			}
			info := truncate(cleanSectionText(sections.Funding[country]), fundingCap)
			parts = append(parts, fmt.Sprintf("  %s: %s", country, info))
		}
	}

	if keyDates := cleanSectionText(sections.KeyDates); keyDates != "" {
		parts = append(parts, "\nKey Dates:\n"+truncate(keyDates, keyDatesCap))
	}

	if howToApply := cleanSectionText(sections.HowToApply); howToApply != "" {
		parts = append(parts, "\nHow to Apply:\n"+truncate(howToApply, howToApplyCap))
	}

	if len(sections.CountryInfo) > 0 {
		parts = append(parts, "\nCountry Information:")
		for i, country := range sortedKeys(sections.CountryInfo) {
			if i >= 3 {
				break
			}
			info := truncate(cleanSectionText(sections.CountryInfo[country]), countryInfoCap)
			parts = append(parts, fmt.Sprintf("  %s: %s", country, info))
		}
	}

	return strings.Join(parts, "\n")
}

func cleanSectionText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripMarkup.Sanitize(s)))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
