package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/ailsa/eureka-scraper/internal/models"
)

func sampleGrant() *models.NormalizedGrant {
	sections := models.NewRawSections()
	sections.About = "Joint R&D projects between European and Taiwanese organisations."
	sections.Eligibility = "At least one SME from a Eureka country."
	sections.Funding["Germany"] = "€50,000 per partner"
	sections.Funding["France"] = "€30,000 per partner"
	sections.KeyDates = "Opens 2 June 2025, closes 21 November 2025."
	sections.HowToApply = "Submit via the Eureka project platform."

	return &models.NormalizedGrant{
		ID:        "eureka_network:globalstars-taiwan-2025",
		Source:    models.Source,
		Title:     "Globalstars Taiwan 2025",
		URL:       "https://www.eurekanetwork.org/programmes-and-calls/globalstars/globalstars-taiwan-2025",
		Status:    models.StatusOpen,
		Programme: "Globalstars",
		CallID:    "globalstars-taiwan-2025",
		OpenDate:  models.NewISOTime(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)),
		CloseDate: models.NewISOTime(time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)),
		Raw: models.RawPayload{
			Description: "A different summary than the about section carries.",
			Sections:    sections,
		},
	}
}

func TestEmbeddingText_Labels(t *testing.T) {
	text := EmbeddingText(sampleGrant())

	expected := []string{
		"Title: Globalstars Taiwan 2025",
		"Programme: Globalstars",
		"Source: Eureka Network",
		"Type: R&D Grant",
		"Status: Open",
		"Opens: 2025-06-02",
		"Deadline: 2025-11-21",
		"Description:",
		"About:",
		"Eligibility:",
		"Funding:",
		"  Germany: €50,000 per partner",
		"  France: €30,000 per partner",
		"Key Dates:",
		"How to Apply:",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Fatalf("embedding text missing %q:\n%s", want, text)
		}
	}
}

func TestEmbeddingText_SupplementalType(t *testing.T) {
	grant := sampleGrant()
	grant.IsSupplemental = true

	text := EmbeddingText(grant)
	if !strings.Contains(text, "Type: Investment Readiness (Supplemental)") {
		t.Fatalf("missing supplemental type label:\n%s", text)
	}
	if strings.Contains(text, "Type: R&D Grant") {
		t.Fatalf("supplemental grant must not carry the R&D type:\n%s", text)
	}
}

func TestEmbeddingText_SkipsAboutWhenItIsTheDescription(t *testing.T) {
	grant := sampleGrant()
	grant.Raw.Description = grant.Raw.Sections.About

	text := EmbeddingText(grant)
	if strings.Contains(text, "\nAbout:\n") {
		t.Fatalf("about duplicated into description must be skipped:\n%s", text)
	}
}

func TestEmbeddingText_CapsLongSections(t *testing.T) {
	grant := sampleGrant()
	grant.Raw.Sections.Eligibility = strings.Repeat("eligibility rules ", 100)

	text := EmbeddingText(grant)
	start := strings.Index(text, "Eligibility:\n")
	if start < 0 {
		t.Fatalf("missing eligibility section:\n%s", text)
	}
	section := text[start+len("Eligibility:\n"):]
	if end := strings.Index(section, "\n\n"); end >= 0 {
		section = section[:end]
	}
	if got := len([]rune(section)); got > 750 {
		t.Fatalf("eligibility must be capped at 750 runes, got %d", got)
	}
}

func TestEmbeddingText_StripsMarkupAndEntities(t *testing.T) {
	grant := sampleGrant()
	grant.Raw.Description = "<p>Funding for <strong>R&amp;D</strong> projects.</p>"

	text := EmbeddingText(grant)
	if strings.Contains(text, "<p>") || strings.Contains(text, "<strong>") {
		t.Fatalf("markup must be stripped:\n%s", text)
	}
	if !strings.Contains(text, "Funding for R&D projects.") {
		t.Fatalf("entities must be unescaped:\n%s", text)
	}
}

func TestEmbeddingText_LimitsFundingCountries(t *testing.T) {
	grant := sampleGrant()
	for _, c := range []string{"Austria", "Belgium", "Chile", "Denmark", "Estonia", "Finland", "Greece"} {
		grant.Raw.Sections.Funding[c] = "national rules apply"
	}

	text := EmbeddingText(grant)
	funding := text[strings.Index(text, "Funding:"):]
	if idx := strings.Index(funding, "\n\n"); idx >= 0 {
		funding = funding[:idx]
	}
	lines := strings.Count(funding, "\n  ")
	if lines > 5 {
		t.Fatalf("expected at most 5 funding countries, got %d:\n%s", lines, funding)
	}
}
