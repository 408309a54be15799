package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestParseDetailPage_FullPage(t *testing.T) {
	doc := parseHTML(t, `<html><head><title>Globalstars Taiwan 2025 - Eureka Network</title></head><body>
<nav class="breadcrumbs"><a href="/">Home</a><a href="/programmes-and-calls/">Programmes and Calls</a><a href="/globalstars/">Globalstars</a></nav>
<div class="entry-content">
<h1>Globalstars Taiwan 2025</h1>
<h2>About the call</h2>
<p>Joint R&amp;D projects between European organisations and Taiwanese partners.</p>
<h2>Eligibility</h2>
<ul><li>At least one SME from a Eureka country</li><li>One partner from Taiwan</li></ul>
<h2>Funding</h2>
<p>Germany: €50,000 per partner</p>
<p>France: €30,000 per partner</p>
<h2>How to apply</h2>
<p>Submit via the Eureka project platform.</p>
<h2>Key dates</h2>
<p>Opens: 2 June 2025. Submission deadline: 21 November 2025.</p>
<h2>Country information</h2>
<p>National contact points are listed below.</p>
<p><a href="/docs/call-guidelines.pdf">Guidelines (PDF)</a></p>
</div></body></html>`)

	page := ParseDetailPage(doc)

	if page.Title != "Globalstars Taiwan 2025" {
		t.Fatalf("unexpected title: %q", page.Title)
	}
	if page.Breadcrumb != "Globalstars" {
		t.Fatalf("unexpected breadcrumb: %q", page.Breadcrumb)
	}
	if !strings.Contains(page.Sections.About, "Taiwanese partners") {
		t.Fatalf("unexpected about: %q", page.Sections.About)
	}
	if !strings.Contains(page.Sections.Eligibility, "At least one SME") {
		t.Fatalf("unexpected eligibility: %q", page.Sections.Eligibility)
	}
	if got := page.Sections.Funding["Germany"]; got != "€50,000 per partner" {
		t.Fatalf("unexpected Germany funding: %q", got)
	}
	if got := page.Sections.Funding["France"]; got != "€30,000 per partner" {
		t.Fatalf("unexpected France funding: %q", got)
	}
	if !strings.Contains(page.Sections.HowToApply, "project platform") {
		t.Fatalf("unexpected how_to_apply: %q", page.Sections.HowToApply)
	}
	if !strings.Contains(page.Sections.KeyDates, "21 November 2025") {
		t.Fatalf("unexpected key_dates: %q", page.Sections.KeyDates)
	}
	if len(page.Sections.CountryInfo) != 1 {
		t.Fatalf("expected one country_info entry, got %v", page.Sections.CountryInfo)
	}
	if len(page.PDFLinks) != 1 || page.PDFLinks[0] != "/docs/call-guidelines.pdf" {
		t.Fatalf("unexpected pdf links: %v", page.PDFLinks)
	}
	// Description mirrors the about section when one exists.
	if page.Description != page.Sections.About {
		t.Fatalf("description should come from about, got %q", page.Description)
	}
}

func TestParseDetailPage_MissingSectionsStayEmpty(t *testing.T) {
	doc := parseHTML(t, `<html><body><div class="entry-content">
<h1>Minimal call</h1>
<h2>About</h2>
<p>A call with almost no page content.</p>
</div></body></html>`)

	page := ParseDetailPage(doc)

	if page.Sections.Eligibility != "" || page.Sections.HowToApply != "" || page.Sections.KeyDates != "" {
		t.Fatalf("absent sections must be empty strings: %+v", page.Sections)
	}
	if page.Sections.Funding == nil || len(page.Sections.Funding) != 0 {
		t.Fatalf("absent funding must be an empty map: %v", page.Sections.Funding)
	}
	if page.Sections.CountryInfo == nil || len(page.Sections.CountryInfo) != 0 {
		t.Fatalf("absent country_info must be an empty map: %v", page.Sections.CountryInfo)
	}
}

func TestParseDetailPage_GeneralFundingFallback(t *testing.T) {
	doc := parseHTML(t, `<html><body><div class="entry-content">
<h1>Cluster call</h1>
<h2>Funding</h2>
<p>Funding conditions depend on your national funding body.</p>
</div></body></html>`)

	page := ParseDetailPage(doc)

	if got := page.Sections.Funding["general"]; !strings.Contains(got, "national funding body") {
		t.Fatalf("expected general funding bucket, got %v", page.Sections.Funding)
	}
}

func TestParseDetailPage_CountrySpecificFundingHeading(t *testing.T) {
	doc := parseHTML(t, `<html><body><div class="entry-content">
<h1>Bilateral call</h1>
<h2>Canada funding</h2>
<p>Up to 750,000 Canadian dollars per project.</p>
</div></body></html>`)

	page := ParseDetailPage(doc)

	if got := page.Sections.Funding["Canada"]; !strings.Contains(got, "750,000") {
		t.Fatalf("expected Canada funding bucket, got %v", page.Sections.Funding)
	}
}

func TestParseDetailPage_DescriptionFallsBackToLeadingParagraphs(t *testing.T) {
	doc := parseHTML(t, `<html><body><div class="entry-content">
<h1>Call without an about heading</h1>
<p>Short.</p>
<p>This is the first substantial paragraph of the page.</p>
<p>And this is the second substantial paragraph of the page.</p>
</div></body></html>`)

	page := ParseDetailPage(doc)

	if !strings.Contains(page.Description, "first substantial paragraph") {
		t.Fatalf("unexpected description: %q", page.Description)
	}
	if strings.Contains(page.Description, "Short.") {
		t.Fatalf("short paragraphs must be skipped: %q", page.Description)
	}
}

func TestExtractTitle_FallsBackToTitleTag(t *testing.T) {
	doc := parseHTML(t, `<html><head><title>Innowwide Call 2025 - Eureka Network</title></head><body><p>No heading here.</p></body></html>`)

	if got := extractTitle(doc); got != "Innowwide Call 2025" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestSplitFundingByCountry(t *testing.T) {
	got := splitFundingByCountry("Germany: €50,000\nFrance: €30,000")
	if len(got) != 2 || got["Germany"] != "€50,000" || got["France"] != "€30,000" {
		t.Fatalf("unexpected split: %v", got)
	}

	if got := splitFundingByCountry("Funding depends on the national body"); got != nil {
		t.Fatalf("non country-shaped content must return nil, got %v", got)
	}
}
