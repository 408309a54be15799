package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ailsa/eureka-scraper/internal/models"
)

// countryHeadingNames are countries that appear as per-country funding
// headings on call pages.
var countryHeadingNames = []string{
	"canada", "chile", "sweden", "brazil", "france", "singapore", "germany", "israel",
}

// ParsedPage is everything the parser lifts out of one detail page.
type ParsedPage struct {
	Title       string
	Description string
	FundingInfo string
	Sections    models.RawSections
	Breadcrumb  string
	PDFLinks    []string
	Text        string // full page text, for date and funding scans
}

// ParseDetailPage extracts the structured sections from a call detail page.
// It never fails on missing sections; every RawSections key is populated,
// empty when the page lacks that section. All site-specific markup knowledge
// lives here.
func ParseDetailPage(doc *goquery.Document) *ParsedPage {
	page := &ParsedPage{
		Sections: models.NewRawSections(),
		Text:     doc.Text(),
	}

	page.Title = extractTitle(doc)
	page.Breadcrumb = extractBreadcrumb(doc)
	page.PDFLinks = collectPDFLinks(doc)

	main := mainContent(doc)
	parseHeadingSections(main, page)

	// Description falls back to the leading paragraphs when no About
	// heading exists.
	if page.Sections.About != "" {
		page.Description = page.Sections.About
	} else {
		page.Description = leadingParagraphs(main, 5)
	}

	return page
}

// mainContent narrows to the page's content area when the theme wraps it.
func mainContent(doc *goquery.Document) *goquery.Selection {
	if s := doc.Find("div.entry-content"); s.Length() > 0 {
		return s.First()
	}
	if s := doc.Find("main"); s.Length() > 0 {
		return s.First()
	}
	return doc.Selection
}

// parseHeadingSections walks every h1..h4 heading, collects the sibling
// text until the next heading, and files it under the matching section.
func parseHeadingSections(main *goquery.Selection, page *ParsedPage) {
	main.Find("h1, h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		headingText := strings.ToLower(normalizeSpace(heading.Text()))
		if headingText == "" {
			return
		}

		content := collectSectionContent(heading)

		switch {
		case containsAny(headingText, "about", "overview", "description", "summary"):
			page.Sections.About = content
		case containsAny(headingText, "eligibility", "eligible", "who can apply"):
			page.Sections.Eligibility = content
		case containsAny(headingText, "funding", "budget", "financial support"):
			if country := matchCountryHeading(headingText); country != "" {
				page.Sections.Funding[country] = content
			} else if perCountry := splitFundingByCountry(content); len(perCountry) > 0 {
				for country, amount := range perCountry {
					page.Sections.Funding[country] = amount
				}
			} else {
				page.Sections.Funding["general"] = content
			}
		case containsAny(headingText, "how to apply", "application", "apply"):
			page.Sections.HowToApply = content
		case containsAny(headingText, "timeline", "key dates", "important dates", "dates"):
			page.Sections.KeyDates = content
		case containsAny(headingText, "country", "national", "participating"):
			page.Sections.CountryInfo[headingText] = content
		}
	})
}

// collectSectionContent gathers the text of p/ul/ol/div siblings following a
// heading, stopping at the next heading. Paragraph breaks become newlines.
func collectSectionContent(heading *goquery.Selection) string {
	var parts []string
	for sibling := heading.Next(); sibling.Length() > 0; sibling = sibling.Next() {
		tag := goquery.NodeName(sibling)
		if tag == "h1" || tag == "h2" || tag == "h3" || tag == "h4" {
			break
		}
		switch tag {
		case "ul", "ol":
			sibling.Find("li").Each(func(_ int, li *goquery.Selection) {
				if text := normalizeSpace(li.Text()); text != "" {
					parts = append(parts, text)
				}
			})
		case "p", "div":
			if text := normalizeSpace(sibling.Text()); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// splitFundingByCountry breaks a funding block of "Country: amount" lines
// into a per-country map. Returns nil when the block is not shaped that way,
// in which case the whole block files under "general".
func splitFundingByCountry(content string) map[string]string {
	perCountry := map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil
		}
		name = strings.TrimSpace(name)
		if matchCountryHeading(strings.ToLower(name)) == "" {
			return nil
		}
		perCountry[name] = strings.TrimSpace(rest)
	}
	if len(perCountry) == 0 {
		return nil
	}
	return perCountry
}

// matchCountryHeading returns the title-cased country name when a funding
// heading is country specific, or "" for a general funding block.
func matchCountryHeading(headingText string) string {
	for _, country := range countryHeadingNames {
		if strings.Contains(headingText, country) {
			first := strings.Fields(headingText)[0]
			return strings.ToUpper(first[:1]) + first[1:]
		}
	}
	return ""
}

// leadingParagraphs joins the first maxCount substantial paragraphs (> 20
// chars) of the content area.
func leadingParagraphs(main *goquery.Selection, maxCount int) string {
	var parts []string
	main.Find("p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		if i >= maxCount {
			return false
		}
		text := normalizeSpace(p.Text())
		if len(text) > 20 {
			parts = append(parts, text)
		}
		return true
	})
	return strings.Join(parts, " ")
}

// extractTitle prefers the h1, falling back to the <title> tag without the
// site suffix.
func extractTitle(doc *goquery.Document) string {
	if h1 := normalizeSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}

	title := normalizeSpace(doc.Find("title").First().Text())
	for _, sep := range []string{" - Eureka Network", " – Eureka Network", " | Eureka Network"} {
		if idx := strings.Index(title, sep); idx >= 0 {
			title = strings.TrimSpace(title[:idx])
		}
	}
	return title
}

// extractBreadcrumb returns the first breadcrumb label that is not a site
// landmark, used as a programme fallback.
func extractBreadcrumb(doc *goquery.Document) string {
	var found string
	doc.Find(`a[class*="breadcrumb"], nav[class*="breadcrumb"] a, .breadcrumbs a`).
		EachWithBreak(func(_ int, a *goquery.Selection) bool {
			text := normalizeSpace(a.Text())
			if text == "" || text == "Home" || text == "Programmes and Calls" {
				return true
			}
			found = text
			return false
		})
	return found
}

// collectPDFLinks gathers absolute-ish PDF hrefs for deadline enrichment.
func collectPDFLinks(doc *goquery.Document) []string {
	var links []string
	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		lower := strings.ToLower(href)
		if !strings.HasSuffix(lower, ".pdf") && !strings.Contains(lower, ".pdf?") {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})
	return links
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
