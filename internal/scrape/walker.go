package scrape

import (
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/ailsa/eureka-scraper/internal/models"
)

var pagedParamRe = regexp.MustCompile(`paged=(\d+)`)

// Discover walks the paginated listing index for every configured category
// and returns the distinct call detail URLs in discovery order.
//
// Pagination per category is sequential: each page's "next" signal decides
// whether another page exists. A page-fetch failure skips the rest of that
// category and continues with the others; only a run where no listing page
// at all could be fetched is fatal.
func Discover(run *Run) ([]models.GrantListing, error) {
	base, err := url.Parse(run.Source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.UserAgent(run.Source.Fetch.UserAgent),
		colly.DetectCharset(),
		colly.AllowURLRevisit(),
	)

	delay := time.Second
	if rps := run.Source.Fetch.RateLimitRPS; rps > 0 {
		delay = time.Duration(float64(time.Second) / rps)
	}
	collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
	})
	if run.Source.Fetch.TimeoutSeconds > 0 {
		collector.SetRequestTimeout(time.Duration(run.Source.Fetch.TimeoutSeconds) * time.Second)
	}

	// Per-page state, reset before each Visit. The collector runs
	// synchronously so no locking is needed here.
	var (
		listings  []models.GrantListing
		category  string
		pageLinks int
		hasNext   bool
		maxPage   int
		pageErr   error
	)

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Attr("href")

		// Pagination signals: an explicit next link, or numbered page
		// links beyond the current one.
		text := strings.TrimSpace(e.Text)
		if strings.Contains(text, "Next") || strings.Contains(text, "→") {
			hasNext = true
		}
		if m := pagedParamRe.FindStringSubmatch(href); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > maxPage {
				maxPage = n
			}
		}

		if !strings.Contains(href, "/programmes-and-calls/") {
			return
		}

		full := CanonicalizeCallURL(e.Request.AbsoluteURL(href))
		if full == "" || isExcluded(run.Source, full) {
			return
		}
		if len(pathSegments(full)) < 2 {
			return
		}
		if !run.MarkURLSeen(full) {
			return
		}

		pageLinks++
		listings = append(listings, models.GrantListing{
			URL:            full,
			Category:       category,
			IsSupplemental: isSupplemental(run.Source, full),
		})
	})

	collector.OnError(func(r *colly.Response, err error) {
		pageErr = err
	})

	maxPages := run.Source.Listing.MaxPages
	if maxPages == 0 {
		maxPages = 25
	}

	listingURL := strings.TrimRight(run.Source.BaseURL, "/") + run.Source.Listing.Path

	for _, cat := range run.Source.Listing.Categories {
		category = cat
		for page := 1; page <= maxPages; page++ {
			pageURL := fmt.Sprintf("%s?status=%s&paged=%d", listingURL, cat, page)
			log.Printf("[walker] fetching page %d for status=%s", page, cat)

			pageLinks, hasNext, maxPage, pageErr = 0, false, page, nil

			if err := collector.Visit(pageURL); err != nil {
				pageErr = err
			}
			collector.Wait()

			if pageErr != nil {
				log.Printf("[walker] page %d for status=%s failed, skipping category: %v", page, cat, pageErr)
				run.RecordFailure(pageURL, fmt.Sprintf("listing fetch: %v", pageErr))
				break
			}

			run.Stats.PagesFetched++
			run.Stats.PagesByCategory[cat]++
			log.Printf("[walker] found %d new calls on page %d (status=%s)", pageLinks, page, cat)

			if !hasNext && page >= maxPage {
				break
			}
		}
	}

	if run.Stats.PagesFetched == 0 {
		return nil, ErrNoListingPages
	}

	run.Stats.Discovered = len(listings)
	log.Printf("[walker] discovered %d distinct calls across %d pages", len(listings), run.Stats.PagesFetched)
	return listings, nil
}

// isExcluded reports whether a canonical URL is a programme overview page or
// pagination artifact rather than a call detail page.
func isExcluded(source *SourceConfig, canonical string) bool {
	base := strings.TrimRight(source.BaseURL, "/")
	for _, p := range source.ExcludePaths {
		if canonical == base+strings.TrimRight(p, "/") {
			return true
		}
	}
	for _, sub := range source.ExcludePatterns {
		if strings.Contains(canonical, sub) {
			return true
		}
	}
	return false
}

func isSupplemental(source *SourceConfig, canonical string) bool {
	return source.SupplementalPat != "" && strings.Contains(canonical, source.SupplementalPat)
}
