package scrape

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/ailsa/eureka-scraper/internal/models"
)

// AssembleAll fetches, parses and normalizes every discovered listing with a
// bounded worker pool. The output preserves discovery order regardless of
// fetch completion order: results land in a slice indexed by discovery
// position and are collected in one ordered pass afterwards.
//
// Per-item failures are recorded on the run and never abort the whole
// assembly.
func AssembleAll(ctx context.Context, run *Run, listings []models.GrantListing) []*models.NormalizedGrant {
	results := make([]models.AssembleResult, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(run.Workers())

	for i, listing := range listings {
		i, listing := i, listing
		g.Go(func() error {
			grant, err := AssembleOne(gctx, run, listing)
			results[i] = models.AssembleResult{Index: i, Grant: grant, Err: err}
			return nil
		})
	}
	// Workers always return nil; expected failures travel in the results.
	g.Wait()

	grants := make([]*models.NormalizedGrant, 0, len(listings))
	for _, res := range results {
		if res.Failed() {
			log.Printf("[assembler] dropping %s: %v", listings[res.Index].URL, res.Err)
			run.RecordFailure(listings[res.Index].URL, res.Err.Error())
			continue
		}
		if res.Grant == nil {
			continue
		}
		if !run.MarkIDSeen(res.Grant.ID) {
			log.Printf("[assembler] duplicate id %s from %s, keeping first", res.Grant.ID, res.Grant.URL)
			run.mu.Lock()
			run.Stats.Duplicates++
			run.mu.Unlock()
			continue
		}
		grants = append(grants, res.Grant)
	}

	run.Stats.Assembled = len(grants)
	return grants
}

// AssembleOne runs fetch, parse, infer and normalize for a single listing
// entry.
func AssembleOne(ctx context.Context, run *Run, listing models.GrantListing) (*models.NormalizedGrant, error) {
	doc, err := run.Fetcher.Fetch(ctx, listing.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch detail page: %w", err)
	}

	htmlDoc, err := goquery.NewDocumentFromReader(doc.Body)
	doc.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	page := ParseDetailPage(htmlDoc)
	if page.Title == "" {
		return nil, fmt.Errorf("no title on %s", listing.URL)
	}

	openDate, closeDate := ExtractDates(page.Text)

	// No close date in the HTML: look inside a linked application PDF
	// before giving up on the deadline.
	if closeDate == nil && len(page.PDFLinks) > 0 {
		if pdfURL := resolveLink(listing.URL, page.PDFLinks[0]); pdfURL != "" {
			enriched, err := EnrichCloseDateFromPDF(ctx, run.Fetcher, pdfURL, run.Now)
			if err != nil {
				log.Printf("[assembler] pdf enrichment failed for %s: %v", pdfURL, err)
			} else if enriched != nil {
				closeDate = enriched
			}
		}
	}

	page.FundingInfo = ExtractFundingInfo(page.Text)

	return Normalize(listing, page, openDate, closeDate, run.Now), nil
}

// resolveLink makes a possibly relative href absolute against its page URL.
func resolveLink(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	rel, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(rel).String()
}
