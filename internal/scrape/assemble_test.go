package scrape

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ailsa/eureka-scraper/internal/models"
)

// stubFetcher serves canned HTML bodies keyed by URL.
type stubFetcher struct {
	pages map[string]string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*FetchedDocument, error) {
	body, ok := s.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return &FetchedDocument{
		URL:        url,
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(body)),
		FetchedAt:  time.Now(),
	}, nil
}

func detailPage(title, body string) string {
	return `<html><head><title>` + title + `</title></head><body><div class="entry-content"><h1>` +
		title + `</h1>` + body + `</div></body></html>`
}

func assembleRun(pages map[string]string) *Run {
	run := NewRun(testSource("https://www.eurekanetwork.org"), time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC))
	run.Fetcher = &stubFetcher{pages: pages}
	return run
}

func TestAssembleAll_PreservesDiscoveryOrder(t *testing.T) {
	urlA := "https://www.eurekanetwork.org/programmes-and-calls/call-a"
	urlB := "https://www.eurekanetwork.org/programmes-and-calls/call-b"

	run := assembleRun(map[string]string{
		urlA: detailPage("Call A", `<h2>Key dates</h2><p>Submission deadline: 21 November 2025</p>`),
		urlB: detailPage("Call B", `<h2>Key dates</h2><p>Submission deadline: 1 October 2025</p>`),
	})

	grants := AssembleAll(context.Background(), run, []models.GrantListing{
		{URL: urlA, Category: "open"},
		{URL: urlB, Category: "closed"},
	})

	if len(grants) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(grants))
	}
	if grants[0].CallID != "call-a" || grants[1].CallID != "call-b" {
		t.Fatalf("discovery order not preserved: %s, %s", grants[0].CallID, grants[1].CallID)
	}
	if grants[0].Status != models.StatusOpen {
		t.Fatalf("deadline after run time must be Open, got %s", grants[0].Status)
	}
	if grants[1].Status != models.StatusClosed {
		t.Fatalf("deadline before run time must be Closed, got %s", grants[1].Status)
	}
	if run.Stats.Assembled != 2 {
		t.Fatalf("expected assembled=2, got %d", run.Stats.Assembled)
	}
}

func TestAssembleAll_FailureDoesNotAbortOthers(t *testing.T) {
	urlA := "https://www.eurekanetwork.org/programmes-and-calls/call-a"
	urlB := "https://www.eurekanetwork.org/programmes-and-calls/call-b"

	run := assembleRun(map[string]string{
		urlB: detailPage("Call B", `<p>Still a valid call page.</p>`),
	})

	grants := AssembleAll(context.Background(), run, []models.GrantListing{
		{URL: urlA},
		{URL: urlB},
	})

	if len(grants) != 1 || grants[0].CallID != "call-b" {
		t.Fatalf("expected only call-b to survive, got %+v", grants)
	}
	if run.Stats.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", run.Stats.Failed)
	}
	if len(run.Stats.Failures) != 1 || run.Stats.Failures[0].URL != urlA {
		t.Fatalf("unexpected failure record: %+v", run.Stats.Failures)
	}
}

func TestAssembleAll_DuplicateIDKeepsFirst(t *testing.T) {
	urlA := "https://www.eurekanetwork.org/programmes-and-calls/globalstars/call-x"
	urlB := "https://www.eurekanetwork.org/programmes-and-calls/eurostars/call-x"

	run := assembleRun(map[string]string{
		urlA: detailPage("Call X via Globalstars", `<p>First occurrence of the call.</p>`),
		urlB: detailPage("Call X via Eurostars", `<p>Second occurrence of the call.</p>`),
	})

	grants := AssembleAll(context.Background(), run, []models.GrantListing{
		{URL: urlA},
		{URL: urlB},
	})

	if len(grants) != 1 {
		t.Fatalf("expected 1 grant after dedup, got %d", len(grants))
	}
	if grants[0].URL != urlA {
		t.Fatalf("first-seen grant must win, got %s", grants[0].URL)
	}
	if run.Stats.Duplicates != 1 {
		t.Fatalf("expected duplicates=1, got %d", run.Stats.Duplicates)
	}
}

func TestAssembleOne_MissingTitleFails(t *testing.T) {
	url := "https://www.eurekanetwork.org/programmes-and-calls/broken"
	run := assembleRun(map[string]string{
		url: `<html><body><p>No heading or title anywhere.</p></body></html>`,
	})

	if _, err := AssembleOne(context.Background(), run, models.GrantListing{URL: url}); err == nil {
		t.Fatal("expected an error for a page without a title")
	}
}

func TestAssembleOne_SupplementalFlagCarriesThrough(t *testing.T) {
	url := "https://www.eurekanetwork.org/programmes-and-calls/investment-readiness/top-up-2025"
	run := assembleRun(map[string]string{
		url: detailPage("Investment Readiness Top-up", `<p>Supplemental funding for alumni.</p>`),
	})

	grant, err := AssembleOne(context.Background(), run, models.GrantListing{URL: url, IsSupplemental: true})
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if !grant.IsSupplemental {
		t.Fatal("expected is_supplemental=true")
	}
	if grant.Programme != "Investment Readiness" {
		t.Fatalf("unexpected programme: %s", grant.Programme)
	}
}
