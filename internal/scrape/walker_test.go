package scrape

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testSource(baseURL string) *SourceConfig {
	return &SourceConfig{
		ID:      "eureka_network",
		BaseURL: baseURL,
		Listing: ListingConfig{
			Path:       "/programmes-and-calls/",
			Categories: []string{"open"},
			MaxPages:   5,
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 5,
			MaxRetries:     1,
			RateLimitRPS:   200,
		},
		ExcludePaths: []string{
			"/programmes-and-calls/",
			"/programmes-and-calls/eurostars/",
		},
		ExcludePatterns: []string{"/page/"},
		SupplementalPat: "/investment-readiness/",
		Workers:         2,
	}
}

func TestDiscover_PaginatesAndFilters(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("paged") {
		case "1":
			fmt.Fprintf(w, `<html><body>
<a href="/programmes-and-calls/call-a/">Call A</a>
<a href="/programmes-and-calls/eurostars/">Eurostars overview</a>
<a href="/programmes-and-calls/page/2/">2</a>
<a href="/programmes-and-calls/investment-readiness/top-up-2025/">Top-up</a>
<a href="/programmes-and-calls/?status=open&paged=2">Next →</a>
</body></html>`)
		case "2":
			fmt.Fprintf(w, `<html><body>
<a href="/programmes-and-calls/call-b/">Call B</a>
<a href="/programmes-and-calls/call-a/?utm_source=tab">Call A again</a>
</body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	run := NewRun(testSource(server.URL), time.Now())
	listings, err := Discover(run)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	if len(listings) != 3 {
		t.Fatalf("expected 3 listings, got %d: %+v", len(listings), listings)
	}
	if listings[0].URL != server.URL+"/programmes-and-calls/call-a" {
		t.Fatalf("unexpected first listing: %s", listings[0].URL)
	}
	if !listings[1].IsSupplemental {
		t.Fatalf("investment readiness listing must be supplemental: %+v", listings[1])
	}
	if listings[2].URL != server.URL+"/programmes-and-calls/call-b" {
		t.Fatalf("unexpected last listing: %s", listings[2].URL)
	}
	for _, l := range listings {
		if l.Category != "open" {
			t.Fatalf("unexpected category: %+v", l)
		}
	}

	if run.Stats.PagesFetched != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", run.Stats.PagesFetched)
	}
	if run.Stats.Discovered != 3 {
		t.Fatalf("expected 3 discovered, got %d", run.Stats.Discovered)
	}
}

func TestDiscover_FailedCategoryIsSkippedNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") == "closed" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `<html><body><a href="/programmes-and-calls/call-a/">Call A</a></body></html>`)
	}))
	defer server.Close()

	source := testSource(server.URL)
	source.Listing.Categories = []string{"open", "closed", "upcoming"}

	run := NewRun(source, time.Now())
	listings, err := Discover(run)
	if err != nil {
		t.Fatalf("one bad category must not be fatal: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if run.Stats.Failed != 1 {
		t.Fatalf("expected 1 recorded failure, got %d", run.Stats.Failed)
	}
	if run.Stats.PagesByCategory["closed"] != 0 {
		t.Fatalf("failed category must not count pages: %v", run.Stats.PagesByCategory)
	}
}

func TestDiscover_NoPagesAtAllIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	run := NewRun(testSource(server.URL), time.Now())
	if _, err := Discover(run); err != ErrNoListingPages {
		t.Fatalf("expected ErrNoListingPages, got %v", err)
	}
}

func TestIsExcluded(t *testing.T) {
	source := testSource("https://www.eurekanetwork.org")

	tests := []struct {
		url      string
		excluded bool
	}{
		{"https://www.eurekanetwork.org/programmes-and-calls", true},
		{"https://www.eurekanetwork.org/programmes-and-calls/eurostars", true},
		{"https://www.eurekanetwork.org/programmes-and-calls/eurostars-call-9", false},
		{"https://www.eurekanetwork.org/programmes-and-calls/page/3", true},
		{"https://www.eurekanetwork.org/programmes-and-calls/call-a", false},
	}
	for _, tt := range tests {
		if got := isExcluded(source, tt.url); got != tt.excluded {
			t.Fatalf("isExcluded(%s): expected %v, got %v", tt.url, tt.excluded, got)
		}
	}
}
