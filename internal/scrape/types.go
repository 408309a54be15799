package scrape

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// Fetcher retrieves a single document over HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// FetchedDocument is the raw result of a fetch. The caller owns Body and
// must close it.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     http.Header
}

// ErrNoListingPages signals that no listing page could be fetched for any
// category. The run has nothing to work with and must abort.
var ErrNoListingPages = errors.New("no listing pages fetched")
