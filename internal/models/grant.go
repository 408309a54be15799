package models

import (
	"fmt"
	"strings"
	"time"
)

// Status of a call, always derived from its dates, never copied from a page
// label.
const (
	StatusOpen    = "Open"
	StatusClosed  = "Closed"
	StatusUnknown = "Unknown"
)

// Source is the identifier for the only site this pipeline scrapes.
const Source = "eureka_network"

// ISOTime marshals as a local ISO-8601 timestamp without a zone suffix
// ("2025-11-21T00:00:00"), matching the normalized output contract.
type ISOTime struct {
	time.Time
}

const isoLayout = "2006-01-02T15:04:05"

func NewISOTime(t time.Time) *ISOTime {
	return &ISOTime{Time: t}
}

func (t ISOTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(isoLayout) + `"`), nil
}

func (t *ISOTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := time.Parse(isoLayout, s)
	if err != nil {
		// Older exports carried full RFC 3339 stamps.
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// GrantListing is one entry discovered on the paginated index. It lives only
// between discovery and assembly.
type GrantListing struct {
	URL            string
	Category       string
	IsSupplemental bool
}

// RawSections is the fixed-shape extraction result for one detail page.
// Every key is always present; a section the page lacks is an empty string
// or empty map, never a missing key.
type RawSections struct {
	About       string            `json:"about"`
	Eligibility string            `json:"eligibility"`
	Funding     map[string]string `json:"funding"`
	HowToApply  string            `json:"how_to_apply"`
	KeyDates    string            `json:"key_dates"`
	CountryInfo map[string]string `json:"country_info"`
}

// NewRawSections returns a RawSections with both maps allocated so callers
// can assign into them without nil checks.
func NewRawSections() RawSections {
	return RawSections{
		Funding:     map[string]string{},
		CountryInfo: map[string]string{},
	}
}

// RawPayload preserves the original extracted text so records can be
// re-normalized without re-scraping.
type RawPayload struct {
	Description string      `json:"description"`
	FundingInfo string      `json:"funding_info"`
	Sections    RawSections `json:"sections"`
}

// NormalizedGrant is the final output unit, one per discovered unique call.
type NormalizedGrant struct {
	ID             string     `json:"id"`
	Source         string     `json:"source"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Status         string     `json:"status"`
	Programme      string     `json:"programme"`
	CallID         string     `json:"call_id"`
	OpenDate       *ISOTime   `json:"open_date"`
	CloseDate      *ISOTime   `json:"close_date"`
	IsSupplemental bool       `json:"is_supplemental"`
	Raw            RawPayload `json:"raw"`
}

// AssembleResult carries either a grant or the reason its assembly failed.
// Expected per-item conditions (fetch timeout, missing section, bad date)
// travel through this type rather than aborting the run.
type AssembleResult struct {
	Index int
	Grant *NormalizedGrant
	Err   error
}

func (r AssembleResult) Failed() bool { return r.Err != nil }
