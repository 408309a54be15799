package scrape

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for the scraped sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 15
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // Default: 2
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 1.0
	UserAgent      string  `yaml:"user_agent,omitempty"`
}

// ListingConfig describes how the paginated index is walked.
type ListingConfig struct {
	Path         string   `yaml:"path"`       // listing endpoint path, e.g. /programmes-and-calls/
	Categories   []string `yaml:"categories"` // status tabs to walk in order
	MaxPages     int      `yaml:"max_pages,omitempty"`
	NextSelector string   `yaml:"next_selector,omitempty"` // CSS selector for the next page link
}

// SourceConfig defines a single scraped source.
type SourceConfig struct {
	ID              string        `yaml:"id"`
	Name            string        `yaml:"name"`
	BaseURL         string        `yaml:"base_url"`
	Listing         ListingConfig `yaml:"listing"`
	Fetch           FetchConfig   `yaml:"fetch,omitempty"`
	ExcludePaths    []string      `yaml:"exclude_paths,omitempty"`    // path prefixes never treated as calls
	ExcludePatterns []string      `yaml:"exclude_patterns,omitempty"` // substrings never treated as calls
	SupplementalPat string        `yaml:"supplemental_pattern,omitempty"`
	Workers         int           `yaml:"workers,omitempty"` // detail fetch pool size, default 6
	OutputPath      string        `yaml:"output_path,omitempty"`
}

// LoadRegistry reads the embedded sources.yaml, or the given path when the
// embed is unavailable (local development overrides).
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	// Expand environment variables within the YAML content (e.g. ${SCRAPER_UA})
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}

	return &reg, nil
}

// Source returns the config with the given id.
func (r *Registry) Source(id string) (*SourceConfig, error) {
	for i := range r.Sources {
		if r.Sources[i].ID == id {
			return &r.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("source %q not found in registry", id)
}
