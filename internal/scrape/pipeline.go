package scrape

import (
	"context"
	"fmt"
	"log"

	"github.com/ailsa/eureka-scraper/internal/models"
)

// ExecuteOptions adjust one pipeline invocation without touching the source
// config.
type ExecuteOptions struct {
	Limit      int    // assemble at most this many discovered calls (0 = all)
	OutputPath string // overrides the source's output path
	SkipWrite  bool   // dry run: assemble but write nothing
}

// Execute runs the full pipeline for one run: discover the call URLs,
// assemble every call concurrently, and atomically write the normalized
// output. Only a fatal condition (no listing pages at all, or a failed
// write) returns an error; per-item failures are counted on the run.
func Execute(ctx context.Context, run *Run, opts ExecuteOptions) ([]*models.NormalizedGrant, error) {
	listings, err := Discover(run)
	if err != nil {
		return nil, fmt.Errorf("discover calls: %w", err)
	}

	if opts.Limit > 0 && len(listings) > opts.Limit {
		log.Printf("[pipeline] limiting run to first %d of %d discovered calls", opts.Limit, len(listings))
		listings = listings[:opts.Limit]
	}

	grants := AssembleAll(ctx, run, listings)
	log.Printf("[pipeline] assembled %d grants, %d failed, %d duplicates",
		len(grants), run.Stats.Failed, run.Stats.Duplicates)

	if opts.SkipWrite {
		return grants, nil
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = run.Source.OutputPath
	}
	if outputPath == "" {
		outputPath = "data/" + models.Source + "/normalized.json"
	}

	if err := WriteNormalized(grants, outputPath); err != nil {
		return grants, fmt.Errorf("write output: %w", err)
	}
	log.Printf("[pipeline] wrote %d grants to %s", len(grants), outputPath)

	return grants, nil
}
