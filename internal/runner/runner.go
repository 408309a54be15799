package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ailsa/eureka-scraper/internal/ai"
	"github.com/ailsa/eureka-scraper/internal/db"
	"github.com/ailsa/eureka-scraper/internal/ingest"
	"github.com/ailsa/eureka-scraper/internal/models"
	"github.com/ailsa/eureka-scraper/internal/scrape"
)

// Options configure one end-to-end run.
type Options struct {
	SourceID   string // registry source, default "eureka_network"
	Limit      int    // cap on assembled calls, 0 = all
	OutputPath string // override the registry output path
	DryRun     bool   // assemble only, write and ingest nothing
	SkipIngest bool   // write output but skip the database hand-off
	LogDir     string // where run summaries go, default "logs"
}

// Result is what one run produced.
type Result struct {
	Summary *scrape.RunSummary
	Grants  []*models.NormalizedGrant
	Fatal   error
}

// ExitCode maps a finished run onto the cron contract: 0 full success,
// 1 fatal, 2 partial.
func (r *Result) ExitCode() int {
	switch {
	case r.Fatal != nil:
		return 1
	case r.Summary != nil && r.Summary.Stats.Failed > 0:
		return 2
	default:
		return 0
	}
}

// Do executes the whole pipeline once: scrape, write, ingest, summarize.
// The returned Result always carries a summary, even for fatal runs, so the
// caller and the latest_run.json file agree on what happened.
func Do(ctx context.Context, opts Options) *Result {
	if opts.SourceID == "" {
		opts.SourceID = models.Source
	}
	if opts.LogDir == "" {
		opts.LogDir = "logs"
	}

	started := time.Now()
	summary := &scrape.RunSummary{
		Source:    opts.SourceID,
		StartedAt: started,
	}
	result := &Result{Summary: summary}

	registry, err := scrape.LoadRegistry("config/sources.yaml")
	if err != nil {
		result.Fatal = fmt.Errorf("load registry: %w", err)
		finish(summary, result, opts)
		return result
	}
	source, err := registry.Source(opts.SourceID)
	if err != nil {
		result.Fatal = err
		finish(summary, result, opts)
		return result
	}

	run := scrape.NewRun(source, started)
	summary.RunID = run.ID
	summary.OutputPath = opts.OutputPath
	if summary.OutputPath == "" {
		summary.OutputPath = source.OutputPath
	}

	grants, err := scrape.Execute(ctx, run, scrape.ExecuteOptions{
		Limit:      opts.Limit,
		OutputPath: opts.OutputPath,
		SkipWrite:  opts.DryRun,
	})
	result.Grants = grants
	summary.Stats = run.Stats
	if err != nil {
		result.Fatal = err
		finish(summary, result, opts)
		return result
	}

	if !opts.DryRun && !opts.SkipIngest && os.Getenv("DATABASE_URL") != "" {
		summary.Ingested = ingestGrants(ctx, grants)
	}

	finish(summary, result, opts)
	return result
}

// ingestGrants hands the run output to Postgres. Ingestion problems never
// fail the run; the scrape output on disk is already good.
func ingestGrants(ctx context.Context, grants []*models.NormalizedGrant) int {
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Printf("[runner] skipping ingestion, db unavailable: %v", err)
		return 0
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Printf("[runner] skipping ingestion, migrations failed: %v", err)
		return 0
	}

	var embedder ai.Embedder
	if os.Getenv("OPENAI_API_KEY") != "" {
		embedder = ai.NewOpenAIClient("", "")
	}

	stats := ingest.NewIngestor(db.NewStore(pool), embedder).IngestAll(ctx, grants)
	return stats.Upserted
}

func finish(summary *scrape.RunSummary, result *Result, opts Options) {
	summary.FinishedAt = time.Now()
	summary.ElapsedSec = summary.FinishedAt.Sub(summary.StartedAt).Seconds()
	summary.Outcome = summary.ClassifyOutcome(result.Fatal)
	if result.Fatal != nil {
		summary.Error = result.Fatal.Error()
	}

	if opts.DryRun {
		return
	}
	if err := scrape.WriteRunSummary(summary, opts.LogDir); err != nil {
		log.Printf("[runner] failed to write run summary: %v", err)
	}
}
