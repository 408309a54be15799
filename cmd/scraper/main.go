package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ailsa/eureka-scraper/internal/runner"
)

func main() {
	sourceID := flag.String("source", "eureka_network", "source ID from the registry")
	limit := flag.Int("limit", 0, "cap the number of detail pages assembled (0 = no cap)")
	output := flag.String("output", "", "override the output JSON path")
	logDir := flag.String("logs", "logs", "directory for run summaries")
	dryRun := flag.Bool("dry-run", false, "scrape and print counts without writing output or summaries")
	skipIngest := flag.Bool("skip-ingest", false, "skip the database ingestion step")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result := runner.Do(ctx, runner.Options{
		SourceID:   *sourceID,
		Limit:      *limit,
		OutputPath: *output,
		DryRun:     *dryRun,
		SkipIngest: *skipIngest,
		LogDir:     *logDir,
	})

	if result.Fatal != nil {
		log.Printf("[scraper] run failed: %v", result.Fatal)
	} else {
		s := result.Summary
		log.Printf("[scraper] %s: %d discovered, %d assembled, %d duplicates, %d failed (%.1fs)",
			s.Outcome, s.Stats.Discovered, s.Stats.Assembled, s.Stats.Duplicates, s.Stats.Failed, s.ElapsedSec)
	}

	os.Exit(result.ExitCode())
}
