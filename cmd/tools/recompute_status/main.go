package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/ailsa/eureka-scraper/internal/db"
	"github.com/ailsa/eureka-scraper/internal/scrape"
)

// Stored statuses go stale as deadlines pass between scrape runs. This
// re-derives every grant's status from its stored dates and updates the
// rows that changed.
func main() {
	dryRun := flag.Bool("dry-run", false, "report changes without updating rows")
	flag.Parse()

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT grant_id, status, opens_at, closes_at FROM grants")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	type change struct {
		id       string
		old, new string
	}
	var changes []change
	now := time.Now().UTC()
	scanned := 0

	for rows.Next() {
		var id, status string
		var opensAt, closesAt *time.Time
		if err := rows.Scan(&id, &status, &opensAt, &closesAt); err != nil {
			log.Printf("Scan error: %v", err)
			continue
		}
		scanned++
		derived := scrape.InferStatus(opensAt, closesAt, now)
		if derived != status {
			changes = append(changes, change{id: id, old: status, new: derived})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		log.Fatalf("Row iteration failed: %v", err)
	}

	for _, c := range changes {
		log.Printf("%s: %s -> %s", c.id, c.old, c.new)
		if *dryRun {
			continue
		}
		_, err := pool.Exec(ctx,
			"UPDATE grants SET status = $1, updated_at = now() WHERE grant_id = $2",
			c.new, c.id)
		if err != nil {
			log.Printf("Update failed for %s: %v", c.id, err)
		}
	}

	log.Printf("Scanned %d grants, %d status changes (dry-run=%v)", scanned, len(changes), *dryRun)
}
