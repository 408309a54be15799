package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ailsa/eureka-scraper/internal/models"
	"github.com/ailsa/eureka-scraper/internal/scrape"
)

func main() {
	path := flag.String("input", "data/eureka_network/normalized.json", "normalized output file to report on")
	status := flag.String("status", "", "only show grants with this status (Open, Closed, Unknown)")
	flag.Parse()

	grants, err := scrape.ReadNormalized(*path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *path, err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Call ID", "Programme", "Status", "Opens", "Closes", "Suppl", "Title"})

	counts := map[string]int{}
	shown := 0
	for _, g := range grants {
		counts[g.Status]++
		if *status != "" && g.Status != *status {
			continue
		}
		t.AppendRow(table.Row{
			truncate(g.CallID, 32),
			g.Programme,
			g.Status,
			formatDate(g.OpenDate),
			formatDate(g.CloseDate),
			boolMark(g.IsSupplemental),
			truncate(g.Title, 48),
		})
		shown++
	}
	t.Render()

	fmt.Printf("\n%d of %d grants shown (Open: %d, Closed: %d, Unknown: %d)\n",
		shown, len(grants), counts[models.StatusOpen], counts[models.StatusClosed], counts[models.StatusUnknown])
}

func formatDate(d *models.ISOTime) string {
	if d == nil {
		return "-"
	}
	return d.Format("2006-01-02")
}

func boolMark(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
