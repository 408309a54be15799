package ingest

import (
	"context"
	"log"

	"github.com/ailsa/eureka-scraper/internal/ai"
	"github.com/ailsa/eureka-scraper/internal/db"
	"github.com/ailsa/eureka-scraper/internal/models"
)

// Ingestor hands a run's normalized grants to the storage layer: one upsert
// per grant keyed by its stable id, plus an embedding for semantic search.
type Ingestor struct {
	Store    *db.Store
	Embedder ai.Embedder
}

// Stats counts what one ingestion pass did.
type Stats struct {
	Upserted int `json:"upserted"`
	Embedded int `json:"embedded"`
	Failed   int `json:"failed"`
	NoEmbed  int `json:"no_embedding"`
}

func NewIngestor(store *db.Store, embedder ai.Embedder) *Ingestor {
	return &Ingestor{Store: store, Embedder: embedder}
}

// IngestAll upserts every grant. An embedding failure degrades that grant to
// a plain upsert; only a failed upsert counts as a failure.
func (ing *Ingestor) IngestAll(ctx context.Context, grants []*models.NormalizedGrant) Stats {
	var stats Stats

	for _, grant := range grants {
		var embedding []float32
		if ing.Embedder != nil {
			vec, err := ing.Embedder.GenerateEmbedding(ctx, EmbeddingText(grant))
			if err != nil {
				log.Printf("[ingest] embedding failed for %s: %v", db.GrantKey(grant), err)
				stats.NoEmbed++
			} else {
				embedding = vec
			}
		}

		if err := ing.Store.UpsertGrant(ctx, grant, embedding); err != nil {
			log.Printf("[ingest] upsert failed for %s: %v", db.GrantKey(grant), err)
			stats.Failed++
			continue
		}
		stats.Upserted++
		if embedding != nil {
			stats.Embedded++
		}
	}

	log.Printf("[ingest] upserted %d grants (%d embedded, %d failed)",
		stats.Upserted, stats.Embedded, stats.Failed)
	return stats
}
