package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/ailsa/eureka-scraper/internal/models"
)

// Store persists normalized grants. The table is keyed by grant_id, the
// ingestion-layer primary key derived from the call id, so re-running a
// scrape upserts rather than duplicates.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// StoredGrant is one grants-table row.
type StoredGrant struct {
	GrantID        string     `json:"grant_id"`
	Source         string     `json:"source"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Status         string     `json:"status"`
	Programme      string     `json:"programme"`
	CallID         string     `json:"call_id"`
	OpensAt        *time.Time `json:"opens_at"`
	ClosesAt       *time.Time `json:"closes_at"`
	IsSupplemental bool       `json:"is_supplemental"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// GrantKey computes the storage primary key for a normalized grant.
func GrantKey(grant *models.NormalizedGrant) string {
	return "eureka_" + grant.CallID
}

// UpsertGrant inserts or updates one grant by its storage key, optionally
// with its embedding. A nil embedding leaves any previously stored vector in
// place.
func (s *Store) UpsertGrant(ctx context.Context, grant *models.NormalizedGrant, embedding []float32) error {
	raw, err := json.Marshal(grant.Raw)
	if err != nil {
		return fmt.Errorf("marshal raw payload: %w", err)
	}

	var opensAt, closesAt *time.Time
	if grant.OpenDate != nil {
		opensAt = &grant.OpenDate.Time
	}
	if grant.CloseDate != nil {
		closesAt = &grant.CloseDate.Time
	}

	var vec *pgvector.Vector
	if embedding != nil {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO grants (grant_id, source, title, url, status, programme, call_id,
			opens_at, closes_at, is_supplemental, raw, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (grant_id) DO UPDATE SET
			source = EXCLUDED.source,
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			status = EXCLUDED.status,
			programme = EXCLUDED.programme,
			call_id = EXCLUDED.call_id,
			opens_at = EXCLUDED.opens_at,
			closes_at = EXCLUDED.closes_at,
			is_supplemental = EXCLUDED.is_supplemental,
			raw = EXCLUDED.raw,
			embedding = COALESCE(EXCLUDED.embedding, grants.embedding),
			updated_at = NOW()
	`, GrantKey(grant), grant.Source, grant.Title, grant.URL, grant.Status,
		nilIfEmpty(grant.Programme), grant.CallID, opensAt, closesAt,
		grant.IsSupplemental, raw, vec)
	if err != nil {
		return fmt.Errorf("upsert grant %s: %w", GrantKey(grant), err)
	}
	return nil
}

const selectCols = `grant_id, source, title, url, status, COALESCE(programme, ''), call_id,
	opens_at, closes_at, is_supplemental, updated_at`

func scanGrant(scan func(dest ...interface{}) error) (StoredGrant, error) {
	var g StoredGrant
	err := scan(
		&g.GrantID, &g.Source, &g.Title, &g.URL, &g.Status, &g.Programme, &g.CallID,
		&g.OpensAt, &g.ClosesAt, &g.IsSupplemental, &g.UpdatedAt,
	)
	return g, err
}

// GetGrant fetches one row by storage key.
func (s *Store) GetGrant(ctx context.Context, grantID string) (*StoredGrant, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM grants WHERE grant_id = $1", selectCols), grantID)
	g, err := scanGrant(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}
	return &g, nil
}

// ListGrants returns rows filtered by status and programme, newest first.
// Empty filters match everything.
func (s *Store) ListGrants(ctx context.Context, status, programme string, limit int) ([]StoredGrant, error) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}
	if programme != "" {
		where += fmt.Sprintf(" AND programme = $%d", argIdx)
		args = append(args, programme)
		argIdx++
	}
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM grants %s ORDER BY updated_at DESC LIMIT $%d",
		selectCols, where, argIdx), args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var grants []StoredGrant
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return grants, nil
}

// SearchGrants ranks rows by cosine similarity against a query embedding.
// Rows without an embedding sort last.
func (s *Store) SearchGrants(ctx context.Context, queryEmbedding []float32, limit int) ([]StoredGrant, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM grants
		ORDER BY
			CASE WHEN embedding IS NULL THEN 1 ELSE 0 END ASC,
			COALESCE(1 - (embedding <=> $1), -1) DESC
		LIMIT $2
	`, selectCols), pgvector.NewVector(queryEmbedding), limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var grants []StoredGrant
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// GetStats returns cheap aggregate counts for the admin endpoints.
func (s *Store) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM grants").Scan(&total)
	stats["total"] = total

	statusCounts := map[string]int{}
	rows, err := s.pool.Query(ctx, "SELECT status, COUNT(*) FROM grants GROUP BY status")
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var status string
			var count int
			if scanErr := rows.Scan(&status, &count); scanErr == nil {
				statusCounts[status] = count
			}
		}
	}
	stats["status_counts"] = statusCounts

	var withEmbedding int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM grants WHERE embedding IS NOT NULL").Scan(&withEmbedding)
	stats["with_embedding"] = withEmbedding

	return stats, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
