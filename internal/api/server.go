package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ailsa/eureka-scraper/internal/ai"
	"github.com/ailsa/eureka-scraper/internal/auth"
	"github.com/ailsa/eureka-scraper/internal/db"
	"github.com/ailsa/eureka-scraper/internal/runner"
	"github.com/ailsa/eureka-scraper/internal/scrape"
)

// Server exposes the on-demand side of the pipeline: trigger a scrape run,
// poll its job, inspect the latest summary, and query stored grants.
type Server struct {
	Store    *db.Store
	Echo     *echo.Echo
	DB       *pgxpool.Pool
	Embedder ai.Embedder
	LogDir   string

	// Background job tracking; one scrape run at a time.
	jobMu      sync.Mutex
	runningJob *backgroundJob
}

type backgroundJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // running, completed, failed
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at,omitempty"`
	Result    interface{}        `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancel    context.CancelFunc `json:"-"`
}

func NewServer(pool *pgxpool.Pool) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	var embedder ai.Embedder
	if os.Getenv("OPENAI_API_KEY") != "" {
		embedder = ai.NewOpenAIClient("", "")
	}

	s := &Server{
		DB:       pool,
		Store:    db.NewStore(pool),
		Echo:     e,
		Embedder: embedder,
		LogDir:   "logs",
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/healthz", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/grants", s.handleListGrants)
	api.GET("/grants/:id", s.handleGetGrant)
	api.GET("/search", s.handleSearch)
	api.GET("/stats", s.handleGetStats)
	api.GET("/runs/latest", s.handleLatestRun)

	// Run triggers require a signed token.
	runs := api.Group("/runs")
	runs.Use(auth.Middleware)
	runs.POST("", s.handleTriggerRun)
	runs.GET("/jobs/:id", s.handleJobStatus)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleListGrants(c echo.Context) error {
	status := c.QueryParam("status")
	programme := c.QueryParam("programme")

	limit := 50
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	grants, err := s.Store.ListGrants(c.Request().Context(), status, programme, limit)
	if err != nil {
		c.Logger().Errorf("failed to list grants: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	if grants == nil {
		grants = []db.StoredGrant{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"grants": grants, "count": len(grants)})
}

func (s *Server) handleGetGrant(c echo.Context) error {
	grant, err := s.Store.GetGrant(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, grant)
}

func (s *Server) handleSearch(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "q param required"})
	}
	if s.Embedder == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "semantic search unavailable"})
	}

	limit := 20
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	aiCtx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	vec, err := s.Embedder.GenerateEmbedding(aiCtx, q)
	if err != nil {
		c.Logger().Errorf("failed to embed query: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "embedding failed"})
	}

	grants, err := s.Store.SearchGrants(c.Request().Context(), vec, limit)
	if err != nil {
		c.Logger().Errorf("search failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"grants": grants, "count": len(grants)})
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.Store.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleLatestRun(c echo.Context) error {
	summary, err := scrape.ReadLatestSummary(s.LogDir)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no runs recorded yet"})
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) handleTriggerRun(c echo.Context) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":  "a run is already in progress",
			"job_id": job.ID,
		})
	}

	opts := runner.Options{LogDir: s.LogDir}
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts.Limit = parsed
		}
	}
	opts.SkipIngest = strings.EqualFold(c.QueryParam("skip_ingest"), "true")

	// Detach from the HTTP request lifecycle; scrape runs take minutes.
	jobCtx, jobCancel := context.WithTimeout(
		context.WithoutCancel(c.Request().Context()), 30*time.Minute,
	)

	jobID := uuid.New().String()[:8]
	job := &backgroundJob{
		ID:        jobID,
		Status:    "running",
		StartedAt: time.Now(),
		Cancel:    jobCancel,
	}
	s.runningJob = job
	s.jobMu.Unlock()

	log.Printf("[api] run %s triggered by %s", jobID, caller)

	go func() {
		defer jobCancel()
		result := runner.Do(jobCtx, opts)

		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job.EndedAt = time.Now()
		if result.Fatal != nil {
			job.Status = "failed"
			job.Error = result.Fatal.Error()
			log.Printf("[api] run %s failed: %v", jobID, result.Fatal)
			return
		}
		job.Status = "completed"
		job.Result = result.Summary
		log.Printf("[api] run %s completed: %d grants, %d failures",
			jobID, result.Summary.Stats.Assembled, result.Summary.Stats.Failed)
	}()

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "run started",
		"job_id":  jobID,
		"poll":    "/api/v1/runs/jobs/" + jobID,
	})
}

func (s *Server) handleJobStatus(c echo.Context) error {
	queried := c.Param("id")

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	resp := map[string]interface{}{
		"id":         job.ID,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
