package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/jmoiron/sqlx"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	db        *sqlx.DB
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version, buildTime string, db *sqlx.DB, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		db:        db,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Check returns the overall system health. The service degrades rather
// than fails: a broken database turns the status to degraded while the
// process keeps answering.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Services:  make(map[string]interface{}),
	}

	dbHealth := ServiceHealth{Status: "up"}
	if s.db == nil {
		dbHealth = ServiceHealth{Status: "down", Message: "database not configured"}
	} else if err := s.db.PingContext(ctx); err != nil {
		dbHealth = ServiceHealth{Status: "down", Message: err.Error()}
	}
	status.Services["database"] = dbHealth

	if dbHealth.Status != "up" {
		status.Status = "degraded"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	status.Runtime = map[string]interface{}{
		"go_version":     runtime.Version(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"goroutines":     runtime.NumGoroutine(),
		"alloc_bytes":    mem.Alloc,
		"uptime_seconds": time.Since(s.startTime).Seconds(),
		"build_time":     s.buildTime,
	}

	return status
}

// Ready reports whether the service can accept work.
func (s *HealthService) Ready(ctx context.Context) bool {
	if s.db == nil {
		return false
	}
	return s.db.PingContext(ctx) == nil
}
