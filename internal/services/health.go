package services

import (
	"context"

	"gorm.io/gorm"

	"chengdumed/internal/database"
	"chengdumed/internal/metrics"
)

// PendingCounter reports the export backlog
type PendingCounter interface {
	CountPendingExports(ctx context.Context) (int64, error)
}

// HealthResult is the body of GET /health
type HealthResult struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	Database       string `json:"database"`
	PendingExports int64  `json:"pending_exports"`
}

// HealthService implements the health service
type HealthService struct {
	name    string
	db      *gorm.DB
	pending PendingCounter
}

// NewHealthService creates a new health service
func NewHealthService(name string, db *gorm.DB, pending PendingCounter) *HealthService {
	return &HealthService{name: name, db: db, pending: pending}
}

// Check implements the health check method
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	result := &HealthResult{
		Status:   "healthy",
		Service:  s.name,
		Database: "ok",
	}

	if err := database.HealthCheck(ctx, s.db); err != nil {
		result.Status = "degraded"
		result.Database = err.Error()
		return result
	}

	if stats, err := database.GetStats(s.db); err == nil {
		metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	}

	if n, err := s.pending.CountPendingExports(ctx); err == nil {
		result.PendingExports = n
		metrics.SetPendingExports(n)
	}

	return result
}
