package core

// scheduler.go provides background maintenance for long-running servers.
//
// The maintenance job runs periodically to:
//  1. Evict uploaded workbooks older than the workbook TTL (the workbook
//     loaded from WORKBOOK_PATH is never evicted)
//  2. Delete report snapshots older than the retention period
//
// The scheduler is long-running and stops with its context. Failures are
// logged and retried on the next tick.

import (
	"context"
	"time"
)

// MaintenanceConfig holds configuration for the maintenance scheduler.
// A zero WorkbookTTL or SnapshotRetention disables that step.
type MaintenanceConfig struct {
	WorkbookTTL       time.Duration // Age at which uploads are evicted
	SnapshotRetention time.Duration // Age at which snapshots are deleted
	CheckInterval     time.Duration // How often to run (default: 1h)
}

// MaintenanceResult reports one maintenance cycle.
type MaintenanceResult struct {
	Evicted []string
	Pruned  int64
}

// StartMaintenance runs maintenance immediately, then every CheckInterval,
// until ctx is cancelled.
func (s *Service) StartMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}
	s.logger.Info("maintenance scheduler started",
		"workbook_ttl", cfg.WorkbookTTL,
		"snapshot_retention", cfg.SnapshotRetention,
		"interval", cfg.CheckInterval,
	)

	s.RunMaintenance(ctx, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance scheduler stopped")
			return
		case now := <-ticker.C:
			s.RunMaintenance(ctx, cfg, now)
		}
	}
}

// RunMaintenance performs one eviction and prune cycle as of now.
func (s *Service) RunMaintenance(ctx context.Context, cfg MaintenanceConfig, now time.Time) MaintenanceResult {
	start := time.Now()
	var result MaintenanceResult

	if cfg.WorkbookTTL > 0 {
		result.Evicted = s.EvictWorkbooks(now.Add(-cfg.WorkbookTTL))
		if len(result.Evicted) > 0 {
			s.logger.Info("evicted workbooks", "count", len(result.Evicted), "ids", result.Evicted)
		}
	}

	if cfg.SnapshotRetention > 0 && s.store != nil {
		pruned, err := s.store.Prune(ctx, now.Add(-cfg.SnapshotRetention))
		if err != nil {
			s.logger.Error("snapshot prune failed", "error", err)
		} else {
			result.Pruned = pruned
			s.logger.Info("pruned snapshots", "snapshots_pruned", pruned)
		}
	}

	s.logger.Debug("maintenance completed", "duration_ms", time.Since(start).Milliseconds())
	return result
}

// EvictWorkbooks removes uploads registered before cutoff and returns their
// ids. The default workbook is kept.
func (s *Service) EvictWorkbooks(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for id, wb := range s.workbooks {
		if id == DefaultWorkbookID || !wb.info.UploadedAt.Before(cutoff) {
			continue
		}
		delete(s.workbooks, id)
		evicted = append(evicted, id)
	}
	return evicted
}
