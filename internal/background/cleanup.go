package background

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter removes sessions past their expiry.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// AuditRetentionCleaner trims audit entries past the retention window.
type AuditRetentionCleaner interface {
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// CleanupManager periodically removes expired sessions and audit entries
// past their retention window.
type CleanupManager struct {
	sessions      ExpiredSessionDeleter
	audit         AuditRetentionCleaner
	logger        *slog.Logger
	interval      time.Duration
	retentionDays int
	stopCh        chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	sessions ExpiredSessionDeleter,
	audit AuditRetentionCleaner,
	logger *slog.Logger,
	interval time.Duration,
	retentionDays int,
) *CleanupManager {
	return &CleanupManager{
		sessions:      sessions,
		audit:         audit,
		logger:        logger,
		interval:      interval,
		retentionDays: retentionDays,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sessionsDeleted, err := cm.sessions.DeleteExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired sessions", slog.Any("error", err))
	} else if sessionsDeleted > 0 {
		cm.logger.Info("expired session cleanup completed", slog.Int64("rows_deleted", sessionsDeleted))
	}

	if cm.retentionDays > 0 {
		auditDeleted, err := cm.audit.Cleanup(cleanupCtx, cm.retentionDays)
		if err != nil {
			cm.logger.Error("failed to trim audit log", slog.Any("error", err))
		} else if auditDeleted > 0 {
			cm.logger.Info("audit retention cleanup completed", slog.Int64("rows_deleted", auditDeleted))
		}
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
