package background

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredLedgerDeleter removes throttle rows past their retention window
type ExpiredLedgerDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically removes expired throttle rows from the database
type CleanupManager struct {
	ledgerRepo ExpiredLedgerDeleter
	logger     *slog.Logger
	interval   time.Duration
	stopCh     chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	ledgerRepo ExpiredLedgerDeleter,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		ledgerRepo: ledgerRepo,
		logger:     logger,
		interval:   interval,
		stopCh:     make(chan struct{}),
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

// runCleanup removes expired throttle rows from the database
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	deleted, err := cm.ledgerRepo.DeleteExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to clean up expired throttle rows", "error", err)
		return
	}

	if deleted > 0 {
		cm.logger.Info("cleaned up expired throttle rows", "deleted", deleted)
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
