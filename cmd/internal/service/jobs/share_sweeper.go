package jobs

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

const ShareSweepInterval = 1 * time.Hour

type OrphanShareRepository interface {
	DeleteOrphaned(ctx context.Context) (int64, error)
}

// OrphanShareSweeper removes shares whose note no longer exists. Note deletion
// already drops shares in the same transaction, this catches rows written by
// anything that bypassed it.
type OrphanShareSweeper struct {
	shareRepo OrphanShareRepository
	interval  time.Duration
}

func NewOrphanShareSweeper(repo OrphanShareRepository) *OrphanShareSweeper {
	return &OrphanShareSweeper{shareRepo: repo, interval: ShareSweepInterval}
}

func (s *OrphanShareSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info("Orphan share sweeper cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping orphan share sweeper...")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *OrphanShareSweeper) sweep(ctx context.Context) {
	deleted, err := s.shareRepo.DeleteOrphaned(ctx)
	if err != nil {
		log.Errorf("Sweeper: failed to delete orphaned shares: %v", err)
		return
	}

	if deleted > 0 {
		log.Infof("Sweeper: removed %d orphaned shares", deleted)
	}
}
