package jobs

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/events"
	"sharenotes/cmd/internal/service"
	"sharenotes/cmd/internal/utils"
)

const ConnectionCleanInterval = 5 * time.Minute

type ConnectionCleaner struct {
	wsService *service.WebSocketService
	interval  time.Duration
	now       func() int64
}

func NewConnectionCleaner(wsService *service.WebSocketService) *ConnectionCleaner {
	return &ConnectionCleaner{
		wsService: wsService,
		interval:  ConnectionCleanInterval,
		now:       utils.NowUTC,
	}
}

func (c *ConnectionCleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	log.Info("Connection cleaner cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping connection cleaner...")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup drops connections whose token expired and connections that stopped
// sending heartbeats.
func (c *ConnectionCleaner) cleanup(ctx context.Context) {
	now := c.now()
	repo := c.wsService.ConnRepo

	expired, err := repo.FindExpired(ctx, now)
	if err != nil {
		log.Errorf("Cleaner: failed to fetch expired connections: %v", err)
	} else if len(expired) > 0 {
		log.Infof("Cleaner: found %d expired connections, terminating...", len(expired))
		c.wsService.TerminateConnections(context.Background(), expired, &events.ConnectionKill{Code: contract.KillCodeExpired})
	}

	cutoff := now - entity.HeartbeatPeriodMillis - entity.HeartbeatToleranceMillis
	stale, err := repo.FindStale(ctx, cutoff)
	if err != nil {
		log.Errorf("Cleaner: failed to fetch stale connections: %v", err)
		return
	}

	if len(stale) > 0 {
		log.Infof("Cleaner: found %d stale connections, terminating...", len(stale))
		c.wsService.TerminateConnections(context.Background(), stale, &events.ConnectionKill{Code: contract.KillCodeStale})
	}
}
