// README: Periodic sweep loop re-running the escalation check on searching trips.
package allocation

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunScheduler blocks, sweeping at the configured interval until the
// context is cancelled. Run it in its own goroutine next to the HTTP
// server.
func (e *Engine) RunScheduler(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()

	e.log.Info("allocation sweeper started", zap.Duration("interval", e.cfg.SweepInterval))
	for {
		select {
		case <-ctx.Done():
			e.log.Info("allocation sweeper stopped")
			return
		case <-ticker.C:
			advanced, err := e.RunSweep(ctx)
			if err != nil {
				e.log.Error("sweep failed", zap.Error(err))
				continue
			}
			if advanced > 0 {
				e.log.Info("sweep advanced trips", zap.Int("count", advanced))
			}
		}
	}
}
