package festival

import (
	"context"
	"log/slog"
	"time"

	"astrascore/internal/schedule"
)

// DefaultReconcileInterval is used when no interval is configured.
const DefaultReconcileInterval = time.Minute

// StartReconciler runs ReconcileAll on every interval until ctx is done or the
// handle is stopped. Failures are logged and retried on the next round.
func StartReconciler(ctx context.Context, svc *Service, interval time.Duration, logger *slog.Logger) *schedule.Handle {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return schedule.Every(ctx, interval, func(ctx context.Context) bool {
		n, err := svc.ReconcileAll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			logger.Warn("reconcile round failed", "written", n, "error", err)
			return true
		}
		if n > 0 {
			logger.Info("boards reconciled", "written", n)
		}
		return true
	})
}
