package jobs

import (
	"context"
	"time"

	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
)

// Recover is the one-time startup pass that repairs state orphaned
// by a prior crash: it fails stale RUNNING job guards, then runs the
// lock and booking sweeps once so anything a dead worker left
// unresolved is treated as expired. Failures are logged and never
// block startup; the periodic sweepers are the second chance.
func Recover(ctx context.Context, repo *crdb.Repository, sched *Scheduler, staleAfter time.Duration, log observability.Logger) {
	log.Info("running startup recovery pass")

	reopened, err := repo.MarkStaleJobsFailed(ctx, staleAfter)
	if err != nil {
		log.WithError(err).Error("recovery: failed to clear stale job guards")
	} else if reopened > 0 {
		log.WithField("count", reopened).Warn("recovery: cleared stale job guards from a prior crash")
	}

	for _, jobType := range []string{TypeLockExpiry, TypeBookingExpiry} {
		res, err := sched.RunNow(ctx, jobType)
		if err == domain.ErrJobAlreadyRunning {
			log.WithField("job", jobType).Info("recovery: sweep already running elsewhere")
			continue
		}
		if err != nil {
			log.WithField("job", jobType).WithError(err).Error("recovery: sweep failed")
			continue
		}
		log.WithField("job", jobType).WithField("processed", res.Processed).WithField("errors", res.Errors).Info("recovery: sweep complete")
	}
}
