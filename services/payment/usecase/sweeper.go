package usecase

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/services/payment"
)

const sweepLockKey = "sweeper:payments"

// Sweeper periodically re-verifies payments stuck in pending, covering
// for webhooks that never arrived and users who never returned to the
// verify page. Each pass takes a short Redis lock so only one instance
// sweeps at a time.
type Sweeper struct {
	cfg    *models.Config
	repo   payment.PaymentRepo
	gw     payment.PaymentGW
	uc     payment.PaymentUC
	locker payment.SweepLocker
	cron   *cron.Cron
}

// NewSweeper creates a reconciliation sweeper
func NewSweeper(
	cfg *models.Config,
	repo payment.PaymentRepo,
	gw payment.PaymentGW,
	uc payment.PaymentUC,
	locker payment.SweepLocker,
) *Sweeper {
	return &Sweeper{
		cfg:    cfg,
		repo:   repo,
		gw:     gw,
		uc:     uc,
		locker: locker,
		cron:   cron.New(),
	}
}

// Start schedules the sweep. The schedule is a cron spec such as
// "@every 3m".
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Sweeper.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := s.RunOnce(ctx); err != nil {
			logger.Error("Reconciliation sweep failed", logger.Err(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Reconciliation sweeper started",
		logger.String("schedule", s.cfg.Sweeper.Schedule),
		logger.Int("staleness_minutes", s.cfg.Sweeper.StalenessMinutes))
	return nil
}

// Stop halts the schedule and waits for a running pass to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunOnce executes a single sweep pass: list stale pending payments,
// re-verify each against the gateway, and feed the outcome through the
// same signal path the verify endpoint and webhook use. One candidate
// failing never aborts the pass.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	acquired, err := s.locker.AcquireLock(ctx, sweepLockKey, 90*time.Second)
	if err != nil {
		return err
	}
	if !acquired {
		logger.Debug("Sweep skipped, another instance holds the lock")
		return nil
	}
	defer func() {
		if err := s.locker.ReleaseLock(ctx, sweepLockKey); err != nil {
			logger.Warn("Failed to release sweep lock", logger.Err(err))
		}
	}()

	cutoff := time.Now().UTC().Add(-time.Duration(s.cfg.Sweeper.StalenessMinutes) * time.Minute)

	refs, err := s.repo.ListStalePendingRefs(ctx, cutoff, s.cfg.Sweeper.BatchLimit)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	logger.Info("Reconciliation sweep started", logger.Int("candidates", len(refs)))

	var resolved, errored int
	for _, txRef := range refs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Verify runs outside any lock; only the state application
		// below contends on the payment row.
		result, err := s.gw.Verify(ctx, txRef)
		if err != nil {
			errored++
			logger.Warn("Sweep verification failed",
				logger.String("transaction_reference", txRef),
				logger.Err(err))
			continue
		}

		p, err := s.uc.ApplySignal(ctx, txRef, result.Status, result.RawPayload, models.SignalSourceSweep)
		if err != nil {
			errored++
			logger.Warn("Sweep signal application failed",
				logger.String("transaction_reference", txRef),
				logger.Err(err))
			continue
		}
		if p.Status != models.PaymentStatusPending {
			resolved++
		}
	}

	logger.Info("Reconciliation sweep finished",
		logger.Int("candidates", len(refs)),
		logger.Int("resolved", resolved),
		logger.Int("errored", errored))

	return nil
}
