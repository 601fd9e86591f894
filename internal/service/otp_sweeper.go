package service

import (
	"context"
	"time"

	"fleetadmin/internal/repository"

	"github.com/sirupsen/logrus"
)

// OTPSweeper periodically removes expired ledger records. Expiry is already
// enforced on access; the sweep only reclaims storage.
type OTPSweeper struct {
	Ledger   repository.OTPLedger
	Clock    Clock
	Interval time.Duration
	Logger   logrus.FieldLogger
}

func (s OTPSweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s OTPSweeper) SweepOnce(ctx context.Context) int64 {
	now := time.Now()
	if s.Clock != nil {
		now = s.Clock.Now()
	}
	removed, err := s.Ledger.DeleteExpired(ctx, now)
	if err != nil {
		s.logger().WithError(err).Warn("expired otp sweep failed")
		return 0
	}
	if removed > 0 {
		s.logger().WithField("removed", removed).Info("expired otps swept")
	}
	return removed
}

func (s OTPSweeper) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
