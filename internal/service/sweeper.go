package service

import (
	"context"
	"time"

	"vlanman/internal/repository"

	"github.com/sirupsen/logrus"
)

// ExpirySweeper periodically moves auto-delete VLANs past their
// expiry from active to expired. It goes through the orchestrator's
// status transition and never talks to the device-facing paths.
type ExpirySweeper struct {
	Vlans    repository.VlanRepository
	Service  *VlanService
	Interval time.Duration
	Clock    Clock
	Log      logrus.FieldLogger
}

func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.Log.WithError(err).Error("expiry sweep failed")
			}
		}
	}
}

// SweepOnce is idempotent: records already expired are excluded from
// the scan, so an immediate re-run transitions nothing.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int, error) {
	records, err := s.Vlans.ListExpired(ctx, s.Clock.Now())
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range records {
		changed, err := s.Service.MarkExpired(ctx, &records[i])
		if err != nil {
			s.Log.WithError(err).WithField("vlan_id", records[i].VlanID).Error("expire transition failed")
			continue
		}
		if changed {
			expired++
		}
	}
	if expired > 0 {
		s.Log.WithField("count", expired).Info("marked VLANs expired")
	}
	return expired, nil
}

func (s *ExpirySweeper) interval() time.Duration {
	if s.Interval == 0 {
		return time.Hour
	}
	return s.Interval
}

// SessionSweeper deletes sessions past their expiry. Reads already
// treat those rows as absent, so this is reclamation, not
// enforcement.
type SessionSweeper struct {
	Sessions repository.SessionRepository
	Interval time.Duration
	Clock    Clock
	Log      logrus.FieldLogger
}

func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.Log.WithError(err).Error("session sweep failed")
			}
		}
	}
}

func (s *SessionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	removed, err := s.Sessions.CleanupExpired(ctx, s.Clock.Now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.Log.WithField("count", removed).Info("cleaned up expired sessions")
	}
	return removed, nil
}

func (s *SessionSweeper) interval() time.Duration {
	if s.Interval == 0 {
		return 15 * time.Minute
	}
	return s.Interval
}
