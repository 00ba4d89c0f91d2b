package svc

import (
	"context"
	"time"

	"sealbin/metrics"
	"sealbin/svc/db"
	"sealbin/svc/util"
)

// Sweeper is the background purge of expired pastes. Each tick issues one
// unconditional delete of everything past its expiry; a failed tick is
// logged and retried on the next one. Reads never depend on the sweeper;
// the liveness filter in GetPaste already hides expired rows.
type Sweeper struct {
	db       *db.SQLite
	interval time.Duration
	done     chan struct{}
}

func NewSweeper(sqlDB *db.SQLite, interval time.Duration) *Sweeper {
	if sqlDB == nil {
		panic("sweeper: nil db")
	}
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Sweeper{
		db:       sqlDB,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs the loop until ctx is cancelled. Done() closes after the final
// tick so shutdown can join the goroutine instead of abandoning it.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}
func (s *Sweeper) Done() <-chan struct{} {
	return s.done
}
func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	sweepID := util.NewRequestID()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	util.Info().
		Str("sweep_id", sweepID).
		Dur("interval", s.interval).
		Msg("expiry sweeper started")
	for {
		select {
		case <-ctx.Done():
			util.Info().Str("sweep_id", sweepID).Msg("expiry sweeper shutting down")
			return
		case <-ticker.C:
			deleted, err := s.SweepOnce(ctx)
			if err != nil {
				util.Error().Err(err).Str("sweep_id", sweepID).Msg("sweep failed")
			} else if deleted > 0 {
				util.Info().
					Int64("deleted", deleted).
					Str("sweep_id", sweepID).
					Msg("sweep completed")
			}
		}
	}
}

// SweepOnce performs a single sweep synchronously; tests call this instead
// of waiting on the ticker.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	metrics.SweepCycles.Inc()
	deleted, err := s.db.DeleteExpired(ctx, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	metrics.SweepDeleted.Add(float64(deleted))
	return deleted, nil
}
