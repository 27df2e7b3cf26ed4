package cron

import (
	"context"
	"time"

	"concierge/models"
	"concierge/services/concierge"
	"concierge/services/state"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StaleDialogFinder lists conversations stuck outside normal mode since before a cutoff.
type StaleDialogFinder interface {
	FindStaleDialogs(ctx context.Context, before time.Time, limit int64) ([]string, error)
}

// Sweeper returns abandoned booking dialogs and pending questions to normal mode.
type Sweeper struct {
	Finder   StaleDialogFinder
	Store    state.Store
	Locker   concierge.Locker
	MaxAge   time.Duration
	Batch    int64
	Now      func() time.Time
	Logger   *zap.Logger
	schedule *cron.Cron
}

// Start runs Sweep on the given cron spec, e.g. "*/10 * * * *".
func (s *Sweeper) Start(spec string) error {
	s.schedule = cron.New()
	if _, err := s.schedule.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.Sweep(ctx)
	}); err != nil {
		return err
	}
	s.schedule.Start()
	s.Logger.Info("Stale dialog sweeper started", zap.String("spec", spec), zap.Duration("maxAge", s.MaxAge))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.schedule == nil {
		return
	}
	<-s.schedule.Stop().Done()
}

// Sweep resets every stale dialog it finds and returns how many it reset.
func (s *Sweeper) Sweep(ctx context.Context) int {
	ids, err := s.Finder.FindStaleDialogs(ctx, s.Now().Add(-s.MaxAge), s.Batch)
	if err != nil {
		s.Logger.Error("Failed to list stale dialogs", zap.Error(err))
		return 0
	}
	reset := 0
	for _, id := range ids {
		if err := s.reset(ctx, id); err != nil {
			s.Logger.Warn("Failed to reset stale dialog", zap.String("conversationId", id), zap.Error(err))
			continue
		}
		reset++
	}
	if reset > 0 {
		s.Logger.Info("Reset stale dialogs", zap.Int("count", reset))
	}
	return reset
}

func (s *Sweeper) reset(ctx context.Context, id string) error {
	lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	unlock, err := s.Locker.Lock(lockCtx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if p, err := s.Store.GetPendingState(ctx, id); err == nil && p != nil {
		if err := s.Store.ResolvePendingState(ctx, p.ID); err != nil {
			return err
		}
	}
	return s.Store.SetMode(ctx, id, models.Normal{})
}
