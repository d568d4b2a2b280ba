package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Ticker is the scan entry point the scheduler drives once per interval.
// The engine behind it owns its own single-flight guard, so overlapping
// invocations are dropped there rather than queued here.
type Ticker interface {
	Tick(ctx context.Context)
}

// BirthdayScheduler wires the periodic scan into a cron engine.
type BirthdayScheduler struct {
	cronEngine *cron.Cron
	engine     Ticker
	logger     *logrus.Entry
	cronSpec   string
}

func NewBirthdayScheduler(engine Ticker, logger *logrus.Entry, cronSpec string) *BirthdayScheduler {
	return &BirthdayScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		engine:     engine,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (s *BirthdayScheduler) Start() error {
	s.logger.Info("Starting birthday scheduler...")

	// No deadline on the tick context: a slow tick is allowed to finish and
	// the engine skips overlapping ticks on its own.
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.engine.Tick(context.Background())
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.Infof("Birthday scheduler started with spec %q", s.cronSpec)
	return nil
}

func (s *BirthdayScheduler) Stop() {
	s.logger.Info("Stopping birthday scheduler...")
	ctx := s.cronEngine.Stop() // Stops scheduling new ticks, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Birthday scheduler gracefully stopped.")
}
