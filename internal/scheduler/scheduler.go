package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/infra"
	"github.com/slavuta-ads/adsbot/internal/notify"
	"github.com/slavuta-ads/adsbot/internal/observability"
	"github.com/slavuta-ads/adsbot/internal/stats"
)

const (
	specSweep       = "0 * * * *"
	specDailyReport = "59 23 * * *"
	specDailyReset  = "0 0 * * *"
	specHeartbeat   = "*/30 * * * *"

	DefaultInitialSweepDelay = 10 * time.Second
)

type (
	Gate interface {
		Sweep(ctx context.Context, now time.Time) ([]int64, error)
		ResetAll(now time.Time) int
	}

	Daily interface {
		Snapshot() stats.Snapshot
		Reset() stats.Snapshot
	}

	Options struct {
		Location          *time.Location
		Admins            []int64
		Language          string
		InitialSweepDelay time.Duration
		// Status adds fields to the heartbeat log line.
		Status func() log.Fields
	}
)

// Scheduler runs the periodic jobs in the configured location. A failing or
// panicking job is logged and does not affect the others.
type Scheduler struct {
	gate   Gate
	daily  Daily
	sender notify.Sender
	opts   Options
	now    func() time.Time

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(gate Gate, daily Daily, sender notify.Sender, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.InitialSweepDelay <= 0 {
		opts.InitialSweepDelay = DefaultInitialSweepDelay
	}
	return &Scheduler{
		gate:   gate,
		daily:  daily,
		sender: sender,
		opts:   opts,
		now:    time.Now,
	}
}

func (s *Scheduler) getLogEntry() *log.Entry {
	return log.WithField("object", "Scheduler")
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := cron.New(cron.WithLocation(s.opts.Location))
	jobs := []struct {
		spec string
		name string
		run  func(context.Context) error
	}{
		{specSweep, "blacklist_sweep", s.SweepBlacklist},
		{specDailyReport, "daily_report", s.SendDailyReport},
		{specDailyReset, "daily_reset", s.ResetDaily},
		{specHeartbeat, "heartbeat", s.Heartbeat},
	}
	for _, job := range jobs {
		if _, err := c.AddFunc(job.spec, func() { s.Run(runCtx, job.name, job.run) }); err != nil {
			cancel()
			return err
		}
	}
	c.Start()
	s.cron = c
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-runCtx.Done():
		case <-time.After(s.opts.InitialSweepDelay):
			s.Run(runCtx, "blacklist_sweep", s.SweepBlacklist)
		}
	}()

	s.getLogEntry().WithField("location", s.opts.Location.String()).Info("scheduler started")
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	cancel()
	cronDone := c.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes one job with panic recovery and records its outcome.
func (s *Scheduler) Run(ctx context.Context, name string, job func(context.Context) error) {
	entry := s.getLogEntry().WithField("job", name)
	err := infra.SafeRun(name, func() error { return job(ctx) })
	observability.RecordJobRun(name, err)
	if err != nil {
		entry.WithField("error", err.Error()).Error("job failed")
		return
	}
	entry.Debug("job done")
}

// SweepBlacklist releases every user whose block has ended.
func (s *Scheduler) SweepBlacklist(ctx context.Context) error {
	released, err := s.gate.Sweep(ctx, s.now())
	if len(released) > 0 {
		s.getLogEntry().WithField("released", released).Info("expired blocks removed")
	}
	return err
}

// SendDailyReport sends today's statistics to every admin.
func (s *Scheduler) SendDailyReport(ctx context.Context) error {
	now := s.now().In(s.opts.Location)
	text := stats.Report(s.daily.Snapshot(), now, s.opts.Language)
	failed := notify.Broadcast(ctx, s.sender, s.opts.Admins, notify.Text(0, text))
	if len(failed) > 0 {
		s.getLogEntry().WithField("failed_admins", failed).Warn("daily report not delivered to some admins")
	}
	return nil
}

// ResetDaily zeroes the daily statistics and every rate counter.
func (s *Scheduler) ResetDaily(_ context.Context) error {
	now := s.now()
	prev := s.daily.Reset()
	counters := s.gate.ResetAll(now)
	s.getLogEntry().WithFields(log.Fields{
		"submissions": prev.Total(),
		"counters":    counters,
	}).Info("daily counters reset")
	return nil
}

func (s *Scheduler) Heartbeat(_ context.Context) error {
	entry := s.getLogEntry()
	if s.opts.Status != nil {
		entry = entry.WithFields(s.opts.Status())
	}
	entry.Info("bot is running")
	return nil
}
