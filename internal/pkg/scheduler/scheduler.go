package scheduler

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/clock"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/env"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/notify"
)

const jobLockTTL = 10 * time.Minute

// Scheduler owns the time-driven jobs: the daily status sweep and the two
// notification batches. Jobs are independent; each is individually
// non-overlapping but distinct jobs may run concurrently with each other and
// with webhook traffic.
type Scheduler struct {
	db     *gorm.DB
	sender notify.Sender
	clock  clock.Clock
	loc    *time.Location
	locker Locker
	cron   *cron.Cron
}

// New creates a scheduler over the given collaborators.
func New(db *gorm.DB, sender notify.Sender, clk clock.Clock, loc *time.Location, locker Locker) *Scheduler {
	return &Scheduler{
		db:     db,
		sender: sender,
		clock:  clk,
		loc:    loc,
		locker: locker,
	}
}

// Start registers the cron entries and launches the scheduler. Schedules are
// env-driven with sane defaults: sweep at 01:30, expiry notifications at
// 09:00, renewal-window notifications at 09:05, all in the business
// timezone.
func (s *Scheduler) Start() error {
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(s.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"sweep", env.GetEnv("SWEEP_CRON", "0 30 1 * * *"), s.runSweepJob},
		{"notify_expiry", env.GetEnv("NOTIFY_EXPIRY_CRON", "0 0 9 * * *"), s.runExpiryNotifyJob},
		{"notify_renewal", env.GetEnv("NOTIFY_RENEWAL_CRON", "0 5 9 * * *"), s.runRenewalNotifyJob},
	}
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Info("[Scheduler] Started")

	if env.GetEnv("RUN_ON_START", "false") == "true" {
		go s.runSweepJob()
	}
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Info("[Scheduler] Stopped")
}

func (s *Scheduler) runSweepJob() {
	s.withLock("sweep", func() {
		summary, err := s.RunSweep()
		if err != nil {
			log.Errorf("[Scheduler] sweep failed: %v", err)
			return
		}
		log.Infof("[Scheduler] sweep done: scanned=%d archived=%d renewal=%d expired=%d normalized=%d",
			summary.Scanned, summary.Archived, summary.MarkedRenewal, summary.MarkedExpired, summary.Normalized)
	})
}

func (s *Scheduler) runExpiryNotifyJob() {
	s.withLock("notify_expiry", func() {
		summary, err := s.RunExpiryNotifications()
		if err != nil {
			log.Errorf("[Scheduler] expiry notifications failed: %v", err)
			return
		}
		log.Infof("[Scheduler] expiry notifications: matched=%d sent=%d failed=%d",
			summary.Matched, summary.Sent, summary.Failed)
	})
}

func (s *Scheduler) runRenewalNotifyJob() {
	s.withLock("notify_renewal", func() {
		summary, err := s.RunRenewalNotifications()
		if err != nil {
			log.Errorf("[Scheduler] renewal notifications failed: %v", err)
			return
		}
		log.Infof("[Scheduler] renewal notifications: matched=%d sent=%d failed=%d",
			summary.Matched, summary.Sent, summary.Failed)
	})
}

func (s *Scheduler) withLock(job string, run func()) {
	if !s.locker.TryLock(job, jobLockTTL) {
		log.Warnf("[Scheduler] job %s already running elsewhere, skipping", job)
		return
	}
	defer s.locker.Unlock(job)
	run()
}
