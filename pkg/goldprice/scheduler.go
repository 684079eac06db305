package goldprice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"websiteemas/models"
	"websiteemas/pkg/cache"
)

const (
	tickLockKey = "emas:scheduler:tick"
	tickLockTTL = 2 * time.Minute
	tickTimeout = time.Minute
)

// Locker serializes scheduled ticks across replicas. *cache.Redis satisfies
// it, including a nil one.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type SchedulerOptions struct {
	Enabled  bool
	Hours    []int
	Location *time.Location
	// Now is the clock used for NextRun and status; defaults to time.Now.
	Now    func() time.Time
	Locker Locker
}

// SchedulerStatus is what /api/emas/scheduler-status reports.
type SchedulerStatus struct {
	Enabled                  bool       `json:"enabled"`
	Running                  bool       `json:"running"`
	Schedule                 string     `json:"schedule"`
	Cron                     string     `json:"cron"`
	Timezone                 string     `json:"timezone"`
	NextRun                  *time.Time `json:"nextRun"`
	NextRunInMinutes         int        `json:"nextRunInMinutes"`
	EstimatedMonthlyRequests int        `json:"estimatedMonthlyRequests"`
	ManualRefreshLimit       int        `json:"manualRefreshLimit"`
	LastRun                  *time.Time `json:"lastRun"`
	LastError                string     `json:"lastError,omitempty"`
}

// Scheduler fetches prices at fixed wall-clock hours. It is stopped until
// Start is called and only starts when enabled.
type Scheduler struct {
	poller   *Poller
	opts     SchedulerOptions
	spec     string
	schedule cron.Schedule
	log      *logrus.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	lastRun time.Time
	lastErr string
	wg      sync.WaitGroup
}

// CronSpec builds "0 6,14,22 * * *" from the configured hours.
func CronSpec(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = strconv.Itoa(h)
	}
	return "0 " + strings.Join(parts, ",") + " * * *"
}

func NewScheduler(p *Poller, opts SchedulerOptions, logg *logrus.Logger) (*Scheduler, error) {
	if len(opts.Hours) == 0 {
		opts.Hours = []int{6, 14, 22}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Locker == nil {
		opts.Locker = (*cache.Redis)(nil)
	}
	spec := CronSpec(opts.Hours)
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Scheduler{poller: p, opts: opts, spec: spec, schedule: schedule, log: logg}, nil
}

// Start moves the scheduler to running: it fetches once right away and then
// on every scheduled hour. It reports false when disabled or already running.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opts.Enabled {
		s.log.WithField("schedule", s.describe()).Info("gold price scheduler is disabled (set ENABLE_GOLD_SCHEDULER=true to enable)")
		return false
	}
	if s.running {
		return false
	}
	c := cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithLogger(cron.PrintfLogger(s.log)),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.log))),
	)
	if _, err := c.AddFunc(s.spec, s.tick); err != nil {
		s.log.WithError(err).Error("gold price scheduler not started")
		return false
	}
	s.cron = c
	s.running = true
	c.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick()
	}()

	s.log.WithFields(logrus.Fields{
		"schedule": s.describe(),
		"nextRun":  s.NextRun(),
	}).Info("gold price scheduler started")
	return true
}

// Stop halts future ticks and waits for a running one to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	wasRunning := s.running
	s.running = false
	s.cron = nil
	s.mu.Unlock()
	if !wasRunning {
		return
	}
	<-c.Stop().Done()
	s.wg.Wait()
	s.log.Info("gold price scheduler stopped")
}

// NextRun is the next scheduled fetch after the injected clock's now.
func (s *Scheduler) NextRun() time.Time {
	return s.schedule.Next(s.opts.Now().In(s.opts.Location))
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SchedulerStatus{
		Enabled:                  s.opts.Enabled,
		Running:                  s.running,
		Schedule:                 s.describe(),
		Cron:                     s.spec,
		Timezone:                 s.opts.Location.String(),
		EstimatedMonthlyRequests: len(s.opts.Hours) * 30,
		ManualRefreshLimit:       s.poller.quota.Limit(),
		LastError:                s.lastErr,
	}
	if s.running {
		next := s.NextRun()
		st.NextRun = &next
		st.NextRunInMinutes = int(next.Sub(s.opts.Now()).Round(time.Minute) / time.Minute)
	}
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
	}
	return st
}

func (s *Scheduler) describe() string {
	hours := make([]string, len(s.opts.Hours))
	for i, h := range s.opts.Hours {
		hours[i] = fmt.Sprintf("%02d:00", h)
	}
	return fmt.Sprintf("%dx daily at %s", len(s.opts.Hours), strings.Join(hours, ", "))
}

// tick is one scheduled fetch. Errors are logged and recorded, never retried.
func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	release, err := s.opts.Locker.Lock(ctx, tickLockKey, tickLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrNotObtained) {
			s.log.Info("another instance is fetching gold prices, skipping tick")
			return
		}
		s.log.WithError(err).Warn("scheduler lock unavailable, fetching anyway")
	}
	defer release()

	_, err = s.poller.Fetch(ctx, models.SourceScheduler)

	s.mu.Lock()
	s.lastRun = s.opts.Now()
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Warn("scheduled gold price fetch failed")
	}
}
