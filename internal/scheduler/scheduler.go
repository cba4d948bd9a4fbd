package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/internal/config"
	"github.com/example/lexitutor/internal/database"
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       config.SchedulerConfig
	cleanup   time.Duration
	due       DueSource
	notifier  Notifier
	cache     CachePurger
	clock     func() time.Time
	log       logrus.FieldLogger
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(userID int64, dueCount int) error
}

// DueSource lists profiles with reviews waiting
type DueSource interface {
	ListWithDueReviews(ctx context.Context, now time.Time) ([]database.DueProfile, error)
}

// CachePurger removes expired cache entries
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// New creates a new scheduler instance
func New(cfg config.SchedulerConfig, cleanup time.Duration, due DueSource, notifier Notifier, cache CachePurger, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cfg:       cfg,
		cleanup:   cleanup,
		due:       due,
		notifier:  notifier,
		cache:     cache,
		clock:     time.Now,
		log:       log,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if s.cfg.ReminderInterval > 0 && s.notifier != nil {
		if _, err := s.scheduler.Every(s.cfg.ReminderInterval).Do(s.runReminders); err != nil {
			return err
		}
	}
	if s.cleanup > 0 && s.cache != nil {
		if _, err := s.scheduler.Every(s.cleanup).Do(s.runPurge); err != nil {
			return err
		}
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runReminders() {
	if _, err := s.SendReminders(context.Background()); err != nil {
		s.log.WithError(err).Error("failed to send reminders")
	}
}

func (s *Scheduler) runPurge() {
	if _, err := s.cache.PurgeExpired(context.Background()); err != nil {
		s.log.WithError(err).Error("failed to purge translation cache")
	}
}

// SendReminders notifies every profile with due reviews. Outside the
// configured hours nothing is sent. Returns the number of reminders sent.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	now := s.clock().UTC()
	if !s.inNotificationHours(now.Hour()) {
		s.log.WithField("hour", now.Hour()).Debug("outside notification hours, skipping reminders")
		return 0, nil
	}

	profiles, err := s.due.ListWithDueReviews(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range profiles {
		if err := s.notifier.SendReminder(p.UserID, p.DueCount); err != nil {
			s.log.WithError(err).WithField("user_id", p.UserID).Warn("failed to send reminder")
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Scheduler) inNotificationHours(hour int) bool {
	start, end := s.cfg.StartHour, s.cfg.EndHour
	if start <= end {
		return hour >= start && hour <= end
	}
	// Window wraps past midnight
	return hour >= start || hour <= end
}
