// Package reminder runs the periodic due-review check and notifies learners
// who have items waiting.
//
// It sits outside the engine core: the engine stays synchronous and pure,
// while this service polls it on a schedule and forwards due counts to an
// application-supplied Notifier.
package reminder

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Default delivery window: reminders go out from 08:00 up to, but not
// including, the 22:00 hour.
const (
	DefaultStartHour = 8
	DefaultEndHour   = 22
)

// DueSource supplies learners and their due items; *core.Client satisfies it.
type DueSource interface {
	Learners(ctx context.Context) ([]string, error)
	DueItems(ctx context.Context, learnerID string) ([]string, error)
}

// Notifier delivers a reminder to a learner. Implementations are
// application-level (push, email, chat bot).
type Notifier interface {
	SendReminder(learnerID string, dueCount int) error
}

// Service schedules hourly due-review checks.
type Service struct {
	scheduler *gocron.Scheduler
	source    DueSource
	notifier  Notifier
	startHour int
	endHour   int
	now       func() time.Time
}

// New creates a reminder service with the default delivery window.
func New(source DueSource, notifier Notifier) *Service {
	return &Service{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		notifier:  notifier,
		startHour: DefaultStartHour,
		endHour:   DefaultEndHour,
		now:       time.Now,
	}
}

// SetWindow overrides the delivery window: reminders go out when the current
// hour is at least startHour and strictly before endHour. Values outside
// 0-23 are ignored.
func (s *Service) SetWindow(startHour, endHour int) {
	if startHour >= 0 && startHour <= 23 {
		s.startHour = startHour
	}
	if endHour >= 0 && endHour <= 23 {
		s.endHour = endHour
	}
}

// Start begins the hourly check in the background.
func (s *Service) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndNotify)
	s.scheduler.StartAsync()
}

// Stop terminates the scheduled checks.
func (s *Service) Stop() {
	s.scheduler.Stop()
}

func (s *Service) checkAndNotify() {
	hour := s.now().Hour()
	if hour < s.startHour || hour >= s.endHour {
		return
	}

	ctx := context.Background()
	learners, err := s.source.Learners(ctx)
	if err != nil {
		log.Printf("reminder: listing learners: %v", err)
		return
	}

	for _, learnerID := range learners {
		due, err := s.source.DueItems(ctx, learnerID)
		if err != nil {
			log.Printf("reminder: due items for %s: %v", learnerID, err)
			continue
		}
		if len(due) == 0 {
			continue
		}
		if err := s.notifier.SendReminder(learnerID, len(due)); err != nil {
			log.Printf("reminder: notifying %s: %v", learnerID, err)
		}
	}
}

// RunManualCheck forces a due check for one learner, ignoring the delivery
// window.
func (s *Service) RunManualCheck(ctx context.Context, learnerID string) error {
	due, err := s.source.DueItems(ctx, learnerID)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	return s.notifier.SendReminder(learnerID, len(due))
}
