package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/clinic/internal/model"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
	"github.com/jwalitptl/clinic/pkg/logger"
	"github.com/jwalitptl/clinic/pkg/metrics"
	"github.com/jwalitptl/clinic/pkg/notify"
)

const (
	DefaultLeadTime = time.Hour

	Title = "Appointment Reminder"
)

type Config struct {
	// LeadTime is how long before the appointment the reminder fires.
	LeadTime time.Duration
	// Location is the wall clock appointment dates and times are read in.
	Location *time.Location
	Clock    func() time.Time
}

// Service turns appointments into one-shot local notifications. It remembers the
// notification registered for each appointment so a later change can cancel it.
type Service struct {
	scheduler notify.Scheduler
	lead      time.Duration
	loc       *time.Location
	now       func() time.Time
	logger    *logger.Logger
	metrics   *metrics.Metrics

	mu            sync.Mutex
	enabled       bool
	byAppointment map[int64]string
}

func NewService(scheduler notify.Scheduler, cfg Config, log *logger.Logger, m *metrics.Metrics) *Service {
	if cfg.LeadTime <= 0 {
		cfg.LeadTime = DefaultLeadTime
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Service{
		scheduler:     scheduler,
		lead:          cfg.LeadTime,
		loc:           cfg.Location,
		now:           cfg.Clock,
		logger:        log,
		metrics:       m,
		byAppointment: make(map[int64]string),
	}
}

// Register performs the one-time permission setup. On failure reminders stay
// disabled for the life of the process.
func (s *Service) Register(ctx context.Context) error {
	err := s.scheduler.Register(ctx)

	s.mu.Lock()
	s.enabled = err == nil
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("notification registration failed, reminders disabled", "error", err.Error())
		return apperrors.NewNotification("failed to register notifications", err)
	}
	return nil
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// FireAt is the moment the reminder for appt goes off.
func (s *Service) FireAt(appt *model.Appointment) (time.Time, error) {
	start, err := appt.StartsAt(s.loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(-s.lead), nil
}

// ScheduleReminder registers the reminder for appt and returns its notification id.
// A fire time that is not in the future is skipped without error and yields "".
func (s *Service) ScheduleReminder(ctx context.Context, appt *model.Appointment) (string, error) {
	if !s.Enabled() {
		s.count("disabled")
		return "", apperrors.NewNotification("reminders are disabled", notify.ErrPermissionDenied)
	}

	fireAt, err := s.FireAt(appt)
	if err != nil {
		s.count("failed")
		return "", apperrors.NewNotification("failed to compute reminder time", err)
	}

	if !fireAt.After(s.now()) {
		s.count("skipped")
		s.logger.Info("reminder time is in the past, skipping",
			"appointment_id", appt.ID,
			"fire_at", fireAt,
		)
		return "", nil
	}

	content := notify.Content{
		Title: Title,
		Body:  fmt.Sprintf("You have an appointment with %s at %s", appt.PatientName, appt.Time),
		Data: map[string]interface{}{
			"appointment_id": appt.ID,
		},
	}

	id, err := s.scheduler.Schedule(ctx, content, fireAt)
	if err != nil {
		s.count("failed")
		return "", apperrors.NewNotification("failed to schedule reminder", err)
	}

	s.mu.Lock()
	s.byAppointment[appt.ID] = id
	s.mu.Unlock()

	s.count("scheduled")
	s.logger.Debug("reminder scheduled", "appointment_id", appt.ID, "notification_id", id, "fire_at", fireAt)
	return id, nil
}

// CancelReminder is best effort: failures are logged only.
func (s *Service) CancelReminder(ctx context.Context, notificationID string) {
	if notificationID == "" {
		return
	}

	err := s.scheduler.Cancel(ctx, notificationID)
	switch {
	case err == nil:
		s.count("canceled")
	case errors.Is(err, notify.ErrUnknownNotification):
		// Already fired.
		s.logger.Debug("reminder already gone", "notification_id", notificationID)
	default:
		s.logger.Warn("failed to cancel reminder", "notification_id", notificationID, "error", err.Error())
	}
}

// CancelForAppointment cancels whatever reminder was registered for the appointment.
func (s *Service) CancelForAppointment(ctx context.Context, appointmentID int64) {
	s.mu.Lock()
	id, ok := s.byAppointment[appointmentID]
	delete(s.byAppointment, appointmentID)
	s.mu.Unlock()

	if ok {
		s.CancelReminder(ctx, id)
	}
}

// NotificationFor returns the notification id tracked for the appointment.
func (s *Service) NotificationFor(appointmentID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byAppointment[appointmentID]
	return id, ok
}

func (s *Service) count(outcome string) {
	if s.metrics != nil {
		s.metrics.Reminders.WithLabelValues(outcome).Inc()
	}
}
