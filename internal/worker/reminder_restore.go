package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jwalitptl/clinic/internal/model"
	"github.com/jwalitptl/clinic/pkg/logger"
)

// AppointmentSource hands out the in-memory appointment projection while
// writes to it are held back.
type AppointmentSource interface {
	WithAppointments(fn func([]*model.Appointment))
}

type Reminders interface {
	Enabled() bool
	FireAt(appt *model.Appointment) (time.Time, error)
	NotificationFor(appointmentID int64) (string, bool)
	ScheduleReminder(ctx context.Context, appt *model.Appointment) (string, error)
}

// ReminderRestorer re-registers reminders for upcoming appointments after a
// restart. Reminder timers live in process memory, so a restart loses them.
// It runs once per process; after that only create-time scheduling applies.
type ReminderRestorer struct {
	source    AppointmentSource
	reminders Reminders
	logger    *logger.Logger
	now       func() time.Time

	once sync.Once
}

func NewReminderRestorer(source AppointmentSource, reminders Reminders, log *logger.Logger) *ReminderRestorer {
	return &ReminderRestorer{
		source:    source,
		reminders: reminders,
		logger:    log,
		now:       time.Now,
	}
}

// Restore schedules the missing reminders and returns how many it registered.
// Only the first call does any work.
func (w *ReminderRestorer) Restore(ctx context.Context) int {
	restored := 0
	w.once.Do(func() {
		if !w.reminders.Enabled() {
			return
		}
		w.source.WithAppointments(func(appts []*model.Appointment) {
			restored = w.restore(ctx, appts)
		})
		w.logger.Info("restored appointment reminders", "count", restored)
	})
	return restored
}

func (w *ReminderRestorer) restore(ctx context.Context, appts []*model.Appointment) int {
	now := w.now()
	restored := 0
	for _, appt := range appts {
		if appt.Status != model.AppointmentStatusScheduled {
			continue
		}
		if _, ok := w.reminders.NotificationFor(appt.ID); ok {
			continue
		}
		fireAt, err := w.reminders.FireAt(appt)
		if err != nil || !fireAt.After(now) {
			continue
		}

		id, err := w.reminders.ScheduleReminder(ctx, appt)
		if err != nil {
			w.logger.Error(err, "failed to restore reminder", "appointment_id", appt.ID)
			continue
		}
		if id != "" {
			restored++
		}
	}
	return restored
}
