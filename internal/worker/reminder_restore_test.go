package worker

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic/internal/model"
	"github.com/jwalitptl/clinic/internal/repository/sqlite"
	"github.com/jwalitptl/clinic/internal/service/clinic"
	"github.com/jwalitptl/clinic/internal/service/reminder"
	"github.com/jwalitptl/clinic/pkg/logger"
	"github.com/jwalitptl/clinic/pkg/notify"
	"github.com/jwalitptl/clinic/pkg/validator"
)

var (
	_ AppointmentSource = staticSource(nil)
	_ AppointmentSource = (*clinic.Service)(nil)
	_ Reminders         = (*reminder.Service)(nil)
	_ notify.Scheduler  = (*countingScheduler)(nil)
)

type staticSource []*model.Appointment

func (s staticSource) WithAppointments(fn func([]*model.Appointment)) { fn(s) }

type fakeReminders struct {
	enabled   bool
	tracked   map[int64]string
	failFor   int64
	scheduled []int64
}

func (f *fakeReminders) Enabled() bool { return f.enabled }

func (f *fakeReminders) FireAt(appt *model.Appointment) (time.Time, error) {
	start, err := appt.StartsAt(time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(-time.Hour), nil
}

func (f *fakeReminders) NotificationFor(id int64) (string, bool) {
	n, ok := f.tracked[id]
	return n, ok
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, appt *model.Appointment) (string, error) {
	if appt.ID == f.failFor {
		return "", errors.New("scheduler down")
	}
	f.scheduled = append(f.scheduled, appt.ID)
	return "n", nil
}

// countingScheduler counts every Schedule attempt and fails them while fail is set.
type countingScheduler struct {
	fail     atomic.Bool
	attempts int32
}

func (s *countingScheduler) Register(context.Context) error { return nil }

func (s *countingScheduler) Schedule(context.Context, notify.Content, time.Time) (string, error) {
	n := atomic.AddInt32(&s.attempts, 1)
	if s.fail.Load() {
		return "", errors.New("scheduler down")
	}
	return "n-" + strconv.Itoa(int(n)), nil
}

func (s *countingScheduler) Cancel(context.Context, string) error { return nil }

func appt(id int64, date, tm string, status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{PatientID: 1, Date: date, Time: tm, Status: status}
	a.ID = id
	return a
}

func intPtr(v int) *int { return &v }

func TestReminderRestorer_Restore(t *testing.T) {
	source := staticSource{
		appt(1, "2024-03-10", "12:00", model.AppointmentStatusScheduled),
		appt(2, "2024-03-10", "12:00", model.AppointmentStatusCompleted),
		appt(3, "2024-03-10", "09:30", model.AppointmentStatusScheduled),
		appt(4, "2024-03-11", "08:00", model.AppointmentStatusScheduled),
		appt(5, "2024-03-11", "10:00", model.AppointmentStatusScheduled),
		appt(6, "2024-03-12", "10:00", model.AppointmentStatusScheduled),
		appt(7, "not-a-date", "10:00", model.AppointmentStatusScheduled),
	}
	reminders := &fakeReminders{
		enabled: true,
		tracked: map[int64]string{4: "existing"},
		failFor: 6,
	}

	w := NewReminderRestorer(source, reminders, logger.Nop())
	w.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }

	n := w.Restore(context.Background())
	assert.Equal(t, 2, n)
	// 2 is not scheduled, 3 fires before now, 4 is tracked, 6 fails, 7 is unparseable.
	assert.Equal(t, []int64{1, 5}, reminders.scheduled)

	// The pass runs once; 6 is not tried again.
	reminders.failFor = 0
	assert.Zero(t, w.Restore(context.Background()))
	assert.Equal(t, []int64{1, 5}, reminders.scheduled)
}

func TestReminderRestorer_Disabled(t *testing.T) {
	reminders := &fakeReminders{}
	w := NewReminderRestorer(staticSource{appt(1, "2099-01-01", "10:00", model.AppointmentStatusScheduled)}, reminders, logger.Nop())

	assert.Zero(t, w.Restore(context.Background()))
	assert.Empty(t, reminders.scheduled)
}

// With change sync off, only creation schedules a reminder. Restoring at
// startup must not widen that later on.
func TestReminderRestorer_OnlyCreationSchedulesAfterStartup(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixed }

	db, err := sqlite.NewDB(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := sqlite.NewStore(db, nil)
	require.NoError(t, store.EnsureSchema(ctx))

	sched := &countingScheduler{}
	reminders := reminder.NewService(sched, reminder.Config{
		LeadTime: time.Hour,
		Location: time.UTC,
		Clock:    clock,
	}, logger.Nop(), nil)
	require.NoError(t, reminders.Register(ctx))

	svc := clinic.NewService(store, reminders, validator.New(), logger.Nop(), nil, clinic.Config{
		SyncReminders: false,
		Clock:         clock,
	})
	require.NoError(t, svc.Load(ctx))

	w := NewReminderRestorer(svc, reminders, logger.Nop())
	w.now = clock
	assert.Zero(t, w.Restore(ctx))

	p, err := svc.CreatePatient(ctx, model.PatientInput{FullName: "Leorio", Age: intPtr(30), PhoneNumber: "555"})
	require.NoError(t, err)

	// Completed, then moved back to scheduled: no reminder without sync.
	done, err := svc.CreateAppointment(ctx, model.AppointmentInput{
		PatientID: p.ID, Date: "2024-03-11", Time: "10:00", Status: model.AppointmentStatusCompleted,
	})
	require.NoError(t, err)
	_, err = svc.UpdateAppointment(ctx, done.ID, model.AppointmentInput{
		PatientID: p.ID, Date: "2024-03-11", Time: "10:00", Status: model.AppointmentStatusScheduled,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&sched.attempts))

	// A failed create-time schedule is attempted exactly once.
	sched.fail.Store(true)
	failed, err := svc.CreateAppointment(ctx, model.AppointmentInput{
		PatientID: p.ID, Date: "2024-03-12", Time: "10:00", Status: model.AppointmentStatusScheduled,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sched.attempts))
	sched.fail.Store(false)

	assert.Zero(t, w.Restore(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&sched.attempts))
	_, ok := reminders.NotificationFor(done.ID)
	assert.False(t, ok)
	_, ok = reminders.NotificationFor(failed.ID)
	assert.False(t, ok)
}

func TestReminderRestorer_StartupRestoresFromStore(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixed }

	db, err := sqlite.NewDB(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := sqlite.NewStore(db, nil)
	require.NoError(t, store.EnsureSchema(ctx))

	// A previous run wrote the appointment; its timer is gone.
	sched := &countingScheduler{}
	before := clinic.NewService(store, nil, validator.New(), logger.Nop(), nil, clinic.Config{Clock: clock})
	require.NoError(t, before.Load(ctx))
	p, err := before.CreatePatient(ctx, model.PatientInput{FullName: "Kurapika", Age: intPtr(17), PhoneNumber: "556"})
	require.NoError(t, err)
	a, err := before.CreateAppointment(ctx, model.AppointmentInput{
		PatientID: p.ID, Date: "2024-03-11", Time: "10:00", Status: model.AppointmentStatusScheduled,
	})
	require.NoError(t, err)

	reminders := reminder.NewService(sched, reminder.Config{LeadTime: time.Hour, Location: time.UTC, Clock: clock}, logger.Nop(), nil)
	require.NoError(t, reminders.Register(ctx))
	svc := clinic.NewService(store, reminders, validator.New(), logger.Nop(), nil, clinic.Config{Clock: clock})
	require.NoError(t, svc.Load(ctx))

	w := NewReminderRestorer(svc, reminders, logger.Nop())
	w.now = clock
	assert.Equal(t, 1, w.Restore(ctx))
	_, ok := reminders.NotificationFor(a.ID)
	assert.True(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sched.attempts))
}
