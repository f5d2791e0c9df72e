package reminder

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic/internal/model"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
	"github.com/jwalitptl/clinic/pkg/logger"
	"github.com/jwalitptl/clinic/pkg/notify"
)

var _ notify.Scheduler = (*mockScheduler)(nil)

type mockScheduler struct {
	RegisterFunc func(ctx context.Context) error
	ScheduleFunc func(ctx context.Context, content notify.Content, trigger time.Time) (string, error)
	CancelFunc   func(ctx context.Context, id string) error

	ScheduleCallCount int32
	CancelCallCount   int32

	lastContent notify.Content
	lastTrigger time.Time
}

func (m *mockScheduler) Register(ctx context.Context) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx)
	}
	return nil
}

func (m *mockScheduler) Schedule(ctx context.Context, content notify.Content, trigger time.Time) (string, error) {
	atomic.AddInt32(&m.ScheduleCallCount, 1)
	m.lastContent = content
	m.lastTrigger = trigger
	if m.ScheduleFunc != nil {
		return m.ScheduleFunc(ctx, content, trigger)
	}
	return "n-1", nil
}

func (m *mockScheduler) Cancel(ctx context.Context, id string) error {
	atomic.AddInt32(&m.CancelCallCount, 1)
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, id)
	}
	return nil
}

var now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, sched *mockScheduler) *Service {
	t.Helper()
	svc := NewService(sched, Config{
		Location: time.UTC,
		Clock:    func() time.Time { return now },
	}, logger.Nop(), nil)
	require.NoError(t, svc.Register(context.Background()))
	return svc
}

func appointment(date, hm string) *model.Appointment {
	return &model.Appointment{
		Base:        model.Base{ID: 7},
		PatientID:   1,
		Date:        date,
		Time:        hm,
		Status:      model.AppointmentStatusScheduled,
		PatientName: "Gon Freecss",
	}
}

func TestScheduleReminder(t *testing.T) {
	sched := &mockScheduler{}
	svc := newService(t, sched)

	id, err := svc.ScheduleReminder(context.Background(), appointment("2024-03-11", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, "n-1", id)
	assert.Equal(t, int32(1), sched.ScheduleCallCount)

	assert.True(t, sched.lastTrigger.Equal(time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, Title, sched.lastContent.Title)
	assert.Equal(t, "You have an appointment with Gon Freecss at 10:00", sched.lastContent.Body)
	assert.Equal(t, int64(7), sched.lastContent.Data["appointment_id"])

	tracked, ok := svc.NotificationFor(7)
	assert.True(t, ok)
	assert.Equal(t, "n-1", tracked)
}

func TestScheduleReminderInThePastIsNoop(t *testing.T) {
	sched := &mockScheduler{}
	svc := newService(t, sched)

	for _, hm := range []string{"09:30", "10:00"} {
		// 10:00 fires exactly now, which is not strictly in the future.
		id, err := svc.ScheduleReminder(context.Background(), appointment("2024-03-10", hm))
		require.NoError(t, err)
		assert.Empty(t, id)
	}

	id, err := svc.ScheduleReminder(context.Background(), appointment("2024-03-09", "10:00"))
	require.NoError(t, err)
	assert.Empty(t, id)

	assert.Zero(t, sched.ScheduleCallCount)
	_, ok := svc.NotificationFor(7)
	assert.False(t, ok)
}

func TestScheduleReminderUsesLocation(t *testing.T) {
	sched := &mockScheduler{}
	loc := time.FixedZone("UTC+2", 2*60*60)
	svc := NewService(sched, Config{
		LeadTime: 30 * time.Minute,
		Location: loc,
		Clock:    func() time.Time { return now },
	}, logger.Nop(), nil)
	require.NoError(t, svc.Register(context.Background()))

	_, err := svc.ScheduleReminder(context.Background(), appointment("2024-03-10", "12:00"))
	require.NoError(t, err)
	assert.True(t, sched.lastTrigger.Equal(time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)))
}

func TestScheduleReminderFailures(t *testing.T) {
	ctx := context.Background()

	denied := &mockScheduler{RegisterFunc: func(context.Context) error { return notify.ErrPermissionDenied }}
	svc := NewService(denied, Config{Clock: func() time.Time { return now }}, logger.Nop(), nil)
	err := svc.Register(ctx)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotification))
	assert.False(t, svc.Enabled())

	_, err = svc.ScheduleReminder(ctx, appointment("2024-03-11", "10:00"))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotification))
	assert.Zero(t, denied.ScheduleCallCount)

	failing := &mockScheduler{ScheduleFunc: func(context.Context, notify.Content, time.Time) (string, error) {
		return "", errors.New("channel closed")
	}}
	svc = newService(t, failing)
	_, err = svc.ScheduleReminder(ctx, appointment("2024-03-11", "10:00"))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotification))

	_, err = svc.ScheduleReminder(ctx, appointment("tomorrow", "10:00"))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotification))
}

func TestCancelForAppointment(t *testing.T) {
	ctx := context.Background()
	sched := &mockScheduler{CancelFunc: func(context.Context, string) error {
		return notify.ErrUnknownNotification
	}}
	svc := newService(t, sched)

	svc.CancelForAppointment(ctx, 7)
	assert.Zero(t, sched.CancelCallCount)

	_, err := svc.ScheduleReminder(ctx, appointment("2024-03-11", "10:00"))
	require.NoError(t, err)

	svc.CancelForAppointment(ctx, 7)
	assert.Equal(t, int32(1), sched.CancelCallCount)

	_, ok := svc.NotificationFor(7)
	assert.False(t, ok)

	svc.CancelReminder(ctx, "")
	assert.Equal(t, int32(1), sched.CancelCallCount)
}
