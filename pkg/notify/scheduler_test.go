package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic/pkg/logger"
)

type captureSink struct {
	delivered chan Notification
	err       error
}

func newCaptureSink() *captureSink {
	return &captureSink{delivered: make(chan Notification, 4)}
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Deliver(_ context.Context, n Notification) error {
	s.delivered <- n
	return s.err
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	disabled := NewLocalScheduler(false, []Sink{newCaptureSink()}, logger.Nop())
	assert.ErrorIs(t, disabled.Register(ctx), ErrPermissionDenied)

	noSinks := NewLocalScheduler(true, nil, logger.Nop())
	assert.ErrorIs(t, noSinks.Register(ctx), ErrNoSinks)

	_, err := noSinks.Schedule(ctx, Content{Title: "x"}, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestScheduleDelivers(t *testing.T) {
	ctx := context.Background()
	sink := newCaptureSink()
	failing := newCaptureSink()
	failing.err = errors.New("smtp down")

	s := NewLocalScheduler(true, []Sink{failing, sink}, logger.Nop())
	require.NoError(t, s.Register(ctx))

	content := Content{
		Title: "Appointment Reminder",
		Body:  "You have an appointment with Gon Freecss at 10:00",
		Data:  map[string]interface{}{"appointment_id": int64(1)},
	}
	id, err := s.Schedule(ctx, content, time.Now().Add(20*time.Millisecond))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, s.Pending(), 1)

	select {
	case n := <-sink.delivered:
		assert.Equal(t, id, n.ID)
		assert.Equal(t, content, n.Content)
		assert.False(t, n.DeliveredAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
	assert.Empty(t, s.Pending())
}

func TestScheduleRejectsPastTrigger(t *testing.T) {
	ctx := context.Background()
	s := NewLocalScheduler(true, []Sink{newCaptureSink()}, logger.Nop())
	require.NoError(t, s.Register(ctx))

	_, err := s.Schedule(ctx, Content{Title: "late"}, time.Now().Add(-time.Minute))
	assert.ErrorIs(t, err, ErrTriggerNotInFuture)
	assert.Empty(t, s.Pending())
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	sink := newCaptureSink()
	s := NewLocalScheduler(true, []Sink{sink}, logger.Nop())
	require.NoError(t, s.Register(ctx))

	id, err := s.Schedule(ctx, Content{Title: "soon"}, time.Now().Add(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, s.Cancel(ctx, id))
	assert.ErrorIs(t, s.Cancel(ctx, id), ErrUnknownNotification)

	select {
	case <-sink.delivered:
		t.Fatal("cancelled notification was delivered")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := NewLocalScheduler(true, []Sink{newCaptureSink()}, logger.Nop())
	require.NoError(t, s.Register(ctx))

	for i := 0; i < 3; i++ {
		_, err := s.Schedule(ctx, Content{Title: "later"}, time.Now().Add(time.Hour))
		require.NoError(t, err)
	}
	assert.Len(t, s.Pending(), 3)

	s.Close()
	assert.Empty(t, s.Pending())
}
