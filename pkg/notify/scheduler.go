// Package notify is the local notification service: one-shot reminders held as
// in-process timers and handed to delivery sinks when they fire.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic/pkg/logger"
)

const deliveryTimeout = 10 * time.Second

var (
	ErrPermissionDenied    = errors.New("notifications are disabled")
	ErrNotRegistered       = errors.New("notification service not registered")
	ErrUnknownNotification = errors.New("unknown notification")
	ErrTriggerNotInFuture  = errors.New("trigger time is not in the future")
	ErrNoSinks             = errors.New("no delivery sinks configured")
)

type Content struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

type Notification struct {
	ID          string    `json:"id"`
	Content     Content   `json:"content"`
	TriggerAt   time.Time `json:"trigger_at"`
	DeliveredAt time.Time `json:"delivered_at,omitempty"`
}

// Scheduler registers and cancels one-shot local notifications.
type Scheduler interface {
	Register(ctx context.Context) error
	Schedule(ctx context.Context, content Content, trigger time.Time) (string, error)
	Cancel(ctx context.Context, id string) error
}

type LocalScheduler struct {
	mu         sync.Mutex
	enabled    bool
	registered bool
	sinks      []Sink
	timers     map[string]*time.Timer
	pending    map[string]Notification
	logger     *logger.Logger
	now        func() time.Time
}

func NewLocalScheduler(enabled bool, sinks []Sink, log *logger.Logger) *LocalScheduler {
	return &LocalScheduler{
		enabled: enabled,
		sinks:   sinks,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]Notification),
		logger:  log,
		now:     time.Now,
	}
}

// Register is the one-time permission and channel setup done at startup.
func (s *LocalScheduler) Register(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return ErrPermissionDenied
	}
	if len(s.sinks) == 0 {
		return ErrNoSinks
	}
	s.registered = true
	return nil
}

func (s *LocalScheduler) Schedule(_ context.Context, content Content, trigger time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registered {
		return "", ErrNotRegistered
	}
	delay := trigger.Sub(s.now())
	if delay <= 0 {
		return "", ErrTriggerNotInFuture
	}

	n := Notification{
		ID:        uuid.New().String(),
		Content:   content,
		TriggerAt: trigger,
	}
	s.pending[n.ID] = n
	s.timers[n.ID] = time.AfterFunc(delay, func() { s.fire(n.ID) })

	s.logger.Debug("notification scheduled", "notification_id", n.ID, "trigger_at", trigger)
	return n.ID, nil
}

func (s *LocalScheduler) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[id]
	if !ok {
		return ErrUnknownNotification
	}
	timer.Stop()
	delete(s.timers, id)
	delete(s.pending, id)
	return nil
}

// Pending returns the notifications that have not fired yet.
func (s *LocalScheduler) Pending() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, 0, len(s.pending))
	for _, n := range s.pending {
		out = append(out, n)
	}
	return out
}

// Close stops every outstanding timer.
func (s *LocalScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
		delete(s.pending, id)
	}
}

func (s *LocalScheduler) fire(id string) {
	s.mu.Lock()
	n, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
		delete(s.timers, id)
	}
	sinks := s.sinks
	s.mu.Unlock()

	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	n.DeliveredAt = s.now()
	for _, sink := range sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			s.logger.Error(err, "notification delivery failed", "notification_id", n.ID, "sink", sink.Name())
		}
	}
}
