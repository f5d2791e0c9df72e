package email

import (
	"context"

	"github.com/jwalitptl/clinic/pkg/notify"
)

// ReminderSink mails each fired reminder to a fixed recipient, normally the
// clinic inbox.
type ReminderSink struct {
	svc Service
	to  string
}

func NewReminderSink(svc Service, to string) *ReminderSink {
	return &ReminderSink{svc: svc, to: to}
}

func (s *ReminderSink) Name() string { return "email" }

func (s *ReminderSink) Deliver(ctx context.Context, n notify.Notification) error {
	return s.svc.SendCustom(ctx, s.to, n.Content.Title, n.Content.Body)
}
