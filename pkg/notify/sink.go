package notify

import (
	"context"

	"github.com/jwalitptl/clinic/pkg/logger"
	"github.com/jwalitptl/clinic/pkg/messaging"
)

// Sink delivers a fired notification somewhere a person will see it.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, n Notification) error {
	s.logger.Info(n.Content.Title, "body", n.Content.Body, "notification_id", n.ID, "data", n.Content.Data)
	return nil
}

// BrokerSink publishes each notification on a pub/sub channel.
type BrokerSink struct {
	broker  messaging.Broker
	channel string
}

func NewBrokerSink(broker messaging.Broker, channel string) *BrokerSink {
	return &BrokerSink{broker: broker, channel: channel}
}

func (s *BrokerSink) Name() string { return "redis" }

func (s *BrokerSink) Deliver(ctx context.Context, n Notification) error {
	return s.broker.Publish(ctx, s.channel, messaging.Message{
		Type:    "appointment_reminder",
		Payload: n,
	})
}
