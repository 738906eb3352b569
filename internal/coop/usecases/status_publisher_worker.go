package usecases

import (
	"context"
	"log/slog"
	"time"

	"coop-server/internal/coop/domain"
	"coop-server/internal/infra/async"
	"coop-server/internal/infra/mqtt"
	"coop-server/internal/infra/node"
)

// StatusMessage is the retained MQTT payload describing the coop.
type StatusMessage struct {
	Node        string        `json:"node"`
	PublishedAt time.Time     `json:"published_at"`
	Status      domain.Status `json:"status"`
}

func NewStatusPublisherWorker(
	broker async.InternalBroker,
	service CoopService,
	client mqtt.Client,
	topic string,
) *StatusPublisherWorker {
	return &StatusPublisherWorker{
		broker:  broker,
		service: service,
		client:  client,
		topic:   topic,
	}
}

var _ async.Worker = &StatusPublisherWorker{}

// StatusPublisherWorker publishes a status snapshot after every completed
// poll and every door command.
type StatusPublisherWorker struct {
	broker  async.InternalBroker
	service CoopService
	client  mqtt.Client
	topic   string
}

func (w *StatusPublisherWorker) Run(ctx context.Context, done func()) {
	slog.Debug("status publisher worker started", slog.String("topic", w.topic))
	defer done()

	subscription, err := w.broker.Subscribe(EventsTopic)
	if err != nil {
		slog.Error("subscribing to coop events", slog.Any("error", err))
		return
	}
	defer w.broker.Unsubscribe(EventsTopic, subscription)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-subscription.Receiver:
			if !ok {
				return
			}
			if shouldPublishStatus(msg) {
				w.publish(ctx)
			}
		}
	}
}

func shouldPublishStatus(msg async.BrokerMessage) bool {
	switch event := msg.Value.(type) {
	case domain.ReadingEvent:
		// Uptime is the last value read by a poll.
		return event.Kind == domain.ReadingUptime
	case domain.DoorCommandEvent, domain.AutoResetEvent:
		return true
	default:
		return false
	}
}

func (w *StatusPublisherWorker) publish(ctx context.Context) {
	message := StatusMessage{
		Node:        node.GetNodeInfo().ID,
		PublishedAt: time.Now().UTC(),
		Status:      w.service.Status(ctx),
	}

	if err := w.client.Publish(w.topic, message, true); err != nil {
		slog.Error("publishing coop status", slog.String("topic", w.topic), slog.Any("error", err))
	}
}

func (w *StatusPublisherWorker) Shutdown() {
	w.client.Disconnect()
	slog.Debug("status publisher worker shutdown")
}
