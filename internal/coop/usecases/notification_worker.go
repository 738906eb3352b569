package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"coop-server/internal/coop/domain"
	"coop-server/internal/infra/async"
	"coop-server/internal/infra/notification"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

func NewNotificationWorker(
	broker async.InternalBroker,
	notificationClient notification.NotificationClient,
	recipient string,
) *NotificationWorker {
	return &NotificationWorker{
		broker:              broker,
		notificationClient:  notificationClient,
		recipient:           recipient,
		notificationCounter: noop.Int64Counter{},
	}
}

var _ async.Worker = &NotificationWorker{}

// NotificationWorker emails the keeper about door movements, automatic
// resets and board restarts.
type NotificationWorker struct {
	broker              async.InternalBroker
	notificationClient  notification.NotificationClient
	recipient           string
	notificationCounter metric.Int64Counter
}

func (w *NotificationWorker) Run(ctx context.Context, done func()) {
	slog.Debug("notification worker started")
	defer done()

	subscription, err := w.broker.Subscribe(EventsTopic)
	if err != nil {
		slog.Error("subscribing to coop events", slog.Any("error", err))
		return
	}
	defer w.broker.Unsubscribe(EventsTopic, subscription)

	w.setupOtelCounters()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("notification worker context done, waiting for pending notifications")
			return
		case msg, ok := <-subscription.Receiver:
			if !ok {
				return
			}
			request, notify := w.buildEmail(msg)
			if !notify {
				continue
			}
			wg.Add(1)
			go w.send(ctx, request, msg.Event, wg.Done)
		}
	}
}

func (w *NotificationWorker) setupOtelCounters() {
	counter, err := otel.Meter("coop_server").Int64Counter(
		fmt.Sprintf("%s.%s", "coop_server", "notifications"),
		metric.WithDescription("coop_server notification counter"),
	)
	if err != nil {
		slog.Warn("creating notification counter", slog.Any("error", err))
		return
	}
	w.notificationCounter = counter
}

func (w *NotificationWorker) send(ctx context.Context, request notification.EmailRequest, event string, done func()) {
	defer done()

	status := "success"
	if err := w.notificationClient.SendEmail(ctx, request); err != nil {
		status = "failure"
		slog.Error("sending coop notification",
			slog.String("event", event),
			slog.String("to", request.To),
			slog.Any("error", err))
	}

	w.notificationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("status", status),
	))
}

func (w *NotificationWorker) buildEmail(msg async.BrokerMessage) (notification.EmailRequest, bool) {
	var subject string
	var body strings.Builder

	switch event := msg.Value.(type) {
	case domain.DoorCommandEvent:
		subject = fmt.Sprintf("Coop door: %s", event.Direction)
		fmt.Fprintf(&body, "The coop door was commanded to %s at %s.\n", event.Direction, event.At.Format(time.Kitchen))
		fmt.Fprintf(&body, "Door reading after the command: %d (%s).\n", event.Result, doorState(event.Result))
	case domain.AutoResetEvent:
		subject = "Coop board reset automatically"
		fmt.Fprintf(&body, "The board was reset after %d consecutive failed polls at %s.\n", event.ConsecutiveFailures, event.At.Format(time.RFC1123))
		if event.Err != "" {
			fmt.Fprintf(&body, "The reset itself failed: %s\n", event.Err)
		}
	case domain.DeviceRestartedEvent:
		subject = "Coop board restarted"
		fmt.Fprintf(&body, "The board uptime went from %ds to %ds, it restarted around %s.\n",
			event.PreviousUptime, event.CurrentUptime, event.At.Format(time.RFC1123))
	default:
		return notification.EmailRequest{}, false
	}

	body.WriteString("\nThis is an automated notification from coop-server.\n")

	return notification.EmailRequest{
		To:      w.recipient,
		Subject: subject,
		Body:    body.String(),
	}, true
}

func doorState(reading int64) string {
	if domain.DoorIsOpen(reading) {
		return "open"
	}
	return "closed"
}

func (w *NotificationWorker) Shutdown() {
	slog.Debug("notification worker shutdown")
}
