package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coop-server/internal/coop/bus"
	"coop-server/internal/infra/async"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

func NewPollWorker(ticker *time.Ticker, service CoopService) *PollWorker {
	return &PollWorker{
		ticker:      ticker,
		service:     service,
		pollCounter: noop.Int64Counter{},
	}
}

var _ async.Worker = &PollWorker{}

// PollWorker keeps the readings cache warm. It polls once on start and then
// on every tick.
type PollWorker struct {
	ticker      *time.Ticker
	service     CoopService
	pollCounter metric.Int64Counter
}

func (w *PollWorker) Run(ctx context.Context, done func()) {
	slog.Debug("poll worker started")
	defer done()
	w.setupOtelCounters()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("poll worker cancelled")
			return
		case <-w.ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *PollWorker) setupOtelCounters() {
	meter := otel.Meter("coop_server")
	counter, err := meter.Int64Counter(
		fmt.Sprintf("%s.%s", "coop_server", "polls"),
		metric.WithDescription("coop_server poll iteration counter"),
	)
	if err != nil {
		slog.Warn("creating poll counter", slog.Any("error", err))
		return
	}
	w.pollCounter = counter
}

func (w *PollWorker) poll(ctx context.Context) {
	err := w.service.Poll(ctx)

	status := "success"
	if err != nil {
		status = bus.ErrorCode(err)
		slog.Debug("poll iteration failed", slog.Any("error", err))
	}
	w.pollCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (w *PollWorker) Shutdown() {
	w.ticker.Stop()
	slog.Debug("poll worker shutdown")
}
