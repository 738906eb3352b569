package usecases

import (
	"context"
	"log/slog"
	"time"

	"coop-server/internal/coop/domain"
	"coop-server/internal/infra/async"
)

func NewDoorScheduleWorker(ticker *time.Ticker, service CoopService) *DoorScheduleWorker {
	return &DoorScheduleWorker{
		ticker:  ticker,
		service: service,
		now:     time.Now,
	}
}

var _ async.Worker = &DoorScheduleWorker{}

// DoorScheduleWorker opens the door at opening time and closes it at closing
// time. A direction is issued once per crossing, so a manual command in
// between is left alone until the next crossing.
type DoorScheduleWorker struct {
	ticker     *time.Ticker
	service    CoopService
	now        func() time.Time
	lastIssued domain.DoorDirection
}

// WithClock replaces the wall clock, for tests.
func (w *DoorScheduleWorker) WithClock(now func() time.Time) *DoorScheduleWorker {
	w.now = now
	return w
}

func (w *DoorScheduleWorker) Run(ctx context.Context, done func()) {
	slog.Debug("door schedule worker started")
	defer done()

	w.evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("door schedule worker cancelled")
			return
		case <-w.ticker.C:
			w.evaluate(ctx)
		}
	}
}

func (w *DoorScheduleWorker) evaluate(ctx context.Context) {
	opening, err := w.service.OpeningTime(ctx)
	if err != nil {
		slog.Error("computing door opening time", slog.Any("error", err))
		return
	}
	closing, err := w.service.ClosingTime(ctx)
	if err != nil {
		slog.Error("computing door closing time", slog.Any("error", err))
		return
	}

	desired := desiredDirection(w.now(), opening, closing)
	if desired == w.lastIssued {
		return
	}

	value, err := w.service.CommandDoor(ctx, desired)
	if err != nil {
		slog.Error("scheduled door command failed, retrying on next tick",
			slog.String("direction", string(desired)),
			slog.Any("error", err))
		return
	}

	w.lastIssued = desired
	slog.Info("scheduled door command issued",
		slog.String("direction", string(desired)),
		slog.Int64("result", value),
		slog.Time("opening_time", opening),
		slog.Time("closing_time", closing))
}

func (w *DoorScheduleWorker) Shutdown() {
	w.ticker.Stop()
	slog.Debug("door schedule worker shutdown")
}
