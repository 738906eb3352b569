package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"coop-server/internal/coop/bus"
	"coop-server/internal/coop/domain"
	"coop-server/internal/infra/async"
	"coop-server/internal/infra/cache"
)

const (
	// EventsTopic carries every domain.EventName published by the service.
	EventsTopic async.BrokerTopicName = "coop_events"

	DefaultReadingsMaxAge     = 5 * time.Minute
	DefaultAutoResetThreshold = 10
)

type CoopServiceConfig struct {
	// ReadingsMaxAge is how long a polled value is served before it reads as NoReading.
	ReadingsMaxAge time.Duration
	// AutoResetThreshold is the number of consecutive failed polls that
	// triggers a reset of the board. Zero disables auto reset.
	AutoResetThreshold int
}

func NewCoopService(
	controller CoopBus,
	readings cache.Cache,
	broker async.InternalBroker,
	schedule DoorSchedule,
	config CoopServiceConfig,
) *SimpleCoopService {
	if config.ReadingsMaxAge <= 0 {
		config.ReadingsMaxAge = DefaultReadingsMaxAge
	}
	if config.AutoResetThreshold < 0 {
		config.AutoResetThreshold = 0
	}

	return &SimpleCoopService{
		controller: controller,
		readings:   readings,
		broker:     broker,
		schedule:   schedule,
		config:     config,
		now:        time.Now,
		mode:       domain.NoReading,
		lastRead:   domain.NoReading,
		lastWrite:  domain.NoReading,
		lastError:  domain.NoReading,
		lastUptime: domain.NoReading,
	}
}

var _ CoopService = (*SimpleCoopService)(nil)

type SimpleCoopService struct {
	controller CoopBus
	readings   cache.Cache
	broker     async.InternalBroker
	schedule   DoorSchedule
	config     CoopServiceConfig
	now        func() time.Time

	mu                  sync.Mutex
	mode                int64
	isOpening           bool
	isClosing           bool
	readErrors          int64
	writeErrors         int64
	busyRejects         int64
	autoResets          int64
	lastRead            int64
	lastWrite           int64
	lastError           int64
	lastUptime          int64
	longestUptime       int64
	consecutiveFailures int
}

// WithClock replaces the wall clock, for tests.
func (s *SimpleCoopService) WithClock(now func() time.Time) *SimpleCoopService {
	s.now = now
	return s
}

func (s *SimpleCoopService) CommandDoor(ctx context.Context, dir domain.DoorDirection) (int64, error) {
	if _, err := domain.ParseDoorDirection(string(dir)); err != nil {
		return 0, err
	}

	opcode := dir.Opcode()
	value, err := s.send(ctx, opcode, nil)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.mode = int64(opcode)
	s.isOpening = dir == domain.DoorOpen && !domain.DoorIsOpen(value)
	s.isClosing = dir == domain.DoorClose && domain.DoorIsOpen(value)
	s.mu.Unlock()

	s.readings.Set(ctx, readingKey(domain.ReadingDoor), value, s.config.ReadingsMaxAge)

	slog.Info("door command accepted", slog.String("direction", string(dir)), slog.Int64("result", value))
	s.publish(ctx, domain.EventDoorCommand, domain.DoorCommandEvent{
		Direction: dir,
		Result:    value,
		At:        s.now(),
	})

	return value, nil
}

func (s *SimpleCoopService) OpenDoor(ctx context.Context) (int64, error) {
	return s.CommandDoor(ctx, domain.DoorOpen)
}

func (s *SimpleCoopService) CloseDoor(ctx context.Context) (int64, error) {
	return s.CommandDoor(ctx, domain.DoorClose)
}

func (s *SimpleCoopService) AutoDoor(ctx context.Context) (int64, error) {
	return s.CommandDoor(ctx, domain.DoorAuto)
}

// Reset restarts the board. The cached uptime belongs to the previous boot
// and is dropped.
func (s *SimpleCoopService) Reset(ctx context.Context) (int64, error) {
	value, err := s.send(ctx, domain.OpcodeReset, nil)
	if err != nil {
		return 0, err
	}

	s.readings.Delete(ctx, readingKey(domain.ReadingUptime))
	return value, nil
}

func (s *SimpleCoopService) Echo(ctx context.Context, args []byte) (int64, error) {
	return s.send(ctx, domain.OpcodeEcho, args)
}

func (s *SimpleCoopService) Reading(ctx context.Context, kind domain.ReadingKind) int64 {
	value, found := s.readings.Get(ctx, readingKey(kind))
	if !found {
		return domain.NoReading
	}
	reading, ok := value.(int64)
	if !ok {
		return domain.NoReading
	}
	return reading
}

func (s *SimpleCoopService) RefreshReading(ctx context.Context, kind domain.ReadingKind) (int64, error) {
	if _, err := domain.ParseReadingKind(string(kind)); err != nil {
		return 0, err
	}

	value, err := s.readings.Refresh(ctx, readingKey(kind), s.config.ReadingsMaxAge, func() (any, error) {
		reading, err := s.send(ctx, kind.Opcode(), nil)
		if err != nil {
			return nil, err
		}
		s.onReading(ctx, kind, reading)
		return reading, nil
	})
	if err != nil {
		return 0, err
	}

	return value.(int64), nil
}

// Poll reads door, temperature, light and uptime in sequence. A poll that
// fails for any reason other than a busy bus counts towards auto reset.
func (s *SimpleCoopService) Poll(ctx context.Context) error {
	var errs []error
	for _, kind := range domain.PolledReadings {
		if _, err := s.RefreshReading(ctx, kind); err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", kind, err))
		}
	}

	pollErr := errors.Join(errs...)
	if s.countPollResult(pollErr) {
		s.autoReset(ctx)
	}

	return pollErr
}

func (s *SimpleCoopService) countPollResult(pollErr error) (shouldReset bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pollErr == nil {
		s.consecutiveFailures = 0
		return false
	}
	if onlyBusy(pollErr) {
		return false
	}

	s.consecutiveFailures++
	return s.config.AutoResetThreshold > 0 && s.consecutiveFailures >= s.config.AutoResetThreshold
}

func onlyBusy(err error) bool {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return errors.Is(err, bus.ErrBusy)
	}
	for _, e := range joined.Unwrap() {
		if !errors.Is(e, bus.ErrBusy) {
			return false
		}
	}
	return true
}

func (s *SimpleCoopService) autoReset(ctx context.Context) {
	s.mu.Lock()
	failures := s.consecutiveFailures
	s.consecutiveFailures = 0
	s.autoResets++
	s.mu.Unlock()

	slog.Warn("resetting coop board after consecutive failed polls", slog.Int("failures", failures))

	event := domain.AutoResetEvent{ConsecutiveFailures: failures, At: s.now()}
	value, err := s.Reset(ctx)
	if err != nil {
		event.Err = err.Error()
	} else {
		event.Result = value
	}
	s.publish(ctx, domain.EventAutoReset, event)
}

func (s *SimpleCoopService) Status(ctx context.Context) domain.Status {
	status := domain.Status{
		Door:   s.Reading(ctx, domain.ReadingDoor),
		Temp:   s.Reading(ctx, domain.ReadingTemp),
		Light:  s.Reading(ctx, domain.ReadingLight),
		Uptime: s.Reading(ctx, domain.ReadingUptime),
	}

	if opening, closing, err := s.times(); err == nil {
		status.OpeningTime = opening
		status.ClosingTime = closing
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	status.Mode = s.mode
	status.IsOpening = s.isOpening
	status.IsClosing = s.isClosing
	status.ReadErrorCount = s.readErrors
	status.WriteErrorCount = s.writeErrors
	status.BusyRejectCount = s.busyRejects
	status.AutoResetCount = s.autoResets
	status.LastSuccessfulRead = s.lastRead
	status.LastSuccessfulWrite = s.lastWrite
	status.LastError = s.lastError
	status.LongestUptime = s.longestUptime

	return status
}

func (s *SimpleCoopService) OpeningTime(_ context.Context) (time.Time, error) {
	opening, _, err := s.times()
	return opening, err
}

func (s *SimpleCoopService) ClosingTime(_ context.Context) (time.Time, error) {
	_, closing, err := s.times()
	return closing, err
}

func (s *SimpleCoopService) times() (time.Time, time.Time, error) {
	return s.schedule.Times(s.now())
}

func (s *SimpleCoopService) send(ctx context.Context, opcode domain.Opcode, args []byte) (int64, error) {
	value, err := s.controller.SendCommand(ctx, opcode, args)
	s.record(ctx, opcode, err)
	if err != nil {
		return 0, err
	}
	return int64(value), nil
}

// record keeps the error bookkeeping. The bus controller already logged the
// failure, so only counters and events are updated here.
func (s *SimpleCoopService) record(ctx context.Context, opcode domain.Opcode, err error) {
	now := s.now().UnixMilli()

	s.mu.Lock()
	switch {
	case err == nil:
		s.lastWrite = now
		s.lastRead = now
	case errors.Is(err, bus.ErrBusy):
		s.busyRejects++
		s.lastError = now
	case errors.Is(err, bus.ErrWrite):
		s.writeErrors++
		s.lastError = now
	case errors.Is(err, bus.ErrRead):
		// The write went through before the read failed.
		s.lastWrite = now
		s.readErrors++
		s.lastError = now
	default:
		s.lastError = now
	}
	s.mu.Unlock()

	if err != nil && !errors.Is(err, bus.ErrBusy) {
		s.publish(ctx, domain.EventBusError, domain.BusErrorEvent{
			Command: opcode.String(),
			Code:    bus.ErrorCode(err),
			Message: err.Error(),
			At:      s.now(),
		})
	}
}

func (s *SimpleCoopService) onReading(ctx context.Context, kind domain.ReadingKind, value int64) {
	var restarted *domain.DeviceRestartedEvent

	s.mu.Lock()
	switch kind {
	case domain.ReadingDoor:
		if domain.DoorIsOpen(value) {
			s.isOpening = false
		} else {
			s.isClosing = false
		}
	case domain.ReadingUptime:
		if s.lastUptime != domain.NoReading && value < s.lastUptime {
			restarted = &domain.DeviceRestartedEvent{
				PreviousUptime: s.lastUptime,
				CurrentUptime:  value,
				At:             s.now(),
			}
		}
		s.lastUptime = value
		s.longestUptime = max(s.longestUptime, value)
	}
	s.mu.Unlock()

	s.publish(ctx, domain.EventReadingUpdated, domain.ReadingEvent{Kind: kind, Value: value, At: s.now()})
	if restarted != nil {
		slog.Warn("coop board restarted",
			slog.Int64("previous_uptime", restarted.PreviousUptime),
			slog.Int64("current_uptime", restarted.CurrentUptime))
		s.publish(ctx, domain.EventDeviceRestarted, *restarted)
	}
}

func (s *SimpleCoopService) publish(ctx context.Context, name domain.EventName, event any) {
	err := s.broker.Publish(ctx, EventsTopic, async.BrokerMessage{Event: string(name), Value: event})
	switch {
	case err == nil:
	case errors.Is(err, async.ErrTopicNotFound):
		slog.Debug("no subscribers for coop event", slog.String("event", string(name)))
	default:
		slog.Warn("publishing coop event", slog.String("event", string(name)), slog.Any("error", err))
	}
}

func readingKey(kind domain.ReadingKind) string {
	return "reading:" + string(kind)
}
