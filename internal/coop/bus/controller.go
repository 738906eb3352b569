package bus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"coop-server/internal/coop/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=controller.go -destination=../../../test/unit/doubles/coop/bus/transport_mock.go -package=bus -mock_names=Transport=MockTransport

const (
	// ResponseSize is the fixed width of every device response.
	ResponseSize = 4
)

// Transport is the byte level channel to the microcontroller. Implementations
// are not required to be safe for concurrent use; the Controller never issues
// overlapping calls, not even after a read timed out.
type Transport interface {
	Write(ctx context.Context, opcode byte, args []byte) error
	Read(ctx context.Context, n int) ([]byte, error)
}

// Options tunes the timing of a command exchange.
type Options struct {
	// SettleDelay is the wait between a successful write and the read.
	SettleDelay time.Duration
	// ReadTimeout bounds how long the caller waits for the read. Zero leaves
	// the read unbounded. A timed out read keeps the bus busy until the
	// transport returns.
	ReadTimeout time.Duration
}

func NewController(transport Transport, opts Options) *Controller {
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}

	c := &Controller{
		transport: transport,
		opts:      opts,
	}
	c.setupOtelInstruments()

	return c
}

// Controller serializes access to a single request/response bus. At most one
// command is in flight; a command issued meanwhile fails with ErrBusy.
type Controller struct {
	transport Transport
	opts      Options
	busy      atomic.Bool

	commandCounter  metric.Int64Counter
	commandDuration metric.Float64Histogram
}

func (c *Controller) setupOtelInstruments() {
	meter := otel.Meter("coop_server")
	var err error
	c.commandCounter, err = meter.Int64Counter(
		fmt.Sprintf("%s.%s", "coop_server", "bus.commands"),
		metric.WithDescription("coop_server bus command counter"),
	)
	if err != nil {
		slog.Warn("creating bus command counter", slog.Any("error", err))
		c.commandCounter = noop.Int64Counter{}
	}
	c.commandDuration, err = meter.Float64Histogram(
		fmt.Sprintf("%s.%s", "coop_server", "bus.command.duration.seconds"),
		metric.WithDescription("Duration of bus commands including the settle delay"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.Warn("creating bus command histogram", slog.Any("error", err))
		c.commandDuration = noop.Float64Histogram{}
	}
}

// Busy reports whether a command is currently in flight.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// SendCommand writes [opcode]+args, waits the settle delay and decodes the
// 4 byte big endian response. Once the write has been issued the read is
// always attempted, even if ctx is cancelled meanwhile.
func (c *Controller) SendCommand(ctx context.Context, opcode domain.Opcode, args []byte) (uint32, error) {
	if !opcode.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownOpcode, byte(opcode))
	}

	requestID := uuid.NewString()
	logAttrs := []any{
		slog.String("request_id", requestID),
		slog.String("command", opcode.String()),
		slog.Int("opcode", int(opcode)),
		slog.Any("args", args),
	}

	if !c.busy.CompareAndSwap(false, true) {
		slog.Error("bus message in progress", logAttrs...)
		c.record(ctx, opcode, ErrBusy, 0)
		return 0, ErrBusy
	}
	release := true
	defer func() {
		if release {
			c.busy.Store(false)
		}
	}()

	ctx, span := otel.Tracer("coop_server").Start(ctx, "bus.command",
		trace.WithAttributes(
			attribute.String("bus.command", opcode.String()),
			attribute.String("bus.request_id", requestID),
		),
	)
	defer span.End()

	start := time.Now()
	value, err := c.exchange(ctx, opcode, args, logAttrs)
	c.record(ctx, opcode, err, time.Since(start))
	if errors.Is(err, ErrTransportTimeout) {
		// The abandoned read still owns the transport and clears busy itself.
		release = false
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	return value, nil
}

func (c *Controller) exchange(ctx context.Context, opcode domain.Opcode, args []byte, logAttrs []any) (uint32, error) {
	// No cancellation past this point: the device has to be read back.
	ctx = context.WithoutCancel(ctx)

	if err := c.transport.Write(ctx, byte(opcode), args); err != nil {
		slog.Error("error writing data to bus", append(logAttrs, slog.Any("error", err))...)
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if c.opts.SettleDelay > 0 {
		time.Sleep(c.opts.SettleDelay)
	}

	raw, err := c.read(ctx, logAttrs)
	if err != nil {
		slog.Error("error reading data from bus", append(logAttrs, slog.Any("error", err))...)
		return 0, fmt.Errorf("%w: %w", ErrRead, err)
	}

	value, err := DecodeUint32(raw)
	if err != nil {
		slog.Error("malformed response from bus", append(logAttrs, slog.Any("raw", raw), slog.Any("error", err))...)
		return 0, fmt.Errorf("%w: %w", ErrRead, err)
	}

	slog.Debug("read data from bus", append(logAttrs, slog.Any("raw", raw), slog.Uint64("reading", uint64(value)))...)
	return value, nil
}

type readResult struct {
	data []byte
	err  error
}

func (c *Controller) read(ctx context.Context, logAttrs []any) ([]byte, error) {
	if c.opts.ReadTimeout <= 0 {
		return c.transport.Read(ctx, ResponseSize)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.ReadTimeout)
	defer cancel()

	resultCh := make(chan readResult, 1)
	go func() {
		data, err := c.transport.Read(ctx, ResponseSize)
		resultCh <- readResult{data: data, err: err}
	}()

	select {
	case result := <-resultCh:
		return result.data, result.err
	case <-ctx.Done():
		go c.releaseAfter(resultCh, logAttrs)
		return nil, fmt.Errorf("%w after %s", ErrTransportTimeout, c.opts.ReadTimeout)
	}
}

// releaseAfter waits for an abandoned read and only then frees the bus, so the
// next command never reaches the transport while that read is outstanding.
func (c *Controller) releaseAfter(resultCh <-chan readResult, logAttrs []any) {
	result := <-resultCh
	slog.Warn("abandoned bus read returned, releasing bus",
		append(logAttrs, slog.Int("bytes", len(result.data)), slog.Any("error", result.err))...)
	c.busy.Store(false)
}

func (c *Controller) record(ctx context.Context, opcode domain.Opcode, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = ErrorCode(err)
	}
	attrs := metric.WithAttributes(
		attribute.String("command", opcode.String()),
		attribute.String("status", status),
	)
	c.commandCounter.Add(ctx, 1, attrs)
	if elapsed > 0 {
		c.commandDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// DecodeUint32 decodes a big endian uint32 from exactly ResponseSize bytes.
func DecodeUint32(raw []byte) (uint32, error) {
	if len(raw) != ResponseSize {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrResponseLength, len(raw), ResponseSize)
	}
	return binary.BigEndian.Uint32(raw), nil
}

// EncodeUint32 is the inverse of DecodeUint32.
func EncodeUint32(value uint32) []byte {
	return binary.BigEndian.AppendUint32(make([]byte, 0, ResponseSize), value)
}

func (c *Controller) Echo(ctx context.Context, args []byte) (uint32, error) {
	return c.SendCommand(ctx, domain.OpcodeEcho, args)
}

func (c *Controller) Reset(ctx context.Context) (uint32, error) {
	return c.SendCommand(ctx, domain.OpcodeReset, nil)
}

func (c *Controller) ReadTemp(ctx context.Context) (uint32, error) {
	return c.SendCommand(ctx, domain.OpcodeReadTemp, nil)
}

func (c *Controller) ReadLight(ctx context.Context) (uint32, error) {
	return c.SendCommand(ctx, domain.OpcodeReadLight, nil)
}

func (c *Controller) ReadDoor(ctx context.Context) (uint32, error) {
	return c.SendCommand(ctx, domain.OpcodeReadDoor, nil)
}

func (c *Controller) CloseDoor(ctx context.Context) (uint32, error) {
	return c.SendCommand(ctx, domain.OpcodeCloseDoor, nil)
}

func (c *Controller) OpenDoor(ctx context.Context) (uint32, error) {
	return c.SendCommand(ctx, domain.OpcodeOpenDoor, nil)
}

func (c *Controller) AutoDoor(ctx context.Context) (uint32, error) {
	return c.SendCommand(ctx, domain.OpcodeAutoDoor, nil)
}

func (c *Controller) UpTime(ctx context.Context) (uint32, error) {
	return c.SendCommand(ctx, domain.OpcodeUpTime, nil)
}
