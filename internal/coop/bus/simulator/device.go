// Package simulator provides an in-memory stand-in for the coop
// microcontroller, used for local development and end to end tests.
package simulator

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"coop-server/internal/coop/domain"
)

const (
	DoorOpenReading   uint32 = 0
	DoorClosedReading uint32 = 2
	EchoAck           uint32 = 1

	defaultTemp          = 21
	defaultLight         = 600
	defaultDarkThreshold = 100
)

var (
	ErrNoResponse     = errors.New("no response pending")
	ErrInjectedFault  = errors.New("injected bus fault")
	ErrUnsupportedLen = errors.New("unsupported read length")
)

type Option func(*Device)

func WithLatency(latency time.Duration) Option {
	return func(d *Device) {
		d.latency = latency
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Device) {
		d.now = now
	}
}

func WithDarkThreshold(threshold uint32) Option {
	return func(d *Device) {
		d.darkThreshold = threshold
	}
}

func New(opts ...Option) *Device {
	d := &Device{
		now:           time.Now,
		temp:          defaultTemp,
		light:         defaultLight,
		door:          DoorClosedReading,
		darkThreshold: defaultDarkThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.bootedAt = d.now()
	return d
}

// Device answers commands the way the coop firmware does: door commands
// report the resulting door reading and reset reports how many times the
// board has been reset.
type Device struct {
	mu            sync.Mutex
	now           func() time.Time
	latency       time.Duration
	bootedAt      time.Time
	temp          uint32
	light         uint32
	door          uint32
	auto          bool
	darkThreshold uint32
	resets        uint32
	pending       []byte
	failWrites    int
	failReads     int
	writes        []byte
}

func (d *Device) Write(ctx context.Context, opcode byte, args []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = append(d.writes, opcode)
	if d.failWrites > 0 {
		d.failWrites--
		return fmt.Errorf("write opcode %d: %w", opcode, ErrInjectedFault)
	}

	value, err := d.execute(domain.Opcode(opcode), args)
	if err != nil {
		return err
	}
	d.pending = binary.BigEndian.AppendUint32(nil, value)

	return nil
}

func (d *Device) execute(opcode domain.Opcode, args []byte) (uint32, error) {
	switch opcode {
	case domain.OpcodeEcho:
		return EchoAck, nil
	case domain.OpcodeReset:
		d.resets++
		d.bootedAt = d.now()
		return d.resets, nil
	case domain.OpcodeReadTemp:
		return d.temp, nil
	case domain.OpcodeReadLight:
		return d.light, nil
	case domain.OpcodeReadDoor:
		d.applyAuto()
		return d.door, nil
	case domain.OpcodeCloseDoor:
		d.auto = false
		d.door = DoorClosedReading
		return d.door, nil
	case domain.OpcodeOpenDoor:
		d.auto = false
		d.door = DoorOpenReading
		return d.door, nil
	case domain.OpcodeAutoDoor:
		d.auto = true
		d.applyAuto()
		return d.door, nil
	case domain.OpcodeUpTime:
		return uint32(d.now().Sub(d.bootedAt) / time.Second), nil
	default:
		return 0, fmt.Errorf("unsupported opcode %d", byte(opcode))
	}
}

func (d *Device) applyAuto() {
	if !d.auto {
		return
	}
	if d.light < d.darkThreshold {
		d.door = DoorClosedReading
	} else {
		d.door = DoorOpenReading
	}
}

func (d *Device) Read(ctx context.Context, n int) ([]byte, error) {
	if d.latency > 0 {
		timer := time.NewTimer(d.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failReads > 0 {
		d.failReads--
		d.pending = nil
		return nil, fmt.Errorf("read %d bytes: %w", n, ErrInjectedFault)
	}
	if d.pending == nil {
		return nil, ErrNoResponse
	}
	if n != len(d.pending) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedLen, n)
	}

	response := d.pending
	d.pending = nil
	return response, nil
}

// FailNextWrites makes the next n writes fail.
func (d *Device) FailNextWrites(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failWrites = n
}

// FailNextReads makes the next n reads fail.
func (d *Device) FailNextReads(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failReads = n
}

func (d *Device) SetTemp(value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.temp = value
}

func (d *Device) SetLight(value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.light = value
}

// Reboot restarts the uptime counter without counting a reset command.
func (d *Device) Reboot() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bootedAt = d.now()
}

// Writes returns the opcodes received so far, in order.
func (d *Device) Writes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.writes...)
}
