// Package i2c implements the bus transport on top of the Linux i2c-dev
// character device.
package i2c

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sys/unix"
)

// ioctl request binding the file descriptor to a slave address, from linux/i2c-dev.h.
const _i2cSlave = 0x0703

const (
	DefaultDevice  = "/dev/i2c-1"
	DefaultAddress = 0x05

	minAddress = 0x03
	maxAddress = 0x77
)

var (
	ErrInvalidAddress = errors.New("invalid 7-bit i2c address")
	ErrClosed         = errors.New("i2c bus closed")
)

type Bus struct {
	device  string
	address uint16

	mu sync.Mutex
	fd int
}

func Open(device string, address uint16) (*Bus, error) {
	if address < minAddress || address > maxAddress {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidAddress, address)
	}

	fd, err := unix.Open(device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", device, err)
	}

	if err := unix.IoctlSetInt(fd, _i2cSlave, int(address)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("binding slave address 0x%02x on %s: %w", address, device, err)
	}

	slog.Info("i2c bus opened", slog.String("device", device), slog.String("address", fmt.Sprintf("0x%02x", address)))
	return &Bus{device: device, address: address, fd: fd}, nil
}

// Frame builds the bytes written for a command: the opcode followed by its arguments.
func Frame(opcode byte, args []byte) []byte {
	frame := make([]byte, 0, len(args)+1)
	frame = append(frame, opcode)
	return append(frame, args...)
}

func (b *Bus) Write(ctx context.Context, opcode byte, args []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return ErrClosed
	}

	frame := Frame(opcode, args)
	n, err := unix.Write(b.fd, frame)
	if err != nil {
		return fmt.Errorf("writing %d bytes to 0x%02x: %w", len(frame), b.address, err)
	}
	if n != len(frame) {
		return fmt.Errorf("writing to 0x%02x: %w", b.address, io.ErrShortWrite)
	}

	return nil
}

func (b *Bus) Read(ctx context.Context, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil, ErrClosed
	}

	buf := make([]byte, n)
	got, err := unix.Read(b.fd, buf)
	if err != nil {
		return nil, fmt.Errorf("reading %d bytes from 0x%02x: %w", n, b.address, err)
	}
	if got != n {
		return nil, fmt.Errorf("reading from 0x%02x: got %d of %d bytes: %w", b.address, got, n, io.ErrUnexpectedEOF)
	}

	return buf, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}

	err := unix.Close(b.fd)
	b.fd = -1
	return err
}
