package usecases

import (
	"context"
	"time"

	"coop-server/internal/coop/domain"
)

//go:generate mockgen -source=api.go -destination=../../../test/unit/doubles/coop/usecases/api_mock.go -package=usecases

// CoopService is the application facing API of the coop. Door and reset
// commands go straight to the bus; sensor values are served from the
// readings cache unless a fresh read is requested.
type CoopService interface {
	CommandDoor(ctx context.Context, dir domain.DoorDirection) (int64, error)
	OpenDoor(ctx context.Context) (int64, error)
	CloseDoor(ctx context.Context) (int64, error)
	AutoDoor(ctx context.Context) (int64, error)
	Reset(ctx context.Context) (int64, error)
	Echo(ctx context.Context, args []byte) (int64, error)

	// Reading returns the cached value of kind, or domain.NoReading.
	Reading(ctx context.Context, kind domain.ReadingKind) int64
	// RefreshReading reads kind from the device and caches it.
	RefreshReading(ctx context.Context, kind domain.ReadingKind) (int64, error)
	// Poll reads every polled value once, in order.
	Poll(ctx context.Context) error

	Status(ctx context.Context) domain.Status
	OpeningTime(ctx context.Context) (time.Time, error)
	ClosingTime(ctx context.Context) (time.Time, error)
}

// CoopBus is the single request/response channel to the coop board.
type CoopBus interface {
	SendCommand(ctx context.Context, opcode domain.Opcode, args []byte) (uint32, error)
}

// DoorSchedule computes when the door opens and closes on a given day.
// Implementations guarantee the closing time is after the opening time.
type DoorSchedule interface {
	Times(day time.Time) (opening, closing time.Time, err error)
}
