package domain

import (
	"errors"
	"fmt"
	"time"
)

// NoReading is reported for values that were never read or have expired.
const NoReading int64 = -1

// ReadingKind names one of the sensor values polled from the coop.
type ReadingKind string

const (
	ReadingDoor   ReadingKind = "door"
	ReadingTemp   ReadingKind = "temp"
	ReadingLight  ReadingKind = "light"
	ReadingUptime ReadingKind = "uptime"
)

// PolledReadings is the order in which a poll iteration reads the device.
var PolledReadings = []ReadingKind{ReadingDoor, ReadingTemp, ReadingLight, ReadingUptime}

var ErrUnknownReading = errors.New("unknown reading")

func ParseReadingKind(value string) (ReadingKind, error) {
	for _, kind := range PolledReadings {
		if string(kind) == value {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReading, value)
}

func (k ReadingKind) Opcode() Opcode {
	switch k {
	case ReadingDoor:
		return OpcodeReadDoor
	case ReadingTemp:
		return OpcodeReadTemp
	case ReadingLight:
		return OpcodeReadLight
	default:
		return OpcodeUpTime
	}
}

// DoorIsOpen follows the firmware convention: zero is open, anything else closed.
func DoorIsOpen(reading int64) bool {
	return reading == 0
}

// Status is a point in time view of the coop and of the bus bookkeeping.
type Status struct {
	Door                int64     `json:"door"`
	Temp                int64     `json:"temp"`
	Light               int64     `json:"light"`
	Uptime              int64     `json:"uptime"`
	Mode                int64     `json:"mode"`
	IsOpening           bool      `json:"is_opening"`
	IsClosing           bool      `json:"is_closing"`
	ReadErrorCount      int64     `json:"read_error_count"`
	WriteErrorCount     int64     `json:"write_error_count"`
	BusyRejectCount     int64     `json:"busy_reject_count"`
	AutoResetCount      int64     `json:"auto_reset_count"`
	LastSuccessfulRead  int64     `json:"last_successful_read"`
	LastSuccessfulWrite int64     `json:"last_successful_write"`
	LastError           int64     `json:"last_error"`
	LongestUptime       int64     `json:"longest_uptime"`
	OpeningTime         time.Time `json:"opening_time"`
	ClosingTime         time.Time `json:"closing_time"`
}
