package domain

import (
	"errors"
	"fmt"
)

// Opcode selects which firmware routine the microcontroller runs.
type Opcode byte

const (
	OpcodeEcho Opcode = iota
	OpcodeReset
	OpcodeReadTemp
	OpcodeReadLight
	OpcodeReadDoor
	OpcodeCloseDoor
	OpcodeOpenDoor
	OpcodeAutoDoor
	OpcodeUpTime
)

var opcodeNames = map[Opcode]string{
	OpcodeEcho:      "echo",
	OpcodeReset:     "reset",
	OpcodeReadTemp:  "read_temp",
	OpcodeReadLight: "read_light",
	OpcodeReadDoor:  "read_door",
	OpcodeCloseDoor: "close_door",
	OpcodeOpenDoor:  "open_door",
	OpcodeAutoDoor:  "auto_door",
	OpcodeUpTime:    "up_time",
}

func (o Opcode) Valid() bool {
	_, ok := opcodeNames[o]
	return ok
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("opcode(%d)", byte(o))
}

// DoorDirection is the user facing name of a door command.
type DoorDirection string

const (
	DoorOpen  DoorDirection = "open"
	DoorClose DoorDirection = "close"
	DoorAuto  DoorDirection = "auto"
)

var ErrInvalidDirection = errors.New("invalid door direction")

func ParseDoorDirection(value string) (DoorDirection, error) {
	switch dir := DoorDirection(value); dir {
	case DoorOpen, DoorClose, DoorAuto:
		return dir, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, value)
	}
}

func (d DoorDirection) Opcode() Opcode {
	switch d {
	case DoorOpen:
		return OpcodeOpenDoor
	case DoorClose:
		return OpcodeCloseDoor
	default:
		return OpcodeAutoDoor
	}
}
