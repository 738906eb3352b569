package domain

import "time"

type EventName string

const (
	EventDoorCommand     EventName = "door_command"
	EventReadingUpdated  EventName = "reading_updated"
	EventBusError        EventName = "bus_error"
	EventAutoReset       EventName = "auto_reset"
	EventDeviceRestarted EventName = "device_restarted"
)

// DoorCommandEvent is published after the device accepted a door command.
type DoorCommandEvent struct {
	Direction DoorDirection `json:"direction"`
	Result    int64         `json:"result"`
	At        time.Time     `json:"at"`
}

type ReadingEvent struct {
	Kind  ReadingKind `json:"kind"`
	Value int64       `json:"value"`
	At    time.Time   `json:"at"`
}

type BusErrorEvent struct {
	Command string    `json:"command"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type AutoResetEvent struct {
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Result              int64     `json:"result"`
	Err                 string    `json:"error,omitempty"`
	At                  time.Time `json:"at"`
}

type DeviceRestartedEvent struct {
	PreviousUptime int64     `json:"previous_uptime"`
	CurrentUptime  int64     `json:"current_uptime"`
	At             time.Time `json:"at"`
}
