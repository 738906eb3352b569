package internal

import "time"

type DoorRequest struct {
	Dir string `json:"dir"`
}

type EchoRequest struct {
	Data string `json:"data"`
}

// CoopEventMessage is the frame written to websocket clients.
type CoopEventMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
