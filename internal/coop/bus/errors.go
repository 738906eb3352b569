package bus

import "errors"

var (
	// ErrBusy is returned when a command is already in flight. Callers may retry later.
	ErrBusy = errors.New("bus busy: message in progress")
	// ErrWrite is returned when the transport rejected the command frame.
	ErrWrite = errors.New("error writing data to bus")
	// ErrRead is returned when the transport rejected the read or the response was malformed.
	ErrRead = errors.New("error reading data from bus")
	// ErrResponseLength is returned when a response is not exactly ResponseSize bytes.
	ErrResponseLength = errors.New("unexpected response length")
	// ErrTransportTimeout is returned when a bounded read did not complete in time.
	ErrTransportTimeout = errors.New("transport read timed out")
	// ErrUnknownOpcode is returned for opcodes outside the firmware command table.
	ErrUnknownOpcode = errors.New("unknown opcode")
)

// ErrorCode maps a bus error to a stable machine readable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "bus_busy"
	case errors.Is(err, ErrTransportTimeout):
		return "transport_timeout"
	case errors.Is(err, ErrWrite):
		return "bus_write"
	case errors.Is(err, ErrRead):
		return "bus_read"
	case errors.Is(err, ErrUnknownOpcode):
		return "unknown_opcode"
	default:
		return "internal"
	}
}
