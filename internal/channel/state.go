// Package channel provides the agent-side channel manager: one logical
// channel to the relay server maintained across reconnect cycles, with an
// outbound FIFO that buffers envelopes while the transport is down.
package channel

import "fmt"

// State is the lifecycle state of the logical channel.
type State int

const (
	// StateDisconnected - no transport; a reconnect is pending.
	StateDisconnected State = iota
	// StateConnecting - a dial attempt is in flight. At most one attempt
	// exists at a time.
	StateConnecting
	// StateReady - the transport is up and the queue is being drained.
	StateReady
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateReady:
		return "READY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}
