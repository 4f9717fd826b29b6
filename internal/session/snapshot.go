package session

import "github.com/procmix/tanksim/internal/dynamo"

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusPaused      Status = "paused"
	StatusClosed      Status = "closed"
)

// Snapshot is one emitted observation of a session. State carries the
// reported (possibly noise-perturbed) measurements; the internal state
// used for the next integration step is always noise-free.
type Snapshot struct {
	Tick      uint64         `json:"tick"`
	SimTime   float64        `json:"simTime"`
	State     dynamo.State   `json:"state"`
	Control   dynamo.Control `json:"control"`
	Setpoints []Setpoint     `json:"setpoints"`
}

// Event is one item on a subscriber stream: a snapshot while the session
// lives, or a terminal error (divergence) right before the stream
// closes.
type Event struct {
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Err      error     `json:"-"`
}

// Info is the externally visible summary of a session.
type Info struct {
	ID        string  `json:"id"`
	Status    Status  `json:"status"`
	SimTime   float64 `json:"simTime"`
	Tick      uint64  `json:"tick"`
	Setpoints int     `json:"setpoints"`
	Clamps    int64   `json:"clamps"`
}
