// Package session drives real-time simulation sessions of the five-tank
// plant.
//
// Each [Session] owns one single-goroutine loop driven by a wall-clock
// ticker at the sampling interval. Per tick the loop drains and applies
// queued operator commands, advances simulated time through the
// integrator in fixed sub-steps (running the controller before each
// sub-step), and emits one snapshot to every subscriber. The command
// queue is the only structure shared with other goroutines; everything
// else is owned by the loop.
//
// Lifecycle: Initialized -> Running <-> Paused, Reset -> Running, any
// state -> Closed (terminal). Numerical divergence closes the session
// and surfaces a terminal error event to subscribers.
//
// [Registry] maps session identifiers to live sessions; there is no
// global singleton.
package session
