// Package dynamo provides core simulation primitives for the five-tank
// mixing process.
//
// The package defines the fundamental types shared by every layer:
//
//   - [State]: the eight measured plant variables (five levels, three
//     concentrations)
//   - [Control]: the eleven actuator channels (supply valves, pumps,
//     outlet valves), each normalized to [0, 1]
//   - [System]: interface for the process model (dX/dt = f(X, u))
//   - [Integrator]: numerical stepper interface
//   - [Controller]: feedback regulator interface
//
// Every field is enumerated explicitly; there are no string-keyed
// variable maps anywhere in the state path.
package dynamo
