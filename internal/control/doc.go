// Package control provides feedback regulators for the five-tank plant.
//
// Controllers implement the [dynamo.Controller] interface to compute
// actuator commands from the measured state and the active targets:
//
//   - [Proportional]: per-channel proportional law around the
//     equilibrium actuator values
//   - [Manual]: fixed actuator vector, for batch runs and open-loop
//     experiments
//
// The channel-to-variable mapping is a fixed table, not inferred: supply
// valves regulate their reservoir's level, water pumps the process-tank
// level, brine pumps the concentration; outlet valves hold their
// equilibrium opening.
package control
