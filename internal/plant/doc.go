// Package plant models the physical five-tank mixing plant: two
// cylindrical utility reservoirs (A: water, B: brine) feeding three
// frusto-conical process tanks (C, D, E) through water and brine pumps,
// each process tank draining by gravity through an outlet valve.
//
// [Model] implements [dynamo.System] with the nonlinear mass-balance
// equations; [Params] and [Equilibrium] carry the plant constants and
// the nominal operating point.
package plant
