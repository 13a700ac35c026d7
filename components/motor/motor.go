// Package motor defines the capability interface of a wheel motor. One
// implementation exists per motor-controller hardware family; the control
// core only ever talks to this interface.
package motor

import "context"

// Motor is a single drive or steering motor with a continuous position
// sensor. Linear units are measured at the wheel: an implementation is
// responsible for gear ratio and wheel circumference conversions.
//
// A stalled or disconnected motor reports errors from its readbacks. Callers
// surface those as module faults rather than retrying within a control
// period.
type Motor interface {
	// SetVelocity commands a closed-loop velocity in meters per second.
	SetVelocity(ctx context.Context, mps float64) error

	// SetVoltage commands an open-loop voltage in volts.
	SetVoltage(ctx context.Context, volts float64) error

	// Position returns the accumulated distance traveled in meters. The
	// value is continuous and monotonic in the direction of travel; it does
	// not wrap.
	Position(ctx context.Context) (float64, error)

	// Velocity returns the current velocity in meters per second.
	Velocity(ctx context.Context) (float64, error)

	// Stop turns the motor off.
	Stop(ctx context.Context) error
}
