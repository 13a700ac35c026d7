// Package encoder defines the capability interface of an absolute steering
// angle encoder.
package encoder

import "context"

// Absolute is an absolute rotary encoder measuring a module's wheel angle.
type Absolute interface {
	// Angle returns the wheel angle in radians wrapped to (-pi, pi],
	// counterclockwise positive, zero pointing along the robot's +X axis.
	Angle(ctx context.Context) (float64, error)

	// AngularVelocity returns the wheel's steering rate in radians per
	// second.
	AngularVelocity(ctx context.Context) (float64, error)
}
