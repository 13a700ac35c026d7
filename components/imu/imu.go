// Package imu defines the capability interface of the orientation and tilt
// sensor mounted on the robot chassis.
package imu

import "context"

// IMU exposes the chassis orientation, tilt, and calibration state. Heading
// and roll follow the field convention: radians, counterclockwise positive.
type IMU interface {
	// Heading returns the yaw of the chassis in radians. The value is
	// relative to the sensor's power-on orientation; the pose estimator
	// applies the field offset.
	Heading(ctx context.Context) (float64, error)

	// Roll returns the rotation of the chassis about its forward axis in
	// radians, positive nose up.
	Roll(ctx context.Context) (float64, error)

	// RollRate returns the rate of change of roll in radians per second.
	RollRate(ctx context.Context) (float64, error)

	// Calibrating reports whether the sensor's initial self-calibration is
	// still running. Tilt readings taken while calibrating are unreliable.
	Calibrating(ctx context.Context) (bool, error)
}
