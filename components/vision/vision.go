// Package vision defines the interface to the external vision coprocessor.
// The coprocessor detects a known field target and reports where the camera
// saw it; converting that observation into a field pose happens in the pose
// estimator.
package vision

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
)

// Measurement is one target observation. The coprocessor runs its own
// pipeline, so CapturedAt is typically older than the time the measurement
// is read, sometimes by several control periods.
type Measurement struct {
	// Distance is the camera-to-target distance in meters.
	Distance float64
	// Bearing is the horizontal angle from the camera's forward axis to the
	// target in radians, counterclockwise positive.
	Bearing float64
	// CapturedAt is the time the frame producing this measurement was
	// captured.
	CapturedAt time.Time
}

// TargetSource supplies target observations. Reading never blocks: the
// latest available measurement is returned, and ok is false when no target
// is currently visible.
type TargetSource interface {
	Target(ctx context.Context) (meas Measurement, ok bool, err error)
}

// TargetPose is the known field-frame pose of the observed target.
type TargetPose struct {
	// Position is the target's position on the field in meters. Z is the
	// height of the target above the floor.
	Position r3.Vector
	// Yaw is the target's facing direction in radians.
	Yaw float64
}

// CameraOffset is the camera's mounting position relative to the robot's
// center, in meters, with Yaw the camera's facing direction relative to the
// robot's +X axis.
type CameraOffset struct {
	Position r3.Vector
	Yaw      float64
}
