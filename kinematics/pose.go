package kinematics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/nrg948/swervecontrol/utils"
)

// Pose is the position and heading of the robot on the field. X and Y are in
// meters and Heading is in radians, counterclockwise positive, wrapped to
// (-pi, pi].
type Pose struct {
	X       float64
	Y       float64
	Heading float64
}

// NewPose returns a pose with the heading normalized.
func NewPose(x, y, heading float64) Pose {
	return Pose{X: x, Y: y, Heading: utils.WrapAngle(heading)}
}

// Translation returns the position component of the pose.
func (p Pose) Translation() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f rad)", p.X, p.Y, p.Heading)
}

// RotateVector rotates a field- or robot-relative vector counterclockwise by
// the given angle in radians.
func RotateVector(v r2.Point, theta float64) r2.Point {
	sin, cos := math.Sincos(theta)
	return r2.Point{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}
