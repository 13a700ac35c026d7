// Package kinematics implements the math relating chassis motion to the
// states of the four independently steered wheel modules.
package kinematics

import (
	"fmt"
	"math"
)

// NumModules is the number of wheel modules on the drive base, ordered
// front left, front right, back left, back right.
const NumModules = 4

// ChassisVelocity is the velocity of the robot's geometric center. X points
// forward, Y points left, and Omega is counterclockwise positive.
type ChassisVelocity struct {
	VX    float64 // m/s
	VY    float64 // m/s
	Omega float64 // rad/s
}

// ModuleState is the desired or measured state of one wheel module. Speed is
// signed so that a module can roll backwards instead of steering more than
// 90 degrees.
type ModuleState struct {
	Speed float64 // m/s
	Angle float64 // radians in (-pi, pi]
}

func (s ModuleState) String() string {
	return fmt.Sprintf("(%.3f m/s @ %.3f rad)", s.Speed, s.Angle)
}

// ModulePosition is the accumulated wheel travel of one module together with
// its current steering angle, read from the module's continuous sensors.
type ModulePosition struct {
	Distance float64 // meters
	Angle    float64 // radians in (-pi, pi]
}

// ModuleDelta is the change of one module's wheel travel over a single
// control period, paired with the steering angle over that period.
type ModuleDelta struct {
	Distance float64 // meters
	Angle    float64 // radians in (-pi, pi]
}

// ChassisDelta is the chassis-relative displacement of the robot over a
// single control period.
type ChassisDelta struct {
	DX     float64 // meters
	DY     float64 // meters
	DTheta float64 // radians
}

// DesaturateSpeeds scales all module speeds down by a common ratio when any
// of them exceeds maxSpeed. Uniform scaling preserves the direction of the
// commanded chassis velocity; modules are never scaled independently.
func DesaturateSpeeds(states *[NumModules]ModuleState, maxSpeed float64) {
	highest := 0.0
	for _, s := range states {
		if speed := math.Abs(s.Speed); speed > highest {
			highest = speed
		}
	}
	if highest <= maxSpeed || highest == 0 {
		return
	}
	ratio := maxSpeed / highest
	for i := range states {
		states[i].Speed *= ratio
	}
}
