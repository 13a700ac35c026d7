package control

import (
	"math"

	"github.com/nrg948/swervecontrol/config"
	"github.com/nrg948/swervecontrol/kinematics"
)

// Holonomic tracks a moving field-frame pose setpoint with independent X, Y
// and heading loops, the standard arrangement for a holonomic drivetrain.
type Holonomic struct {
	x, y, theta *PID
}

// NewHolonomic returns a pose controller with the configured proportional
// gains.
func NewHolonomic(cfg config.Holonomic) *Holonomic {
	theta := NewPID(cfg.ThetaP, 0, 0)
	theta.EnableContinuousInput()
	return &Holonomic{
		x:     NewPID(cfg.XP, 0, 0),
		y:     NewPID(cfg.YP, 0, 0),
		theta: theta,
	}
}

// Calculate returns the field-relative chassis velocity that tracks target
// from current. linearVelocity is the profiled speed along direction (the
// feedforward term); the PID loops correct the residual pose error.
func (h *Holonomic) Calculate(
	current, target kinematics.Pose,
	linearVelocity, direction, dt float64,
) kinematics.ChassisVelocity {
	return kinematics.ChassisVelocity{
		VX:    linearVelocity*math.Cos(direction) + h.x.Calculate(current.X, target.X, dt),
		VY:    linearVelocity*math.Sin(direction) + h.y.Calculate(current.Y, target.Y, dt),
		Omega: h.theta.Calculate(current.Heading, target.Heading, dt),
	}
}

// Reset clears the loop state before a new trajectory.
func (h *Holonomic) Reset() {
	h.x.Reset()
	h.y.Reset()
	h.theta.Reset()
}
