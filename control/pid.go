// Package control holds the feedback and motion-profile primitives used by
// the drive commands.
package control

import (
	"github.com/nrg948/swervecontrol/utils"
)

// PID is a discrete PID controller. It is not safe for concurrent use.
type PID struct {
	kp, ki, kd float64

	continuous    bool
	integral      float64
	integralLimit float64
	lastError     float64
	hasLast       bool
}

// NewPID returns a controller with the given gains. The integral term is
// clamped to +/-1 output units by default; use SetIntegralLimit to change it.
func NewPID(kp, ki, kd float64) *PID {
	return &PID{kp: kp, ki: ki, kd: kd, integralLimit: 1}
}

// SetIntegralLimit bounds the accumulated integral contribution.
func (p *PID) SetIntegralLimit(limit float64) {
	p.integralLimit = limit
}

// EnableContinuousInput treats the input as an angle, taking the shortest
// path across the -pi/pi seam.
func (p *PID) EnableContinuousInput() {
	p.continuous = true
}

// Calculate returns the controller output for one step of dt seconds.
func (p *PID) Calculate(measurement, setpoint, dt float64) float64 {
	err := setpoint - measurement
	if p.continuous {
		err = utils.AngleDiff(measurement, setpoint)
	}

	p.integral = utils.Clamp(p.integral+p.ki*err*dt, -p.integralLimit, p.integralLimit)

	var deriv float64
	if p.hasLast && dt > 0 {
		deriv = (err - p.lastError) / dt
	}
	p.lastError = err
	p.hasLast = true

	return p.kp*err + p.integral + p.kd*deriv
}

// Reset clears the accumulated state, as when a command restarts.
func (p *PID) Reset() {
	p.integral = 0
	p.lastError = 0
	p.hasLast = false
}
