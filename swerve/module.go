// Package swerve implements the four-module drivetrain: per-wheel closed
// loop control and the chassis-level command fan-out.
package swerve

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/nrg948/swervecontrol/components/encoder"
	"github.com/nrg948/swervecontrol/components/motor"
	"github.com/nrg948/swervecontrol/config"
	"github.com/nrg948/swervecontrol/kinematics"
	"github.com/nrg948/swervecontrol/utils"
)

const (
	// minDriveSpeed is the commanded speed below which a module holds its
	// current wheel angle instead of steering toward the target.
	minDriveSpeed = 1e-3
	// steeringDeadband is the angle error below which the steering motor is
	// left unpowered.
	steeringDeadband = 0.01 // rad
)

// OptimizeState resolves the ambiguity between steering to the desired angle
// and steering to the opposite angle while rolling backwards. Whenever the
// shortest rotation to the desired angle exceeds 90 degrees, the opposite
// angle with negated speed reaches the same wheel velocity with less
// steering travel. The choice is re-evaluated on every call; there is no
// hysteresis.
func OptimizeState(desired kinematics.ModuleState, measuredAngle float64) kinematics.ModuleState {
	if math.Abs(utils.AngleDiff(measuredAngle, desired.Angle)) > math.Pi/2 {
		return kinematics.ModuleState{
			Speed: -desired.Speed,
			Angle: utils.WrapAngle(desired.Angle + math.Pi),
		}
	}
	return desired
}

// Module is one independently driven and steered wheel assembly. It holds
// the most recently commanded state and converts it into motor voltages once
// per control period.
type Module struct {
	name     string
	drive    motor.Motor
	steering motor.Motor
	encoder  encoder.Absolute
	logger   golog.Logger

	driveKs    float64
	driveKv    float64
	steeringKs float64
	steeringKp float64
	gravityKg  float64
	maxVolts   float64

	desired kinematics.ModuleState
}

// NewModule wires one wheel module from its motors and angle encoder.
func NewModule(
	name string,
	drive, steering motor.Motor,
	enc encoder.Absolute,
	cfg *config.Drive,
	logger golog.Logger,
) *Module {
	return &Module{
		name:       name,
		drive:      drive,
		steering:   steering,
		encoder:    enc,
		logger:     logger,
		driveKs:    cfg.DriveKs,
		driveKv:    cfg.DriveKv(),
		steeringKs: cfg.SteeringKs,
		steeringKp: cfg.SteeringKp,
		gravityKg:  cfg.GravityKg,
		maxVolts:   cfg.MaxBatteryVoltage,
	}
}

// Name returns the module's position name, e.g. "front-left".
func (m *Module) Name() string { return m.name }

// SetDesiredState stores the target state. The target is re-optimized
// against the measured wheel angle on every Update.
func (m *Module) SetDesiredState(state kinematics.ModuleState) {
	m.desired = state
}

// Update runs one control period: it reads the wheel angle, optimizes the
// target state against it, and commands the steering and drive motors. tilt
// is only used when adjustForGravity is set, adding a feedforward voltage
// countering the robot's weight component along the wheel direction.
//
// A failed readback or command is returned as a module fault; the module
// does not retry within the period.
func (m *Module) Update(ctx context.Context, adjustForGravity bool, tilt float64) error {
	measured, err := m.encoder.Angle(ctx)
	if err != nil {
		return errors.Wrapf(err, "module %s: steering encoder fault", m.name)
	}

	state := OptimizeState(m.desired, measured)
	if math.Abs(state.Speed) < minDriveSpeed {
		// Not worth steering for: hold the current wheel angle.
		state = kinematics.ModuleState{Speed: 0, Angle: measured}
	}

	var result error

	steerErr := utils.AngleDiff(measured, state.Angle)
	steerVolts := 0.0
	if math.Abs(steerErr) > steeringDeadband {
		steerVolts = m.steeringKp*steerErr + m.steeringKs*utils.Signum(steerErr)
		steerVolts = utils.Clamp(steerVolts, -m.maxVolts, m.maxVolts)
	}
	if err := m.steering.SetVoltage(ctx, steerVolts); err != nil {
		result = multierr.Append(result, errors.Wrapf(err, "module %s: steering motor fault", m.name))
	}

	driveVolts := 0.0
	if state.Speed != 0 {
		driveVolts = m.driveKs*utils.Signum(state.Speed) + m.driveKv*state.Speed
	}
	if adjustForGravity {
		driveVolts += m.gravityKg * math.Sin(tilt) * math.Cos(state.Angle)
	}
	driveVolts = utils.Clamp(driveVolts, -m.maxVolts, m.maxVolts)
	if err := m.drive.SetVoltage(ctx, driveVolts); err != nil {
		result = multierr.Append(result, errors.Wrapf(err, "module %s: drive motor fault", m.name))
	}

	return result
}

// State returns the measured speed and angle of the module.
func (m *Module) State(ctx context.Context) (kinematics.ModuleState, error) {
	speed, err := m.drive.Velocity(ctx)
	if err != nil {
		return kinematics.ModuleState{}, errors.Wrapf(err, "module %s: drive motor fault", m.name)
	}
	angle, err := m.encoder.Angle(ctx)
	if err != nil {
		return kinematics.ModuleState{}, errors.Wrapf(err, "module %s: steering encoder fault", m.name)
	}
	return kinematics.ModuleState{Speed: speed, Angle: angle}, nil
}

// Position returns the accumulated wheel travel and current angle of the
// module, used for odometry.
func (m *Module) Position(ctx context.Context) (kinematics.ModulePosition, error) {
	distance, err := m.drive.Position(ctx)
	if err != nil {
		return kinematics.ModulePosition{}, errors.Wrapf(err, "module %s: drive motor fault", m.name)
	}
	angle, err := m.encoder.Angle(ctx)
	if err != nil {
		return kinematics.ModulePosition{}, errors.Wrapf(err, "module %s: steering encoder fault", m.name)
	}
	return kinematics.ModulePosition{Distance: distance, Angle: angle}, nil
}

// Stop turns both motors off and zeroes the desired state.
func (m *Module) Stop(ctx context.Context) error {
	m.desired = kinematics.ModuleState{}
	return multierr.Combine(m.drive.Stop(ctx), m.steering.Stop(ctx))
}
