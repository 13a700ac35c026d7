package swerve

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"go.uber.org/multierr"

	"github.com/nrg948/swervecontrol/config"
	"github.com/nrg948/swervecontrol/kinematics"
)

// VelocityRequest is one chassis-level velocity command.
type VelocityRequest struct {
	Velocity kinematics.ChassisVelocity

	// FieldRelative interprets VX/VY in the field frame instead of the
	// robot frame, rotating them by the current heading before the
	// kinematics transform.
	FieldRelative bool

	// AdjustForGravity adds a per-module feedforward countering the weight
	// component along each wheel, using Tilt.
	AdjustForGravity bool
	Tilt             float64 // radians
}

// Drive owns the four wheel modules and converts chassis velocity commands
// into module states. All methods are called from the single control tick.
type Drive struct {
	modules  [kinematics.NumModules]*Module
	kin      *kinematics.Swerve
	maxSpeed float64
	heading  func() float64
	logger   golog.Logger
}

// NewDrive builds the drivetrain from the robot config. heading supplies the
// current field heading in radians for field-relative commands. Degenerate
// wheel geometry is reported here and is fatal.
func NewDrive(
	cfg *config.Drive,
	modules [kinematics.NumModules]*Module,
	heading func() float64,
	logger golog.Logger,
) (*Drive, error) {
	kin, err := kinematics.NewSwerve(cfg.WheelOffsets())
	if err != nil {
		return nil, err
	}
	return &Drive{
		modules:  modules,
		kin:      kin,
		maxSpeed: cfg.MaxSpeed(),
		heading:  heading,
		logger:   logger,
	}, nil
}

// Kinematics returns the drivetrain's kinematics.
func (d *Drive) Kinematics() *kinematics.Swerve { return d.kin }

// MaxSpeed returns the maximum module speed in m/s.
func (d *Drive) MaxSpeed() float64 { return d.maxSpeed }

// SetVelocity commands the chassis velocity for this control period. Module
// speeds are desaturated by a common ratio so the commanded direction of
// motion is preserved when a module would exceed its limit. A faulted module
// is reported but does not stop the remaining modules from being commanded.
func (d *Drive) SetVelocity(ctx context.Context, req VelocityRequest) error {
	vel := req.Velocity
	if req.FieldRelative {
		rotated := kinematics.RotateVector(r2.Point{X: vel.VX, Y: vel.VY}, -d.heading())
		vel.VX, vel.VY = rotated.X, rotated.Y
	}

	states := d.kin.ToModuleStates(vel)
	kinematics.DesaturateSpeeds(&states, d.maxSpeed)
	return d.setModuleStates(ctx, states, req.AdjustForGravity, req.Tilt)
}

// SetModuleStates commands the module states directly, bypassing the
// chassis-velocity transform. Speeds are still desaturated.
func (d *Drive) SetModuleStates(ctx context.Context, states [kinematics.NumModules]kinematics.ModuleState) error {
	kinematics.DesaturateSpeeds(&states, d.maxSpeed)
	return d.setModuleStates(ctx, states, false, 0)
}

func (d *Drive) setModuleStates(
	ctx context.Context,
	states [kinematics.NumModules]kinematics.ModuleState,
	adjustForGravity bool,
	tilt float64,
) error {
	var result error
	for i, m := range d.modules {
		m.SetDesiredState(states[i])
		result = multierr.Append(result, m.Update(ctx, adjustForGravity, tilt))
	}
	return result
}

// ModuleStates returns the measured state of every module.
func (d *Drive) ModuleStates(ctx context.Context) ([kinematics.NumModules]kinematics.ModuleState, error) {
	var states [kinematics.NumModules]kinematics.ModuleState
	var result error
	for i, m := range d.modules {
		state, err := m.State(ctx)
		if err != nil {
			result = multierr.Append(result, err)
			continue
		}
		states[i] = state
	}
	return states, result
}

// ModulePositions returns the accumulated wheel travel and angle of every
// module for odometry.
func (d *Drive) ModulePositions(ctx context.Context) ([kinematics.NumModules]kinematics.ModulePosition, error) {
	var positions [kinematics.NumModules]kinematics.ModulePosition
	var result error
	for i, m := range d.modules {
		pos, err := m.Position(ctx)
		if err != nil {
			result = multierr.Append(result, err)
			continue
		}
		positions[i] = pos
	}
	return positions, result
}

// ChassisVelocity returns the chassis velocity recovered from the measured
// module states.
func (d *Drive) ChassisVelocity(ctx context.Context) (kinematics.ChassisVelocity, error) {
	states, err := d.ModuleStates(ctx)
	if err != nil {
		return kinematics.ChassisVelocity{}, err
	}
	return d.kin.ToChassisVelocity(states)
}

// Stop turns off every module's motors. All modules are attempted even when
// some fail.
func (d *Drive) Stop(ctx context.Context) error {
	var result error
	for _, m := range d.modules {
		result = multierr.Append(result, m.Stop(ctx))
	}
	return result
}
