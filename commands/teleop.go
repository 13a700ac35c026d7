package commands

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/nrg948/swervecontrol/config"
	"github.com/nrg948/swervecontrol/kinematics"
	"github.com/nrg948/swervecontrol/swerve"
	"github.com/nrg948/swervecontrol/utils"
)

// inputDeadband discards stick noise around center.
const inputDeadband = 0.05

// DriveInput is one sample of operator input, each axis in [-1, 1].
type DriveInput struct {
	// X and Y are the translation axes, +X forward and +Y left.
	X, Y float64
	// Rotation is the turn axis, counterclockwise positive.
	Rotation float64
	// FieldRelative interprets X/Y in the field frame.
	FieldRelative bool
}

// InputSource supplies operator input once per tick without blocking.
type InputSource interface {
	Read(ctx context.Context) (DriveInput, error)
}

// Teleop converts operator input into chassis velocities, scaled to the
// drive base's limits. It never finishes on its own; it is the default
// command, resumed whenever nothing else is scheduled.
type Teleop struct {
	drive  *swerve.Drive
	input  InputSource
	logger golog.Logger

	maxSpeed    float64
	maxRotation float64
}

// NewTeleop returns a teleop command reading from input.
func NewTeleop(drive *swerve.Drive, input InputSource, cfg *config.Drive, logger golog.Logger) *Teleop {
	return &Teleop{
		drive:       drive,
		input:       input,
		logger:      logger,
		maxSpeed:    cfg.MaxSpeed(),
		maxRotation: cfg.MaxRotationalSpeed(),
	}
}

// Name implements Command.
func (t *Teleop) Name() string { return "teleop" }

// Init implements Command.
func (t *Teleop) Init(ctx context.Context) error { return nil }

// Execute reads one input sample and commands the matching velocity. An
// input fault stops the drivetrain rather than coasting on the last sample.
func (t *Teleop) Execute(ctx context.Context) error {
	in, err := t.input.Read(ctx)
	if err != nil {
		if stopErr := t.drive.Stop(ctx); stopErr != nil {
			return errors.Wrap(stopErr, "stopping after input fault")
		}
		return errors.Wrap(err, "reading operator input")
	}
	return t.drive.SetVelocity(ctx, swerve.VelocityRequest{
		Velocity: kinematics.ChassisVelocity{
			VX:    applyDeadband(in.X) * t.maxSpeed,
			VY:    applyDeadband(in.Y) * t.maxSpeed,
			Omega: applyDeadband(in.Rotation) * t.maxRotation,
		},
		FieldRelative: in.FieldRelative,
	})
}

// IsFinished always reports false.
func (t *Teleop) IsFinished() bool { return false }

// End stops the drivetrain.
func (t *Teleop) End(ctx context.Context, interrupted bool) error {
	return t.drive.Stop(ctx)
}

// applyDeadband zeroes inputs inside the deadband and rescales the rest so
// the output is continuous at the deadband edge.
func applyDeadband(v float64) float64 {
	if math.Abs(v) < inputDeadband {
		return 0
	}
	scaled := (math.Abs(v) - inputDeadband) / (1 - inputDeadband)
	return utils.Signum(v) * utils.Clamp(scaled, 0, 1)
}
