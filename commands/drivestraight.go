package commands

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/nrg948/swervecontrol/config"
	"github.com/nrg948/swervecontrol/control"
	"github.com/nrg948/swervecontrol/estimator"
	"github.com/nrg948/swervecontrol/kinematics"
	"github.com/nrg948/swervecontrol/swerve"
)

// DriveStraight drives a fixed distance along a field-frame direction while
// holding a fixed orientation, following a trapezoidal velocity profile with
// holonomic feedback on the residual pose error. It finishes when the
// profile's time runs out, whether or not the robot tracked it perfectly.
type DriveStraight struct {
	drive     *swerve.Drive
	est       *estimator.PoseEstimator
	clk       clock.Clock
	profile   *control.TrapezoidProfile
	holonomic *control.Holonomic
	logger    golog.Logger

	distance      float64
	direction     float64
	targetHeading float64

	start     time.Time
	lastTick  time.Time
	startPose kinematics.Pose
}

// NewDriveStraight plans a move of distance meters along direction (field
// frame, radians), ending at targetHeading. The profile uses the drive
// base's configured velocity and acceleration limits.
func NewDriveStraight(
	drive *swerve.Drive,
	est *estimator.PoseEstimator,
	clk clock.Clock,
	cfg *config.Drive,
	distance, direction, targetHeading float64,
	logger golog.Logger,
) (*DriveStraight, error) {
	profile, err := control.NewTrapezoidProfile(control.Constraints{
		MaxVelocity:     cfg.MaxSpeed(),
		MaxAcceleration: cfg.MaxAcceleration(),
	}, distance)
	if err != nil {
		return nil, err
	}
	return &DriveStraight{
		drive:         drive,
		est:           est,
		clk:           clk,
		profile:       profile,
		holonomic:     control.NewHolonomic(cfg.Holonomic),
		logger:        logger,
		distance:      distance,
		direction:     direction,
		targetHeading: targetHeading,
	}, nil
}

// Name implements Command.
func (d *DriveStraight) Name() string { return "drive_straight" }

// Init captures the starting pose; the target is projected from it.
func (d *DriveStraight) Init(ctx context.Context) error {
	d.start = d.clk.Now()
	d.lastTick = d.start
	d.startPose = d.est.Pose()
	d.holonomic.Reset()
	d.logger.Infow("driving straight",
		"distance_m", d.distance,
		"direction_rad", d.direction,
		"total_time_s", d.profile.TotalTime())
	return nil
}

// Execute samples the profile and commands the tracking velocity.
func (d *DriveStraight) Execute(ctx context.Context) error {
	now := d.clk.Now()
	elapsed := now.Sub(d.start).Seconds()
	dt := now.Sub(d.lastTick).Seconds()
	d.lastTick = now

	state := d.profile.Calculate(elapsed)
	target := kinematics.NewPose(
		d.startPose.X+state.Position*math.Cos(d.direction),
		d.startPose.Y+state.Position*math.Sin(d.direction),
		d.targetHeading,
	)
	vel := d.holonomic.Calculate(d.est.Pose(), target, state.Velocity, d.direction, dt)
	return d.drive.SetVelocity(ctx, swerve.VelocityRequest{
		Velocity:      vel,
		FieldRelative: true,
	})
}

// IsFinished reports whether the profile duration has elapsed.
func (d *DriveStraight) IsFinished() bool {
	return d.profile.IsFinished(d.clk.Now().Sub(d.start).Seconds())
}

// End stops the drivetrain whether the move completed or was interrupted.
func (d *DriveStraight) End(ctx context.Context, interrupted bool) error {
	if interrupted {
		d.logger.Infow("drive straight interrupted", "elapsed_s", d.clk.Now().Sub(d.start).Seconds())
	}
	return d.drive.Stop(ctx)
}
