package commands

import (
	"context"
	"math"

	"github.com/edaniels/golog"

	"github.com/nrg948/swervecontrol/config"
	"github.com/nrg948/swervecontrol/estimator"
	"github.com/nrg948/swervecontrol/kinematics"
	"github.com/nrg948/swervecontrol/swerve"
	"github.com/nrg948/swervecontrol/utils"
)

// Balance climbs a pivoting ramp and holds the robot level on top. It is a
// hysteretic bang-bang controller, not a PID loop: drive at a fixed climb
// speed, stop when the tilt rate says the ramp is tipping toward level, and
// after any stop force a fixed pause so the controller cannot chatter
// between directions. It never finishes on its own.
type Balance struct {
	drive  *swerve.Drive
	est    *estimator.PoseEstimator
	cfg    config.Balance
	logger golog.Logger

	mounted   bool
	lastSpeed float64
	pauseLeft int
}

// NewBalance returns a balance command using the configured thresholds.
func NewBalance(
	drive *swerve.Drive,
	est *estimator.PoseEstimator,
	cfg config.Balance,
	logger golog.Logger,
) *Balance {
	return &Balance{drive: drive, est: est, cfg: cfg, logger: logger}
}

// Name implements Command.
func (b *Balance) Name() string { return "balance" }

// Init resets the controller phase.
func (b *Balance) Init(ctx context.Context) error {
	b.mounted = false
	b.lastSpeed = 0
	b.pauseLeft = 0
	return nil
}

// Execute runs one tick of the balance state machine.
func (b *Balance) Execute(ctx context.Context) error {
	// Uncalibrated tilt is unreliable; hold still until the offset latches.
	if !b.est.TiltCalibrated() {
		return b.drive.SetVelocity(ctx, swerve.VelocityRequest{})
	}

	tilt := b.est.Tilt()
	tiltRate := b.est.TiltVelocity()
	balanceThreshold := utils.DegToRad(b.cfg.BalanceThresholdDeg)
	mountedThreshold := utils.DegToRad(b.cfg.MountedThresholdDeg)
	minRate := utils.DegToRad(b.cfg.MinTiltRateDeg)

	var speed float64
	switch {
	case b.pauseLeft > 0:
		b.pauseLeft--
	case !b.mounted:
		// Drive onto the ramp until the tilt says we are on it.
		speed = b.cfg.ClimbSpeed
		if math.Abs(tilt) > mountedThreshold {
			b.mounted = true
			b.logger.Infow("mounted ramp", "tilt_deg", utils.RadToDeg(tilt))
		}
	case tilt > balanceThreshold:
		// Nose up: keep climbing unless the ramp is already tipping back
		// toward level fast enough that momentum will carry us there.
		if tiltRate >= -minRate {
			speed = b.cfg.ClimbSpeed
		}
	case tilt < -balanceThreshold:
		if tiltRate <= minRate {
			speed = -b.cfg.ClimbSpeed
		}
	}

	if b.lastSpeed != 0 && speed == 0 {
		b.pauseLeft = b.cfg.PauseTicks
	}
	b.lastSpeed = speed

	return b.drive.SetVelocity(ctx, swerve.VelocityRequest{
		Velocity:         kinematics.ChassisVelocity{VX: speed},
		AdjustForGravity: true,
		Tilt:             tilt,
	})
}

// IsFinished always reports false; balancing runs until cancelled.
func (b *Balance) IsFinished() bool { return false }

// End stops the drivetrain.
func (b *Balance) End(ctx context.Context, interrupted bool) error {
	return b.drive.Stop(ctx)
}
