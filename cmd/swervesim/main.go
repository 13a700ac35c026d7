// Command swervesim runs the drive control loop against simulated hardware:
// a scripted driver squares up, drives a profiled straight line, then
// balances on a simulated ramp.
package main

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"

	"github.com/nrg948/swervecontrol/commands"
	fakeencoder "github.com/nrg948/swervecontrol/components/encoder/fake"
	fakeimu "github.com/nrg948/swervecontrol/components/imu/fake"
	fakemotor "github.com/nrg948/swervecontrol/components/motor/fake"
	"github.com/nrg948/swervecontrol/components/vision"
	"github.com/nrg948/swervecontrol/config"
	"github.com/nrg948/swervecontrol/estimator"
	"github.com/nrg948/swervecontrol/kinematics"
	"github.com/nrg948/swervecontrol/robot"
	"github.com/nrg948/swervecontrol/swerve"
)

var logger = golog.NewDevelopmentLogger("swervesim")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile string  `flag:"config,usage=drive base config file"`
	Distance   float64 `flag:"distance,default=2,usage=autonomous drive distance in meters"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg := config.Competition2023()
	if argsParsed.ConfigFile != "" {
		var err error
		if cfg, err = config.ReadConfig(argsParsed.ConfigFile); err != nil {
			return err
		}
	}

	sim := newSimHardware()
	kin, err := kinematics.NewSwerve(cfg.WheelOffsets())
	if err != nil {
		return err
	}
	est := estimator.NewPoseEstimator(kin, sim.gyro, vision.CameraOffset{}, logger)

	var modules [kinematics.NumModules]*swerve.Module
	names := []string{"front-left", "front-right", "back-left", "back-right"}
	for i := range modules {
		modules[i] = swerve.NewModule(
			names[i], sim.drives[i], sim.steerings[i], sim.encoders[i], cfg, logger)
	}
	drive, err := swerve.NewDrive(cfg, modules, est.Heading, logger)
	if err != nil {
		return err
	}

	clk := clock.New()
	teleop := commands.NewTeleop(drive, &idleStick{}, cfg, logger)
	rob := robot.New(drive, est, clk, teleop, logger)

	straight, err := commands.NewDriveStraight(
		drive, est, clk, cfg, argsParsed.Distance, 0, 0, logger)
	if err != nil {
		return err
	}

	goutils.PanicCapturingGo(func() {
		sim.run(ctx, cfg)
	})
	goutils.PanicCapturingGo(func() {
		script(ctx, rob, est, straight, commands.NewBalance(drive, est, cfg.Balance, logger))
	})

	return rob.Run(ctx)
}

// script sequences the demo: straight drive, then balance until shutdown.
func script(
	ctx context.Context,
	rob *robot.Robot,
	est *estimator.PoseEstimator,
	straight, balance commands.Command,
) {
	if !goutils.SelectContextOrWait(ctx, 500*time.Millisecond) {
		return
	}
	rob.StartCommand(straight)

	for {
		if !goutils.SelectContextOrWait(ctx, time.Second) {
			return
		}
		pose := est.Pose()
		logger.Infow("pose estimate",
			"x_m", pose.X, "y_m", pose.Y, "heading_deg", pose.Heading*180/math.Pi)
		if straight.IsFinished() {
			break
		}
	}
	rob.StartCommand(balance)
}

// idleStick is an operator who never touches the controls.
type idleStick struct{}

func (idleStick) Read(ctx context.Context) (commands.DriveInput, error) {
	return commands.DriveInput{}, nil
}

// simHardware closes the loop around the fake components: commanded
// voltages turn into motion the next time the sensors are read.
type simHardware struct {
	drives    [kinematics.NumModules]*fakemotor.Motor
	steerings [kinematics.NumModules]*fakemotor.Motor
	encoders  [kinematics.NumModules]*fakeencoder.Encoder
	gyro      *fakeimu.IMU

	angles [kinematics.NumModules]float64
}

func newSimHardware() *simHardware {
	sim := &simHardware{gyro: &fakeimu.IMU{}}
	for i := range sim.drives {
		sim.drives[i] = &fakemotor.Motor{}
		sim.steerings[i] = &fakemotor.Motor{}
		sim.encoders[i] = &fakeencoder.Encoder{}
	}
	return sim
}

// run integrates the commanded voltages into sensor readings at the control
// period, a first-order stand-in for the real drivetrain.
func (s *simHardware) run(ctx context.Context, cfg *config.Drive) {
	const steerRadPerVoltSec = 4.0
	dt := robot.DefaultPeriod.Seconds()
	kv := cfg.DriveKv()

	for goutils.SelectContextOrWait(ctx, robot.DefaultPeriod) {
		for i := range s.drives {
			volts := s.drives[i].Voltage()
			var speed float64
			if math.Abs(volts) > cfg.DriveKs {
				speed = (math.Abs(volts) - cfg.DriveKs) / kv
				if volts < 0 {
					speed = -speed
				}
			}
			s.drives[i].SetMeasuredVelocity(speed)
			s.drives[i].AddPosition(speed * dt)

			s.angles[i] += s.steerings[i].Voltage() * steerRadPerVoltSec * dt
			s.encoders[i].SetAngle(s.angles[i])
		}
	}
}
