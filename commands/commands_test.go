package commands

import (
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	fakeencoder "github.com/nrg948/swervecontrol/components/encoder/fake"
	fakeimu "github.com/nrg948/swervecontrol/components/imu/fake"
	fakemotor "github.com/nrg948/swervecontrol/components/motor/fake"
	"github.com/nrg948/swervecontrol/components/vision"
	"github.com/nrg948/swervecontrol/config"
	"github.com/nrg948/swervecontrol/estimator"
	"github.com/nrg948/swervecontrol/kinematics"
	"github.com/nrg948/swervecontrol/swerve"
)

// rig wires a drivetrain on fake hardware together with a pose estimator,
// the way the robot loop does.
type rig struct {
	cfg      *config.Drive
	drive    *swerve.Drive
	est      *estimator.PoseEstimator
	gyro     *fakeimu.IMU
	motors   [kinematics.NumModules]*fakemotor.Motor
	steering [kinematics.NumModules]*fakemotor.Motor
	encoders [kinematics.NumModules]*fakeencoder.Encoder
}

func newRig(t *testing.T) *rig {
	t.Helper()
	logger := golog.NewTestLogger(t)
	cfg := config.Competition2023()

	r := &rig{cfg: cfg, gyro: &fakeimu.IMU{}}
	var modules [kinematics.NumModules]*swerve.Module
	names := []string{"front-left", "front-right", "back-left", "back-right"}
	for i := range modules {
		r.motors[i] = &fakemotor.Motor{Name: names[i] + "-drive"}
		r.steering[i] = &fakemotor.Motor{Name: names[i] + "-steering"}
		r.encoders[i] = &fakeencoder.Encoder{}
		modules[i] = swerve.NewModule(names[i], r.motors[i], r.steering[i], r.encoders[i], cfg, logger)
	}

	kin, err := kinematics.NewSwerve(cfg.WheelOffsets())
	test.That(t, err, test.ShouldBeNil)
	r.est = estimator.NewPoseEstimator(kin, r.gyro, vision.CameraOffset{}, logger)

	drive, err := swerve.NewDrive(cfg, modules, r.est.Heading, logger)
	test.That(t, err, test.ShouldBeNil)
	r.drive = drive
	return r
}

// tick advances the estimator one period from the rig's fake sensors.
func (r *rig) tick(t *testing.T, now time.Time) {
	t.Helper()
	var positions [kinematics.NumModules]kinematics.ModulePosition
	err := r.est.Update(context.Background(), now, positions)
	test.That(t, err, test.ShouldBeNil)
}
