package estimator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	imufake "github.com/nrg948/swervecontrol/components/imu/fake"
	"github.com/nrg948/swervecontrol/components/vision"
	visionfake "github.com/nrg948/swervecontrol/components/vision/fake"
	"github.com/nrg948/swervecontrol/config"
	"github.com/nrg948/swervecontrol/kinematics"
)

func newTestEstimator(t *testing.T) (*PoseEstimator, *imufake.IMU) {
	t.Helper()
	kin, err := kinematics.NewSwerve(config.Competition2023().WheelOffsets())
	test.That(t, err, test.ShouldBeNil)
	gyro := &imufake.IMU{}
	return NewPoseEstimator(kin, gyro, vision.CameraOffset{}, golog.NewTestLogger(t)), gyro
}

func straightPositions(distance float64) [kinematics.NumModules]kinematics.ModulePosition {
	var positions [kinematics.NumModules]kinematics.ModulePosition
	for i := range positions {
		positions[i] = kinematics.ModulePosition{Distance: distance}
	}
	return positions
}

func TestUpdateIdempotentAtRest(t *testing.T) {
	est, _ := newTestEstimator(t)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 50; i++ {
		err := est.Update(ctx, now.Add(time.Duration(i)*20*time.Millisecond), straightPositions(1.5))
		test.That(t, err, test.ShouldBeNil)
	}
	pose := est.Pose()
	test.That(t, pose.X, test.ShouldAlmostEqual, 0)
	test.That(t, pose.Y, test.ShouldAlmostEqual, 0)
	test.That(t, pose.Heading, test.ShouldAlmostEqual, 0)
}

func TestStraightLineOdometry(t *testing.T) {
	est, _ := newTestEstimator(t)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i <= 10; i++ {
		distance := 0.1 * float64(i)
		err := est.Update(ctx, now.Add(time.Duration(i)*20*time.Millisecond), straightPositions(distance))
		test.That(t, err, test.ShouldBeNil)
	}
	pose := est.Pose()
	test.That(t, pose.X, test.ShouldAlmostEqual, 1.0, 1e-9)
	test.That(t, pose.Y, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestOdometryRotatesIntoFieldFrame(t *testing.T) {
	est, gyro := newTestEstimator(t)
	ctx := context.Background()

	// Facing +Y, wheels rolling along the robot's +X axis: the robot moves
	// in field +Y.
	gyro.SetHeading(math.Pi / 2)
	now := time.Now()
	for i := 0; i <= 5; i++ {
		distance := 0.1 * float64(i)
		err := est.Update(ctx, now.Add(time.Duration(i)*20*time.Millisecond), straightPositions(distance))
		test.That(t, err, test.ShouldBeNil)
	}
	pose := est.Pose()
	test.That(t, pose.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, pose.Y, test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, pose.Heading, test.ShouldAlmostEqual, math.Pi/2)
}

func TestTiltOffsetLatch(t *testing.T) {
	est, gyro := newTestEstimator(t)
	ctx := context.Background()
	now := time.Now()

	gyro.SetCalibrating(true)
	gyro.SetRoll(0.1)
	test.That(t, est.Update(ctx, now, straightPositions(0)), test.ShouldBeNil)
	test.That(t, est.TiltCalibrated(), test.ShouldBeFalse)

	// First tick after calibration finishes latches the resting offset.
	gyro.SetCalibrating(false)
	gyro.SetRoll(0.05)
	test.That(t, est.Update(ctx, now.Add(20*time.Millisecond), straightPositions(0)), test.ShouldBeNil)
	test.That(t, est.TiltCalibrated(), test.ShouldBeTrue)
	test.That(t, est.Tilt(), test.ShouldAlmostEqual, 0)

	gyro.SetRoll(0.25)
	gyro.SetRollRate(0.5)
	test.That(t, est.Update(ctx, now.Add(40*time.Millisecond), straightPositions(0)), test.ShouldBeNil)
	test.That(t, est.Tilt(), test.ShouldAlmostEqual, 0.2)
	test.That(t, est.TiltVelocity(), test.ShouldAlmostEqual, 0.5)

	// A later calibration cycle must not re-latch.
	gyro.SetCalibrating(true)
	test.That(t, est.Update(ctx, now.Add(60*time.Millisecond), straightPositions(0)), test.ShouldBeNil)
	gyro.SetCalibrating(false)
	gyro.SetRoll(0.3)
	test.That(t, est.Update(ctx, now.Add(80*time.Millisecond), straightPositions(0)), test.ShouldBeNil)
	test.That(t, est.Tilt(), test.ShouldAlmostEqual, 0.25)
}

func TestVisionMeasurementRebase(t *testing.T) {
	est, _ := newTestEstimator(t)
	ctx := context.Background()
	now := time.Now()

	// Seed tick, then four ticks each moving 0.1 m along field +X.
	for i := 0; i <= 4; i++ {
		distance := 0.1 * float64(i)
		err := est.Update(ctx, now.Add(time.Duration(i)*100*time.Millisecond), straightPositions(distance))
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, est.Pose().X, test.ShouldAlmostEqual, 0.4, 1e-9)

	// A fix captured at the second movement tick must be composed with only
	// the motion recorded after it.
	est.AddVisionMeasurement(kinematics.NewPose(10, 5, 0), now.Add(200*time.Millisecond))
	pose := est.Pose()
	test.That(t, pose.X, test.ShouldAlmostEqual, 10.2, 1e-9)
	test.That(t, pose.Y, test.ShouldAlmostEqual, 5, 1e-9)
}

func TestStaleVisionMeasurementDiscarded(t *testing.T) {
	est, _ := newTestEstimator(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i <= 2; i++ {
		err := est.Update(ctx, now.Add(time.Duration(i)*time.Second), straightPositions(0.1*float64(i)))
		test.That(t, err, test.ShouldBeNil)
	}
	before := est.Pose()

	est.AddVisionMeasurement(kinematics.NewPose(10, 5, 0), now.Add(-time.Second))
	test.That(t, est.Pose(), test.ShouldResemble, before)
}

func TestVisionSourceFusedDuringUpdate(t *testing.T) {
	est, _ := newTestEstimator(t)
	ctx := context.Background()
	now := time.Now()

	source := &visionfake.Source{}
	est.EnableVision(source, vision.TargetPose{Position: r3.Vector{X: 3, Y: 0, Z: 0.5}})

	// Two ticks of history so the capture time falls inside the buffer.
	test.That(t, est.Update(ctx, now, straightPositions(0)), test.ShouldBeNil)
	test.That(t, est.Update(ctx, now.Add(20*time.Millisecond), straightPositions(0)), test.ShouldBeNil)

	// Target dead ahead at 3 m while the estimator believes it is at the
	// origin: the fix confirms the origin.
	source.SetTarget(vision.Measurement{
		Distance:   3,
		Bearing:    0,
		CapturedAt: now.Add(20 * time.Millisecond),
	})
	test.That(t, est.Update(ctx, now.Add(40*time.Millisecond), straightPositions(0)), test.ShouldBeNil)
	pose := est.Pose()
	test.That(t, pose.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, pose.Y, test.ShouldAlmostEqual, 0, 1e-9)

	// Disabling vision stops fusion even while the target stays visible.
	est.DisableVision()
	source.SetTarget(vision.Measurement{
		Distance:   5,
		Bearing:    0,
		CapturedAt: now.Add(60 * time.Millisecond),
	})
	test.That(t, est.Update(ctx, now.Add(60*time.Millisecond), straightPositions(0)), test.ShouldBeNil)
	test.That(t, est.Pose().X, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestResetPosition(t *testing.T) {
	est, gyro := newTestEstimator(t)
	ctx := context.Background()
	now := time.Now()

	gyro.SetHeading(0.3)
	test.That(t, est.Update(ctx, now, straightPositions(0)), test.ShouldBeNil)

	est.ResetPosition(kinematics.NewPose(1, 2, math.Pi/2))
	pose := est.Pose()
	test.That(t, pose.X, test.ShouldAlmostEqual, 1)
	test.That(t, pose.Y, test.ShouldAlmostEqual, 2)
	test.That(t, pose.Heading, test.ShouldAlmostEqual, math.Pi/2)

	// Heading stays continuous with the gyro after the reset.
	test.That(t, est.Update(ctx, now.Add(20*time.Millisecond), straightPositions(0)), test.ShouldBeNil)
	test.That(t, est.Heading(), test.ShouldAlmostEqual, math.Pi/2)
}

func TestUpdateSurfacesGyroFault(t *testing.T) {
	est, gyro := newTestEstimator(t)
	gyro.FaultErr = context.DeadlineExceeded

	err := est.Update(context.Background(), time.Now(), straightPositions(0))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "gyro heading")
}
