// Package estimator fuses wheel odometry, gyro heading and latency-stamped
// vision fixes into a single field-frame pose.
package estimator

import (
	"context"
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/nrg948/swervecontrol/components/imu"
	"github.com/nrg948/swervecontrol/components/vision"
	"github.com/nrg948/swervecontrol/kinematics"
	"github.com/nrg948/swervecontrol/utils"
)

// DefaultBufferWindow bounds how far back a vision measurement may be
// timestamped and still be applied.
const DefaultBufferWindow = 1500 * time.Millisecond

// poseDelta is one tick of dead-reckoned motion, kept so that a vision fix
// captured in the past can be replayed forward to the present.
type poseDelta struct {
	t       time.Time
	dx, dy  float64 // field frame
	dTheta  float64
	heading float64 // heading after this delta was applied
}

// PoseEstimator tracks the robot's field-frame pose. It is not safe for
// concurrent use; all methods are expected to run on the robot loop.
type PoseEstimator struct {
	kin    *kinematics.Swerve
	imu    imu.IMU
	camera vision.CameraOffset
	window time.Duration
	logger golog.Logger

	// headingOffset maps the raw gyro reading onto the field frame. It is
	// adjusted by ResetPosition and by accepted vision fixes.
	headingOffset float64
	rawHeading    float64

	tiltOffset  float64
	tiltLatched bool
	tilt        float64
	tiltRate    float64

	pose kinematics.Pose

	lastPositions [kinematics.NumModules]kinematics.ModulePosition
	hasPositions  bool

	buffer []poseDelta

	source     vision.TargetSource
	targetPose vision.TargetPose
}

// NewPoseEstimator returns an estimator at the field origin. camera describes
// where the vision camera is mounted relative to the robot center.
func NewPoseEstimator(
	kin *kinematics.Swerve,
	gyro imu.IMU,
	camera vision.CameraOffset,
	logger golog.Logger,
) *PoseEstimator {
	return &PoseEstimator{
		kin:    kin,
		imu:    gyro,
		camera: camera,
		window: DefaultBufferWindow,
		logger: logger,
	}
}

// EnableVision starts fusing fixes from source. target is the known field
// pose of the tracked target.
func (e *PoseEstimator) EnableVision(source vision.TargetSource, target vision.TargetPose) {
	e.source = source
	e.targetPose = target
}

// DisableVision stops consuming vision fixes. Odometry continues unaffected.
func (e *PoseEstimator) DisableVision() {
	e.source = nil
}

// Update advances the estimate by one tick. positions are the current
// absolute drive distances and steering angles of the four modules.
func (e *PoseEstimator) Update(
	ctx context.Context,
	now time.Time,
	positions [kinematics.NumModules]kinematics.ModulePosition,
) error {
	raw, err := e.imu.Heading(ctx)
	if err != nil {
		return errors.Wrap(err, "reading gyro heading")
	}
	rawTilt, err := e.imu.Roll(ctx)
	if err != nil {
		return errors.Wrap(err, "reading gyro roll")
	}
	rollRate, err := e.imu.RollRate(ctx)
	if err != nil {
		return errors.Wrap(err, "reading gyro roll rate")
	}
	calibrating, err := e.imu.Calibrating(ctx)
	if err != nil {
		return errors.Wrap(err, "reading gyro calibration state")
	}

	// The resting tilt is latched once, at the first tick after the gyro
	// finishes calibrating. Until then Tilt reports the raw reading and
	// TiltCalibrated stays false.
	if !e.tiltLatched && !calibrating {
		e.tiltOffset = rawTilt
		e.tiltLatched = true
		e.logger.Infow("tilt offset latched", "offset_deg", utils.RadToDeg(rawTilt))
	}
	e.rawHeading = raw
	e.tilt = rawTilt - e.tiltOffset
	e.tiltRate = rollRate

	heading := utils.WrapAngle(raw + e.headingOffset)

	if !e.hasPositions {
		e.lastPositions = positions
		e.hasPositions = true
		e.pose = kinematics.NewPose(e.pose.X, e.pose.Y, heading)
	} else {
		var deltas [kinematics.NumModules]kinematics.ModuleDelta
		for i := range positions {
			deltas[i] = kinematics.ModuleDelta{
				Distance: positions[i].Distance - e.lastPositions[i].Distance,
				Angle:    positions[i].Angle,
			}
		}
		e.lastPositions = positions

		chassis, err := e.kin.ToChassisDelta(deltas)
		if err != nil {
			return errors.Wrap(err, "resolving chassis displacement")
		}
		field := kinematics.RotateVector(r2.Point{X: chassis.DX, Y: chassis.DY}, heading)
		dTheta := utils.AngleDiff(e.pose.Heading, heading)

		e.pose = kinematics.NewPose(e.pose.X+field.X, e.pose.Y+field.Y, heading)
		e.buffer = append(e.buffer, poseDelta{
			t:       now,
			dx:      field.X,
			dy:      field.Y,
			dTheta:  dTheta,
			heading: heading,
		})
	}

	cutoff := now.Add(-e.window)
	for len(e.buffer) > 0 && e.buffer[0].t.Before(cutoff) {
		e.buffer = e.buffer[1:]
	}

	if e.source != nil {
		meas, ok, err := e.source.Target(ctx)
		switch {
		case err != nil:
			e.logger.Debugw("vision source unavailable", "error", err)
		case ok:
			if pose, valid := e.visionPose(meas); valid {
				e.AddVisionMeasurement(pose, meas.CapturedAt)
			}
		}
	}
	return nil
}

// visionPose converts a distance/bearing sighting of the known target into a
// field-frame robot pose, using the heading the robot had when the frame was
// captured rather than the heading it has now.
func (e *PoseEstimator) visionPose(meas vision.Measurement) (kinematics.Pose, bool) {
	captureHeading, ok := e.headingAt(meas.CapturedAt)
	if !ok {
		return kinematics.Pose{}, false
	}

	cameraFacing := utils.WrapAngle(captureHeading + e.camera.Yaw)
	toTarget := kinematics.RotateVector(r2.Point{
		X: meas.Distance * math.Cos(meas.Bearing),
		Y: meas.Distance * math.Sin(meas.Bearing),
	}, cameraFacing)
	cameraPos := r2.Point{
		X: e.targetPose.Position.X - toTarget.X,
		Y: e.targetPose.Position.Y - toTarget.Y,
	}
	mount := kinematics.RotateVector(r2.Point{
		X: e.camera.Position.X,
		Y: e.camera.Position.Y,
	}, captureHeading)
	return kinematics.NewPose(cameraPos.X-mount.X, cameraPos.Y-mount.Y, captureHeading), true
}

// headingAt returns the buffered heading at time t, or false if t precedes
// the retained history.
func (e *PoseEstimator) headingAt(t time.Time) (float64, bool) {
	if len(e.buffer) == 0 || t.Before(e.buffer[0].t) {
		return 0, false
	}
	heading := e.buffer[0].heading
	for _, d := range e.buffer {
		if d.t.After(t) {
			break
		}
		heading = d.heading
	}
	return heading, true
}

// AddVisionMeasurement corrects the estimate with a field-frame pose captured
// at timestamp. The correction is rebased through the motion accumulated
// since capture, so a late-arriving fix does not erase recent movement.
// Measurements older than the retained history are discarded.
func (e *PoseEstimator) AddVisionMeasurement(pose kinematics.Pose, timestamp time.Time) {
	if len(e.buffer) == 0 || timestamp.Before(e.buffer[0].t) {
		e.logger.Debugw("discarding stale vision measurement", "captured_at", timestamp)
		return
	}

	x, y, theta := pose.X, pose.Y, pose.Heading
	for _, d := range e.buffer {
		if !d.t.After(timestamp) {
			continue
		}
		x += d.dx
		y += d.dy
		theta += d.dTheta
	}
	e.pose = kinematics.NewPose(x, y, theta)
	e.headingOffset = utils.WrapAngle(e.pose.Heading - e.rawHeading)
}

// ResetPosition declares the robot to be at pose, discarding any buffered
// motion history. Wheel positions are retained so odometry resumes cleanly.
func (e *PoseEstimator) ResetPosition(pose kinematics.Pose) {
	e.pose = pose
	e.headingOffset = utils.WrapAngle(pose.Heading - e.rawHeading)
	e.buffer = e.buffer[:0]
}

// Pose returns the current field-frame estimate.
func (e *PoseEstimator) Pose() kinematics.Pose {
	return e.pose
}

// Heading returns the current field-frame heading.
func (e *PoseEstimator) Heading() float64 {
	return e.pose.Heading
}

// Tilt returns the roll about the climbing axis, corrected by the latched
// resting offset. Meaningless until TiltCalibrated reports true.
func (e *PoseEstimator) Tilt() float64 {
	return e.tilt
}

// TiltVelocity returns the rate of change of Tilt.
func (e *PoseEstimator) TiltVelocity() float64 {
	return e.tiltRate
}

// TiltCalibrated reports whether the resting tilt offset has been latched.
func (e *PoseEstimator) TiltCalibrated() bool {
	return e.tiltLatched
}
