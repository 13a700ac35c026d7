package commands

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/nrg948/swervecontrol/utils"
)

// balanceRig steps the estimator and balance command together, the way the
// robot loop sequences them.
type balanceRig struct {
	*rig
	cmd  *Balance
	now  time.Time
	tick int
}

func newBalanceRig(t *testing.T) *balanceRig {
	t.Helper()
	r := newRig(t)
	return &balanceRig{
		rig: r,
		cmd: NewBalance(r.drive, r.est, r.cfg.Balance, golog.NewTestLogger(t)),
		now: time.Now(),
	}
}

// step sets the gyro, runs one estimator update and one command tick, and
// returns the front-left drive voltage.
func (b *balanceRig) step(t *testing.T, rollDeg, rollRateDeg float64) float64 {
	t.Helper()
	b.gyro.SetRoll(utils.DegToRad(rollDeg))
	b.gyro.SetRollRate(utils.DegToRad(rollRateDeg))
	b.tick++
	b.rig.tick(t, b.now.Add(time.Duration(b.tick)*20*time.Millisecond))
	test.That(t, b.cmd.Execute(context.Background()), test.ShouldBeNil)
	return b.motors[0].Voltage()
}

// climbVolts is the drive voltage for the configured climb speed on a given
// tilt, gravity compensation included.
func (b *balanceRig) climbVolts(rollDeg float64) float64 {
	speed := b.cfg.Balance.ClimbSpeed
	return b.cfg.DriveKs + b.cfg.DriveKv()*speed + b.cfg.GravityKg*math.Sin(utils.DegToRad(rollDeg))
}

// holdVolts is the drive voltage at zero commanded speed on a given tilt:
// gravity compensation only.
func (b *balanceRig) holdVolts(rollDeg float64) float64 {
	return b.cfg.GravityKg * math.Sin(utils.DegToRad(rollDeg))
}

func TestBalanceWaitsForTiltCalibration(t *testing.T) {
	b := newBalanceRig(t)
	test.That(t, b.cmd.Init(context.Background()), test.ShouldBeNil)

	b.gyro.SetCalibrating(true)
	test.That(t, b.step(t, 3, 0), test.ShouldAlmostEqual, 0)
	test.That(t, b.est.TiltCalibrated(), test.ShouldBeFalse)

	// Once the offset latches the approach begins.
	b.gyro.SetCalibrating(false)
	test.That(t, b.step(t, 0, 0), test.ShouldAlmostEqual, b.climbVolts(0))
}

func TestBalanceClimbStopAndPause(t *testing.T) {
	b := newBalanceRig(t)
	test.That(t, b.cmd.Init(context.Background()), test.ShouldBeNil)

	// Approach on flat ground.
	test.That(t, b.step(t, 0, 0), test.ShouldAlmostEqual, b.climbVolts(0))

	// Mounting the ramp keeps the climb going.
	test.That(t, b.step(t, 6, 10), test.ShouldAlmostEqual, b.climbVolts(6))

	// Still tilted, but now tipping toward level faster than the minimum
	// rate: stop on this very tick.
	test.That(t, b.step(t, 4, -3), test.ShouldAlmostEqual, b.holdVolts(4))

	// The pause holds zero speed even though tilt re-exceeds the threshold.
	for i := 0; i < b.cfg.Balance.PauseTicks; i++ {
		test.That(t, b.step(t, 6, 0), test.ShouldAlmostEqual, b.holdVolts(6))
	}

	// Pause expired and the ramp is still tipped: resume climbing.
	test.That(t, b.step(t, 6, 0), test.ShouldAlmostEqual, b.climbVolts(6))
}

func TestBalanceHoldsNearLevel(t *testing.T) {
	b := newBalanceRig(t)
	test.That(t, b.cmd.Init(context.Background()), test.ShouldBeNil)

	// Latch the resting offset on flat ground, then mount.
	test.That(t, b.step(t, 0, 0), test.ShouldAlmostEqual, b.climbVolts(0))
	test.That(t, b.step(t, 6, 0), test.ShouldAlmostEqual, b.climbVolts(6))

	// Inside the level band: hold still.
	test.That(t, b.step(t, 1, 0), test.ShouldAlmostEqual, b.holdVolts(1))

	// Wait out the anti-chatter pause with the ramp level.
	for i := 0; i < b.cfg.Balance.PauseTicks; i++ {
		b.step(t, 0, 0)
	}

	// Tipped over backward: drive back down.
	v := b.step(t, -4, 0)
	want := -b.cfg.DriveKs - b.cfg.DriveKv()*b.cfg.Balance.ClimbSpeed + b.holdVolts(-4)
	test.That(t, v, test.ShouldAlmostEqual, want)
}

func TestBalanceNeverFinishesAndStopsOnEnd(t *testing.T) {
	b := newBalanceRig(t)
	ctx := context.Background()
	test.That(t, b.cmd.Init(ctx), test.ShouldBeNil)
	b.step(t, 0, 0)

	test.That(t, b.cmd.IsFinished(), test.ShouldBeFalse)
	test.That(t, b.cmd.End(ctx, true), test.ShouldBeNil)
	for i := range b.motors {
		test.That(t, b.motors[i].IsStopped(), test.ShouldBeTrue)
	}
}
