package control

import (
	"testing"

	"go.viam.com/test"
)

func TestTrapezoidProfileValidation(t *testing.T) {
	_, err := NewTrapezoidProfile(Constraints{MaxVelocity: 0, MaxAcceleration: 1}, 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewTrapezoidProfile(Constraints{MaxVelocity: 1, MaxAcceleration: -1}, 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewTrapezoidProfile(Constraints{MaxVelocity: 1, MaxAcceleration: 1}, -0.5)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTrapezoidProfileZeroDistance(t *testing.T) {
	p, err := NewTrapezoidProfile(Constraints{MaxVelocity: 2, MaxAcceleration: 1}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.TotalTime(), test.ShouldAlmostEqual, 0)
	test.That(t, p.IsFinished(0), test.ShouldBeTrue)

	state := p.Calculate(1)
	test.That(t, state.Position, test.ShouldAlmostEqual, 0)
	test.That(t, state.Velocity, test.ShouldAlmostEqual, 0)
}

func TestTrapezoidProfileTiming(t *testing.T) {
	// 3 m at 2 m/s with 1 m/s^2 ramps: 1.5 s of travel at cruise speed plus
	// one full ramp each way.
	p, err := NewTrapezoidProfile(Constraints{MaxVelocity: 2, MaxAcceleration: 1}, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.TotalTime(), test.ShouldAlmostEqual, 3.5)

	test.That(t, p.Calculate(2).Velocity, test.ShouldAlmostEqual, 2)

	end := p.Calculate(p.TotalTime())
	test.That(t, end.Position, test.ShouldAlmostEqual, 3)
	test.That(t, end.Velocity, test.ShouldAlmostEqual, 0)

	test.That(t, p.IsFinished(3.4), test.ShouldBeFalse)
	test.That(t, p.IsFinished(3.5), test.ShouldBeTrue)
}

func TestTrapezoidProfilePhases(t *testing.T) {
	p, err := NewTrapezoidProfile(Constraints{MaxVelocity: 2, MaxAcceleration: 1}, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.TotalTime(), test.ShouldAlmostEqual, 7)

	accel := p.Calculate(1)
	test.That(t, accel.Position, test.ShouldAlmostEqual, 0.5)
	test.That(t, accel.Velocity, test.ShouldAlmostEqual, 1)

	cruise := p.Calculate(4)
	test.That(t, cruise.Position, test.ShouldAlmostEqual, 6)
	test.That(t, cruise.Velocity, test.ShouldAlmostEqual, 2)

	decel := p.Calculate(6.5)
	test.That(t, decel.Position, test.ShouldAlmostEqual, 9.875)
	test.That(t, decel.Velocity, test.ShouldAlmostEqual, 0.5)

	before := p.Calculate(-1)
	test.That(t, before.Position, test.ShouldAlmostEqual, 0)
	test.That(t, before.Velocity, test.ShouldAlmostEqual, 0)

	after := p.Calculate(100)
	test.That(t, after.Position, test.ShouldAlmostEqual, 10)
	test.That(t, after.Velocity, test.ShouldAlmostEqual, 0)
}
