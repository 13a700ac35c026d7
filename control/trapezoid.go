package control

import (
	"github.com/pkg/errors"
)

// Constraints bound a motion profile.
type Constraints struct {
	// MaxVelocity is the cruise speed in m/s.
	MaxVelocity float64
	// MaxAcceleration is the acceleration and deceleration rate in m/s^2.
	MaxAcceleration float64
}

// ProfileState is a sampled point on a motion profile.
type ProfileState struct {
	// Position is the distance traveled since the profile started, in
	// meters.
	Position float64
	// Velocity is the profiled speed at this point, in m/s.
	Velocity float64
}

// TrapezoidProfile plans a straight-line move of a fixed distance: ramp up
// at the acceleration limit, cruise at the velocity limit, ramp back down to
// rest. The total duration is distance/velocity plus one full ramp.
type TrapezoidProfile struct {
	constraints Constraints
	distance    float64
	rampTime    float64
	totalTime   float64
}

// NewTrapezoidProfile returns a profile covering distance meters. Distance
// must be non-negative; a zero distance yields an already-finished profile.
func NewTrapezoidProfile(constraints Constraints, distance float64) (*TrapezoidProfile, error) {
	if constraints.MaxVelocity <= 0 || constraints.MaxAcceleration <= 0 {
		return nil, errors.Errorf(
			"profile constraints must be positive, got velocity %f acceleration %f",
			constraints.MaxVelocity, constraints.MaxAcceleration)
	}
	if distance < 0 {
		return nil, errors.Errorf("profile distance must be non-negative, got %f", distance)
	}
	p := &TrapezoidProfile{
		constraints: constraints,
		distance:    distance,
		rampTime:    constraints.MaxVelocity / constraints.MaxAcceleration,
	}
	if distance > 0 {
		p.totalTime = distance/constraints.MaxVelocity + p.rampTime
	}
	return p, nil
}

// TotalTime returns the profile duration in seconds.
func (p *TrapezoidProfile) TotalTime() float64 {
	return p.totalTime
}

// IsFinished reports whether the profile has run to completion at elapsed
// seconds.
func (p *TrapezoidProfile) IsFinished(elapsed float64) bool {
	return elapsed >= p.totalTime
}

// Calculate samples the profile at elapsed seconds since its start.
func (p *TrapezoidProfile) Calculate(elapsed float64) ProfileState {
	v := p.constraints.MaxVelocity
	a := p.constraints.MaxAcceleration
	switch {
	case elapsed <= 0:
		return ProfileState{}
	case elapsed >= p.totalTime:
		return ProfileState{Position: p.distance}
	case elapsed <= p.rampTime:
		return ProfileState{
			Position: 0.5 * a * elapsed * elapsed,
			Velocity: a * elapsed,
		}
	case elapsed >= p.totalTime-p.rampTime:
		remaining := p.totalTime - elapsed
		return ProfileState{
			Position: p.distance - 0.5*a*remaining*remaining,
			Velocity: a * remaining,
		}
	default:
		return ProfileState{
			Position: 0.5*a*p.rampTime*p.rampTime + v*(elapsed-p.rampTime),
			Velocity: v,
		}
	}
}
