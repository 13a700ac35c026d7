package kinematics

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// rankTolerance is the smallest singular value of the geometry matrix still
// considered nonzero when checking for degenerate wheel placement.
const rankTolerance = 1e-9

// Swerve converts between chassis velocities and per-module states for a
// fixed set of wheel positions. It is immutable after construction.
type Swerve struct {
	offsets [NumModules]r2.Point
	// forward maps a chassis velocity column vector [vx vy omega]' to the
	// stacked module velocity vector [v0x v0y v1x v1y ...]'.
	forward *mat.Dense
}

// NewSwerve builds the kinematics for the given wheel offsets from the
// robot's center of rotation. Offsets that do not span the plane (all wheels
// collinear) make chassis rotation unobservable and are rejected.
func NewSwerve(offsets [NumModules]r2.Point) (*Swerve, error) {
	forward := mat.NewDense(2*NumModules, 3, nil)
	for i, offset := range offsets {
		forward.SetRow(2*i, []float64{1, 0, -offset.Y})
		forward.SetRow(2*i+1, []float64{0, 1, offset.X})
	}

	var svd mat.SVD
	if !svd.Factorize(forward, mat.SVDNone) {
		return nil, errors.New("failed to factorize swerve geometry matrix")
	}
	rank := 0
	for _, sv := range svd.Values(nil) {
		if sv > rankTolerance {
			rank++
		}
	}
	if rank < 3 {
		return nil, errors.Errorf("degenerate wheel geometry %v: wheel positions are collinear", offsets)
	}

	return &Swerve{offsets: offsets, forward: forward}, nil
}

// WheelOffsets returns the wheel positions this kinematics was built from.
func (k *Swerve) WheelOffsets() [NumModules]r2.Point {
	return k.offsets
}

// ToModuleStates computes the module states that realize the given chassis
// velocity. Each module's velocity is the chassis translational velocity
// plus the cross product of the angular velocity with the module's offset.
// Modules with no commanded motion report an angle of zero; callers that
// care about steering travel should preserve the measured angle instead.
func (k *Swerve) ToModuleStates(vel ChassisVelocity) [NumModules]ModuleState {
	chassis := mat.NewVecDense(3, []float64{vel.VX, vel.VY, vel.Omega})
	var wheels mat.VecDense
	wheels.MulVec(k.forward, chassis)

	var states [NumModules]ModuleState
	for i := range states {
		vx := wheels.AtVec(2 * i)
		vy := wheels.AtVec(2*i + 1)
		speed := math.Hypot(vx, vy)
		angle := 0.0
		if speed > 0 {
			angle = math.Atan2(vy, vx)
		}
		states[i] = ModuleState{Speed: speed, Angle: angle}
	}
	return states
}

// ToChassisVelocity recovers the chassis velocity from measured module
// states. The system is overdetermined (eight equations, three unknowns) so
// the exact least-squares solution is used, which averages out disagreement
// between modules caused by wheel slip or sensor noise.
func (k *Swerve) ToChassisVelocity(states [NumModules]ModuleState) (ChassisVelocity, error) {
	wheels := mat.NewVecDense(2*NumModules, nil)
	for i, s := range states {
		sin, cos := math.Sincos(s.Angle)
		wheels.SetVec(2*i, s.Speed*cos)
		wheels.SetVec(2*i+1, s.Speed*sin)
	}

	var chassis mat.VecDense
	if err := chassis.SolveVec(k.forward, wheels); err != nil {
		return ChassisVelocity{}, errors.Wrap(err, "failed to solve for chassis velocity")
	}
	return ChassisVelocity{
		VX:    chassis.AtVec(0),
		VY:    chassis.AtVec(1),
		Omega: chassis.AtVec(2),
	}, nil
}

// ToChassisDelta recovers the chassis-relative displacement over one control
// period from per-module wheel travel deltas, using the same least-squares
// geometry as ToChassisVelocity.
func (k *Swerve) ToChassisDelta(deltas [NumModules]ModuleDelta) (ChassisDelta, error) {
	var states [NumModules]ModuleState
	for i, d := range deltas {
		states[i] = ModuleState{Speed: d.Distance, Angle: d.Angle}
	}
	vel, err := k.ToChassisVelocity(states)
	if err != nil {
		return ChassisDelta{}, err
	}
	return ChassisDelta{DX: vel.VX, DY: vel.VY, DTheta: vel.Omega}, nil
}
