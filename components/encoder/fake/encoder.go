// Package fake implements a fake absolute encoder for tests.
package fake

import (
	"context"
	"sync"

	"github.com/nrg948/swervecontrol/utils"
)

// Encoder is a fake absolute encoder with settable readings. The zero value
// is usable.
type Encoder struct {
	mu       sync.Mutex
	angle    float64
	velocity float64

	// FaultErr, when set, is returned from every readback.
	FaultErr error
}

// Angle returns the fake wheel angle.
func (e *Encoder) Angle(ctx context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FaultErr != nil {
		return 0, e.FaultErr
	}
	return e.angle, nil
}

// AngularVelocity returns the fake steering rate.
func (e *Encoder) AngularVelocity(ctx context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FaultErr != nil {
		return 0, e.FaultErr
	}
	return e.velocity, nil
}

// SetAngle sets the angle readback, wrapping it like real hardware does.
func (e *Encoder) SetAngle(radians float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.angle = utils.WrapAngle(radians)
}

// SetAngularVelocity sets the steering rate readback.
func (e *Encoder) SetAngularVelocity(radPerSec float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.velocity = radPerSec
}
