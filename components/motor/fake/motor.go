// Package fake implements a fake motor for tests and simulation.
package fake

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
)

// Motor is a fake motor that records commands and lets tests drive its
// readbacks. The zero value is usable.
type Motor struct {
	Name   string
	Logger golog.Logger

	mu       sync.Mutex
	position float64
	velocity float64
	voltage  float64
	stopped  bool

	// FaultErr, when set, is returned from every readback to simulate a
	// stalled or disconnected motor.
	FaultErr error
}

// SetVelocity records the commanded velocity and adopts it as the readback
// velocity.
func (m *Motor) SetVelocity(ctx context.Context, mps float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FaultErr != nil {
		return m.FaultErr
	}
	m.velocity = mps
	m.stopped = false
	return nil
}

// SetVoltage records the commanded voltage.
func (m *Motor) SetVoltage(ctx context.Context, volts float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FaultErr != nil {
		return m.FaultErr
	}
	m.voltage = volts
	m.stopped = false
	return nil
}

// Position returns the fake accumulated travel.
func (m *Motor) Position(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FaultErr != nil {
		return 0, m.FaultErr
	}
	return m.position, nil
}

// Velocity returns the fake velocity.
func (m *Motor) Velocity(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FaultErr != nil {
		return 0, m.FaultErr
	}
	return m.velocity, nil
}

// Stop zeroes the commanded outputs.
func (m *Motor) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.velocity = 0
	m.voltage = 0
	m.stopped = true
	return nil
}

// SetPosition sets the position readback.
func (m *Motor) SetPosition(meters float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = meters
}

// AddPosition advances the position readback.
func (m *Motor) AddPosition(meters float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position += meters
}

// SetMeasuredVelocity sets the velocity readback without recording a
// command.
func (m *Motor) SetMeasuredVelocity(mps float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.velocity = mps
}

// Voltage returns the last commanded voltage.
func (m *Motor) Voltage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voltage
}

// CommandedVelocity returns the last commanded velocity.
func (m *Motor) CommandedVelocity() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.velocity
}

// IsStopped reports whether Stop was the most recent command.
func (m *Motor) IsStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
