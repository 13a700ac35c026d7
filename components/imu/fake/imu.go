// Package fake implements a fake IMU for tests and simulation.
package fake

import (
	"context"
	"sync"
)

// IMU is a fake orientation/tilt sensor with settable readings. The zero
// value reports a finished calibration and level chassis.
type IMU struct {
	mu          sync.Mutex
	heading     float64
	roll        float64
	rollRate    float64
	calibrating bool

	// FaultErr, when set, is returned from every readback.
	FaultErr error
}

// Heading returns the fake yaw.
func (i *IMU) Heading(ctx context.Context) (float64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.FaultErr != nil {
		return 0, i.FaultErr
	}
	return i.heading, nil
}

// Roll returns the fake tilt.
func (i *IMU) Roll(ctx context.Context) (float64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.FaultErr != nil {
		return 0, i.FaultErr
	}
	return i.roll, nil
}

// RollRate returns the fake tilt rate.
func (i *IMU) RollRate(ctx context.Context) (float64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.FaultErr != nil {
		return 0, i.FaultErr
	}
	return i.rollRate, nil
}

// Calibrating returns the fake calibration state.
func (i *IMU) Calibrating(ctx context.Context) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.FaultErr != nil {
		return false, i.FaultErr
	}
	return i.calibrating, nil
}

// SetHeading sets the yaw readback.
func (i *IMU) SetHeading(radians float64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.heading = radians
}

// SetRoll sets the tilt readback.
func (i *IMU) SetRoll(radians float64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.roll = radians
}

// SetRollRate sets the tilt rate readback.
func (i *IMU) SetRollRate(radPerSec float64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.rollRate = radPerSec
}

// SetCalibrating sets the calibration state.
func (i *IMU) SetCalibrating(calibrating bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calibrating = calibrating
}
