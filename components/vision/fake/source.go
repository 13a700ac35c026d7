// Package fake implements a fake vision target source for tests.
package fake

import (
	"context"
	"sync"

	"github.com/nrg948/swervecontrol/components/vision"
)

// Source is a fake target source. The zero value reports no target.
type Source struct {
	mu        sync.Mutex
	meas      vision.Measurement
	hasTarget bool

	// Err, when set, is returned from Target.
	Err error
}

// Target returns the fake observation.
func (s *Source) Target(ctx context.Context) (vision.Measurement, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return vision.Measurement{}, false, s.Err
	}
	return s.meas, s.hasTarget, nil
}

// SetTarget sets the observation returned by Target.
func (s *Source) SetTarget(meas vision.Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meas = meas
	s.hasTarget = true
}

// ClearTarget makes the source report no visible target.
func (s *Source) ClearTarget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasTarget = false
}
