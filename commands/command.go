// Package commands implements the high-level drive behaviors that run on the
// robot loop: teleoperated driving, profiled straight-line moves and ramp
// balancing.
package commands

import "context"

// Command is one schedulable drive behavior. The robot loop calls Init once,
// Execute every tick until IsFinished reports true or the command is
// cancelled, then End exactly once. Commands must not block; each call does
// one tick of work.
type Command interface {
	// Name identifies the command in logs.
	Name() string
	// Init prepares the command to run.
	Init(ctx context.Context) error
	// Execute does one tick of work.
	Execute(ctx context.Context) error
	// IsFinished reports whether the command has completed on its own.
	IsFinished() bool
	// End releases the command. interrupted is true when the command was
	// cancelled before IsFinished reported true.
	End(ctx context.Context, interrupted bool) error
}
