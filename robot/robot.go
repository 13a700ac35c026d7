// Package robot runs the fixed-period control loop: sample sensors, update
// the pose estimate, run the active command, actuate the drivetrain. All
// control logic executes on this single loop; commands are handed over
// between ticks.
package robot

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/nrg948/swervecontrol/commands"
	"github.com/nrg948/swervecontrol/estimator"
	"github.com/nrg948/swervecontrol/swerve"
)

// DefaultPeriod is the control loop period.
const DefaultPeriod = 20 * time.Millisecond

// Robot owns the drivetrain, the pose estimator and the active command.
type Robot struct {
	drive  *swerve.Drive
	est    *estimator.PoseEstimator
	clk    clock.Clock
	period time.Duration
	logger golog.Logger

	defaultCmd commands.Command
	active     commands.Command

	mu      sync.Mutex
	pending commands.Command
	cancel  bool
}

// New returns a robot that runs defaultCmd (typically teleop) whenever no
// other command is scheduled.
func New(
	drive *swerve.Drive,
	est *estimator.PoseEstimator,
	clk clock.Clock,
	defaultCmd commands.Command,
	logger golog.Logger,
) *Robot {
	return &Robot{
		drive:      drive,
		est:        est,
		clk:        clk,
		period:     DefaultPeriod,
		logger:     logger,
		defaultCmd: defaultCmd,
	}
}

// StartCommand schedules cmd, interrupting whatever is running. The switch
// happens at the start of the next tick.
func (r *Robot) StartCommand(cmd commands.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = cmd
	r.cancel = false
}

// CancelCommand interrupts the active command; the default command resumes
// at the start of the next tick with the drivetrain stopped.
func (r *Robot) CancelCommand() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	r.cancel = true
}

// Run drives the control loop until ctx is cancelled, then stops the
// drivetrain.
func (r *Robot) Run(ctx context.Context) error {
	ticker := r.clk.Ticker(r.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return ctx.Err()
		case now := <-ticker.C:
			r.Tick(ctx, now)
		}
	}
}

// Tick runs one control period: sense, estimate, decide, actuate. Faults
// are logged and never escape; every tick completes and leaves the robot in
// a well-defined state.
func (r *Robot) Tick(ctx context.Context, now time.Time) {
	positions, err := r.drive.ModulePositions(ctx)
	if err != nil {
		// Odometry cannot advance on partial readings; commands still run.
		r.logger.Warnw("module readback fault", "error", err)
	} else if err := r.est.Update(ctx, now, positions); err != nil {
		r.logger.Warnw("pose estimate not updated", "error", err)
	}

	r.swapCommand(ctx)

	if r.active == nil {
		return
	}
	if err := r.active.Execute(ctx); err != nil {
		// Healthy modules were already commanded by the fan-out; the error
		// is the per-module fault signal.
		r.logger.Warnw("command fault", "command", r.active.Name(), "error", err)
	}
	if r.active.IsFinished() {
		r.endActive(ctx, false)
		r.startDefault(ctx)
	}
}

// swapCommand applies a pending start or cancel request.
func (r *Robot) swapCommand(ctx context.Context) {
	r.mu.Lock()
	pending, cancelled := r.pending, r.cancel
	r.pending = nil
	r.cancel = false
	r.mu.Unlock()

	switch {
	case cancelled:
		r.endActive(ctx, true)
		r.startDefault(ctx)
	case pending != nil:
		r.endActive(ctx, true)
		if err := pending.Init(ctx); err != nil {
			r.logger.Errorw("command failed to start", "command", pending.Name(), "error", err)
			r.startDefault(ctx)
			return
		}
		r.logger.Infow("command started", "command", pending.Name())
		r.active = pending
	case r.active == nil:
		r.startDefault(ctx)
	}
}

func (r *Robot) startDefault(ctx context.Context) {
	r.active = nil
	if r.defaultCmd == nil {
		return
	}
	if err := r.defaultCmd.Init(ctx); err != nil {
		r.logger.Errorw("default command failed to start", "error", err)
		return
	}
	r.active = r.defaultCmd
}

func (r *Robot) endActive(ctx context.Context, interrupted bool) {
	if r.active == nil {
		return
	}
	if err := r.active.End(ctx, interrupted); err != nil {
		r.logger.Warnw("command end fault", "command", r.active.Name(), "error", err)
	}
	r.active = nil
}

func (r *Robot) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), r.period)
	defer cancel()
	r.endActive(ctx, true)
	if err := r.drive.Stop(ctx); err != nil {
		r.logger.Warnw("drivetrain stop fault", "error", err)
	}
}
