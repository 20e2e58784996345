// internal/simulation/runner.go
package simulation

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/ikarm/internal/geometry"
	"github.com/xkilldash9x/ikarm/internal/ik"
	"github.com/xkilldash9x/ikarm/internal/input"
	"github.com/xkilldash9x/ikarm/internal/render"
)

// Options configures a Runner. The zero value runs unpaced until ctx ends.
type Options struct {
	// MaxFrames stops the loop after this many frames; 0 means no limit.
	MaxFrames int
	// FPS paces frames with a token bucket; <= 0 runs them back to back.
	FPS float64
	// StopOnInputEOF ends the run once input is exhausted and the arm has
	// had time to settle on the last goal.
	StopOnInputEOF bool
	Script         *input.Script
	Source         input.Source
	RunID          string
	Logger         *zap.Logger
}

// Summary describes a finished run.
type Summary struct {
	RunID          string
	Frames         int
	SolvedFrames   int
	HeldFrames     int
	FallbackFrames int
	Goals          int
	LastPose       ik.Pose
}

// Runner drives one chain frame by frame: apply pending goals, solve on the
// smoothed point, render, then advance the smoothing.
type Runner struct {
	chain    *ik.Chain
	tracker  *Tracker
	renderer render.Renderer
	opts     Options
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewRunner wires the pieces together. A nil renderer discards frames.
func NewRunner(chain *ik.Chain, tracker *Tracker, renderer render.Renderer, opts Options) *Runner {
	if renderer == nil {
		renderer = render.NopRenderer{}
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		chain:    chain,
		tracker:  tracker,
		renderer: renderer,
		opts:     opts,
		logger:   logger.Named("simulation").With(zap.String("run_id", opts.RunID)),
	}
	if opts.FPS > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.FPS), 1)
	}
	return r
}

// RunID identifies this run in logs and JSONL output.
func (r *Runner) RunID() string { return r.opts.RunID }

// Run executes the loop until MaxFrames, input exhaustion (with
// StopOnInputEOF), or ctx cancellation. Cancellation is a normal stop.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(loopCtx)
	goals := make(chan geometry.Vector2D, 64)

	if r.opts.Source != nil {
		g.Go(func() error {
			defer close(goals)
			err := r.opts.Source.Run(gctx, goals)
			if err != nil && gctx.Err() != nil {
				// shutting down
				return nil
			}
			return err
		})
	} else {
		close(goals)
	}

	var summary Summary
	g.Go(func() error {
		// Ending the loop stops the source too.
		defer stop()
		var err error
		summary, err = r.loop(gctx, goals)
		return err
	})

	err := g.Wait()
	summary.RunID = r.opts.RunID
	r.logger.Info("Simulation finished",
		zap.Int("frames", summary.Frames),
		zap.Int("solved", summary.SolvedFrames),
		zap.Int("held", summary.HeldFrames),
		zap.Int("fallback", summary.FallbackFrames),
		zap.Int("goals", summary.Goals))
	return summary, err
}

func (r *Runner) loop(ctx context.Context, goals <-chan geometry.Vector2D) (Summary, error) {
	var summary Summary
	inputOpen := r.opts.Source != nil
	// first frame rendered with the arm settled on the last known goal
	settleBy := r.opts.Script.LastFrame() + r.settleFrames()

	for frame := 0; r.opts.MaxFrames == 0 || frame < r.opts.MaxFrames; frame++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return summary, nil
			}
		} else if ctx.Err() != nil {
			return summary, nil
		}

		inputOpen = r.drain(goals, frame, &summary, &settleBy, inputOpen)
		if p, ok := r.opts.Script.At(frame); ok {
			r.setGoal(p, frame, &summary, &settleBy)
		}

		pose := r.chain.Update(r.tracker.Current())
		_, hasJoint := r.chain.Joint()
		switch {
		case pose.Solved:
			summary.SolvedFrames++
		case hasJoint:
			summary.HeldFrames++
		default:
			summary.FallbackFrames++
		}
		summary.LastPose = pose
		summary.Frames++

		if err := r.renderer.RenderFrame(ctx, render.NewFrame(frame, r.chain, r.tracker.Goal())); err != nil {
			return summary, fmt.Errorf("render frame %d: %w", frame, err)
		}
		r.tracker.Advance(frame)

		if r.opts.StopOnInputEOF && !inputOpen && frame >= settleBy {
			r.logger.Debug("Input exhausted and arm settled", zap.Int("frame", frame))
			return summary, nil
		}
	}
	return summary, nil
}

// drain applies every goal already queued without blocking and reports
// whether the source is still open.
func (r *Runner) drain(goals <-chan geometry.Vector2D, frame int, summary *Summary, settleBy *int, open bool) bool {
	if !open {
		return false
	}
	for {
		select {
		case p, ok := <-goals:
			if !ok {
				return false
			}
			r.setGoal(p, frame, summary, settleBy)
		default:
			return true
		}
	}
}

func (r *Runner) setGoal(p geometry.Vector2D, frame int, summary *Summary, settleBy *int) {
	r.tracker.SetGoal(p, frame)
	summary.Goals++
	if s := frame + r.settleFrames(); s > *settleBy {
		*settleBy = s
	}
	r.logger.Debug("New goal", zap.Int("frame", frame), zap.Float64("x", p.X), zap.Float64("y", p.Y))
}

// settleFrames is how many frames after a goal change the smoothed point is
// first rendered on the goal: it lands during Advance of the last easing
// frame and is solved for on the next one.
func (r *Runner) settleFrames() int {
	if r.tracker.lerpFrames <= 0 {
		return 1
	}
	return int(math.Ceil(r.tracker.lerpFrames)) + 1
}
