// File: cmd/simulate.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ikarm/internal/config"
	"github.com/xkilldash9x/ikarm/internal/input"
	"github.com/xkilldash9x/ikarm/internal/observability"
	"github.com/xkilldash9x/ikarm/internal/render"
	"github.com/xkilldash9x/ikarm/internal/simulation"
)

// newSimulateCmd creates the `simulate` command, the frame loop of the
// interactive sketch without a window: goals come from the scripted clicks,
// stdin or a followed file, and frames go to the renderer.
func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the arm frame by frame toward scripted or streamed goals",
		Long: `Simulate runs the frame loop: each frame the arm is solved for the smoothed
pointer position, the frame is rendered, and the smoothing advances toward the
latest goal. Goals come from the configured clicks (--input script), lines of
"x y" on stdin (--input stdin) or lines appended to a file (--input file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			_, err = runSimulate(ctx, cfg, observability.GetLogger(), cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().Float64("fps", 0, "Frames per second; 0 runs unpaced. (Overrides config/env)")
	cmd.Flags().Int("frames", 0, "Stop after this many frames; 0 means no limit. (Overrides config/env)")
	cmd.Flags().Float64("lerp", 0, "Frames the smoothing takes to reach a new goal. (Overrides config/env)")
	cmd.Flags().Bool("stop-on-eof", false, "Stop once input is exhausted and the arm has settled. (Overrides config/env)")
	cmd.Flags().StringP("format", "f", "", "Output format: 'text', 'jsonl' or 'none'. (Overrides config/env)")
	cmd.Flags().StringP("output", "o", "", "Output file, '-' for stdout. (Overrides config/env)")
	cmd.Flags().Int("every", 0, "Render only every Nth frame. (Overrides config/env)")
	cmd.Flags().String("input", "", "Goal source: 'script', 'stdin' or 'file'. (Overrides config/env)")
	cmd.Flags().String("input-file", "", "File to follow when --input is 'file'. (Overrides config/env)")
	cmd.Flags().Bool("from-start", false, "Replay the followed file from its beginning. (Overrides config/env)")
	cmd.Flags().String("elbow", "", "Elbow mode, 'half' or 'exact'. (Overrides config/env)")

	return cmd
}

// runSimulate wires chain, smoothing, input and renderer together and runs
// the loop until it stops or ctx is cancelled.
func runSimulate(ctx context.Context, cfg config.Interface, logger *zap.Logger, stdin io.Reader, stdout io.Writer) (simulation.Summary, error) {
	chain, err := newChain(cfg.Chain(), logger)
	if err != nil {
		return simulation.Summary{}, err
	}

	sim := cfg.Simulation()
	root := cfg.Chain().Root
	if root.X < 0 || root.Y < 0 || root.X > float64(sim.CanvasWidth) || root.Y > float64(sim.CanvasHeight) {
		logger.Warn("Chain root lies outside the canvas",
			zap.Float64("root_x", root.X), zap.Float64("root_y", root.Y),
			zap.Int("canvas_width", sim.CanvasWidth), zap.Int("canvas_height", sim.CanvasHeight))
	}

	runID := uuid.NewString()
	renderer, err := render.New(cfg.Render(), stdout, runID)
	if err != nil {
		return simulation.Summary{}, fmt.Errorf("failed to initialize renderer: %w", err)
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Error("Failed to close renderer", zap.Error(err))
		}
	}()

	source, err := input.FromConfig(cfg.Input(), stdin, logger)
	if err != nil {
		return simulation.Summary{}, fmt.Errorf("failed to initialize input: %w", err)
	}
	var script *input.Script
	if source == nil {
		script = input.NewScript(sim.Clicks)
	}

	logger.Info("Starting simulation",
		zap.String("run_id", runID),
		zap.String("input", cfg.Input().Kind),
		zap.String("format", cfg.Render().Format),
		zap.Float64("fps", sim.FPS),
		zap.Int("max_frames", sim.MaxFrames))

	runner := simulation.NewRunner(chain, simulation.NewTracker(sim.Start, sim.LerpFrames), renderer, simulation.Options{
		MaxFrames:      sim.MaxFrames,
		FPS:            sim.FPS,
		StopOnInputEOF: sim.StopOnInputEOF,
		Script:         script,
		Source:         source,
		RunID:          runID,
		Logger:         logger,
	})
	summary, err := runner.Run(ctx)
	if err != nil {
		return summary, fmt.Errorf("simulation failed: %w", err)
	}
	return summary, nil
}
