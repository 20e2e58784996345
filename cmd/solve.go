// File: cmd/solve.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ikarm/internal/config"
	"github.com/xkilldash9x/ikarm/internal/geometry"
	"github.com/xkilldash9x/ikarm/internal/ik"
	"github.com/xkilldash9x/ikarm/internal/observability"
	"github.com/xkilldash9x/ikarm/internal/render"
)

// newSolveCmd creates the `solve` command: aim the configured arm at one
// point and print the resulting pose.
func newSolveCmd() *cobra.Command {
	var x, y float64
	var times int

	cmd := &cobra.Command{
		Use:   "solve --x <x> --y <y>",
		Short: "Solve the arm for a single target point",
		Long: `Solve aims the configured two-link arm at (x, y) and prints the pose in the
configured render format. With --times N the same target is solved N times,
printing one frame per solve.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runSolve(ctx, cfg, observability.GetLogger(), cmd.OutOrStdout(), geometry.Vector2D{X: x, Y: y}, times)
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "Target x coordinate (required)")
	cmd.Flags().Float64Var(&y, "y", 0, "Target y coordinate (required)")
	cmd.Flags().IntVar(&times, "times", 1, "Number of times to solve the same target")
	cmd.Flags().String("elbow", "", "Elbow mode, 'half' or 'exact'. (Overrides config/env)")
	cmd.Flags().StringP("format", "f", "", "Output format: 'text', 'jsonl' or 'none'. (Overrides config/env)")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")

	return cmd
}

// runSolve holds the solve logic, decoupled from cobra.
func runSolve(ctx context.Context, cfg config.Interface, logger *zap.Logger, out io.Writer, target geometry.Vector2D, times int) error {
	if times < 1 {
		return fmt.Errorf("--times must be at least 1, got %d", times)
	}

	chain, err := newChain(cfg.Chain(), logger)
	if err != nil {
		return err
	}

	// Solve always prints to out; render.output only applies to simulate.
	renderCfg := cfg.Render()
	renderCfg.Output = "-"
	renderCfg.EveryN = 1
	renderer, err := render.New(renderCfg, out, uuid.NewString())
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	defer renderer.Close()

	for i := 0; i < times; i++ {
		pose := chain.Update(target)
		if err := renderer.RenderFrame(ctx, render.NewFrame(i, chain, target)); err != nil {
			return fmt.Errorf("failed to render pose: %w", err)
		}
		logger.Debug("Solved target",
			zap.Int("iteration", i),
			zap.Bool("solved", pose.Solved),
			zap.String("state", chain.State().String()))
	}
	return nil
}

// newChain builds the arm described by cfg.
func newChain(cfg config.ChainConfig, logger *zap.Logger) (*ik.Chain, error) {
	mode, err := ik.ParseElbowMode(cfg.ElbowMode)
	if err != nil {
		return nil, err
	}
	return ik.NewChain(cfg.Root, cfg.Segment1Length, cfg.Segment2Length,
		ik.WithElbowMode(mode), ik.WithLogger(logger)), nil
}
