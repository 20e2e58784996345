// internal/simulation/runner_test.go
package simulation

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/ikarm/internal/config"
	"github.com/xkilldash9x/ikarm/internal/geometry"
	"github.com/xkilldash9x/ikarm/internal/ik"
	"github.com/xkilldash9x/ikarm/internal/input"
)

func vec(x, y float64) geometry.Vector2D { return geometry.Vector2D{X: x, Y: y} }

func newRendererOK() *mockRenderer {
	m := &mockRenderer{}
	m.On("RenderFrame", mock.Anything, mock.Anything).Return(nil)
	return m
}

func TestRunner_ScriptedHoldsElbowOutOfReach(t *testing.T) {
	chain := ik.NewChain(vec(600, 600), 800, 800)
	tracker := NewTracker(vec(600, 300), 1)
	renderer := newRendererOK()
	script := input.NewScript([]config.ClickConfig{{Frame: 5, X: 2000, Y: 2000}})

	runner := NewRunner(chain, tracker, renderer, Options{MaxFrames: 10, Script: script, RunID: "fixed"})
	summary, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "fixed", summary.RunID)
	assert.Equal(t, 10, summary.Frames)
	assert.Equal(t, 7, summary.SolvedFrames, "frames 0-6 still aim at the start point")
	assert.Equal(t, 3, summary.HeldFrames)
	assert.Equal(t, 0, summary.FallbackFrames)
	assert.Equal(t, 1, summary.Goals)
	assert.False(t, summary.LastPose.Solved)

	frames := renderer.Frames()
	require.Len(t, frames, 10)
	for i, f := range frames {
		assert.Equal(t, i, f.Index)
	}
	assert.Equal(t, vec(2000, 2000), frames[5].Goal)
	assert.Equal(t, vec(600, 300), frames[6].Target, "smoothing lags one frame behind the click")
	assert.Equal(t, vec(2000, 2000), frames[7].Target)
	assert.Equal(t, frames[6].Joint, frames[9].Joint, "elbow holds while out of reach")
	renderer.AssertNumberOfCalls(t, "RenderFrame", 10)
}

func TestRunner_FallbackBeforeAnySolution(t *testing.T) {
	chain := ik.NewChain(vec(0, 0), 800, 800)
	renderer := newRendererOK()

	summary, err := NewRunner(chain, NewTracker(vec(5000, 0), 100), renderer, Options{MaxFrames: 3}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.FallbackFrames)
	assert.Equal(t, vec(0, 0), summary.LastPose.Joint)
	assert.NotEmpty(t, summary.RunID, "a run id is generated when none is given")
	for _, f := range renderer.Frames() {
		assert.False(t, f.HasJoint)
	}
}

func TestRunner_ReaderSourceStopsOnEOF(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chain := ik.NewChain(vec(600, 600), 800, 800)
	tracker := NewTracker(vec(600, 300), 2)
	src := input.NewReaderSource(strings.NewReader("700 300\n# comment\n650,320\n"), nil)

	summary, err := NewRunner(chain, tracker, nil, Options{Source: src, StopOnInputEOF: true}).Run(ctx)

	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "run should end on its own, not by timeout")
	assert.Equal(t, 2, summary.Goals)
	assert.Equal(t, vec(650, 320), tracker.Current(), "the arm settles on the last goal before stopping")
	assert.True(t, summary.LastPose.Solved)
	want := ik.NewChain(vec(600, 600), 800, 800).Update(vec(650, 320))
	assert.Equal(t, want.Joint, summary.LastPose.Joint, "the last frame is rendered on the goal")
}

func TestRunner_StopOnEOFWithScriptOnly(t *testing.T) {
	script := input.NewScript([]config.ClickConfig{{Frame: 2, X: 650, Y: 300}})
	tracker := NewTracker(vec(600, 300), 4)

	summary, err := NewRunner(ik.NewChain(vec(600, 600), 800, 800), tracker, nil,
		Options{Script: script, StopOnInputEOF: true}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 8, summary.Frames, "click at frame 2, 4 frames of easing, one frame on the goal")
	assert.True(t, tracker.Settled())
}

func TestRunner_RenderErrorStopsRun(t *testing.T) {
	renderer := &mockRenderer{}
	boom := errors.New("canvas lost")
	renderer.On("RenderFrame", mock.Anything, mock.Anything).Return(nil).Times(2)
	renderer.On("RenderFrame", mock.Anything, mock.Anything).Return(boom)

	summary, err := NewRunner(ik.NewChain(vec(600, 600), 800, 800), NewTracker(vec(600, 300), 10), renderer,
		Options{MaxFrames: 10}).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "render frame 2")
	assert.Equal(t, 3, summary.Frames)
}

func TestRunner_SourceErrorStopsRun(t *testing.T) {
	src := input.NewFollowSource(filepath.Join(t.TempDir(), "missing.txt"), true, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := NewRunner(ik.NewChain(vec(600, 600), 800, 800), NewTracker(vec(600, 300), 10), nil,
		Options{Source: src}).Run(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to follow input file")
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewRunner(ik.NewChain(vec(600, 600), 800, 800), NewTracker(vec(600, 300), 10), nil,
		Options{MaxFrames: 100}).Run(ctx)

	require.NoError(t, err, "cancellation is a normal stop")
	assert.Equal(t, 0, summary.Frames)
}

func TestRunner_Paced(t *testing.T) {
	start := time.Now()
	summary, err := NewRunner(ik.NewChain(vec(600, 600), 800, 800), NewTracker(vec(600, 300), 10), nil,
		Options{MaxFrames: 5, FPS: 200}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, summary.Frames)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond, "4 intervals of 5ms")
}
