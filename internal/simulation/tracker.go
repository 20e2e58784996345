// internal/simulation/tracker.go
package simulation

import "github.com/xkilldash9x/ikarm/internal/geometry"

// Tracker smooths the arm's target toward the latest pointer goal. It holds
// the timing state (frame of the last goal change) that a sketch would keep
// in globals.
type Tracker struct {
	current    geometry.Vector2D
	goal       geometry.Vector2D
	changedAt  int
	lerpFrames float64
}

// NewTracker starts at rest on start. lerpFrames <= 0 makes goals snap.
func NewTracker(start geometry.Vector2D, lerpFrames float64) *Tracker {
	return &Tracker{current: start, goal: start, lerpFrames: lerpFrames}
}

func (t *Tracker) Current() geometry.Vector2D { return t.current }
func (t *Tracker) Goal() geometry.Vector2D    { return t.goal }
func (t *Tracker) ChangedAt() int             { return t.changedAt }

// SetGoal records a new goal at frame. The current point is left where it is.
func (t *Tracker) SetGoal(goal geometry.Vector2D, frame int) {
	t.goal = goal
	t.changedAt = frame
}

// Advance moves the current point toward the goal by
// (frame - changedAt) / lerpFrames, clamped to [0, 1], and returns it.
// The fraction grows every frame, so the point eases in and lands exactly on
// the goal lerpFrames frames after the change.
func (t *Tracker) Advance(frame int) geometry.Vector2D {
	amt := 1.0
	if t.lerpFrames > 0 {
		amt = float64(frame-t.changedAt) / t.lerpFrames
	}
	switch {
	case amt >= 1:
		t.current = t.goal
	case amt > 0:
		t.current = t.current.Lerp(t.goal, amt)
	}
	return t.current
}

// Settled reports whether the current point has reached the goal.
func (t *Tracker) Settled() bool { return t.current == t.goal }
