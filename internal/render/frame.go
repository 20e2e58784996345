// internal/render/frame.go
package render

import (
	"context"
	"fmt"
	"math"

	"github.com/xkilldash9x/ikarm/internal/geometry"
	"github.com/xkilldash9x/ikarm/internal/ik"
)

// Frame is everything a renderer needs to draw one step of the arm.
type Frame struct {
	Index          int
	Root           geometry.Vector2D
	Target         geometry.Vector2D
	Goal           geometry.Vector2D
	Joint          geometry.Vector2D
	JointAngle     float64
	RootAngle      float64
	Segment1Length float64
	Segment2Length float64
	// Solved is false when this frame's target was out of reach.
	Solved bool
	// HasJoint is false until the chain has found an elbow at least once.
	HasJoint bool
}

// NewFrame snapshots chain after an Update. goal is the unsmoothed pointer position.
func NewFrame(index int, chain *ik.Chain, goal geometry.Vector2D) Frame {
	pose := chain.Pose()
	_, hasJoint := chain.Joint()
	return Frame{
		Index:          index,
		Root:           chain.Root(),
		Target:         chain.Target(),
		Goal:           goal,
		Joint:          pose.Joint,
		JointAngle:     pose.JointAngle,
		RootAngle:      pose.RootAngle,
		Segment1Length: chain.Segment1Length(),
		Segment2Length: chain.Segment2Length(),
		Solved:         pose.Solved,
		HasJoint:       hasJoint,
	}
}

// Renderer consumes frames. Implementations need not be safe for concurrent use.
type Renderer interface {
	RenderFrame(ctx context.Context, frame Frame) error
	Close() error
}

// AngleDegrees converts radians to the on-screen label value:
// round(((deg - 720) mod 180)) where mod keeps the sign of the dividend and
// halves round up. The result is an integer in [-180, 180].
func AngleDegrees(rad float64) float64 {
	return roundHalfUp(math.Mod(180*rad/math.Pi-720, 180))
}

func roundHalfUp(v float64) float64 {
	v = math.Floor(v + 0.5)
	if v == 0 {
		// no "-0" labels
		return 0
	}
	return v
}

// AngleLabel formats an angle the way it is drawn next to a joint, e.g. "-41º".
func AngleLabel(rad float64) string {
	return fmt.Sprintf("%.0fº", AngleDegrees(rad))
}
