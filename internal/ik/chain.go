// internal/ik/chain.go
package ik

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ikarm/internal/geometry"
)

// State tracks whether a chain has ever found an elbow position.
type State int

const (
	// NoJointYet is the initial state. Update falls back to the origin here.
	NoJointYet State = iota
	// HasJoint is entered on the first solvable update and never left.
	HasJoint
)

func (s State) String() string {
	switch s {
	case NoJointYet:
		return "no_joint_yet"
	case HasJoint:
		return "has_joint"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ElbowMode selects the radii used when intersecting the reach circles.
type ElbowMode string

const (
	// ElbowHalfRadius intersects circles of half the segment lengths. This is
	// the default and gives the loose, mid-line biased bend.
	ElbowHalfRadius ElbowMode = "half"
	// ElbowExact intersects circles of the full segment lengths, which is
	// textbook two-bone IK.
	ElbowExact ElbowMode = "exact"
)

// ParseElbowMode accepts "half" or "exact". The empty string means half.
func ParseElbowMode(s string) (ElbowMode, error) {
	switch ElbowMode(s) {
	case "", ElbowHalfRadius:
		return ElbowHalfRadius, nil
	case ElbowExact:
		return ElbowExact, nil
	default:
		return "", fmt.Errorf("unknown elbow mode %q (want %q or %q)", s, ElbowHalfRadius, ElbowExact)
	}
}

// Pose is what a single Update produces.
type Pose struct {
	Joint      geometry.Vector2D `json:"joint"`
	JointAngle float64           `json:"joint_angle"`
	RootAngle  float64           `json:"root_angle"`
	// Solved is false when the reach circles did not meet and Joint is the
	// held or default value.
	Solved bool `json:"solved"`
}

// Chain is a two-segment planar arm anchored at Root. It is not safe for
// concurrent use; each caller owns its own chain.
type Chain struct {
	root     geometry.Vector2D
	target   geometry.Vector2D
	seg1     float64
	seg2     float64
	mode     ElbowMode
	logger   *zap.Logger
	joint    geometry.Vector2D
	hasJoint bool
	solved   bool

	jointAngle float64
	rootAngle  float64
}

// Option configures a Chain.
type Option func(*Chain)

// WithElbowMode overrides the default half-radius elbow heuristic.
func WithElbowMode(mode ElbowMode) Option {
	return func(c *Chain) { c.mode = mode }
}

// WithLogger attaches a logger. Chains log only at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChain creates a chain with fixed segment lengths.
func NewChain(root geometry.Vector2D, segment1Length, segment2Length float64, opts ...Option) *Chain {
	c := &Chain{
		root:   root,
		target: root,
		seg1:   segment1Length,
		seg2:   segment2Length,
		mode:   ElbowHalfRadius,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("ik-chain")
	return c
}

func (c *Chain) Root() geometry.Vector2D   { return c.root }
func (c *Chain) Target() geometry.Vector2D { return c.target }
func (c *Chain) Segment1Length() float64   { return c.seg1 }
func (c *Chain) Segment2Length() float64   { return c.seg2 }
func (c *Chain) Mode() ElbowMode           { return c.mode }
func (c *Chain) JointAngle() float64       { return c.jointAngle }
func (c *Chain) RootAngle() float64        { return c.rootAngle }

// SetRoot moves the anchor. The held joint is kept as the continuity hint.
func (c *Chain) SetRoot(root geometry.Vector2D) { c.root = root }

// Joint returns the last chosen elbow, and false if none was ever found.
func (c *Chain) Joint() (geometry.Vector2D, bool) { return c.joint, c.hasJoint }

// State reports NoJointYet until the first solvable update.
func (c *Chain) State() State {
	if c.hasJoint {
		return HasJoint
	}
	return NoJointYet
}

// Pose returns the result of the last Update without recomputing it.
func (c *Chain) Pose() Pose {
	return Pose{Joint: c.joint, JointAngle: c.jointAngle, RootAngle: c.rootAngle, Solved: c.solved}
}

// Circles returns the two reach circles Update intersects for target.
func (c *Chain) Circles(target geometry.Vector2D) (geometry.Circle, geometry.Circle) {
	r1, r2 := c.seg1, c.seg2
	if c.mode != ElbowExact {
		r1, r2 = r1/2, r2/2
	}
	return geometry.Circle{Center: c.root, Radius: r1}, geometry.Circle{Center: target, Radius: r2}
}

// Update aims the chain at target and returns the new pose.
//
// The elbow is the first kernel candidate. When the circles do not meet the
// previous elbow is held, or the origin is used if there never was one; the
// returned pose has Solved=false in that case. Update never fails, though
// degenerate inputs can yield NaN angles.
func (c *Chain) Update(target geometry.Vector2D) Pose {
	c.target = target

	c1, c2 := c.Circles(target)
	candidate, solved := geometry.IntersectCircles(c1, c2).First()
	switch {
	case solved:
		if !c.hasJoint {
			c.logger.Debug("first elbow found",
				zap.String("state", HasJoint.String()),
				zap.Float64("x", candidate.X), zap.Float64("y", candidate.Y))
		}
		c.joint = candidate
		c.hasJoint = true
	case c.hasJoint:
		c.logger.Debug("target out of reach, holding elbow",
			zap.Float64("target_x", target.X), zap.Float64("target_y", target.Y))
	default:
		c.joint = geometry.Vector2D{}
		c.logger.Debug("target out of reach and no elbow yet, using origin",
			zap.Float64("target_x", target.X), zap.Float64("target_y", target.Y))
	}

	c.solved = solved
	c.jointAngle = JointAngle(c.root, c.joint, c.target)
	c.rootAngle = RootAngle(c.root, c.joint)

	return c.Pose()
}

// JointAngle is the signed bend at joint between the line root-joint and the
// line joint-target, in (-Pi, Pi). Each segment's direction is folded onto a
// half turn so the result matches the slope form
// atan2(m2-m1, 1+m1*m2) wherever slopes exist, and stays finite for vertical
// segments.
func JointAngle(root, joint, target geometry.Vector2D) float64 {
	upper := lineAngle(joint.Sub(root))
	lower := lineAngle(target.Sub(joint))
	return upper - lower
}

// RootAngle is the direction from root to joint plus a half turn.
func RootAngle(root, joint geometry.Vector2D) float64 {
	return math.Pi + joint.Sub(root).Angle()
}

// lineAngle maps a direction onto (-Pi/2, Pi/2], i.e. atan of its slope.
func lineAngle(d geometry.Vector2D) float64 {
	a := d.Angle()
	if a > math.Pi/2 {
		a -= math.Pi
	} else if a <= -math.Pi/2 {
		a += math.Pi
	}
	return a
}
