// internal/render/scene.go
package render

import "github.com/xkilldash9x/ikarm/internal/geometry"

// PrimitiveKind names a drawing instruction.
type PrimitiveKind string

const (
	KindCircle PrimitiveKind = "circle"
	KindLine   PrimitiveKind = "line"
	KindText   PrimitiveKind = "text"
)

// Style constants of the reference drawing.
const (
	JointMarkerDiameter = 20.0
	LabelSize           = 40.0
	ReachStrokeWeight   = 2.0
	LimbStrokeWeight    = 4.0
)

// Primitive is one draw call. Only the fields relevant to Kind are set.
type Primitive struct {
	Kind PrimitiveKind `json:"kind"`
	// Circle: At is the center, Diameter the size passed to the drawing call.
	At       geometry.Vector2D `json:"at"`
	Diameter float64           `json:"diameter,omitempty"`
	Filled   bool              `json:"filled,omitempty"`
	// Line
	To geometry.Vector2D `json:"to,omitempty"`
	// Text is drawn with its top-left corner at At.
	Text   string  `json:"text,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Stroke float64 `json:"stroke,omitempty"`
}

// Scene returns the draw list for frame, in drawing order: the two reach
// outlines, then (once a joint exists) the joint marker, both limbs and the
// two angle labels.
func Scene(frame Frame) []Primitive {
	prims := []Primitive{
		{Kind: KindCircle, At: frame.Target, Diameter: frame.Segment2Length, Stroke: ReachStrokeWeight},
		{Kind: KindCircle, At: frame.Root, Diameter: frame.Segment1Length, Stroke: ReachStrokeWeight},
	}
	if !frame.HasJoint {
		return prims
	}

	j := frame.Joint
	return append(prims,
		Primitive{Kind: KindCircle, At: j, Diameter: JointMarkerDiameter, Filled: true},
		Primitive{Kind: KindLine, At: frame.Root, To: j, Stroke: LimbStrokeWeight},
		Primitive{Kind: KindLine, At: j, To: frame.Target, Stroke: LimbStrokeWeight},
		Primitive{Kind: KindText, At: j.Add(geometry.Vector2D{X: 10, Y: 10}), Text: AngleLabel(frame.JointAngle), Size: LabelSize},
		Primitive{Kind: KindText, At: frame.Root.Add(geometry.Vector2D{X: 10, Y: -50}), Text: AngleLabel(frame.RootAngle), Size: LabelSize},
	)
}
