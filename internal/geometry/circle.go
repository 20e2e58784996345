// internal/geometry/circle.go
package geometry

import "math"

// Circle is a center and a radius. Radii are expected to be non-negative;
// nothing here checks that.
type Circle struct {
	Center Vector2D
	Radius float64
}

// Intersection holds the result of IntersectCircles: either no points, or
// exactly two. Tangent circles still produce two (coincident) points.
type Intersection struct {
	points [2]Vector2D
	ok     bool
}

// Len is 0 or 2.
func (in Intersection) Len() int {
	if !in.ok {
		return 0
	}
	return 2
}

// Empty reports whether the circles do not meet.
func (in Intersection) Empty() bool { return !in.ok }

// Points returns the candidates in kernel order. The slice is nil when empty.
func (in Intersection) Points() []Vector2D {
	if !in.ok {
		return nil
	}
	return []Vector2D{in.points[0], in.points[1]}
}

// First returns the first candidate, if any.
func (in Intersection) First() (Vector2D, bool) {
	if !in.ok {
		return Vector2D{}, false
	}
	return in.points[0], true
}

// Second returns the mirror candidate, if any.
func (in Intersection) Second() (Vector2D, bool) {
	if !in.ok {
		return Vector2D{}, false
	}
	return in.points[1], true
}

// Tangent reports whether the two points coincide within eps.
func (in Intersection) Tangent(eps float64) bool {
	return in.ok && in.points[0].ApproxEqual(in.points[1], eps)
}

// IntersectCircles returns the points where c1 and c2 cross.
//
// With R the center distance, the circles meet iff |r1-r2| <= R <= r1+r2.
// The points are f ± g where f lies on the center line, offset from the
// midpoint by a = (r1²-r2²)/(2R²), and g is perpendicular to it with
// length scaled by sqrt(2(r1²+r2²)/R² - (r1²-r2²)²/R⁴ - 1)/2.
// The first point is f + g with g = c·((y2-y1), (x1-x2))/2.
func IntersectCircles(c1, c2 Circle) Intersection {
	x1, y1, r1 := c1.Center.X, c1.Center.Y, c1.Radius
	x2, y2, r2 := c2.Center.X, c2.Center.Y, c2.Radius

	R := math.Hypot(x1-x2, y1-y2)
	if !(math.Abs(r1-r2) <= R && R <= r1+r2) {
		return Intersection{}
	}
	// Coincident centers: either no points or infinitely many, neither of
	// which the construction below can express.
	if R == 0 {
		return Intersection{}
	}

	R2 := R * R
	R4 := R2 * R2
	diff := r1*r1 - r2*r2
	a := diff / (2 * R2)

	radicand := 2*(r1*r1+r2*r2)/R2 - (diff*diff)/R4 - 1
	if radicand < 0 {
		// rounding near tangency
		radicand = 0
	}
	c := math.Sqrt(radicand)

	fx := (x1+x2)/2 + a*(x2-x1)
	fy := (y1+y2)/2 + a*(y2-y1)
	gx := c * (y2 - y1) / 2
	gy := c * (x1 - x2) / 2

	return Intersection{
		points: [2]Vector2D{
			{X: fx + gx, Y: fy + gy},
			{X: fx - gx, Y: fy - gy},
		},
		ok: true,
	}
}
