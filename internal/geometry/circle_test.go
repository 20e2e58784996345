// internal/geometry/circle_test.go
package geometry

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-6

// relTol scales the tolerance to the size of the figure.
func relTol(scale float64) float64 {
	return tol * math.Max(1, scale)
}

func sortedPoints(pts []Vector2D) []Vector2D {
	out := append([]Vector2D(nil), pts...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

func TestIntersectCircles_ArmScenario(t *testing.T) {
	// root (0,0), target (600,0), segment lengths 800 halved to 400.
	c1 := Circle{Center: Vector2D{X: 0, Y: 0}, Radius: 400}
	c2 := Circle{Center: Vector2D{X: 600, Y: 0}, Radius: 400}

	res := IntersectCircles(c1, c2)
	require.Equal(t, 2, res.Len())

	first, ok := res.First()
	require.True(t, ok)
	second, _ := res.Second()

	want := math.Sqrt(400*400 - 300*300)
	assert.InDelta(t, 300, first.X, 1e-9)
	assert.InDelta(t, -want, first.Y, 1e-9, "first point sits on the negative-y side")
	assert.InDelta(t, 300, second.X, 1e-9)
	assert.InDelta(t, want, second.Y, 1e-9)
	assert.InDelta(t, 264.575, second.Y, 1e-3)
}

func TestIntersectCircles_NoIntersection(t *testing.T) {
	tests := []struct {
		name   string
		c1, c2 Circle
	}{
		{"too far apart", Circle{Vector2D{0, 0}, 400}, Circle{Vector2D{2000, 0}, 400}},
		{"contained", Circle{Vector2D{0, 0}, 100}, Circle{Vector2D{10, 0}, 20}},
		{"contained reversed", Circle{Vector2D{10, 0}, 20}, Circle{Vector2D{0, 0}, 100}},
		{"concentric unequal", Circle{Vector2D{5, 5}, 10}, Circle{Vector2D{5, 5}, 3}},
		{"concentric equal", Circle{Vector2D{5, 5}, 10}, Circle{Vector2D{5, 5}, 10}},
		{"zero radii apart", Circle{Vector2D{0, 0}, 0}, Circle{Vector2D{1, 0}, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := IntersectCircles(tt.c1, tt.c2)
			assert.True(t, res.Empty())
			assert.Equal(t, 0, res.Len())
			assert.Nil(t, res.Points())
			_, ok := res.First()
			assert.False(t, ok)
		})
	}
}

func TestIntersectCircles_Tangent(t *testing.T) {
	t.Run("External", func(t *testing.T) {
		res := IntersectCircles(Circle{Vector2D{0, 0}, 100}, Circle{Vector2D{200, 0}, 100})
		require.Equal(t, 2, res.Len(), "tangency still yields two points")
		assert.True(t, res.Tangent(tol))
		p, _ := res.First()
		assert.InDelta(t, 100, p.X, tol)
		assert.InDelta(t, 0, p.Y, tol)
	})

	t.Run("Internal", func(t *testing.T) {
		res := IntersectCircles(Circle{Vector2D{0, 0}, 100}, Circle{Vector2D{50, 0}, 50})
		require.Equal(t, 2, res.Len())
		assert.True(t, res.Tangent(tol))
		p, _ := res.First()
		assert.InDelta(t, 100, p.X, tol)
		assert.InDelta(t, 0, p.Y, tol)
	})

	t.Run("Diagonal", func(t *testing.T) {
		// 3-4-5 placement so the distance is exact.
		res := IntersectCircles(Circle{Vector2D{0, 0}, 2}, Circle{Vector2D{3, 4}, 3})
		require.Equal(t, 2, res.Len())
		assert.True(t, res.Tangent(tol))
	})
}

func TestIntersectCircles_PointsLieOnBothCircles(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	checked := 0

	for i := 0; i < 5000; i++ {
		c1 := Circle{
			Center: Vector2D{X: rng.Float64()*2000 - 1000, Y: rng.Float64()*2000 - 1000},
			Radius: rng.Float64() * 800,
		}
		c2 := Circle{
			Center: Vector2D{X: rng.Float64()*2000 - 1000, Y: rng.Float64()*2000 - 1000},
			Radius: rng.Float64() * 800,
		}
		R := c1.Center.Dist(c2.Center)
		lo, hi := math.Abs(c1.Radius-c2.Radius), c1.Radius+c2.Radius

		res := IntersectCircles(c1, c2)
		switch {
		case R > lo && R < hi:
			require.Equal(t, 2, res.Len(), "case %d: expected two points", i)
			scale := math.Max(c1.Radius, c2.Radius)
			for _, p := range res.Points() {
				assert.InDelta(t, c1.Radius, p.Dist(c1.Center), relTol(scale))
				assert.InDelta(t, c2.Radius, p.Dist(c2.Center), relTol(scale))
			}
			checked++
		case R > hi || R < lo:
			assert.True(t, res.Empty(), "case %d: expected no points", i)
		}
	}
	assert.Greater(t, checked, 100, "the sweep should hit plenty of crossing pairs")
}

func TestIntersectCircles_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		c1 := Circle{Vector2D{rng.Float64() * 500, rng.Float64() * 500}, 50 + rng.Float64()*300}
		c2 := Circle{Vector2D{rng.Float64() * 500, rng.Float64() * 500}, 50 + rng.Float64()*300}

		ab := IntersectCircles(c1, c2)
		ba := IntersectCircles(c2, c1)
		require.Equal(t, ab.Len(), ba.Len())
		if ab.Empty() {
			continue
		}

		left, right := sortedPoints(ab.Points()), sortedPoints(ba.Points())
		for k := range left {
			assert.True(t, left[k].ApproxEqual(right[k], relTol(500)),
				"case %d: %v vs %v", i, left, right)
		}
	}
}

func TestIntersectCircles_RoundingNearTangency(t *testing.T) {
	// Distances a hair inside the band must never produce NaN.
	for _, d := range []float64{0.1 + 0.2, 0.3, 1 - 1e-15, 1e-12} {
		res := IntersectCircles(Circle{Vector2D{0, 0}, 0.1}, Circle{Vector2D{d, 0}, 0.2})
		for _, p := range res.Points() {
			assert.True(t, p.IsFinite(), "distance %v produced %v", d, p)
		}
	}
}

type circlePair struct {
	X1, Y1, R1 float64
	X2, Y2, R2 float64
}

func (c circlePair) usable() bool {
	for _, f := range []float64{c.X1, c.Y1, c.R1, c.X2, c.Y2, c.R2} {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > 1e6 {
			return false
		}
	}
	return math.Hypot(c.X1-c.X2, c.Y1-c.Y2) > 1e-6
}

// FuzzIntersectCircles checks that the kernel never panics and only ever
// returns zero or two finite points for sane inputs.
func FuzzIntersectCircles(f *testing.F) {
	f.Add([]byte("seed-arm-scenario-0000000000000000000000000000000000000000"))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		pair := circlePair{}
		if err := consumer.GenerateStruct(&pair); err != nil {
			return
		}
		if !pair.usable() {
			return
		}

		c1 := Circle{Vector2D{pair.X1, pair.Y1}, math.Abs(pair.R1)}
		c2 := Circle{Vector2D{pair.X2, pair.Y2}, math.Abs(pair.R2)}
		res := IntersectCircles(c1, c2)

		if res.Len() != 0 && res.Len() != 2 {
			t.Fatalf("unexpected point count %d", res.Len())
		}
		for _, p := range res.Points() {
			if !p.IsFinite() {
				t.Fatalf("non-finite intersection %v for %+v", p, pair)
			}
		}
	})
}
