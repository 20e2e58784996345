// internal/geometry/vector_test.go
package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector2D_Operations(t *testing.T) {
	v1 := Vector2D{X: 3, Y: 4}
	v2 := Vector2D{X: 1, Y: 2}

	t.Run("Add", func(t *testing.T) {
		assert.Equal(t, Vector2D{X: 4, Y: 6}, v1.Add(v2))
	})

	t.Run("Sub", func(t *testing.T) {
		assert.Equal(t, Vector2D{X: 2, Y: 2}, v1.Sub(v2))
	})

	t.Run("Mul", func(t *testing.T) {
		assert.Equal(t, Vector2D{X: 6, Y: 8}, v1.Mul(2.0))
	})

	t.Run("Dot", func(t *testing.T) {
		assert.Equal(t, 11.0, v1.Dot(v2))
	})

	t.Run("Mag", func(t *testing.T) {
		assert.Equal(t, 25.0, v1.MagSq())
		assert.Equal(t, 5.0, v1.Mag())
	})

	t.Run("Dist", func(t *testing.T) {
		assert.InDelta(t, math.Sqrt(8.0), v1.Dist(v2), 1e-9)
	})

	t.Run("Angle", func(t *testing.T) {
		assert.InDelta(t, math.Pi/4, Vector2D{X: 1, Y: 1}.Angle(), 1e-9)
		assert.InDelta(t, math.Pi/2, Vector2D{X: 0, Y: 1}.Angle(), 1e-9)
	})
}

func TestVector2D_Normalize(t *testing.T) {
	norm := Vector2D{X: 3, Y: 4}.Normalize()
	assert.InDelta(t, 1.0, norm.Mag(), 1e-9)
	assert.InDelta(t, 0.6, norm.X, 1e-9)

	assert.Equal(t, Vector2D{}, Vector2D{}.Normalize())
}

func TestVector2D_Lerp(t *testing.T) {
	a := Vector2D{X: 0, Y: 0}
	b := Vector2D{X: 100, Y: -50}

	assert.Equal(t, a, a.Lerp(b, 0))
	assert.Equal(t, b, a.Lerp(b, 1))
	assert.Equal(t, Vector2D{X: 25, Y: -12.5}, a.Lerp(b, 0.25))
}

func TestVector2D_IsFinite(t *testing.T) {
	assert.True(t, Vector2D{X: 1, Y: -1}.IsFinite())
	assert.False(t, Vector2D{X: math.NaN(), Y: 0}.IsFinite())
	assert.False(t, Vector2D{X: 0, Y: math.Inf(-1)}.IsFinite())
}
