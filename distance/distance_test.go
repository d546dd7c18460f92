package distance

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{1, 1, -2}, -4},
		{"Empty", []float32{}, []float32{}, 0},
		{"Single", []float32{2}, []float32{3}, 6},
		{"NotMultipleOfFour", []float32{1, 1, 1, 1, 1, 1, 1}, []float32{2, 2, 2, 2, 2, 2, 2}, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dot(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestDotLarge(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := make([]float32, 1536)
	b := make([]float32, 1536)
	var expected float64
	for i := range a {
		a[i] = rng.Float32()
		b[i] = rng.Float32()
		expected += float64(a[i]) * float64(b[i])
	}

	got := Dot(a, b)
	assert.InDelta(t, expected, float64(got), 1e-2)
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"Orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"Scaled", []float32{1, 1}, []float32{5, 5}, 1},
		{"ZeroLeft", []float32{0, 0}, []float32{1, 2}, 0},
		{"ZeroRight", []float32{1, 2}, []float32{0, 0}, 0},
		{"BothZero", []float32{0, 0}, []float32{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-6)
		})
	}
}

func TestCosineSelfSimilarity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 10; n++ {
		v := make([]float32, 128)
		for i := range v {
			v[i] = rng.Float32()*2 - 1
		}
		assert.InDelta(t, 1.0, Cosine(v, v), 1e-6)
	}
}

func TestNorm(t *testing.T) {
	assert.InDelta(t, 5.0, Norm([]float32{3, 4}), 1e-6)
	assert.InDelta(t, 0.0, Norm([]float32{0, 0, 0}), 1e-6)
	assert.InDelta(t, math.Sqrt(3), Norm([]float32{1, 1, 1}), 1e-6)
}

func TestNormalizeL2Copy(t *testing.T) {
	t.Run("NonZero", func(t *testing.T) {
		src := []float32{3, 4}
		dst, ok := NormalizeL2Copy(src)
		require.True(t, ok)
		assert.InDelta(t, 1.0, Norm(dst), 1e-6)
		// Source untouched.
		assert.Equal(t, []float32{3, 4}, src)
	})

	t.Run("Zero", func(t *testing.T) {
		_, ok := NormalizeL2Copy([]float32{0, 0})
		require.False(t, ok)
	})

	t.Run("Empty", func(t *testing.T) {
		_, ok := NormalizeL2Copy(nil)
		require.False(t, ok)
	})
}
