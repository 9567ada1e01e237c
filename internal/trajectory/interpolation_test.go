package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

func TestLocate(t *testing.T) {
	times := []float64{0, 0.1, 0.3, 0.6}

	tests := []struct {
		name  string
		t     float64
		index int
		alpha float64
	}{
		{"before start", -1, 0, 1},
		{"first knot", 0, 0, 1},
		{"inside first", 0.05, 0, 0.5},
		{"interior knot", 0.3, 1, 0},
		{"inside last", 0.45, 2, 0.5},
		{"last knot", 0.6, 2, 0},
		{"after end", 2, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ia := Locate(tt.t, times)
			assert.Equal(t, tt.index, ia.Index)
			assert.InDelta(t, tt.alpha, ia.Alpha, 1e-12)
		})
	}
}

func TestInterpolateIsIdentityAtKnots(t *testing.T) {
	times := []float64{0, 0.013, 0.1, 0.2371, 0.5}
	values := []dynamo.State{{1, 2}, {-3, 0.5}, {7.25, -1}, {0.1, 0.2}, {4, 4}}

	for k, tk := range times {
		got := Interpolate(Locate(tk, times), values)
		assert.Equal(t, values[k], got, "knot %d", k)
	}
}

func TestInterpolateBlendsAndClamps(t *testing.T) {
	times := []float64{0, 1}
	values := []dynamo.Control{{0}, {10}}

	assert.InDelta(t, 2.5, Interpolate(Locate(0.25, times), values)[0], 1e-12)
	assert.Equal(t, dynamo.Control{0}, Interpolate(Locate(-5, times), values))
	assert.Equal(t, dynamo.Control{10}, Interpolate(Locate(5, times), values))
}

func TestInterpolateReturnsCopy(t *testing.T) {
	values := []dynamo.State{{1}, {2}}
	got := Interpolate(Locate(0, []float64{0, 1}), values)
	got[0] = 99
	assert.Equal(t, 1.0, values[0][0])
}

func TestInterpolateBy(t *testing.T) {
	type node struct {
		x dynamo.State
		k *mat.Dense
	}
	data := []node{
		{dynamo.State{0}, mat.NewDense(1, 2, []float64{0, 0})},
		{dynamo.State{4}, mat.NewDense(1, 2, []float64{2, -2})},
	}
	times := []float64{0, 2}
	ia := Locate(0.5, times)

	x := InterpolateBy(ia, data, func(n node) dynamo.State { return n.x })
	assert.InDelta(t, 1.0, x[0], 1e-12)

	k := InterpolateMatrixBy(ia, data, func(n node) *mat.Dense { return n.k })
	require.NotNil(t, k)
	assert.InDelta(t, 0.5, k.At(0, 0), 1e-12)
	assert.InDelta(t, -0.5, k.At(0, 1), 1e-12)
}

func TestModeSchedule(t *testing.T) {
	_, err := NewModeSchedule([]float64{1}, []int{0})
	require.ErrorIs(t, err, ErrInvalidSchedule)

	ms, err := NewModeSchedule([]float64{1, 2}, []int{3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 3, ms.ModeAt(0.5))
	assert.Equal(t, 3, ms.ModeAt(1))
	assert.Equal(t, 4, ms.ModeAt(1.5))
	assert.Equal(t, 5, ms.ModeAt(10))
	assert.Equal(t, 0, DefaultModeSchedule().ModeAt(42))
}

func TestTargetTrajectories(t *testing.T) {
	tt := TargetTrajectories{
		Times:  []float64{0, 1},
		States: []dynamo.State{{0, 0}, {2, 4}},
	}
	require.NoError(t, tt.Validate())
	assert.Nil(t, tt.InputAt(0.5))
	assert.Equal(t, dynamo.State{1, 2}, tt.StateAt(0.5))

	assert.ErrorIs(t, TargetTrajectories{}.Validate(), ErrEmptyTargets)

	c := ConstantTarget(dynamo.State{1}, dynamo.Control{2})
	assert.Equal(t, dynamo.Control{2}, c.InputAt(100))
}
