package trajectory

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// IndexAlpha locates a query time inside a time array: the value at the
// query is Alpha·v[Index] + (1-Alpha)·v[Index+1].
type IndexAlpha struct {
	Index int
	Alpha float64
}

// Locate returns the interval and weight for t. Queries before the first
// or after the last time clamp to the end values, and a query that hits a
// knot exactly yields that knot's value with no blending error.
func Locate(t float64, times []float64) IndexAlpha {
	n := len(times)
	if n < 2 || t <= times[0] {
		return IndexAlpha{Index: 0, Alpha: 1}
	}
	if t >= times[n-1] {
		return IndexAlpha{Index: n - 2, Alpha: 0}
	}

	j := sort.SearchFloat64s(times, t)
	i := j - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}

	span := times[i+1] - times[i]
	if span <= 0 {
		return IndexAlpha{Index: i, Alpha: 0}
	}
	return IndexAlpha{Index: i, Alpha: (times[i+1] - t) / span}
}

// Interpolate blends a vector trajectory at ia.
func Interpolate[S ~[]float64](ia IndexAlpha, values []S) S {
	return InterpolateBy(ia, values, func(v S) S { return v })
}

// InterpolateBy blends the vector that get extracts from each element of
// data. It lets callers interpolate one field of a struct trajectory
// without copying the field into its own slice first.
func InterpolateBy[T any, S ~[]float64](ia IndexAlpha, data []T, get func(T) S) S {
	switch len(data) {
	case 0:
		return nil
	case 1:
		return clone(get(data[0]))
	}

	lhs := get(data[ia.Index])
	if ia.Alpha == 1 {
		return clone(lhs)
	}
	rhs := get(data[ia.Index+1])
	if ia.Alpha == 0 {
		return clone(rhs)
	}

	out := make(S, len(lhs))
	for i := range out {
		out[i] = ia.Alpha*lhs[i] + (1-ia.Alpha)*rhs[i]
	}
	return out
}

// InterpolateMatrix blends a matrix trajectory at ia.
func InterpolateMatrix(ia IndexAlpha, values []*mat.Dense) *mat.Dense {
	return InterpolateMatrixBy(ia, values, func(m *mat.Dense) *mat.Dense { return m })
}

func InterpolateMatrixBy[T any](ia IndexAlpha, data []T, get func(T) *mat.Dense) *mat.Dense {
	switch len(data) {
	case 0:
		return nil
	case 1:
		return mat.DenseCopyOf(get(data[0]))
	}

	lhs := get(data[ia.Index])
	if ia.Alpha == 1 {
		return mat.DenseCopyOf(lhs)
	}
	rhs := get(data[ia.Index+1])
	if ia.Alpha == 0 {
		return mat.DenseCopyOf(rhs)
	}

	var out, tmp mat.Dense
	out.Scale(ia.Alpha, lhs)
	tmp.Scale(1-ia.Alpha, rhs)
	out.Add(&out, &tmp)
	return &out
}

func clone[S ~[]float64](s S) S {
	c := make(S, len(s))
	copy(c, s)
	return c
}
