package vector

import (
	"errors"
	"fmt"
	"math"
)

// #region truth
// Dims is the fixed dimensionality of a truth vector.
const Dims = 4

// Axis indexes into a Truth vector.
const (
	AxisQuality    = 0
	AxisFactual    = 1
	AxisContextual = 2
	AxisOther      = 3
)

// AxisNames labels each axis in logs, audit entries, and tables.
var AxisNames = [Dims]string{"quality", "factual", "contextual", "other"}

// ErrInvalidDimension is returned when a vector does not have exactly Dims components.
var ErrInvalidDimension = errors.New("vector must have exactly 4 dimensions")

// Truth is the 4-dimensional integrity score [quality, factual, contextual, other].
// Every component lies in [0, 1].
type Truth [Dims]float64

// Ideal is the vector of a perfect input with no reported issues.
var Ideal = Truth{1, 1, 1, 1}

// FromSlice converts a caller-supplied slice into a Truth vector.
func FromSlice(vals []float64) (Truth, error) {
	if len(vals) != Dims {
		return Truth{}, fmt.Errorf("%w: got %d", ErrInvalidDimension, len(vals))
	}
	var v Truth
	copy(v[:], vals)
	return v, nil
}

// Slice returns the components as a freshly allocated slice.
func (v Truth) Slice() []float64 {
	out := make([]float64, Dims)
	copy(out, v[:])
	return out
}

// InRange reports whether every component is finite and within [0, 1].
func (v Truth) InRange() bool {
	for _, x := range v {
		if math.IsNaN(x) || x < 0 || x > 1 {
			return false
		}
	}
	return true
}

// String renders the vector with four decimals per axis.
func (v Truth) String() string {
	return fmt.Sprintf("[%.4f %.4f %.4f %.4f]", v[0], v[1], v[2], v[3])
}

// #endregion truth

// #region helpers
// Diff computes |a[i] - b[i]| per axis.
func Diff(a, b Truth) Truth {
	var d Truth
	for i := range d {
		d[i] = math.Abs(a[i] - b[i])
	}
	return d
}

// Clamp01 clips x into [0, 1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

// #endregion helpers
