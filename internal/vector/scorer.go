package vector

import (
	"fmt"
	"math"
)

// #region scorer
// Scorer projects a quality score and a tag set onto a Truth vector.
type Scorer interface {
	Name() string
	Score(quality float64, tags []string) (Truth, error)
}

// #endregion scorer

// #region primary
// Primary is the proportional scorer. Each integrity axis is one minus the
// share of tags that fall into its bucket.
type Primary struct{}

// Name identifies the scorer in audit entries.
func (Primary) Name() string { return "primary" }

// Score is deterministic and side-effect free. Out-of-range quality is
// clamped, including ±Inf. It fails only for NaN.
func (Primary) Score(quality float64, tags []string) (Truth, error) {
	if math.IsNaN(quality) {
		return Truth{}, fmt.Errorf("quality score %v is not a number", quality)
	}

	v := Truth{Clamp01(quality), 1, 1, 1}
	set := uniqueTags(tags)
	total := len(set)
	if total == 0 {
		return v, nil
	}

	var cf, cc int
	for _, t := range set {
		switch Classify(t) {
		case CategoryFactual:
			cf++
		case CategoryContextual:
			cc++
		}
	}
	co := total - cf - cc
	if co < 0 {
		co = 0
	}

	n := float64(total)
	v[AxisFactual] = Clamp01(1 - float64(cf)/n)
	v[AxisContextual] = Clamp01(1 - float64(cc)/n)
	v[AxisOther] = Clamp01(1 - float64(co)/n)
	return v, nil
}

// #endregion primary

// #region fallback
// Fallback is the degraded scorer used when Primary fails. It never fails:
// any reported issue yields a flat 0.5 on every integrity axis.
type Fallback struct{}

// Name identifies the scorer in audit entries.
func (Fallback) Name() string { return "fallback" }

// Score always succeeds. NaN quality scores 0.
func (Fallback) Score(quality float64, tags []string) (Truth, error) {
	v := Truth{Clamp01(quality), 1, 1, 1}
	if len(uniqueTags(tags)) > 0 {
		v[AxisFactual], v[AxisContextual], v[AxisOther] = 0.5, 0.5, 0.5
	}
	return v, nil
}

// #endregion fallback

// #region chain
// DefaultChain is the ordered scorer list tried by the drift engine.
func DefaultChain() []Scorer {
	return []Scorer{Primary{}, Fallback{}}
}

// #endregion chain
