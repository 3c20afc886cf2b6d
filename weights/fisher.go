package weights

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/wndgo/core/parallel"
	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// within-class variance の下限。クラス内で一定の特徴量も有限のスコアになる
const minWithinVariance = 1e-12

// WND は重みを二乗するので、二乗しても有限な値で頭打ちにする
const maxFisherScore = 1e150

// NewFisher scores every feature of a discrete table by the variance of its
// class means divided by its mean within-class variance (population
// variances). Features whose class means do not differ get weight 0. The
// within-class variance is floored at minWithinVariance, so a feature that is
// constant inside each class but separates the classes gets a large finite
// weight instead of +Inf.
func NewFisher(t *featurespace.FeatureTable) (*FeatureWeights, error) {
	if t.Mode() != featurespace.Discrete {
		return nil, errors.NewValidationError("table", "Fisher weights need a discrete table", t.Mode().String())
	}
	nClasses := t.NumClasses()
	if nClasses < 2 {
		return nil, errors.NewDegenerateInputError("NewFisher", "at least 2 classes are required")
	}

	classOf := t.ClassIndices()
	n, nFeatures := t.Shape()
	values := make([]float64, nFeatures)

	parallel.Parallelize(nFeatures, func(start, end int) {
		perClass := make([][]float64, nClasses)
		means := make([]float64, nClasses)
		vars := make([]float64, nClasses)
		for j := start; j < end; j++ {
			for k := range perClass {
				perClass[k] = perClass[k][:0]
			}
			for i := 0; i < n; i++ {
				perClass[classOf[i]] = append(perClass[classOf[i]], t.At(i, j))
			}
			for k, xs := range perClass {
				means[k], vars[k] = stat.PopMeanVariance(xs, nil)
			}
			_, between := stat.PopMeanVariance(means, nil)
			within := stat.Mean(vars, nil)

			if between == 0 || math.IsNaN(between) {
				values[j] = 0
				continue
			}
			f := between / math.Max(within, minWithinVariance)
			if math.IsNaN(f) {
				f = 0
			}
			values[j] = math.Min(f, maxFisherScore)
		}
	})

	w := &FeatureWeights{Method: Fisher, Names: t.FeatureNames(), Values: values}
	return w.sorted(), nil
}
