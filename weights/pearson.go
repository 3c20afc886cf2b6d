package weights

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/wndgo/core/parallel"
	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// NewPearson scores every feature by the absolute Pearson correlation with
// the ground truth. It accepts continuous tables and discrete tables whose
// class names carry numbers. A feature without variance gets weight 0.
func NewPearson(t *featurespace.FeatureTable) (*FeatureWeights, error) {
	truth, ok := t.GroundTruth()
	if !ok {
		return nil, errors.NewValidationError("table", "Pearson weights need a ground truth for every sample", t.Name())
	}
	if _, v := stat.PopMeanVariance(truth, nil); v == 0 {
		return nil, errors.NewDegenerateInputError("NewPearson", "ground truth has no variance")
	}

	nFeatures := t.NumFeatures()
	w := &FeatureWeights{
		Method:       Pearson,
		Names:        t.FeatureNames(),
		Values:       make([]float64, nFeatures),
		Correlations: make([]float64, nFeatures),
		Slopes:       make([]float64, nFeatures),
		Intercepts:   make([]float64, nFeatures),
	}

	parallel.Parallelize(nFeatures, func(start, end int) {
		for j := start; j < end; j++ {
			x := t.Column(j)
			r := stat.Correlation(x, truth, nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			// feature = intercept + slope·truth
			intercept, slope := stat.LinearRegression(truth, x, nil, false)
			w.Correlations[j] = r
			w.Values[j] = math.Abs(r)
			w.Slopes[j] = slope
			w.Intercepts[j] = intercept
		}
	})
	return w.sorted(), nil
}
