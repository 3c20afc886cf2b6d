package scoring

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/wndgo/core/parallel"
	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/weights"
)

// WND is the weighted neighbour distance classifier. The similarity of a
// test sample to a class is the mean of d^(-p) over that class's training
// samples, with d the weighted squared distance. Training samples at
// distance 0 are skipped, so a table can be scored against itself.
type WND struct {
	cfg config
}

// NewWND returns a WND classifier.
func NewWND(opts ...Option) *WND {
	return &WND{cfg: newConfig(opts)}
}

func (c *WND) Method() Method { return WNDMethod }

// Score classifies every test sample. When the training classes carry
// numeric values the predicted value is the probability-weighted mean of
// those values.
func (c *WND) Score(train, test *featurespace.FeatureTable, w *weights.FeatureWeights) (result *BatchResult, err error) {
	defer errors.Recover(&err, "WND.Score")

	if train != nil && train.Mode() != featurespace.Discrete {
		return nil, errors.NewValidationError("train", "WND needs a discrete training table", train.Mode().String())
	}
	if test != nil && test.Mode() != featurespace.Discrete {
		return nil, errors.NewValidationError("test", "WND needs a discrete test table", test.Mode().String())
	}
	cols, err := selectColumns("WND.Score", train, test, w)
	if err != nil {
		return nil, err
	}

	nClasses := train.NumClasses()
	classOf := train.ClassIndices()
	classNames := train.ClassNames()
	classValues, hasValues := train.ClassValues()

	trainIndex := make(map[string]int, nClasses)
	for k, name := range classNames {
		trainIndex[name] = k
	}

	result = newBatchResult(test.Name(), featurespace.Discrete, WNDMethod, w, test.NumSamples())
	result.ClassNames = classNames
	if hasValues {
		result.ClassValues = classValues
	}

	errs := make([]error, test.NumSamples())
	parallel.ParallelizeN(test.NumSamples(), c.cfg.workers, func(start, end int) {
		d := make([]float64, len(cols.train))
		for i := start; i < end; i++ {
			s := test.Sample(i)
			p := SamplePrediction{
				Name:           s.Name,
				GroupID:        s.GroupID,
				TileIndex:      s.TileIndex,
				ActualClass:    -1,
				GroundTruth:    s.GroundTruth,
				HasGroundTruth: s.HasGroundTruth,
			}
			if k, ok := trainIndex[s.ClassLabel]; ok {
				p.ActualClass = k
			}

			for j, row := range cols.train {
				d[j] = cols.distance(row, cols.test[i])
			}
			probs, ok := c.marginals(d, classOf, nClasses)
			if !ok {
				errs[i] = sampleErr("WND.Score", s.Name, "every training sample is at distance 0")
				continue
			}
			p.MarginalProbabilities = probs
			p.PredictedClass = argmax(probs)
			if hasValues {
				for k, pk := range probs {
					p.PredictedValue += pk * classValues[k]
				}
				p.HasPredictedValue = true
			}
			result.Predictions[i] = p
		}
	})
	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return result, nil
}

// marginals turns distances to training samples into normalized class
// similarities. Similarities are scaled by the smallest positive distance,
// which leaves the normalized result unchanged and keeps d^(-p) finite.
func (c *WND) marginals(d []float64, classOf []int, nClasses int) ([]float64, bool) {
	order := make([]int, 0, len(d))
	for j, dj := range d {
		if dj > 0 {
			order = append(order, j)
		}
	}
	if len(order) == 0 {
		return nil, false
	}
	if c.cfg.neighbors > 0 && c.cfg.neighbors < len(order) {
		sort.SliceStable(order, func(a, b int) bool { return d[order[a]] < d[order[b]] })
		order = order[:c.cfg.neighbors]
	}

	dmin := math.Inf(1)
	for _, j := range order {
		dmin = math.Min(dmin, d[j])
	}

	sums := make([]float64, nClasses)
	counts := make([]int, nClasses)
	for _, j := range order {
		k := classOf[j]
		sums[k] += math.Pow(dmin/d[j], c.cfg.power)
		counts[k]++
	}

	var total float64
	for k := range sums {
		if counts[k] > 0 {
			sums[k] /= float64(counts[k])
		}
		total += sums[k]
	}
	if total == 0 || math.IsNaN(total) {
		return nil, false
	}
	for k := range sums {
		sums[k] /= total
	}
	return sums, true
}

// argmax returns the first index of the largest value.
func argmax(x []float64) int {
	best := 0
	for k := 1; k < len(x); k++ {
		if x[k] > x[best] {
			best = k
		}
	}
	return best
}
