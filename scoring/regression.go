package scoring

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/wndgo/core/parallel"
	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/linear"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/weights"
)

// minSlope is the smallest |slope| a feature fit may have and still be inverted.
const minSlope = 1e-10

// LeastSquares fits feature = a·truth + b per feature on the training
// table, inverts each fit for a test sample and averages the per-feature
// estimates with the feature weights.
type LeastSquares struct {
	cfg config
}

// NewLeastSquares returns a LeastSquares regressor.
func NewLeastSquares(opts ...Option) *LeastSquares {
	return &LeastSquares{cfg: newConfig(opts)}
}

func (r *LeastSquares) Method() Method { return LeastSquaresMethod }

func (r *LeastSquares) Score(train, test *featurespace.FeatureTable, w *weights.FeatureWeights) (result *BatchResult, err error) {
	defer errors.Recover(&err, "LeastSquares.Score")

	cols, err := selectColumns("LeastSquares.Score", train, test, w)
	if err != nil {
		return nil, err
	}
	truth, err := trainingTruth("LeastSquares.Score", train)
	if err != nil {
		return nil, err
	}

	// 特徴量ごとに feature = a·truth + b を当てはめる
	k := len(cols.names)
	slopes := make([]float64, k)
	intercepts := make([]float64, k)
	x := make([]float64, len(cols.train))
	usable := 0
	for f := 0; f < k; f++ {
		for j, row := range cols.train {
			x[j] = row[f]
		}
		intercepts[f], slopes[f] = stat.LinearRegression(truth, x, nil, false)
		if math.Abs(slopes[f]) > minSlope {
			usable++
		}
	}
	if usable == 0 {
		return nil, errors.NewDegenerateInputError("LeastSquares.Score", "no selected feature varies with the ground truth")
	}

	result = newRegressionResult(LeastSquaresMethod, test, w)
	errs := make([]error, test.NumSamples())
	parallel.ParallelizeN(test.NumSamples(), r.cfg.workers, func(start, end int) {
		for i := start; i < end; i++ {
			var num, den float64
			for f, wf := range cols.weights {
				if math.Abs(slopes[f]) <= minSlope {
					continue
				}
				num += wf * (cols.test[i][f] - intercepts[f]) / slopes[f]
				den += wf
			}
			// 傾きが小さいと逆算した値が発散しうる
			v := num / den
			if errs[i] = errors.CheckScalar("LeastSquares.Score", v, i); errs[i] != nil {
				continue
			}
			result.Predictions[i].PredictedValue = v
			result.Predictions[i].HasPredictedValue = true
		}
	})
	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return result, nil
}

// Voting predicts the inverse-distance-power weighted mean of the training
// ground truths, with the WND distance. Training samples at distance 0 are
// skipped.
type Voting struct {
	cfg config
}

// NewVoting returns a Voting regressor.
func NewVoting(opts ...Option) *Voting {
	return &Voting{cfg: newConfig(opts)}
}

func (r *Voting) Method() Method { return VotingMethod }

func (r *Voting) Score(train, test *featurespace.FeatureTable, w *weights.FeatureWeights) (result *BatchResult, err error) {
	defer errors.Recover(&err, "Voting.Score")

	cols, err := selectColumns("Voting.Score", train, test, w)
	if err != nil {
		return nil, err
	}
	truth, err := trainingTruth("Voting.Score", train)
	if err != nil {
		return nil, err
	}

	result = newRegressionResult(VotingMethod, test, w)
	errs := make([]error, test.NumSamples())
	parallel.ParallelizeN(test.NumSamples(), r.cfg.workers, func(start, end int) {
		d := make([]float64, len(cols.train))
		for i := start; i < end; i++ {
			for j, row := range cols.train {
				d[j] = cols.distance(row, cols.test[i])
			}
			v, ok := r.vote(d, truth)
			if !ok {
				errs[i] = sampleErr("Voting.Score", result.Predictions[i].Name, "every training sample is at distance 0")
				continue
			}
			result.Predictions[i].PredictedValue = v
			result.Predictions[i].HasPredictedValue = true
		}
	})
	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return result, nil
}

func (r *Voting) vote(d, truth []float64) (float64, bool) {
	order := make([]int, 0, len(d))
	for j, dj := range d {
		if dj > 0 {
			order = append(order, j)
		}
	}
	if len(order) == 0 {
		return 0, false
	}
	if r.cfg.neighbors > 0 && r.cfg.neighbors < len(order) {
		sort.SliceStable(order, func(a, b int) bool { return d[order[a]] < d[order[b]] })
		order = order[:r.cfg.neighbors]
	}
	dmin := math.Inf(1)
	for _, j := range order {
		dmin = math.Min(dmin, d[j])
	}
	var num, den float64
	for _, j := range order {
		s := math.Pow(dmin/d[j], r.cfg.power)
		num += s * truth[j]
		den += s
	}
	return num / den, true
}

// Multivariate fits one linear model of the ground truth on all selected
// features at once.
type Multivariate struct {
	cfg config
}

// NewMultivariate returns a Multivariate regressor. A small ridge penalty
// (WithRidge) is applied by default.
func NewMultivariate(opts ...Option) *Multivariate {
	return &Multivariate{cfg: newConfig(opts)}
}

func (r *Multivariate) Method() Method { return MultivariateMethod }

func (r *Multivariate) Score(train, test *featurespace.FeatureTable, w *weights.FeatureWeights) (result *BatchResult, err error) {
	defer errors.Recover(&err, "Multivariate.Score")

	cols, err := selectColumns("Multivariate.Score", train, test, w)
	if err != nil {
		return nil, err
	}
	truth, err := trainingTruth("Multivariate.Score", train)
	if err != nil {
		return nil, err
	}

	k := len(cols.names)
	X := mat.NewDense(len(cols.train), k, nil)
	for j, row := range cols.train {
		X.SetRow(j, row)
	}
	model := linear.NewLinearRegression(
		linear.WithAlpha(r.cfg.ridge),
		linear.WithMaxCondition(r.cfg.maxCond))
	if err := model.Fit(X, mat.NewVecDense(len(truth), truth)); err != nil {
		if errors.Is(err, errors.ErrSingularMatrix) {
			return nil, errors.NewDegenerateInputError("Multivariate.Score", "training features are linearly dependent")
		}
		return nil, err
	}

	T := mat.NewDense(len(cols.test), k, nil)
	for i, row := range cols.test {
		T.SetRow(i, row)
	}
	pred, err := model.Predict(T)
	if err != nil {
		return nil, err
	}

	result = newRegressionResult(MultivariateMethod, test, w)
	for i := range result.Predictions {
		result.Predictions[i].PredictedValue = pred.AtVec(i)
		result.Predictions[i].HasPredictedValue = true
	}
	return result, nil
}
