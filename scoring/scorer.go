// Package scoring predicts the test samples of a split from the training
// samples and a set of feature weights. WND classifies discrete tables;
// LeastSquares, Voting and Multivariate regress continuous ground truth.
package scoring

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/linear"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/weights"
)

// Method names a scoring algorithm.
type Method string

const (
	WNDMethod          Method = "wnd"
	LeastSquaresMethod Method = "least_squares"
	VotingMethod       Method = "voting"
	MultivariateMethod Method = "multivariate"
)

// Scorer predicts every sample of test from train using the nonzero
// weights of w. Neither table is modified.
type Scorer interface {
	Method() Method
	Score(train, test *featurespace.FeatureTable, w *weights.FeatureWeights) (*BatchResult, error)
}

// DefaultPower is the exponent applied to weighted distances.
const DefaultPower = 5

type config struct {
	power     float64
	neighbors int
	ridge     float64
	maxCond   float64
	workers   int
}

// Option configures a scorer. Options that do not apply to a method are ignored.
type Option func(*config)

// WithPower sets the distance exponent of WND and Voting.
func WithPower(p float64) Option { return func(c *config) { c.power = p } }

// WithNeighbors restricts WND and Voting to the k nearest training samples.
// 0 uses all of them.
func WithNeighbors(k int) Option { return func(c *config) { c.neighbors = k } }

// WithRidge sets the L2 penalty of the multivariate regression.
func WithRidge(alpha float64) Option { return func(c *config) { c.ridge = alpha } }

// WithMaxCondition sets the condition number above which the multivariate
// normal equations count as linearly dependent.
func WithMaxCondition(limit float64) Option { return func(c *config) { c.maxCond = limit } }

// WithWorkers bounds the goroutines used per split (0 means one per core).
func WithWorkers(n int) Option { return func(c *config) { c.workers = n } }

func newConfig(opts []Option) config {
	c := config{power: DefaultPower, ridge: 1e-6, maxCond: linear.DefaultMaxCondition}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// New returns the scorer for method.
func New(method Method, opts ...Option) (Scorer, error) {
	switch method {
	case WNDMethod:
		return NewWND(opts...), nil
	case LeastSquaresMethod:
		return NewLeastSquares(opts...), nil
	case VotingMethod:
		return NewVoting(opts...), nil
	case MultivariateMethod:
		return NewMultivariate(opts...), nil
	default:
		return nil, errors.NewValidationError("method", "unknown scoring method", string(method))
	}
}

// Default returns WND for discrete tables and LeastSquares for continuous ones.
func Default(mode featurespace.Mode, opts ...Option) Scorer {
	if mode == featurespace.Discrete {
		return NewWND(opts...)
	}
	return NewLeastSquares(opts...)
}

// columns is the training and test data projected onto the nonzero-weighted
// features, in weight order.
type columns struct {
	names   []string
	weights []float64
	train   [][]float64
	test    [][]float64
}

func selectColumns(op string, train, test *featurespace.FeatureTable, w *weights.FeatureWeights) (*columns, error) {
	if train == nil || test == nil {
		return nil, errors.NewValidationError("table", "train and test tables are required", nil)
	}
	if w == nil {
		return nil, errors.NewValidationError("weights", "weights are required", nil)
	}
	if train.NumSamples() == 0 {
		return nil, errors.NewDegenerateInputError(op, "training table is empty")
	}

	c := &columns{}
	var trainCols, testCols []int
	for k, name := range w.Names {
		if w.Values[k] == 0 {
			continue
		}
		i, ok := train.FeatureIndex(name)
		if !ok {
			return nil, errors.NewValidationError("weights", "feature missing from training table", name)
		}
		j, ok := test.FeatureIndex(name)
		if !ok {
			return nil, errors.NewValidationError("weights", "feature missing from test table", name)
		}
		c.names = append(c.names, name)
		c.weights = append(c.weights, w.Values[k])
		trainCols = append(trainCols, i)
		testCols = append(testCols, j)
	}
	if len(c.names) == 0 {
		return nil, errors.NewDegenerateInputError(op, "no feature has a nonzero weight")
	}

	c.train = project(train, trainCols)
	c.test = project(test, testCols)
	return c, nil
}

func project(t *featurespace.FeatureTable, cols []int) [][]float64 {
	out := make([][]float64, t.NumSamples())
	for i := range out {
		src := t.RawRow(i)
		row := make([]float64, len(cols))
		for k, j := range cols {
			row[k] = src[j]
		}
		out[i] = row
	}
	return out
}

// distance is the weighted squared distance Σ w²(x − y)².
func (c *columns) distance(x, y []float64) float64 {
	var d float64
	for k, w := range c.weights {
		diff := x[k] - y[k]
		d += w * w * diff * diff
	}
	return d
}

// trainingTruth returns the ground truth of a regression training table.
func trainingTruth(op string, train *featurespace.FeatureTable) ([]float64, error) {
	truth, ok := train.GroundTruth()
	if !ok {
		return nil, errors.NewValidationError("train", "regression needs a ground truth for every training sample", train.Name())
	}
	if _, v := stat.PopMeanVariance(truth, nil); v == 0 {
		return nil, errors.NewDegenerateInputError(op, "training ground truth has no variance")
	}
	return truth, nil
}

// newRegressionResult prepares the per-sample skeleton of a regression split.
func newRegressionResult(method Method, test *featurespace.FeatureTable, w *weights.FeatureWeights) *BatchResult {
	b := newBatchResult(test.Name(), featurespace.Continuous, method, w, test.NumSamples())
	for i := 0; i < test.NumSamples(); i++ {
		s := test.Sample(i)
		b.Predictions[i] = SamplePrediction{
			Name:           s.Name,
			GroupID:        s.GroupID,
			TileIndex:      s.TileIndex,
			ActualClass:    -1,
			PredictedClass: -1,
			GroundTruth:    s.GroundTruth,
			HasGroundTruth: s.HasGroundTruth,
		}
	}
	return b
}

func sampleErr(op string, name string, reason string) error {
	return errors.NewDegenerateInputError(op, fmt.Sprintf("sample %q: %s", name, reason))
}
