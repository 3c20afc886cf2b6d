package scoring

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/metrics"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/weights"
)

// SamplePrediction is the outcome for one test sample.
type SamplePrediction struct {
	Name      string
	GroupID   int
	TileIndex int

	// ActualClass and PredictedClass index BatchResult.ClassNames; -1 when
	// unknown or not applicable.
	ActualClass           int
	PredictedClass        int
	MarginalProbabilities []float64

	GroundTruth    float64
	HasGroundTruth bool

	PredictedValue    float64
	HasPredictedValue bool
}

// Correct reports whether a classification matched its actual class.
func (p SamplePrediction) Correct() bool {
	return p.ActualClass >= 0 && p.ActualClass == p.PredictedClass
}

// BatchResult holds the predictions of one scorer invocation.
type BatchResult struct {
	ID     uuid.UUID
	Name   string
	Index  int
	Mode   featurespace.Mode
	Method Method

	Weights     *weights.FeatureWeights
	ClassNames  []string
	ClassValues []float64

	Predictions []SamplePrediction

	// Filled by GenerateStats.
	Accuracy         float64
	Confusion        *mat.Dense
	PerClassAccuracy []float64
	Pearson          float64
	RMSE             float64
	MAE              float64
	HasValueStats    bool

	statsReady bool
}

func newBatchResult(name string, mode featurespace.Mode, method Method, w *weights.FeatureWeights, n int) *BatchResult {
	return &BatchResult{
		ID:          uuid.New(),
		Name:        name,
		Mode:        mode,
		Method:      method,
		Weights:     w,
		Predictions: make([]SamplePrediction, n),
	}
}

// TestSize returns the number of scored samples.
func (b *BatchResult) TestSize() int { return len(b.Predictions) }

// StatsReady reports whether GenerateStats has run since the last change.
func (b *BatchResult) StatsReady() bool { return b.statsReady }

// GenerateStats computes the split-level figures of merit: accuracy and the
// confusion matrix for classifications, and Pearson r, RMSE and MAE of the
// predicted values wherever both a prediction and a ground truth exist.
// A Pearson r that is undefined (constant values) is reported as NaN with
// an UndefinedMetricWarning.
func (b *BatchResult) GenerateStats() error {
	if len(b.Predictions) == 0 {
		return errors.NewNotReadyError("BatchResult", "GenerateStats", "no predictions")
	}

	if b.Mode == featurespace.Discrete {
		var actual, predicted []int
		for _, p := range b.Predictions {
			if p.ActualClass >= 0 {
				actual = append(actual, p.ActualClass)
				predicted = append(predicted, p.PredictedClass)
			}
		}
		b.Accuracy = math.NaN()
		b.Confusion, b.PerClassAccuracy = nil, nil
		if len(actual) > 0 {
			var err error
			if b.Accuracy, err = metrics.Accuracy(actual, predicted); err != nil {
				return err
			}
			if b.Confusion, err = metrics.ConfusionMatrix(actual, predicted, len(b.ClassNames)); err != nil {
				return err
			}
			b.PerClassAccuracy = metrics.PerClassAccuracy(b.Confusion)
		}
	}

	var truth, pred []float64
	for _, p := range b.Predictions {
		if p.HasGroundTruth && p.HasPredictedValue {
			truth = append(truth, p.GroundTruth)
			pred = append(pred, p.PredictedValue)
		}
	}
	b.HasValueStats = len(truth) > 0
	b.Pearson, b.RMSE, b.MAE = math.NaN(), math.NaN(), math.NaN()
	if b.HasValueStats {
		var err error
		yt, yp := metrics.Vec(truth), metrics.Vec(pred)
		if b.RMSE, err = metrics.RMSE(yt, yp); err != nil {
			return err
		}
		if b.MAE, err = metrics.MAE(yt, yp); err != nil {
			return err
		}
		b.Pearson = PearsonOrNaN(b.Name, yt, yp)
	}

	b.statsReady = true
	return nil
}

// PearsonOrNaN returns the correlation, or NaN plus a warning when it is
// not defined.
func PearsonOrNaN(what string, yTrue, yPred *mat.VecDense) float64 {
	r, err := metrics.Pearson(yTrue, yPred)
	if err != nil {
		errors.Warn(errors.NewUndefinedMetricWarning("pearson", fmt.Sprintf("%s: %v", what, err), math.NaN()))
		return math.NaN()
	}
	return r
}

func (b *BatchResult) String() string {
	head := fmt.Sprintf("BatchResult(%q #%d, %s, %s, n=%d", b.Name, b.Index, b.Mode, b.Method, len(b.Predictions))
	if !b.statsReady {
		return head + ")"
	}
	if b.Mode == featurespace.Discrete {
		head += fmt.Sprintf(", accuracy=%.4f", b.Accuracy)
	}
	if b.HasValueStats {
		head += fmt.Sprintf(", pearson=%.4f, rmse=%.4g", b.Pearson, b.RMSE)
	}
	return head + ")"
}
