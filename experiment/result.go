// Package experiment collects the BatchResults of repeated train/test
// splits, aggregates them into experiment-level statistics and renders the
// per-sample report. NewShuffleSplit drives the whole protocol.
package experiment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/metrics"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/scoring"
)

// State is the aggregation state of a Result.
type State int

const (
	// Empty: no batch collected.
	Empty State = iota
	// Collected: batches present, aggregate statistics stale or never computed.
	Collected
	// StatsReady: aggregate statistics reflect every collected batch.
	StatsReady
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Collected:
		return "collected"
	case StatsReady:
		return "stats-ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is an ordered collection of BatchResults. Aggregates are valid only
// in the StatsReady state; Append moves the result back to Collected.
type Result struct {
	Name   string
	Mode   featurespace.Mode
	Method scoring.Method

	batches []*scoring.BatchResult

	// samples of the source table, set by the driver so the report can list
	// samples that were never tested.
	samples []featurespace.SampleMeta

	stale bool
	stats Stats
}

// Stats are the experiment-level figures of merit.
type Stats struct {
	// Discrete
	ClassNames       []string
	Accuracy         float64
	Confusion        *mat.Dense
	PerClassAccuracy []float64
	MeanAccuracy     float64
	StdAccuracy      float64

	// Pooled over every prediction with a value and a ground truth.
	HasValueStats bool
	Pearson       float64
	RMSE          float64
	MAE           float64
	MeanPearson   float64
	StdPearson    float64

	NumSplits      int
	NumPredictions int
}

// NewResult returns an empty result.
func NewResult(name string, mode featurespace.Mode, method scoring.Method) *Result {
	return &Result{Name: name, Mode: mode, Method: method}
}

// SetSamples records the source table's samples. PerSampleStatistics then
// reports every one of them, tested or not.
func (r *Result) SetSamples(samples []featurespace.SampleMeta) {
	r.samples = append([]featurespace.SampleMeta(nil), samples...)
}

// Append adds a batch. The batch must have the result's mode.
func (r *Result) Append(b *scoring.BatchResult) error {
	if b == nil {
		return errors.NewValidationError("batch", "batch is nil", nil)
	}
	if b.Mode != r.Mode {
		return errors.NewValidationError("batch", fmt.Sprintf("batch mode %s does not match experiment mode %s", b.Mode, r.Mode), b.Name)
	}
	if len(r.batches) > 0 && r.Mode == featurespace.Discrete && !sameStrings(r.batches[0].ClassNames, b.ClassNames) {
		return errors.NewValidationError("batch", "batch classes differ from earlier batches", b.ClassNames)
	}
	r.batches = append(r.batches, b)
	r.stale = true
	return nil
}

// Len returns the number of collected batches.
func (r *Result) Len() int { return len(r.batches) }

// Batches returns the collected batches in order.
func (r *Result) Batches() []*scoring.BatchResult {
	return append([]*scoring.BatchResult(nil), r.batches...)
}

// State reports the aggregation state.
func (r *Result) State() State {
	switch {
	case len(r.batches) == 0:
		return Empty
	case r.stale:
		return Collected
	default:
		return StatsReady
	}
}

// Stats returns the aggregates computed by the last GenerateStats.
func (r *Result) Stats() (Stats, error) {
	if r.State() != StatsReady {
		return Stats{}, errors.NewNotReadyError("ExperimentResult", "Stats", "call GenerateStats after the last Append")
	}
	return r.stats, nil
}

// GenerateStats computes the experiment-level aggregates. It is a no-op in
// the StatsReady state.
func (r *Result) GenerateStats() error {
	switch r.State() {
	case Empty:
		return errors.NewNotReadyError("ExperimentResult", "GenerateStats", "no batch results collected")
	case StatsReady:
		return nil
	}

	s := Stats{NumSplits: len(r.batches), Accuracy: math.NaN(), MeanAccuracy: math.NaN(), StdAccuracy: math.NaN()}
	var (
		splitScores  []float64
		splitPearson []float64
		truth, pred  []float64
	)
	for _, b := range r.batches {
		if !b.StatsReady() {
			if err := b.GenerateStats(); err != nil {
				return errors.Wrapf(err, "batch %d", b.Index)
			}
		}
		s.NumPredictions += b.TestSize()
		if r.Mode == featurespace.Discrete && !math.IsNaN(b.Accuracy) {
			splitScores = append(splitScores, b.Accuracy)
		}
		if b.HasValueStats && !math.IsNaN(b.Pearson) {
			splitPearson = append(splitPearson, b.Pearson)
		}
		for _, p := range b.Predictions {
			if p.HasGroundTruth && p.HasPredictedValue {
				truth = append(truth, p.GroundTruth)
				pred = append(pred, p.PredictedValue)
			}
		}
	}

	if r.Mode == featurespace.Discrete {
		if err := r.classificationStats(&s); err != nil {
			return err
		}
		s.MeanAccuracy, s.StdAccuracy = meanStd(splitScores)
	}

	s.Pearson, s.RMSE, s.MAE = math.NaN(), math.NaN(), math.NaN()
	s.HasValueStats = len(truth) > 0
	if s.HasValueStats {
		var err error
		yt, yp := metrics.Vec(truth), metrics.Vec(pred)
		s.Pearson = scoring.PearsonOrNaN(r.Name, yt, yp)
		if s.RMSE, err = metrics.RMSE(yt, yp); err != nil {
			return err
		}
		if s.MAE, err = metrics.MAE(yt, yp); err != nil {
			return err
		}
	}
	s.MeanPearson, s.StdPearson = meanStd(splitPearson)

	r.stats = s
	r.stale = false
	return nil
}

// classificationStats pools every classified prediction.
func (r *Result) classificationStats(s *Stats) error {
	s.ClassNames = r.batches[0].ClassNames
	n := len(s.ClassNames)
	s.Confusion = mat.NewDense(n, n, nil)
	correct, total := 0, 0
	for _, b := range r.batches {
		for _, p := range b.Predictions {
			if p.ActualClass < 0 {
				continue
			}
			s.Confusion.Set(p.ActualClass, p.PredictedClass, s.Confusion.At(p.ActualClass, p.PredictedClass)+1)
			total++
			if p.Correct() {
				correct++
			}
		}
	}
	s.Accuracy = math.NaN()
	if total > 0 {
		s.Accuracy = float64(correct) / float64(total)
	}
	s.PerClassAccuracy = metrics.PerClassAccuracy(s.Confusion)
	return nil
}

func meanStd(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (r *Result) String() string {
	head := fmt.Sprintf("ExperimentResult(%q, %s, %s, splits=%d, %s", r.Name, r.Mode, r.Method, len(r.batches), r.State())
	if r.State() != StatsReady {
		return head + ")"
	}
	if r.Mode == featurespace.Discrete {
		head += fmt.Sprintf(", accuracy=%.4f", r.stats.Accuracy)
	}
	if r.stats.HasValueStats {
		head += fmt.Sprintf(", pearson=%.4f", r.stats.Pearson)
	}
	return head + ")"
}
