package experiment

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/scoring"
)

func pred(name string, group, actual, predicted int) scoring.SamplePrediction {
	probs := []float64{0.2, 0.2}
	probs[predicted] = 0.8
	return scoring.SamplePrediction{
		Name:                  name,
		GroupID:               group,
		ActualClass:           actual,
		PredictedClass:        predicted,
		MarginalProbabilities: probs,
	}
}

func discreteBatches() []*scoring.BatchResult {
	classes := []string{"a", "b"}
	return []*scoring.BatchResult{
		{Index: 0, Mode: featurespace.Discrete, Method: scoring.WNDMethod, ClassNames: classes,
			Predictions: []scoring.SamplePrediction{pred("s1", 0, 0, 0), pred("s2", 1, 1, 0)}},
		{Index: 1, Mode: featurespace.Discrete, Method: scoring.WNDMethod, ClassNames: classes,
			Predictions: []scoring.SamplePrediction{pred("s1", 0, 0, 0), pred("s3", 2, 1, 1)}},
	}
}

func requireNotReady(t *testing.T, err error) {
	t.Helper()
	var nr *errors.NotReadyError
	require.Error(t, err)
	assert.True(t, errors.As(err, &nr), "got %v", err)
}

func TestResultEmpty(t *testing.T) {
	r := NewResult("empty", featurespace.Discrete, scoring.WNDMethod)
	assert.Equal(t, Empty, r.State())
	assert.Equal(t, 0, r.Len())

	requireNotReady(t, r.GenerateStats())
	_, err := r.Stats()
	requireNotReady(t, err)
	_, err = r.PerSampleStatisticsString()
	requireNotReady(t, err)
	_, err = r.PredictionPlot()
	requireNotReady(t, err)
	requireNotReady(t, r.WriteSummary(&bytes.Buffer{}))
}

func TestResultAppend(t *testing.T) {
	r := NewResult("exp", featurespace.Discrete, scoring.WNDMethod)
	var ve *errors.ValidationError

	assert.True(t, errors.As(r.Append(nil), &ve))
	assert.True(t, errors.As(r.Append(&scoring.BatchResult{Mode: featurespace.Continuous}), &ve))

	bs := discreteBatches()
	require.NoError(t, r.Append(bs[0]))
	other := &scoring.BatchResult{Mode: featurespace.Discrete, ClassNames: []string{"a", "c"}}
	assert.True(t, errors.As(r.Append(other), &ve), "class names must match")
	assert.Equal(t, 1, r.Len())
}

func TestResultStates(t *testing.T) {
	r := NewResult("exp", featurespace.Discrete, scoring.WNDMethod)
	bs := discreteBatches()

	require.NoError(t, r.Append(bs[0]))
	assert.Equal(t, Collected, r.State())
	_, err := r.Stats()
	requireNotReady(t, err)

	require.NoError(t, r.GenerateStats())
	assert.Equal(t, StatsReady, r.State())
	s, err := r.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, s.NumSplits)
	assert.InDelta(t, 0.5, s.Accuracy, 1e-12)

	// 追加すると統計は古くなる
	require.NoError(t, r.Append(bs[1]))
	assert.Equal(t, Collected, r.State())
	require.NoError(t, r.GenerateStats())
	s, err = r.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, s.NumSplits)
	assert.Equal(t, 4, s.NumPredictions)
	assert.InDelta(t, 0.75, s.Accuracy, 1e-12)
	assert.InDelta(t, 0.75, s.MeanAccuracy, 1e-12)
	assert.InDelta(t, math.Sqrt(0.125), s.StdAccuracy, 1e-12)
	assert.Equal(t, []float64{2, 0, 1, 1}, s.Confusion.RawMatrix().Data)
	assert.Equal(t, []float64{1, 0.5}, s.PerClassAccuracy)
	assert.False(t, s.HasValueStats)
	assert.True(t, math.IsNaN(s.Pearson))
	assert.Contains(t, r.String(), "accuracy=0.7500")
}

func TestPerSampleStatistics(t *testing.T) {
	r := NewResult("exp", featurespace.Discrete, scoring.WNDMethod)
	for _, b := range discreteBatches() {
		require.NoError(t, r.Append(b))
	}
	r.SetSamples([]featurespace.SampleMeta{
		{Name: "s1", GroupID: 0, ClassLabel: "a"},
		{Name: "s2", GroupID: 1, ClassLabel: "b"},
		{Name: "s3", GroupID: 2, ClassLabel: "b"},
		{Name: "s4", GroupID: 3, ClassLabel: "b"},
	})

	out, err := r.PerSampleStatisticsString()
	require.NoError(t, err)
	assert.Equal(t, StatsReady, r.State(), "the report generates stats")

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3+2*4+4)
	assert.Equal(t, reportRule, lines[0])
	assert.Equal(t, "Per-sample statistics: exp (discrete, wnd, 2 splits, 4 samples)", lines[1])
	assert.Equal(t, reportRule, lines[2])

	assert.Equal(t, "s1 (group 0, tile 0)", lines[3])
	assert.Equal(t, "    tested 2 time(s), actual a, most often predicted a, correct 2/2", lines[4])
	assert.Equal(t, "        split   0: predicted a (correct) p=0.800", lines[5])
	assert.Equal(t, "        split   1: predicted a (correct) p=0.800", lines[6])
	assert.Equal(t, "s2 (group 1, tile 0)", lines[7])
	assert.Contains(t, lines[8], "correct 0/1")
	assert.Equal(t, "        split   0: predicted a (incorrect) p=0.800", lines[9])
	assert.Equal(t, "s4 (group 3, tile 0)", lines[13])
	assert.Equal(t, "    "+NeverTested, lines[14])
}

func continuousResult(t *testing.T) *Result {
	t.Helper()
	r := NewResult("cont", featurespace.Continuous, scoring.LeastSquaresMethod)
	truth := [][]float64{{1, 2, 3}, {2, 4}}
	guess := [][]float64{{1.5, 2, 2.5}, {2.5, 3.5}}
	for i := range truth {
		b := &scoring.BatchResult{Index: i, Mode: featurespace.Continuous, Method: scoring.LeastSquaresMethod}
		for j := range truth[i] {
			b.Predictions = append(b.Predictions, scoring.SamplePrediction{
				Name: "s", GroupID: int(truth[i][j]), ActualClass: -1, PredictedClass: -1,
				GroundTruth: truth[i][j], HasGroundTruth: true,
				PredictedValue: guess[i][j], HasPredictedValue: true,
			})
		}
		require.NoError(t, r.Append(b))
	}
	return r
}

func TestContinuousStats(t *testing.T) {
	r := continuousResult(t)
	require.NoError(t, r.GenerateStats())
	s, err := r.Stats()
	require.NoError(t, err)

	assert.True(t, s.HasValueStats)
	assert.Equal(t, 5, s.NumPredictions)
	assert.InDelta(t, 0.4, s.MAE, 1e-12)
	assert.InDelta(t, math.Sqrt(0.2), s.RMSE, 1e-12)
	assert.Greater(t, s.Pearson, 0.9)
	assert.Nil(t, s.Confusion)

	out, err := r.PerSampleStatisticsString()
	require.NoError(t, err)
	// group 2 は両方の分割で評価された
	assert.Contains(t, out, "tested 2 time(s), ground truth 2, predicted mean 2.25 std 0.25 median 2.25")
	assert.Contains(t, out, "predicted 1.5 (ground truth 1, error +0.5)")
}

func TestWriteSummary(t *testing.T) {
	r := NewResult("exp", featurespace.Discrete, scoring.WNDMethod)
	for _, b := range discreteBatches() {
		require.NoError(t, r.Append(b))
	}
	var buf bytes.Buffer
	require.NoError(t, r.WriteSummary(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "exp: 2 splits, 4 predictions (discrete, wnd)"))
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, "0.7500")
	assert.Contains(t, out, "Confusion matrix")

	buf.Reset()
	require.NoError(t, continuousResult(t).WriteSummary(&buf))
	assert.NotContains(t, buf.String(), "Confusion matrix")
}

func TestPredictionPlot(t *testing.T) {
	r := continuousResult(t)
	p, err := r.PredictionPlot()
	require.NoError(t, err)
	assert.Equal(t, "cont", p.Title.Text)

	path := filepath.Join(t.TempDir(), "predictions.png")
	require.NoError(t, p.Save(4*vg.Inch, 4*vg.Inch, path))

	// 値を持たない分類結果は描けない
	d := NewResult("exp", featurespace.Discrete, scoring.WNDMethod)
	for _, b := range discreteBatches() {
		require.NoError(t, d.Append(b))
	}
	_, err = d.PredictionPlot()
	requireNotReady(t, err)
}
