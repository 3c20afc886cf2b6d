package featurespace_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/internal/artificial"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/preprocessing"
)

func requireValidation(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
}

func requireValueError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve), "want ValueError, got %v", err)
}

// smallDiscrete は2クラス・4グループの小さな離散テーブル
func smallDiscrete(t *testing.T) *featurespace.FeatureTable {
	t.Helper()
	data := mat.NewDense(4, 3, []float64{
		1, 10, 5,
		2, 20, 5,
		3, 30, 5,
		4, 40, 5,
	})
	samples := []featurespace.SampleMeta{
		{Name: "a", GroupID: 0, ClassLabel: "low"},
		{Name: "b", GroupID: 1, ClassLabel: "low"},
		{Name: "c", GroupID: 2, ClassLabel: "high"},
		{Name: "d", GroupID: 3, ClassLabel: "high"},
	}
	ft, err := featurespace.New("small", data, []string{"f1", "f2", "const"}, samples)
	require.NoError(t, err)
	return ft
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name     string
		want     float64
		hasValue bool
	}{
		{"FakeClass-55.56", -55.56, true},
		{"FakeClass100", 100, true},
		{"2cell", 2, true},
		{"dose_0.5mg", 0.5, true},
		{"CLL", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := featurespace.ParseLabel(tt.name)
			assert.Equal(t, tt.name, l.Name)
			assert.Equal(t, tt.hasValue, l.HasValue)
			assert.InDelta(t, tt.want, l.Value, 1e-12)
		})
	}
}

func TestNewValidation(t *testing.T) {
	twoRows := func(vals ...float64) *mat.Dense { return mat.NewDense(2, 2, vals) }
	names := []string{"f1", "f2"}
	labelled := []featurespace.SampleMeta{
		{Name: "a", GroupID: 0, ClassLabel: "x"},
		{Name: "b", GroupID: 1, ClassLabel: "y"},
	}

	tests := []struct {
		name    string
		data    mat.Matrix
		names   []string
		samples []featurespace.SampleMeta
	}{
		{"NaN", twoRows(1, math.NaN(), 3, 4), names, labelled},
		{"Inf", twoRows(1, 2, math.Inf(1), 4), names, labelled},
		{"duplicate feature", twoRows(1, 2, 3, 4), []string{"f", "f"}, labelled},
		{"mixed labels", twoRows(1, 2, 3, 4), names, []featurespace.SampleMeta{
			{Name: "a", GroupID: 0, ClassLabel: "x"},
			{Name: "b", GroupID: 1, GroundTruth: 1, HasGroundTruth: true},
		}},
		{"duplicate tile", twoRows(1, 2, 3, 4), names, []featurespace.SampleMeta{
			{Name: "a", GroupID: 0, ClassLabel: "x"},
			{Name: "b", GroupID: 0, ClassLabel: "x"},
		}},
		{"group mixes classes", twoRows(1, 2, 3, 4), names, []featurespace.SampleMeta{
			{Name: "a", GroupID: 0, TileIndex: 0, ClassLabel: "x"},
			{Name: "a", GroupID: 0, TileIndex: 1, ClassLabel: "y"},
		}},
		{"continuous without ground truth", twoRows(1, 2, 3, 4), names, []featurespace.SampleMeta{
			{Name: "a", GroupID: 0},
			{Name: "b", GroupID: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := featurespace.New("bad", tt.data, tt.names, tt.samples)
			requireValidation(t, err)
		})
	}

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := featurespace.New("bad", twoRows(1, 2, 3, 4), []string{"f1"}, labelled)
		require.Error(t, err)
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})
}

func TestNewModeAndClasses(t *testing.T) {
	ft := smallDiscrete(t)
	assert.Equal(t, featurespace.Discrete, ft.Mode())
	assert.Equal(t, []string{"low", "high"}, ft.ClassNames())
	assert.Equal(t, []int{0, 0, 1, 1}, ft.ClassIndices())
	_, ok := ft.ClassValues()
	assert.False(t, ok)
	r, c := ft.Shape()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)

	t.Run("interpolated labels", func(t *testing.T) {
		ft, err := artificial.Discrete(artificial.WithSamples(40), artificial.WithClasses(4), artificial.WithFeaturesPerSignal(1))
		require.NoError(t, err)
		values, ok := ft.ClassValues()
		require.True(t, ok)
		assert.InDeltaSlice(t, []float64{-100, -33.33, 33.33, 100}, values, 1e-9)
		truth, ok := ft.GroundTruth()
		require.True(t, ok)
		assert.Equal(t, -100.0, truth[0])
	})

	t.Run("forced continuous", func(t *testing.T) {
		src, err := artificial.Discrete(artificial.WithSamples(40), artificial.WithClasses(4), artificial.WithFeaturesPerSignal(1))
		require.NoError(t, err)
		ft, err := featurespace.New("as continuous", src.Data(), src.FeatureNames(), src.Samples(),
			featurespace.WithMode(featurespace.Continuous))
		require.NoError(t, err)
		assert.Equal(t, featurespace.Continuous, ft.Mode())
		assert.Equal(t, 0, ft.NumClasses())
		truth, ok := ft.GroundTruth()
		require.True(t, ok)
		assert.Equal(t, 100.0, truth[len(truth)-1])
	})

	t.Run("class without number warns", func(t *testing.T) {
		var warnings []error
		errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
		defer errors.SetWarningHandler(func(error) {})

		_, err := featurespace.New("warn", mat.NewDense(2, 1, []float64{1, 2}), []string{"f"},
			[]featurespace.SampleMeta{
				{Name: "a", GroupID: 0, ClassLabel: "CLL"},
				{Name: "b", GroupID: 1, ClassLabel: "2cell"},
			}, featurespace.WithInterpolatedLabels())
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		var dw *errors.DataConversionWarning
		assert.True(t, errors.As(warnings[0], &dw))
	})
}

func TestAccessorsReturnCopies(t *testing.T) {
	ft := smallDiscrete(t)
	ft.FeatureNames()[0] = "changed"
	ft.Row(0)[0] = 99
	ft.Samples()[0].Name = "changed"
	ft.Data().Set(0, 0, 99)

	assert.Equal(t, "f1", ft.FeatureNames()[0])
	assert.Equal(t, 1.0, ft.At(0, 0))
	assert.Equal(t, "a", ft.Sample(0).Name)
}

func columnStats(ft *featurespace.FeatureTable, j int) (mean, std float64) {
	mean, variance := stat.PopMeanVariance(ft.Column(j), nil)
	return mean, math.Sqrt(variance)
}

func TestNormalize(t *testing.T) {
	ft := smallDiscrete(t)

	norm, err := ft.Normalize()
	require.NoError(t, err)
	assert.True(t, norm.IsNormalized())
	assert.False(t, ft.IsNormalized(), "receiver must not change without InPlace")
	assert.Equal(t, 1.0, ft.At(0, 0))

	for j := 0; j < 2; j++ {
		mean, std := columnStats(norm, j)
		assert.InDelta(t, 0, mean, 1e-12)
		assert.InDelta(t, 1, std, 1e-12)
	}
	// 定数列は0になりNaNは出ない
	for i := 0; i < norm.NumSamples(); i++ {
		assert.Equal(t, 0.0, norm.At(i, 2))
	}

	t.Run("in place", func(t *testing.T) {
		ft := smallDiscrete(t)
		out, err := ft.Normalize(featurespace.InPlace())
		require.NoError(t, err)
		assert.Same(t, ft, out)
		assert.True(t, ft.IsNormalized())
	})

	t.Run("min-max", func(t *testing.T) {
		out, err := smallDiscrete(t).Normalize(featurespace.WithMethod(preprocessing.MinMax))
		require.NoError(t, err)
		col := out.Column(1)
		assert.InDeltaSlice(t, []float64{0, 1.0 / 3, 2.0 / 3, 1}, col, 1e-12)
	})
}

func TestNormalizeWithReference(t *testing.T) {
	a, err := artificial.Continuous(artificial.WithSamples(1000), artificial.WithFeaturesPerSignal(2), artificial.WithRandomState(1))
	require.NoError(t, err)
	b, err := artificial.Continuous(artificial.WithSamples(1000), artificial.WithFeaturesPerSignal(2), artificial.WithRandomState(2))
	require.NoError(t, err)

	_, err = a.Normalize(featurespace.InPlace())
	require.NoError(t, err)
	bn, err := b.Normalize(featurespace.WithReference(a))
	require.NoError(t, err)

	for j := 0; j < bn.NumFeatures(); j++ {
		mean, std := columnStats(bn, j)
		assert.InDelta(t, 0, mean, 0.15, "feature %s", bn.FeatureNames()[j])
		assert.InDelta(t, 1, std, 0.15, "feature %s", bn.FeatureNames()[j])
	}

	t.Run("reference not normalized", func(t *testing.T) {
		_, err := b.Normalize(featurespace.WithReference(b))
		requireValidation(t, err)
	})

	t.Run("reference with other features", func(t *testing.T) {
		reduced, err := a.FeatureReduce(a.FeatureNames()[:3])
		require.NoError(t, err)
		_, err = b.Normalize(featurespace.WithReference(reduced))
		requireValidation(t, err)
	})

	t.Run("reduced test against reduced train", func(t *testing.T) {
		names := []string{a.FeatureNames()[5], a.FeatureNames()[0]}
		ar, err := a.FeatureReduce(names)
		require.NoError(t, err)
		br, err := b.FeatureReduce(names)
		require.NoError(t, err)
		got, err := br.Normalize(featurespace.WithReference(ar))
		require.NoError(t, err)

		j, _ := bn.FeatureIndex(names[0])
		assert.InDeltaSlice(t, bn.Column(j), got.Column(0), 1e-12)
	})
}

// rising は1特徴量の {100, 110, ..., 140} のテーブル
func rising(t *testing.T, name string) *featurespace.FeatureTable {
	t.Helper()
	data := mat.NewDense(5, 1, []float64{100, 110, 120, 130, 140})
	labels := []string{"low", "low", "low", "high", "high"}
	samples := make([]featurespace.SampleMeta, len(labels))
	for i, l := range labels {
		samples[i] = featurespace.SampleMeta{Name: name + string(rune('a'+i)), GroupID: i, ClassLabel: l}
	}
	ft, err := featurespace.New(name, data, []string{"f"}, samples)
	require.NoError(t, err)
	return ft
}

func TestNormalizeTwice(t *testing.T) {
	once, err := rising(t, "train").Normalize()
	require.NoError(t, err)
	twice, err := once.Normalize()
	require.NoError(t, err)
	assert.InDeltaSlice(t, once.Column(0), twice.Column(0), 1e-12)

	got, err := rising(t, "test").Normalize(featurespace.WithReference(twice))
	require.NoError(t, err)
	mean, std := columnStats(got, 0)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, std, 1e-9)

	t.Run("in place", func(t *testing.T) {
		ft := rising(t, "train")
		_, err := ft.Normalize(featurespace.InPlace())
		require.NoError(t, err)
		_, err = ft.Normalize(featurespace.InPlace())
		require.NoError(t, err)
		assert.InDeltaSlice(t, once.Column(0), ft.Column(0), 1e-12)
	})

	t.Run("switch method", func(t *testing.T) {
		mm, err := once.Normalize(featurespace.WithMethod(preprocessing.MinMax))
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75, 1}, mm.Column(0), 1e-12)
	})

	t.Run("normalized test table", func(t *testing.T) {
		test, err := rising(t, "test").Normalize(featurespace.WithMethod(preprocessing.MinMax))
		require.NoError(t, err)
		got, err := test.Normalize(featurespace.WithReference(once))
		require.NoError(t, err)
		assert.InDeltaSlice(t, once.Column(0), got.Column(0), 1e-12)
	})
}

func TestFeatureReduce(t *testing.T) {
	ft := smallDiscrete(t)

	once, err := ft.FeatureReduce([]string{"f2", "f1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f1"}, once.FeatureNames())
	assert.Equal(t, []float64{10, 1}, once.Row(0))

	twice, err := once.FeatureReduce([]string{"f2", "f1"})
	require.NoError(t, err)
	assert.True(t, mat.Equal(once.Data(), twice.Data()))

	_, err = ft.FeatureReduce([]string{"missing"})
	requireValidation(t, err)
	_, err = ft.FeatureReduce([]string{"f1", "f1"})
	requireValidation(t, err)
	_, err = ft.FeatureReduce(nil)
	requireValidation(t, err)

	assert.Equal(t, 3, ft.NumFeatures(), "source keeps its features")

	_, err = ft.FeatureReduce([]string{"f1"}, featurespace.InPlace())
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ft.FeatureNames())
}
