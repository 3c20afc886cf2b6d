package artificial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

func TestFeatureNames(t *testing.T) {
	names := FeatureNames(2)
	require.Len(t, names, 2*len(Signals))
	assert.Equal(t, "Linear_00", names[0])
	assert.Equal(t, "Linear_01", names[1])
	assert.Equal(t, "Cos2_01", names[len(names)-1])
}

func TestContinuous(t *testing.T) {
	ft, err := Continuous(WithSamples(60), WithFeaturesPerSignal(3), WithSamplesPerGroup(3), WithNoise(0, 0))
	require.NoError(t, err)

	assert.Equal(t, featurespace.Continuous, ft.Mode())
	r, c := ft.Shape()
	assert.Equal(t, 60, r)
	assert.Equal(t, 3*len(Signals), c)
	assert.Equal(t, 20, ft.Groups().Len())
	assert.Equal(t, "FakeContinuousSample0000", ft.Sample(0).Name)
	assert.Equal(t, 2, ft.Sample(2).TileIndex)

	truth, ok := ft.GroundTruth()
	require.True(t, ok)
	for _, y := range truth {
		assert.True(t, y >= -100 && y <= 100, "truth %v out of range", y)
	}

	// ノイズなしなら Linear_00 は真値そのもの
	assert.InDeltaSlice(t, truth, ft.Column(0), 1e-9)
	assert.InDelta(t, 1, stat.Correlation(ft.Column(1), truth, nil), 1e-9)
}

func TestDiscrete(t *testing.T) {
	ft, err := Discrete(WithSamples(40), WithClasses(4), WithFeaturesPerSignal(1))
	require.NoError(t, err)

	assert.Equal(t, featurespace.Discrete, ft.Mode())
	assert.Equal(t, []string{"FakeClass-100", "FakeClass-33.33", "FakeClass33.33", "FakeClass100"}, ft.ClassNames())
	values, ok := ft.ClassValues()
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{-100, -33.33, 33.33, 100}, values, 1e-9)

	assert.Equal(t, "FakeClass-100_000", ft.Sample(0).Name)
	assert.Equal(t, "FakeClass-33.33_009", ft.Sample(19).Name)
	for g, ids := range ft.Groups().ByClass(4) {
		assert.Len(t, ids, 10)
		assert.Equal(t, g*10, ids[0], "groups are contiguous per class")
	}

	t.Run("letters", func(t *testing.T) {
		ft, err := Discrete(WithSamples(30), WithClasses(3), WithFeaturesPerSignal(1), WithInterpolatable(false))
		require.NoError(t, err)
		assert.Equal(t, []string{"FakeClassA", "FakeClassB", "FakeClassC"}, ft.ClassNames())
		_, ok := ft.ClassValues()
		assert.False(t, ok)
	})
}

func TestLetters(t *testing.T) {
	assert.Equal(t, "A", letters(0))
	assert.Equal(t, "Z", letters(25))
	assert.Equal(t, "AA", letters(26))
	assert.Equal(t, "AB", letters(27))
}

func TestDeterminism(t *testing.T) {
	a, err := Continuous(WithSamples(10), WithFeaturesPerSignal(1), WithRandomState(7))
	require.NoError(t, err)
	b, err := Continuous(WithSamples(10), WithFeaturesPerSignal(1), WithRandomState(7))
	require.NoError(t, err)
	c, err := Continuous(WithSamples(10), WithFeaturesPerSignal(1), WithRandomState(8))
	require.NoError(t, err)

	assert.Equal(t, a.Data().RawMatrix().Data, b.Data().RawMatrix().Data)
	assert.NotEqual(t, a.Data().RawMatrix().Data, c.Data().RawMatrix().Data)
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		gen  func() error
	}{
		{"no samples", func() error { _, err := Continuous(WithSamples(0)); return err }},
		{"tiles do not divide", func() error { _, err := Continuous(WithSamples(10), WithSamplesPerGroup(3)); return err }},
		{"one class", func() error { _, err := Discrete(WithClasses(1)); return err }},
		{"uneven classes", func() error { _, err := Discrete(WithSamples(25), WithClasses(10)); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *errors.ValidationError
			assert.True(t, errors.As(tt.gen(), &ve))
		})
	}
}
