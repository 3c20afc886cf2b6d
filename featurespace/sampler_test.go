package featurespace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/internal/artificial"
)

func discreteTable(t *testing.T, opts ...artificial.Option) *featurespace.FeatureTable {
	t.Helper()
	base := []artificial.Option{
		artificial.WithName("DiscreteArtificialFS"),
		artificial.WithSamples(1000),
		artificial.WithClasses(10),
		artificial.WithFeaturesPerSignal(2),
		artificial.WithRandomState(42),
	}
	ft, err := artificial.Discrete(append(base, opts...)...)
	require.NoError(t, err)
	return ft
}

func continuousTable(t *testing.T, opts ...artificial.Option) *featurespace.FeatureTable {
	t.Helper()
	base := []artificial.Option{
		artificial.WithName("ContinuousArtificialFS"),
		artificial.WithSamples(1000),
		artificial.WithFeaturesPerSignal(2),
		artificial.WithRandomState(42),
	}
	ft, err := artificial.Continuous(append(base, opts...)...)
	require.NoError(t, err)
	return ft
}

func intRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

func TestSampleReduceDiscrete(t *testing.T) {
	ft := discreteTable(t)

	t.Run("flat keep is ambiguous", func(t *testing.T) {
		_, err := ft.SampleReduce(featurespace.ReduceRequest{Keep: []int{1, 2, 3}})
		requireValidation(t, err)
	})

	t.Run("keep by class with placeholder", func(t *testing.T) {
		// 各クラスから10グループ、3番目のクラスは捨てる
		byClass := make([][]int, 10)
		for k := range byClass {
			if k == 2 {
				continue
			}
			byClass[k] = intRange(k*100, k*100+10)
		}
		got, err := ft.SampleReduce(featurespace.ReduceRequest{KeepByClass: byClass})
		require.NoError(t, err)
		assert.Equal(t, 9, got.NumClasses())
		assert.Equal(t, 90, got.NumSamples())

		names := ft.ClassNames()
		want := append(append([]string(nil), names[:2]...), names[3:]...)
		assert.Equal(t, want, got.ClassNames())
		assert.Equal(t, "FakeClass-100_000", got.Sample(0).Name)
		assert.Equal(t, ft.Sample(300).Name, got.Sample(20).Name)
	})

	t.Run("more classes than the source", func(t *testing.T) {
		byClass := make([][]int, 19)
		for k := range byClass {
			byClass[k] = intRange(k*50, k*50+5)
		}
		got, err := ft.SampleReduce(featurespace.ReduceRequest{KeepByClass: byClass})
		require.NoError(t, err)
		assert.Equal(t, 19, got.NumClasses())
		assert.Equal(t, "Class19", got.ClassNames()[18])
		// 同じクラス名の位置は元の名前を使う
		assert.Equal(t, ft.ClassNames()[0], got.ClassNames()[0])
	})

	t.Run("leave out", func(t *testing.T) {
		undesired := []int{5, 17, 400, 999}
		got, err := ft.SampleReduce(featurespace.ReduceRequest{LeaveOut: undesired})
		require.NoError(t, err)
		assert.Equal(t, ft.NumSamples()-len(undesired), got.NumSamples())
		assert.Equal(t, 10, got.NumClasses())

		got, err = ft.SampleReduce(featurespace.ReduceRequest{LeaveOut: []int{0}})
		require.NoError(t, err)
		assert.Equal(t, ft.NumSamples()-1, got.NumSamples())
	})

	t.Run("leave out a whole class", func(t *testing.T) {
		got, err := ft.SampleReduce(featurespace.ReduceRequest{LeaveOut: intRange(300, 400)})
		require.NoError(t, err)
		assert.Equal(t, 9, got.NumClasses())
		assert.NotContains(t, got.ClassNames(), ft.ClassNames()[3])
	})

	t.Run("invalid ids", func(t *testing.T) {
		_, err := ft.SampleReduce(featurespace.ReduceRequest{LeaveOut: []int{1000}})
		requireValidation(t, err)
		_, err = ft.SampleReduce(featurespace.ReduceRequest{LeaveOut: []int{3, 3}})
		requireValidation(t, err)
		_, err = ft.SampleReduce(featurespace.ReduceRequest{})
		requireValidation(t, err)
		_, err = ft.SampleReduce(featurespace.ReduceRequest{LeaveOut: []int{1}, KeepByClass: [][]int{{2}}})
		requireValidation(t, err)
	})
}

func TestSampleReduceTiled(t *testing.T) {
	const tiles = 5
	t.Run("discrete", func(t *testing.T) {
		ft := discreteTable(t, artificial.WithSamplesPerGroup(tiles))
		require.Equal(t, 200, ft.Groups().Len())

		desired := [][]int{intRange(0, 5), intRange(20, 25)}
		got, err := ft.SampleReduce(featurespace.ReduceRequest{KeepByClass: desired})
		require.NoError(t, err)
		assert.Equal(t, tiles*10, got.NumSamples())

		undesired := []int{3, 50, 199}
		got, err = ft.SampleReduce(featurespace.ReduceRequest{LeaveOut: undesired})
		require.NoError(t, err)
		assert.Equal(t, ft.NumSamples()-len(undesired)*tiles, got.NumSamples())
	})

	t.Run("continuous", func(t *testing.T) {
		ft := continuousTable(t, artificial.WithSamplesPerGroup(tiles))

		got, err := ft.SampleReduce(featurespace.ReduceRequest{Keep: []int{1, 2, 3}})
		require.NoError(t, err)
		assert.Equal(t, 3*tiles, got.NumSamples())
		for i := 0; i < tiles; i++ {
			assert.Equal(t, 1, got.Sample(i).GroupID)
			assert.Equal(t, i, got.Sample(i).TileIndex)
		}

		got, err = ft.SampleReduce(featurespace.ReduceRequest{Keep: []int{7}})
		require.NoError(t, err)
		assert.Equal(t, tiles, got.NumSamples())

		got, err = ft.SampleReduce(featurespace.ReduceRequest{LeaveOut: []int{0, 10}})
		require.NoError(t, err)
		assert.Equal(t, ft.NumSamples()-2*tiles, got.NumSamples())

		_, err = ft.SampleReduce(featurespace.ReduceRequest{KeepByClass: [][]int{{1}}})
		requireValidation(t, err)
	})
}

func TestNewReduceRequest(t *testing.T) {
	t.Run("single id", func(t *testing.T) {
		req, err := featurespace.NewReduceRequest(5, nil)
		require.NoError(t, err)
		assert.Equal(t, []int{5}, req.Keep)
	})

	t.Run("nested with placeholders", func(t *testing.T) {
		req, err := featurespace.NewReduceRequest([]any{[]any{0, 1}, false, nil, []any{2.0}}, nil)
		require.NoError(t, err)
		assert.Nil(t, req.Keep)
		require.Len(t, req.KeepByClass, 4)
		assert.Equal(t, []int{0, 1}, req.KeepByClass[0])
		assert.Empty(t, req.KeepByClass[1])
		assert.Empty(t, req.KeepByClass[2])
		assert.Equal(t, []int{2}, req.KeepByClass[3])
	})

	t.Run("leave out list", func(t *testing.T) {
		req, err := featurespace.NewReduceRequest(nil, []any{3, 4})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 4}, req.LeaveOut)
	})

	t.Run("rejects", func(t *testing.T) {
		_, err := featurespace.NewReduceRequest([]any{1, "foo"}, nil)
		requireValidation(t, err)
		_, err = featurespace.NewReduceRequest("foo", nil)
		requireValidation(t, err)
		_, err = featurespace.NewReduceRequest(nil, []any{[]any{1}})
		requireValidation(t, err)
		_, err = featurespace.NewReduceRequest([]any{[]any{1}, 2}, nil)
		requireValidation(t, err)
		_, err = featurespace.NewReduceRequest([]any{1.5}, nil)
		requireValidation(t, err)
	})
}
