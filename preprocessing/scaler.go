// Package preprocessing は特徴量テーブルの列ごとのスケーリングを提供します。
//
// 学習した変換パラメータ（Params）は列の部分集合に切り出せるため、
// 特徴量削減後のテーブルにも同じ正規化を適用できます。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// Method は正規化の方式です。
type Method int

const (
	// ZScore は平均0、母標準偏差1への標準化（デフォルト）
	ZScore Method = iota
	// MinMax は学習データの最小値・最大値を FeatureRange に写す
	MinMax
)

func (m Method) String() string {
	switch m {
	case ZScore:
		return "zscore"
	case MinMax:
		return "minmax"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// 分散がこれ未満の列は定数列として扱い、スケールを1にする
const constantColumnEps = 1e-8

// Params は列ごとの学習済み変換です。
// 変換は x' = (x - Center[j]) / Scale[j] * Span + Low で表されます。
type Params struct {
	Method Method
	Center []float64
	Scale  []float64
	Low    float64
	Span   float64
}

// NumFeatures は列数を返します。
func (p *Params) NumFeatures() int {
	return len(p.Center)
}

// Select は指定した列だけを順番どおりに持つ新しい Params を返します。
func (p *Params) Select(cols []int) (*Params, error) {
	out := &Params{
		Method: p.Method,
		Center: make([]float64, len(cols)),
		Scale:  make([]float64, len(cols)),
		Low:    p.Low,
		Span:   p.Span,
	}
	for k, j := range cols {
		if j < 0 || j >= len(p.Center) {
			return nil, errors.NewValidationError("cols", "column index out of range", j)
		}
		out.Center[k] = p.Center[j]
		out.Scale[k] = p.Scale[j]
	}
	return out, nil
}

// Clone はディープコピーを返します。
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	out := *p
	out.Center = append([]float64(nil), p.Center...)
	out.Scale = append([]float64(nil), p.Scale...)
	return &out
}

// Apply は X をその場で変換します。
func (p *Params) Apply(X *mat.Dense) error {
	r, c := X.Dims()
	if c != p.NumFeatures() {
		return errors.NewDimensionError("Params.Apply", p.NumFeatures(), c, 1)
	}
	for i := 0; i < r; i++ {
		row := X.RawRowView(i)
		for j := range row {
			row[j] = (row[j]-p.Center[j])/p.Scale[j]*p.Span + p.Low
		}
	}
	return nil
}

// Invert は Apply の逆変換をその場で行います。
func (p *Params) Invert(X *mat.Dense) error {
	r, c := X.Dims()
	if c != p.NumFeatures() {
		return errors.NewDimensionError("Params.Invert", p.NumFeatures(), c, 1)
	}
	for i := 0; i < r; i++ {
		row := X.RawRowView(i)
		for j := range row {
			row[j] = (row[j]-p.Low)/p.Span*p.Scale[j] + p.Center[j]
		}
	}
	return nil
}

// Fit は method に応じたスケーラーで X を学習し、そのパラメータを返します。
func Fit(method Method, X mat.Matrix) (*Params, error) {
	switch method {
	case ZScore:
		s := NewStandardScaler()
		if err := s.Fit(X); err != nil {
			return nil, err
		}
		return s.Params(), nil
	case MinMax:
		s := NewMinMaxScalerDefault()
		if err := s.Fit(X); err != nil {
			return nil, err
		}
		return s.Params(), nil
	default:
		return nil, errors.NewValidationError("method", "unknown normalization method", method)
	}
}

// column は X の j 列目をコピーして返します。
func column(X mat.Matrix, j int) []float64 {
	r, _ := X.Dims()
	col := make([]float64, r)
	mat.Col(col, j, X)
	return col
}

// StandardScaler はデータを平均0、母標準偏差1に変換する
type StandardScaler struct {
	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の母標準偏差（定数列は1）
	Scale []float64

	fitted bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler()
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit は訓練データから平均と母標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		mean, variance := stat.PopMeanVariance(column(X, j), nil)
		s.Mean[j] = mean
		s.Scale[j] = math.Sqrt(variance)
		// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
		if s.Scale[j] < constantColumnEps {
			s.Scale[j] = 1.0
		}
	}
	s.fitted = true
	return nil
}

// Params は学習済みパラメータを返す。未学習の場合は nil
func (s *StandardScaler) Params() *Params {
	if !s.fitted {
		return nil
	}
	return &Params{
		Method: ZScore,
		Center: append([]float64(nil), s.Mean...),
		Scale:  append([]float64(nil), s.Scale...),
		Low:    0,
		Span:   1,
	}
}

// Transform は学習済みの統計情報を使ってデータを標準化した新しい行列を返す
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.fitted {
		return nil, errors.NewNotReadyError("StandardScaler", "Transform", "scaler is not fitted")
	}
	result := mat.DenseCopyOf(X)
	if err := s.Params().Apply(result); err != nil {
		return nil, errors.Wrap(err, "StandardScaler.Transform")
	}
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.fitted {
		return "StandardScaler()"
	}
	return fmt.Sprintf("StandardScaler(n_features=%d)", len(s.Mean))
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量のスケール (max - min)、定数列は1
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64

	fitted bool
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{FeatureRange: featureRange}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if m.FeatureRange[1] <= m.FeatureRange[0] {
		return errors.NewValidationError("feature_range", "max must be greater than min", m.FeatureRange)
	}

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		col := column(X, j)
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)

		dataRange := m.DataMax[j] - m.DataMin[j]
		if math.Abs(dataRange) < constantColumnEps {
			// 定数特徴量の場合、スケールを1に設定
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}
	m.fitted = true
	return nil
}

// Params は学習済みパラメータを返す。未学習の場合は nil
func (m *MinMaxScaler) Params() *Params {
	if !m.fitted {
		return nil
	}
	return &Params{
		Method: MinMax,
		Center: append([]float64(nil), m.DataMin...),
		Scale:  append([]float64(nil), m.Scale...),
		Low:    m.FeatureRange[0],
		Span:   m.FeatureRange[1] - m.FeatureRange[0],
	}
}

// Transform は学習済みの統計情報を使ってスケーリングした新しい行列を返す
func (m *MinMaxScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !m.fitted {
		return nil, errors.NewNotReadyError("MinMaxScaler", "Transform", "scaler is not fitted")
	}
	result := mat.DenseCopyOf(X)
	if err := m.Params().Apply(result); err != nil {
		return nil, errors.Wrap(err, "MinMaxScaler.Transform")
	}
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.fitted {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], len(m.DataMin))
}
