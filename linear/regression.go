// Package linear は多変量線形回帰（正規方程式）を提供します。
// 連続値テーブルの multivariate スコアラーが内部で使用します。
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wndgo/core/parallel"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数

	alpha   float64
	maxCond float64
	fitted  bool
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{
		maxCond: DefaultMaxCondition,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 (X^T X + αI) w = X^T y をコレスキー分解で解く
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if lr.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", lr.alpha)
	}

	lr.NFeatures = c

	// 切片項のために X に 1 の列を追加
	// design = [1, X]
	design := mat.NewDense(r, c+1, nil)

	// 並列処理の閾値（この値以下の行数では逐次処理を使用）
	const parallelThreshold = 1000

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			row := design.RawRowView(i)
			row[0] = 1.0
			for j := 0; j < c; j++ {
				row[j+1] = X.At(i, j)
			}
		}
	})

	// X^T X（対称行列）
	var xtx mat.SymDense
	xtx.SymOuterK(1, design.T())
	for j := 1; j <= c; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+lr.alpha)
	}

	yVec := mat.NewVecDense(r, mat.Col(nil, 0, y))
	var xty mat.VecDense
	xty.MulVec(design.T(), yVec)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > lr.maxCond {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &xty); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.Wrap(errors.ErrSingularMatrix, err.Error()))
	}

	// 切片と重みを分離
	lr.Intercept = w.AtVec(0)
	lr.Weights = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		lr.Weights.SetVec(j, w.AtVec(j+1))
	}
	lr.fitted = true
	return nil
}

// IsFitted はモデルが学習済みかどうかを返す
func (lr *LinearRegression) IsFitted() bool {
	return lr.fitted
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !lr.fitted {
		return nil, errors.NewNotReadyError("LinearRegression", "Predict", "model is not fitted")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	// 予測: y = X * weights + intercept
	predictions := mat.NewVecDense(r, nil)
	predictions.MulVec(X, lr.Weights)
	for i := 0; i < r; i++ {
		predictions.SetVec(i, predictions.AtVec(i)+lr.Intercept)
	}
	return predictions, nil
}

// GetWeights は学習済みの重みをスライスで返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}

// GetIntercept は学習済みの切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	return lr.Intercept
}

// String はモデルの文字列表現を返す
func (lr *LinearRegression) String() string {
	return fmt.Sprintf("LinearRegression(alpha=%g, max_cond=%g, n_features=%d)",
		lr.alpha, lr.maxCond, lr.NFeatures)
}
