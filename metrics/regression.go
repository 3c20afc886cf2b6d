// Package metrics は分割ごと・実験全体の評価指標を提供します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// checkPair は2つのベクトルの長さを検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	diff := mat.NewVecDense(n, nil)
	diff.SubVec(yTrue, yPred)
	return mat.Dot(diff, diff) / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	yMean := mat.Sum(yTrue) / float64(n)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		p := yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}

	if tss == 0 {
		return 0, errors.NewDegenerateInputError("R2Score", "no variance in yTrue")
	}
	return 1 - rss/tss, nil
}

// Pearson はピアソンの積率相関係数を計算する。
// どちらかの分散が0の場合は相関が定義できないため DegenerateInputError を返す。
func Pearson(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Pearson", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if n < 2 {
		return 0, errors.NewDegenerateInputError("Pearson", "need at least 2 samples")
	}

	x := mat.Col(nil, 0, yTrue)
	y := mat.Col(nil, 0, yPred)
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0, errors.NewDegenerateInputError("Pearson", "zero variance")
	}
	return stat.Correlation(x, y, nil), nil
}

// Vec はスライスを VecDense に包む。空スライスの場合は長さ0のベクトルを返す
func Vec(x []float64) *mat.VecDense {
	if len(x) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(x), x)
}
