package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// Accuracy は正解率を計算する。ラベルはクラスの添字
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errors.NewValueError("Accuracy", "empty labels")
	}
	if len(yPred) != len(yTrue) {
		return 0, errors.NewDimensionError("Accuracy", len(yTrue), len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ConfusionMatrix は nClasses×nClasses の混同行列を返す。
// 行が正解クラス、列が予測クラス
func ConfusionMatrix(yTrue, yPred []int, nClasses int) (*mat.Dense, error) {
	if nClasses <= 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "number of classes must be positive")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}

	cm := mat.NewDense(nClasses, nClasses, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= nClasses || p < 0 || p >= nClasses {
			return nil, errors.NewValidationError("labels", "class index out of range", [2]int{t, p})
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

// PerClassAccuracy は混同行列から各クラスの正解率（再現率）を返す。
// 正解サンプルがないクラスは NaN
func PerClassAccuracy(cm *mat.Dense) []float64 {
	r, _ := cm.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		total := floats.Sum(cm.RawRowView(i))
		if total == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = cm.At(i, i) / total
	}
	return out
}
