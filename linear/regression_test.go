package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

func TestLinearRegressionFit(t *testing.T) {
	tests := []struct {
		name          string
		opts          []Option
		wantIntercept float64
		tolerance     float64
	}{
		{name: "ordinary least squares", wantIntercept: 1.0, tolerance: 0.05},
		{name: "tiny ridge penalty", opts: []Option{WithAlpha(1e-6)}, wantIntercept: 1.0, tolerance: 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X, y := createBenchmarkData(500, 5)

			lr := NewLinearRegression(tt.opts...)
			if err := lr.Fit(X, y); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if math.Abs(lr.GetIntercept()-tt.wantIntercept) > tt.tolerance {
				t.Errorf("intercept = %v, want %v", lr.GetIntercept(), tt.wantIntercept)
			}
			// createBenchmarkData の真の重みは (j+1)*0.5
			for j, w := range lr.GetWeights() {
				want := float64(j+1) * 0.5
				if math.Abs(w-want) > tt.tolerance {
					t.Errorf("weight[%d] = %v, want %v", j, w, want)
				}
			}
		})
	}
}

func TestLinearRegressionPredict(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{1, 3, 5, 7})

	lr := NewLinearRegression()
	if _, err := lr.Predict(X); err == nil {
		t.Fatal("Predict before Fit should fail")
	}
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{4, -1}))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pred.AtVec(0)-9) > 1e-9 || math.Abs(pred.AtVec(1)+1) > 1e-9 {
		t.Errorf("unexpected predictions %v", mat.Formatted(pred))
	}

	if _, err := lr.Predict(mat.NewDense(1, 2, nil)); err == nil {
		t.Error("feature count mismatch should fail")
	}
}

func TestLinearRegressionSingular(t *testing.T) {
	// 2列目は1列目の定数倍
	X := mat.NewDense(5, 2, []float64{
		1, 2,
		2, 4,
		3, 6,
		4, 8,
		5, 10,
	})
	y := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})

	err := NewLinearRegression().Fit(X, y)
	if !errors.Is(err, errors.ErrSingularMatrix) {
		t.Fatalf("expected ErrSingularMatrix, got %v", err)
	}

	// リッジ項があれば解ける
	lr := NewLinearRegression(WithAlpha(1e-6))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("ridge fit failed: %v", err)
	}
	pred, _ := lr.Predict(X)
	for i := 0; i < 5; i++ {
		if math.Abs(pred.AtVec(i)-y.At(i, 0)) > 1e-3 {
			t.Errorf("prediction %d = %v, want %v", i, pred.AtVec(i), y.At(i, 0))
		}
	}
}

func TestLinearRegressionInputErrors(t *testing.T) {
	tests := []struct {
		name string
		X, y mat.Matrix
		opts []Option
	}{
		{"row mismatch", mat.NewDense(3, 1, nil), mat.NewDense(2, 1, nil), nil},
		{"y not a column", mat.NewDense(2, 1, nil), mat.NewDense(2, 2, nil), nil},
		{"negative alpha", mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2}), []Option{WithAlpha(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewLinearRegression(tt.opts...).Fit(tt.X, tt.y); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
