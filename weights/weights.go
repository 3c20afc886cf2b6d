// Package weights ranks features by how well they separate classes (Fisher
// score) or track a continuous ground truth (absolute Pearson correlation),
// and selects the top-ranked subset used by the scorers.
package weights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// Method names the statistic a FeatureWeights was computed with.
type Method string

const (
	Fisher  Method = "fisher"
	Pearson Method = "pearson"
)

// FeatureWeights is an ordered list of (feature, weight) pairs, highest
// weight first. Equal weights keep the column order of the source table.
type FeatureWeights struct {
	Method Method
	Names  []string
	Values []float64

	// Pearson only, aligned with Names: the signed correlation and the
	// fit feature = Slopes·truth + Intercepts on the source table.
	Correlations []float64
	Slopes       []float64
	Intercepts   []float64
}

// Compute picks Fisher for discrete tables and Pearson for continuous ones.
func Compute(t *featurespace.FeatureTable) (*FeatureWeights, error) {
	if t == nil {
		return nil, errors.NewValidationError("table", "table is nil", nil)
	}
	if t.Mode() == featurespace.Discrete {
		return NewFisher(t)
	}
	return NewPearson(t)
}

// Len returns the number of weighted features.
func (w *FeatureWeights) Len() int { return len(w.Names) }

// Weight returns the weight of the named feature.
func (w *FeatureWeights) Weight(name string) (float64, bool) {
	for i, n := range w.Names {
		if n == name {
			return w.Values[i], true
		}
	}
	return 0, false
}

// Map returns the weights keyed by feature name.
func (w *FeatureWeights) Map() map[string]float64 {
	m := make(map[string]float64, len(w.Names))
	for i, n := range w.Names {
		m[n] = w.Values[i]
	}
	return m
}

// Slice returns ranks [start, end) as a new FeatureWeights.
func (w *FeatureWeights) Slice(start, end int) (*FeatureWeights, error) {
	if start < 0 || end > w.Len() || start >= end {
		return nil, errors.NewValidationError("range",
			fmt.Sprintf("[%d, %d) is not a non-empty range of %d weights", start, end, w.Len()), [2]int{start, end})
	}
	idx := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		idx = append(idx, i)
	}
	return w.pick(idx), nil
}

// pick copies the given ranks, keeping their order.
func (w *FeatureWeights) pick(idx []int) *FeatureWeights {
	out := &FeatureWeights{
		Method: w.Method,
		Names:  make([]string, len(idx)),
		Values: make([]float64, len(idx)),
	}
	pearson := len(w.Slopes) == len(w.Names) && len(w.Slopes) > 0
	if pearson {
		out.Correlations = make([]float64, len(idx))
		out.Slopes = make([]float64, len(idx))
		out.Intercepts = make([]float64, len(idx))
	}
	for k, i := range idx {
		out.Names[k] = w.Names[i]
		out.Values[k] = w.Values[i]
		if pearson {
			out.Correlations[k] = w.Correlations[i]
			out.Slopes[k] = w.Slopes[i]
			out.Intercepts[k] = w.Intercepts[i]
		}
	}
	return out
}

// sorted orders by descending weight; ties keep source order.
func (w *FeatureWeights) sorted() *FeatureWeights {
	idx := make([]int, w.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return w.Values[idx[a]] > w.Values[idx[b]]
	})
	return w.pick(idx)
}

func (w *FeatureWeights) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FeatureWeights(%s, %d features)", w.Method, w.Len())
	for i := 0; i < w.Len() && i < 10; i++ {
		fmt.Fprintf(&b, "\n  %3d %-40s %.6g", i+1, w.Names[i], w.Values[i])
	}
	if w.Len() > 10 {
		b.WriteString("\n  ...")
	}
	return b.String()
}
