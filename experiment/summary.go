package experiment

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/YuminosukeSato/wndgo/featurespace"
)

// WriteSummary renders the per-split scores and, for classifications, the
// pooled confusion matrix as text tables.
func (r *Result) WriteSummary(w io.Writer) error {
	if err := r.GenerateStats(); err != nil {
		return err
	}
	s := r.stats

	fmt.Fprintf(w, "%s: %d splits, %d predictions (%s, %s)\n", r.Name, s.NumSplits, s.NumPredictions, r.Mode, r.Method)

	splits := tablewriter.NewWriter(w)
	header := []string{"Split", "Test samples"}
	if r.Mode == featurespace.Discrete {
		header = append(header, "Accuracy")
	}
	header = append(header, "Pearson", "RMSE", "MAE")
	splits.SetHeader(header)
	splits.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, b := range r.batches {
		row := []string{strconv.Itoa(b.Index), strconv.Itoa(b.TestSize())}
		if r.Mode == featurespace.Discrete {
			row = append(row, num(b.Accuracy))
		}
		row = append(row, num(b.Pearson), num(b.RMSE), num(b.MAE))
		splits.Append(row)
	}
	footer := []string{"all", strconv.Itoa(s.NumPredictions)}
	if r.Mode == featurespace.Discrete {
		footer = append(footer, num(s.Accuracy))
	}
	footer = append(footer, num(s.Pearson), num(s.RMSE), num(s.MAE))
	splits.SetFooter(footer)
	splits.Render()

	if r.Mode != featurespace.Discrete || s.Confusion == nil {
		return nil
	}

	fmt.Fprintln(w, "Confusion matrix (rows: actual, columns: predicted)")
	cm := tablewriter.NewWriter(w)
	cm.SetHeader(append(append([]string{""}, s.ClassNames...), "Accuracy"))
	cm.SetAlignment(tablewriter.ALIGN_RIGHT)
	n := len(s.ClassNames)
	for i := 0; i < n; i++ {
		row := []string{s.ClassNames[i]}
		for j := 0; j < n; j++ {
			row = append(row, strconv.Itoa(int(s.Confusion.At(i, j))))
		}
		row = append(row, num(s.PerClassAccuracy[i]))
		cm.Append(row)
	}
	cm.Render()
	return nil
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
