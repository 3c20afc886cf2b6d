package experiment

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/scoring"
)

// NeverTested marks samples that no split put in its test set.
const NeverTested = "never tested"

const reportRule = "================================================================================"

type sampleKey struct{ group, tile int }

type sampleEntry struct {
	name  string
	batch []int
	preds []scoring.SamplePrediction
}

// PerSampleStatistics writes the per-sample report: a 3-line header, then
// for every sample an identity line and a summary line followed by one line
// per split that tested it. Samples are listed in source table order when
// the driver recorded them, otherwise in order of first prediction.
//
// The report has exactly 3 + 2·samples + Σ test sizes lines.
func (r *Result) PerSampleStatistics(w io.Writer) error {
	if r.State() == Empty {
		return errors.NewNotReadyError("ExperimentResult", "PerSampleStatistics", "no batch results collected")
	}
	if err := r.GenerateStats(); err != nil {
		return err
	}

	var order []sampleKey
	entries := make(map[sampleKey]*sampleEntry)
	add := func(k sampleKey, name string) *sampleEntry {
		e, ok := entries[k]
		if !ok {
			e = &sampleEntry{name: name}
			entries[k] = e
			order = append(order, k)
		}
		return e
	}
	for _, s := range r.samples {
		add(sampleKey{s.GroupID, s.TileIndex}, s.Name)
	}
	for _, b := range r.batches {
		for _, p := range b.Predictions {
			e := add(sampleKey{p.GroupID, p.TileIndex}, p.Name)
			e.batch = append(e.batch, b.Index)
			e.preds = append(e.preds, p)
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, reportRule)
	fmt.Fprintf(bw, "Per-sample statistics: %s (%s, %s, %d splits, %d samples)\n",
		r.Name, r.Mode, r.Method, len(r.batches), len(order))
	fmt.Fprintln(bw, reportRule)

	for _, k := range order {
		e := entries[k]
		fmt.Fprintf(bw, "%s (group %d, tile %d)\n", e.name, k.group, k.tile)
		fmt.Fprintf(bw, "    %s\n", r.summarize(e))
		for i, p := range e.preds {
			fmt.Fprintf(bw, "        split %3d: %s\n", e.batch[i], r.describe(p))
		}
	}
	return bw.Flush()
}

// PerSampleStatisticsString returns the report as a string.
func (r *Result) PerSampleStatisticsString() (string, error) {
	var b strings.Builder
	if err := r.PerSampleStatistics(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (r *Result) className(k int) string {
	names := r.stats.ClassNames
	if k < 0 || k >= len(names) {
		return "UNKNOWN"
	}
	return names[k]
}

// summarize renders the aggregate of every prediction of one sample.
func (r *Result) summarize(e *sampleEntry) string {
	if len(e.preds) == 0 {
		return NeverTested
	}
	var b strings.Builder
	first := e.preds[0]
	fmt.Fprintf(&b, "tested %d time(s)", len(e.preds))

	if r.Mode == featurespace.Discrete {
		counts := make(map[int]int)
		correct := 0
		for _, p := range e.preds {
			counts[p.PredictedClass]++
			if p.Correct() {
				correct++
			}
		}
		majority := -1
		for k, c := range counts {
			if majority < 0 || c > counts[majority] || (c == counts[majority] && k < majority) {
				majority = k
			}
		}
		fmt.Fprintf(&b, ", actual %s, most often predicted %s, correct %d/%d",
			r.className(first.ActualClass), r.className(majority), correct, len(e.preds))
	}

	var values []float64
	for _, p := range e.preds {
		if p.HasPredictedValue {
			values = append(values, p.PredictedValue)
		}
	}
	if len(values) > 0 {
		mean, _ := stats.Mean(values)
		std, _ := stats.StandardDeviation(values)
		median, _ := stats.Median(values)
		if first.HasGroundTruth {
			fmt.Fprintf(&b, ", ground truth %.4g", first.GroundTruth)
		}
		fmt.Fprintf(&b, ", predicted mean %.4g std %.4g median %.4g", mean, std, median)
	}
	return b.String()
}

// describe renders one per-split prediction.
func (r *Result) describe(p scoring.SamplePrediction) string {
	var b strings.Builder
	if r.Mode == featurespace.Discrete {
		mark := "incorrect"
		if p.Correct() {
			mark = "correct"
		}
		fmt.Fprintf(&b, "predicted %s (%s)", r.className(p.PredictedClass), mark)
		if p.PredictedClass >= 0 && p.PredictedClass < len(p.MarginalProbabilities) {
			fmt.Fprintf(&b, " p=%.3f", p.MarginalProbabilities[p.PredictedClass])
		}
		if p.HasPredictedValue {
			fmt.Fprintf(&b, " value %.4g", p.PredictedValue)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "predicted %.4g", p.PredictedValue)
	if p.HasGroundTruth {
		fmt.Fprintf(&b, " (ground truth %.4g, error %+.4g)", p.GroundTruth, p.PredictedValue-p.GroundTruth)
	}
	return b.String()
}
