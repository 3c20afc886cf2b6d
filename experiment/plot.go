package experiment

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// PredictionPlot returns a scatter plot of ground truth against predicted
// value for every prediction that has both, with the identity line for
// reference. The caller saves or embeds it.
func (r *Result) PredictionPlot() (*plot.Plot, error) {
	var xys plotter.XYs
	for _, b := range r.batches {
		for _, p := range b.Predictions {
			if p.HasGroundTruth && p.HasPredictedValue {
				xys = append(xys, plotter.XY{X: p.GroundTruth, Y: p.PredictedValue})
			}
		}
	}
	if len(xys) == 0 {
		return nil, errors.NewNotReadyError("ExperimentResult", "PredictionPlot", "no prediction has both a ground truth and a predicted value")
	}

	p := plot.New()
	p.Title.Text = r.Name
	p.X.Label.Text = "ground truth"
	p.Y.Label.Text = "predicted value"

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = color.RGBA{R: 20, G: 80, B: 200, A: 200}
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc)
	p.Legend.Add(string(r.Method), sc)

	lo, hi := xys[0].X, xys[0].X
	for _, xy := range xys {
		lo = min(lo, xy.X, xy.Y)
		hi = max(hi, xy.X, xy.Y)
	}
	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, err
	}
	identity.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	identity.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(identity, plotter.NewGrid())
	return p, nil
}
