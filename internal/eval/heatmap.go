package eval

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// matrixGrid adapts a confusion matrix to plotter.GridXYZ.
type matrixGrid struct {
	m [][]int
}

func (g matrixGrid) Dims() (c, r int)   { return len(g.m), len(g.m) }
func (g matrixGrid) Z(c, r int) float64 { return float64(g.m[r][c]) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

// RenderHeatmap writes the confusion matrix as a heatmap PNG. Rendering is a
// soft step: callers log failures and move on, the textual reports are the
// canonical output.
func RenderHeatmap(res *Result, path string) error {
	p := plot.New()
	p.Title.Text = "Confusion Matrix (Price Buckets)"
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"

	h := plotter.NewHeatMap(matrixGrid{m: res.Matrix}, palette.Heat(12, 1))
	p.Add(h)

	if err := p.Save(6*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}
	return nil
}
