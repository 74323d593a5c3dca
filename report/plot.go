package report

import (
	"bytes"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jnb666/mlbench/data"
	"github.com/jnb666/mlbench/img"
	"github.com/jnb666/mlbench/nnet"
	"github.com/jnb666/mlbench/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgsvg"
)

// number of epochs averaged in the smoothed validation loss line
const smoothEpochs = 5

// LossPlot plots the training and validation loss against epoch. Longer runs also get a
// smoothed validation loss curve.
func LossPlot(h nnet.History) (*plot.Plot, error) {
	p := newPlot("loss")
	series := map[string][]float64{"training loss": h.TrainLoss()}
	names := []string{"training loss"}
	if len(h) > 0 && h[0].Valid {
		series["validation loss"] = h.ValidLoss()
		names = append(names, "validation loss")
		if len(h) > 2*smoothEpochs {
			series["smoothed"] = h.Smoothed(smoothEpochs)
			names = append(names, "smoothed")
		}
	}
	for i, name := range names {
		line, err := newLine(series[name], i)
		if err != nil {
			return nil, err
		}
		if line == nil {
			continue
		}
		p.Add(line)
		p.Legend.Add(name, line)
	}
	return p, nil
}

// AccuracyPlot plots the validation accuracy as a percentage against epoch.
func AccuracyPlot(h nnet.History) (*plot.Plot, error) {
	p := newPlot("accuracy %")
	acc := h.ValidMetric()
	for i := range acc {
		acc[i] *= 100
	}
	line, err := newLine(acc, 2)
	if err != nil || line == nil {
		return p, err
	}
	p.Add(line)
	p.Legend.Add("validation accuracy", line)
	return p, nil
}

// ConfusionPlot draws the confusion matrix as a heat map with the counts overlaid.
func ConfusionPlot(c *stats.Confusion) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "confusion matrix"
	p.X.Label.Text = "predicted"
	p.Y.Label.Text = "true"
	cmap := moreland.SmoothBlueRed()
	cmap.SetMax(1)
	cmap.SetMin(0)
	heat := plotter.NewHeatMap(confusionGrid{c}, cmap.Palette(64))
	if heat.Max == heat.Min {
		heat.Max++
	}
	p.Add(heat)

	var labels plotter.XYLabels
	for i, row := range c.Counts {
		for j, n := range row {
			labels.XYs = append(labels.XYs, plotter.XY{X: float64(j), Y: float64(i)})
			labels.Labels = append(labels.Labels, fmt.Sprint(n))
		}
	}
	text, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, errors.Wrap(err, "confusion labels")
	}
	p.Add(text)
	ticks := make([]plot.Tick, len(c.Classes))
	for i, name := range c.Classes {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	return p, nil
}

// grid adapter for the heat map, row i is true class i
type confusionGrid struct {
	*stats.Confusion
}

func (g confusionGrid) Dims() (c, r int)   { return len(g.Counts), len(g.Counts) }
func (g confusionGrid) Z(c, r int) float64 { return float64(g.Counts[r][c]) }
func (g confusionGrid) X(c int) float64    { return float64(c) }
func (g confusionGrid) Y(r int) float64    { return float64(r) }

// Misclassified returns a grid of up to n test images where pred differs from the label,
// each drawn with the error highlighted.
func Misclassified(d *data.Images, pred []int32, n, cols int) (image.Image, []int, error) {
	if len(pred) != d.Len() {
		return nil, nil, errors.Errorf("misclassified: %d predictions for %d images", len(pred), d.Len())
	}
	var idx []int
	var images []image.Image
	for i, p := range pred {
		if len(idx) >= n {
			break
		}
		if p != d.Labels[i] {
			idx = append(idx, i)
			images = append(images, img.Scale(d.Thumbnail(i, p), 2))
		}
	}
	if cols <= 0 {
		cols = 10
	}
	if len(images) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil, nil
	}
	return img.Grid(images, cols, 2, color.White), idx, nil
}

// Save writes the plot to file, the format is taken from the extension.
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return errors.Wrapf(p.Save(width, height, path), "save %s", path)
}

// SaveImage writes m to file in PNG format.
func SaveImage(m image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = png.Encode(f, m); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return f.Close()
}

// SVG renders the plot for embedding in a web page, width and height are in pixels.
func SVG(p *plot.Plot, w, h int) (template.HTML, error) {
	var buf bytes.Buffer
	writer, err := p.WriterTo(vg.Inch*vg.Length(w)/vgsvg.DPI, vg.Inch*vg.Length(h)/vgsvg.DPI, "svg")
	if err != nil {
		return "", errors.Wrap(err, "writing plot")
	}
	if _, err = writer.WriteTo(&buf); err != nil {
		return "", err
	}
	// drop the xml header so the output can be inlined
	s := buf.String()
	if i := strings.Index(s, "<svg"); i > 0 {
		s = s[i:]
	}
	return template.HTML(s), nil
}

func newPlot(ylabel string) *plot.Plot {
	p := plot.New()
	p.X.Padding, p.Y.Padding = 0, 0
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = ylabel
	p.X.Tick.Label.Font.Size = 10
	p.Y.Tick.Label.Font.Size = 10
	p.Legend.Top = true
	p.Legend.TextStyle.Font.Size = 12
	p.Add(plotter.NewGrid())
	return p
}

// newLine returns nil if there are no finite values to plot.
func newLine(vals []float64, ix int) (*plotter.Line, error) {
	pts := make(plotter.XYs, 0, len(vals))
	for i, v := range vals {
		// skip epochs where training diverged
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			pts = append(pts, plotter.XY{X: float64(i + 1), Y: v})
		}
	}
	if len(pts) == 0 {
		return nil, nil
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "line plot")
	}
	l.Width = 2
	l.Color = plotutil.Color(ix)
	return l, nil
}
