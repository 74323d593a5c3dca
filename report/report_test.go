package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jnb666/mlbench/data"
	"github.com/jnb666/mlbench/estimator"
	"github.com/jnb666/mlbench/nnet"
	"github.com/jnb666/mlbench/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
	"gotest.tools/assert"
)

func history() nnet.History {
	var h nnet.History
	for i := 1; i <= 5; i++ {
		h = append(h, nnet.Stats{Epoch: i, TrainLoss: 1 / float64(i), ValidLoss: 1.2 / float64(i),
			ValidMetric: 0.5 + 0.08*float64(i), Valid: true, Elapsed: time.Duration(i) * time.Second})
	}
	return h
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []estimator.Result{
		{Name: "linear regression", TrainMSE: 0.98765, TestMSE: 1.0004},
		{Name: "forest", TrainMSE: 0.1, TestMSE: 0.5},
	})
	t.Log("\n" + buf.String())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, len(lines), 4)
	assert.Assert(t, strings.Contains(lines[2], "0.988"))
	assert.Assert(t, strings.Contains(lines[2], "1.000"))
	assert.Assert(t, strings.HasPrefix(lines[3], "forest "))
}

func TestPrintConfusion(t *testing.T) {
	c, err := stats.ConfusionMatrix(3, []int32{0, 1, 2, 2}, []int32{0, 1, 1, 2})
	assert.NilError(t, err)
	var buf bytes.Buffer
	PrintConfusion(&buf, c)
	t.Log("\n" + buf.String())
	assert.Assert(t, strings.Contains(buf.String(), "accuracy = 75.00% (3 of 4)"))

	buf.Reset()
	PrintHistory(&buf, history(), true)
	assert.Equal(t, strings.Count(buf.String(), "\n"), 6)
}

func TestPlots(t *testing.T) {
	dir := t.TempDir()
	p, err := LossPlot(history())
	assert.NilError(t, err)
	assert.NilError(t, Save(p, filepath.Join(dir, "loss.png"), 4*vg.Inch, 3*vg.Inch))
	p, err = AccuracyPlot(history())
	assert.NilError(t, err)
	assert.NilError(t, Save(p, filepath.Join(dir, "acc.svg"), 4*vg.Inch, 3*vg.Inch))

	c, err := stats.ConfusionMatrix(3, []int32{0, 1, 2, 2, 0}, []int32{0, 1, 1, 2, 0})
	assert.NilError(t, err)
	p, err = ConfusionPlot(c)
	assert.NilError(t, err)
	svg, err := SVG(p, 400, 400)
	assert.NilError(t, err)
	assert.Assert(t, strings.HasPrefix(string(svg), "<svg"))

	for _, name := range []string{"loss.png", "acc.svg"} {
		info, err := os.Stat(filepath.Join(dir, name))
		assert.NilError(t, err)
		assert.Assert(t, info.Size() > 0)
	}
}

func TestPlotDiverged(t *testing.T) {
	h := history()
	h[2].TrainLoss, h[2].ValidLoss = math.NaN(), math.Inf(1)
	for i := 3; i < len(h); i++ {
		h[i].TrainLoss, h[i].ValidLoss, h[i].ValidMetric = math.NaN(), math.NaN(), math.NaN()
	}
	dir := t.TempDir()
	p, err := LossPlot(h)
	assert.NilError(t, err)
	assert.NilError(t, Save(p, filepath.Join(dir, "loss.png"), 4*vg.Inch, 3*vg.Inch))
	p, err = AccuracyPlot(h)
	assert.NilError(t, err)
	_, err = SVG(p, 300, 200)
	assert.NilError(t, err)
}

func TestMisclassified(t *testing.T) {
	d := &data.Images{X: mat.NewDense(4, 4, nil), Labels: []int32{0, 1, 2, 3}, Classes: 4, Height: 2, Width: 2}
	m, idx, err := Misclassified(d, []int32{0, 2, 2, 1}, 10, 5)
	assert.NilError(t, err)
	assert.DeepEqual(t, idx, []int{1, 3})
	// two 4x4 thumbnails with a 2 pixel border
	assert.Equal(t, m.Bounds().Dx(), 2*6+2)
	assert.Equal(t, m.Bounds().Dy(), 6+2)
	assert.NilError(t, SaveImage(m, filepath.Join(t.TempDir(), "errors.png")))

	_, _, err = Misclassified(d, []int32{0}, 10, 5)
	assert.ErrorContains(t, err, "predictions")
}
