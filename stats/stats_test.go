package stats

import (
	"math"
	"testing"

	"gotest.tools/assert"
)

func TestMSE(t *testing.T) {
	assert.Equal(t, MSE([]float64{1, 2, 3}, []float64{1, 2, 3}), 0.0)
	assert.Equal(t, MSE([]float64{0, 0}, []float64{1, 3}), 5.0)
}

func TestAccuracy(t *testing.T) {
	acc := Accuracy([]int32{1, 2, 3, 4}, []int32{1, 2, 0, 0})
	assert.Equal(t, acc, 0.5)
}

func TestConfusion(t *testing.T) {
	truth := []int32{0, 0, 1, 1, 1, 2, 2, 2, 2}
	pred := []int32{0, 1, 1, 1, 2, 2, 2, 0, 2}
	c, err := ConfusionMatrix(3, truth, pred)
	assert.NilError(t, err)
	t.Logf("confusion:\n%s", c)
	assert.DeepEqual(t, c.Counts, [][]int{{1, 1, 0}, {0, 2, 1}, {1, 0, 3}})
	// row sums are the number of samples in each true class
	assert.DeepEqual(t, c.RowSums(), []int{2, 3, 4})
	assert.Equal(t, c.Total(), len(truth))
	// trace over total is the accuracy
	assert.Equal(t, c.Accuracy(), Accuracy(pred, truth))
	assert.Equal(t, c.Trace(), 6)
}

func TestConfusionErrors(t *testing.T) {
	_, err := ConfusionMatrix(3, []int32{0, 1}, []int32{0})
	assert.ErrorContains(t, err, "labels")
	_, err = ConfusionMatrix(3, []int32{0, 3}, []int32{0, 1})
	assert.ErrorContains(t, err, "out of range")
}

func TestAverage(t *testing.T) {
	var a Average
	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		a.Add(x)
	}
	assert.Equal(t, a.Mean, 5.0)
	assert.Equal(t, a.Count, 8)
	assert.Equal(t, a.Min, 2.0)
	assert.Equal(t, a.Max, 9.0)
	if math.Abs(a.StdDev-2.138089935) > 1e-6 {
		t.Error("stddev =", a.StdDev)
	}
	assert.Equal(t, string(a.HTML()), "5.00&PlusMinus;2.14")

	var b Average
	b.Add(12)
	b.Add(12)
	assert.Equal(t, string(b.HTML()), "12.0")
}

func TestEMA(t *testing.T) {
	e := EMA{N: 3}
	assert.Equal(t, e.Add(10), 10.0)
	assert.Equal(t, e.Add(20), 15.0)
	assert.Equal(t, e.Value, 15.0)
}
