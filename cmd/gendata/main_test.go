package main

import (
	"math/rand"
	"testing"

	"github.com/jnb666/mlbench/data"
	"gotest.tools/assert"
)

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1))
	assert.NilError(t, data.SaveTabular(dir, data.QSARFeatures, data.QSARLabels, solubility(60, 4, rng)))
	q, err := data.LoadQSAR(dir, 0.5, 1234)
	assert.NilError(t, err)
	assert.Equal(t, q.Train.Len(), 30)
	assert.Equal(t, q.Train.Features(), 4)

	d := digits(30, rng)
	assert.NilError(t, data.WriteIDX(dir, "train-images-idx3-ubyte.xz", "train-labels-idx1-ubyte.xz", d))
	assert.NilError(t, data.WriteIDX(dir, "t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte", digits(10, rng)))
	train, test, err := data.LoadMNIST(dir)
	assert.NilError(t, err)
	assert.DeepEqual(t, train.Labels, d.Labels)
	assert.Equal(t, test.Len(), 10)
	assert.Equal(t, train.Width, 28)
}
