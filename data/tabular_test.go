package data

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gotest.tools/assert"
)

func sampleTabular(n int) *Tabular {
	rng := rand.New(rand.NewSource(99))
	t := &Tabular{X: randMatrix(n, 3, rng), Y: make([]float64, n)}
	for i := range t.Y {
		t.Y[i] = rng.NormFloat64()
	}
	return t
}

func TestTabularRoundTrip(t *testing.T) {
	for _, ext := range []string{"", ".gz", ".xz"} {
		dir := t.TempDir()
		src := sampleTabular(20)
		assert.NilError(t, SaveTabular(dir, "x.npy"+ext, "y.npy"+ext, src))
		res, err := LoadTabular(dir, "x.npy", "y.npy")
		assert.NilError(t, err, "ext=%q", ext)
		assert.Assert(t, mat.Equal(res.X, src.X), "ext=%q", ext)
		assert.DeepEqual(t, res.Y, src.Y)
		assert.Equal(t, res.Features(), 3)
	}
}

func TestTabularMissing(t *testing.T) {
	_, err := LoadTabular(t.TempDir(), "x.npy", "y.npy")
	assert.Assert(t, errors.Cause(err) == ErrDataUnavailable, err)
}

func TestTabularMalformed(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "x.npy"), []byte("not an array"), 0644))
	_, err := LoadTabular(dir, "x.npy", "y.npy")
	assert.Assert(t, errors.Cause(err) == ErrDataUnavailable, err)
}

func TestTabularShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	src := sampleTabular(10)
	assert.NilError(t, writeNpy(filepath.Join(dir, "x.npy"), src.X))
	assert.NilError(t, writeNpy(filepath.Join(dir, "y.npy"), src.Y[:5]))
	_, err := LoadTabular(dir, "x.npy", "y.npy")
	assert.Assert(t, errors.Cause(err) == ErrShapeMismatch, err)
}

func TestLoadQSAR(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, SaveTabular(dir, QSARFeatures, QSARLabels, sampleTabular(100)))
	q, err := LoadQSAR(dir, 0.7, 1234)
	assert.NilError(t, err)
	assert.Equal(t, q.Train.Len(), 70)
	assert.Equal(t, q.Test.Len(), 30)
	assert.Equal(t, len(q.Scaler.Mean), 3)
}
