package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gotest.tools/assert"
)

func sampleImages(n int) *Images {
	d := &Images{X: mat.NewDense(n, 12, nil), Labels: make([]int32, n), Classes: NumClasses, Height: 3, Width: 4}
	for i := 0; i < n; i++ {
		d.Labels[i] = int32(i % NumClasses)
		for j := 0; j < 12; j++ {
			d.X.Set(i, j, float64((i+j)%256)/255)
		}
	}
	return d
}

func TestIDXRoundTrip(t *testing.T) {
	for _, ext := range []string{"", ".gz"} {
		dir := t.TempDir()
		src := sampleImages(25)
		assert.NilError(t, WriteIDX(dir, "img"+ext, "lab"+ext, src))
		res, err := LoadIDX(dir, "img", "lab")
		assert.NilError(t, err)
		assert.Equal(t, res.Height, 3)
		assert.Equal(t, res.Width, 4)
		assert.DeepEqual(t, res.Labels, src.Labels)
		assert.Assert(t, mat.EqualApprox(res.X, src.X, 1e-9))
		m := res.Image(5)
		assert.Equal(t, m.Bounds().Dx(), 4)
		assert.Equal(t, m.Bounds().Dy(), 3)
	}
}

func TestIDXBadMagic(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, WriteIDX(dir, "img", "lab", sampleImages(3)))
	// swap the files so the magic numbers are wrong
	_, err := LoadIDX(dir, "lab", "img")
	assert.Assert(t, errors.Cause(err) == ErrDataUnavailable, err)
}

// write IDX headers with the given counts and no data
func writeHeaders(t *testing.T, dir string, nlabels, nimages, h, w uint32) {
	t.Helper()
	f, err := Create(filepath.Join(dir, "lab"))
	assert.NilError(t, err)
	assert.NilError(t, writeAll(f, labelHeader{Magic: labelMagic, Num: nlabels}, make([]byte, nlabels)))
	f, err = Create(filepath.Join(dir, "img"))
	assert.NilError(t, err)
	assert.NilError(t, writeAll(f, imageHeader{Magic: imageMagic, Num: nimages, Height: h, Width: w}, nil))
}

func TestIDXMalformedHeader(t *testing.T) {
	for _, c := range []struct {
		name                   string
		nlabels, nimages, h, w uint32
	}{
		{"zero count", 0, 0, 28, 28},
		{"zero images", 2, 0, 28, 28},
		{"zero height", 2, 2, 0, 28},
		{"huge image", 2, 2, 1 << 16, 1 << 16},
		{"truncated", 2, 1 << 30, 28, 28},
		{"short labels", 1 << 30, 2, 28, 28},
	} {
		dir := t.TempDir()
		if c.name == "short labels" {
			f, err := Create(filepath.Join(dir, "lab"))
			assert.NilError(t, err)
			assert.NilError(t, writeAll(f, labelHeader{Magic: labelMagic, Num: c.nlabels}, make([]byte, 5)))
		} else {
			writeHeaders(t, dir, c.nlabels, c.nimages, c.h, c.w)
		}
		_, err := LoadIDX(dir, "img", "lab")
		assert.Assert(t, errors.Cause(err) == ErrDataUnavailable, "%s: %v", c.name, err)
	}
}

func TestMNISTMissing(t *testing.T) {
	_, _, err := LoadMNIST(t.TempDir())
	assert.Assert(t, errors.Cause(err) == ErrDataUnavailable, err)
}

func TestMNISTSplit(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, WriteIDX(dir, "train-images-idx3-ubyte", "train-labels-idx1-ubyte", sampleImages(50)))
	assert.NilError(t, WriteIDX(dir, "t10k-images-idx3-ubyte.gz", "t10k-labels-idx1-ubyte.gz", sampleImages(10)))
	m, err := LoadMNISTSplit(dir, 0.8, 4826)
	assert.NilError(t, err)
	assert.Equal(t, m.Train.Len(), 40)
	assert.Equal(t, m.Valid.Len(), 10)
	assert.Equal(t, m.Test.Len(), 10)
}

func TestOpenPrefersPlain(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "f")
	assert.NilError(t, os.WriteFile(name, []byte("plain"), 0644))
	f, err := Open(name)
	assert.NilError(t, err)
	f.Close()
}
