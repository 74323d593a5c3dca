package data

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Split generates a random permutation of n row indexes from the given seed and partitions it
// so that the first round(n*frac) indexes are returned as train and the remainder as test.
// The same seed and n always give the same split.
func Split(n int, frac float64, seed int64) (train, test []int, err error) {
	if !(frac > 0 && frac < 1) {
		return nil, nil, errors.Wrapf(ErrInvalidFraction, "got %g", frac)
	}
	if n < 0 {
		return nil, nil, errors.Errorf("split: negative row count %d", n)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	ntrain := int(math.Round(float64(n) * frac))
	if ntrain > n {
		ntrain = n
	}
	return perm[:ntrain], perm[ntrain:], nil
}

// Rows copies the rows of m with the given indexes to a new matrix.
func Rows(m mat.Matrix, idx []int) *mat.Dense {
	_, cols := m.Dims()
	if len(idx) == 0 {
		return &mat.Dense{}
	}
	res := mat.NewDense(len(idx), cols, nil)
	row := make([]float64, cols)
	for i, ix := range idx {
		res.SetRow(i, mat.Row(row, ix, m))
	}
	return res
}

// Values gathers the elements of v with the given indexes.
func Values(v []float64, idx []int) []float64 {
	res := make([]float64, len(idx))
	for i, ix := range idx {
		res[i] = v[ix]
	}
	return res
}

// Labels gathers the class labels with the given indexes.
func Labels(l []int32, idx []int) []int32 {
	res := make([]int32, len(idx))
	for i, ix := range idx {
		res[i] = l[ix]
	}
	return res
}
